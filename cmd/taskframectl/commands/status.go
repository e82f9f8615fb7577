package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ratchet-sh/taskframe/internal/printer"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show each rank's role and inbox depth for a running job",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if flagInstanceName == "" {
		return printer.MissingJobName("status")
	}

	opts, err := redis.ParseURL(flagRedisURL)
	if err != nil {
		return printer.InvalidRedisURL(err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()

	sizeStr, err := rdb.Get(ctx, transport.GroupSizeKey(flagInstanceName)).Result()
	if err == redis.Nil {
		return printer.JobNotFound(flagInstanceName)
	}
	if err != nil {
		return printer.RedisUnreachable(err)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return printer.CorruptGroupSize(err)
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"Rank", "Role", "Inbox Depth"})
	for rank := 0; rank < size; rank++ {
		r := transport.Rank(rank)
		depth, err := rdb.LLen(ctx, transport.InboxKey(flagInstanceName, r)).Result()
		if err != nil {
			depth = -1
		}
		table.Append([]string{strconv.Itoa(rank), roleName(r), strconv.FormatInt(depth, 10)})
	}
	if err := table.Render(); err != nil {
		return printer.StatusRenderFailed(err)
	}
	return nil
}

func roleName(r transport.Rank) string {
	switch r {
	case transport.Controller:
		return "controller"
	case transport.Blackboard:
		return "blackboard"
	default:
		return fmt.Sprintf("task-%d", transport.WorkerSlot(r)+1)
	}
}
