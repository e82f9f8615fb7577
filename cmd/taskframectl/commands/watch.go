package commands

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ratchet-sh/taskframe/internal/printer"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll a running job's inbox depths until interrupted",
	Long: `Reads a running job's group size once, then polls each rank's inbox
depth on a fixed interval, printing a line whenever a rank's depth changes.

There is no durable event stream in this framework the way a workflow
engine might have: STATE/LOG_MESSAGE traffic is consumed and discarded
as soon as the blackboard or controller handles it. Watch approximates
"real-time activity" by sampling the thing that IS durable, queue depth,
on a short interval rather than replaying a log it was never given.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 500*time.Millisecond, "Poll interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if flagInstanceName == "" {
		return printer.MissingJobName("watch")
	}

	opts, err := redis.ParseURL(flagRedisURL)
	if err != nil {
		return printer.InvalidRedisURL(err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx := cmd.Context()

	size, err := waitForGroupSize(ctx, rdb)
	if err != nil {
		return err
	}
	printer.Watching(size, flagInstanceName, watchInterval)

	last := make(map[transport.Rank]int64, size)
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for rank := 0; rank < size; rank++ {
				r := transport.Rank(rank)
				depth, err := rdb.LLen(ctx, transport.InboxKey(flagInstanceName, r)).Result()
				if err != nil {
					continue
				}
				if prev, ok := last[r]; !ok || prev != depth {
					printer.InboxDepthChanged(rank, roleName(r), prev, depth)
					last[r] = depth
				}
			}
		}
	}
}

func waitForGroupSize(ctx context.Context, rdb *redis.Client) (int, error) {
	sizeStr, err := rdb.Get(ctx, transport.GroupSizeKey(flagInstanceName)).Result()
	if err == redis.Nil {
		return 0, printer.JobNotFound(flagInstanceName)
	}
	if err != nil {
		return 0, printer.RedisUnreachable(err)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return 0, printer.CorruptGroupSize(err)
	}
	return size, nil
}
