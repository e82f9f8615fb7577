// Package commands wires up taskframectl's cobra command tree, grounded
// on cmd/holt/commands/root.go's setup.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var rootCmd = &cobra.Command{
	Use:   "taskframectl",
	Short: "taskframectl - operator CLI for a running task framework job",
	Long: `taskframectl inspects a Master-Task-Blackboard job running against a
shared Redis instance: its group size and each rank's inbox depth. It does
not show worker states, tail the run log, or send shutdown requests.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo records build metadata shown by --version.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

var (
	flagInstanceName string
	flagRedisURL     string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagInstanceName, "name", "n", "", "Job instance name")
	rootCmd.PersistentFlags().StringVarP(&flagRedisURL, "redis-url", "r", "redis://localhost:6379/0", "Redis connection URL")
}
