// Package printer renders taskframectl's CLI output: the handful of
// job-lookup failures every subcommand can hit, and the watch command's
// running commentary on group size and inbox depth. Color is applied
// only when NO_COLOR is unset.
package printer

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

func init() {
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	red  = color.New(color.FgRed, color.Bold)
	cyan = color.New(color.FgCyan)
)

func fail(title, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	fmt.Fprintf(os.Stderr, "%s\n", explanation)

	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, s := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
			}
		}
	}

	return fmt.Errorf("%s", title)
}

// MissingJobName reports that command was run without --name, the job's
// instance name every lookup keys off.
func MissingJobName(command string) error {
	return fail("Missing job name", fmt.Sprintf("taskframectl %s requires --name", command),
		[]string{"Pass --name/-n with the job's instance name"})
}

// InvalidRedisURL reports that --redis-url failed to parse.
func InvalidRedisURL(err error) error {
	return fail("Invalid --redis-url", err.Error(), nil)
}

// JobNotFound reports that no group size is recorded for instanceName,
// meaning either the job never started or the name doesn't match its
// manifest.
func JobNotFound(instanceName string) error {
	return fail("Job not found", fmt.Sprintf("No group size recorded for instance %q", instanceName),
		[]string{"Check the job is running and the name matches its manifest"})
}

// RedisUnreachable reports a transport-level failure talking to Redis.
func RedisUnreachable(err error) error {
	return fail("Failed to reach Redis", err.Error(), nil)
}

// CorruptGroupSize reports that the group size key held something other
// than an integer.
func CorruptGroupSize(err error) error {
	return fail("Corrupt group size", err.Error(), nil)
}

// StatusRenderFailed reports that the status table itself failed to
// render after every rank's depth was fetched successfully.
func StatusRenderFailed(err error) error {
	return fail("Failed to render status table", err.Error(), nil)
}

// Watching announces that watch has started polling size ranks of
// instanceName on the given interval.
func Watching(size int, instanceName string, interval time.Duration) {
	cyan.Printf("Watching %d ranks for instance %q (interval %s)\n", size, instanceName, interval)
}

// InboxDepthChanged prints one line noting that rank's inbox depth moved
// from oldDepth to newDepth, timestamped to the second the way watch's
// poll loop samples it.
func InboxDepthChanged(rank int, role string, oldDepth, newDepth int64) {
	fmt.Printf("[%s] rank %d (%s): inbox depth %d -> %d\n",
		time.Now().Format("15:04:05"), rank, role, oldDepth, newDepth)
}
