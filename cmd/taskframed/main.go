// taskframed is the per-rank process entry point. Every process in a job
// — controller, blackboard, and every worker — runs this same binary,
// differing only by the rank and size env vars the launcher sets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/ratchet-sh/taskframe/internal/adapter"
	"github.com/ratchet-sh/taskframe/internal/config"
	"github.com/ratchet-sh/taskframe/internal/health"
	"github.com/ratchet-sh/taskframe/internal/masterproc"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

func main() {
	instanceName := os.Getenv("TASKFRAME_INSTANCE")
	redisURL := os.Getenv("REDIS_URL")
	configPath := os.Getenv("TASKFRAME_CONFIG")
	rankStr := os.Getenv("TASKFRAME_RANK")
	sizeStr := os.Getenv("TASKFRAME_SIZE")

	if instanceName == "" || redisURL == "" || configPath == "" || rankStr == "" || sizeStr == "" {
		fmt.Fprintf(os.Stderr, "Error: TASKFRAME_INSTANCE, REDIS_URL, TASKFRAME_CONFIG, TASKFRAME_RANK and TASKFRAME_SIZE must be set\n")
		os.Exit(1)
	}

	rank, err := strconv.Atoi(rankStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid TASKFRAME_RANK: %v\n", err)
		os.Exit(1)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid TASKFRAME_SIZE: %v\n", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid REDIS_URL: %v\n", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	manifest, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load job manifest: %v\n", err)
		os.Exit(1)
	}

	t := transport.NewRedisTransport(rdb, instanceName, transport.Rank(rank), size)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	var healthServer *health.Server
	if transport.Rank(rank) == transport.Controller || transport.Rank(rank) == transport.Blackboard {
		healthServer = health.New(rdb, nil)
		if err := healthServer.Start(healthAddr()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: health server failed to start: %v\n", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- masterproc.Run(runCtx, masterproc.Options{
			Transport:   t,
			Manifest:    manifest,
			Diagnostics: os.Stderr,
			Adapter: func() adapter.TaskAdapter {
				return adapter.NewCommandAdapter(t.ProcessName(), firstArgOrDefault(manifest.WorkerArgs))
			},
		})
	}()

	select {
	case sig := <-sigCh:
		fmt.Printf("Received signal %v, shutting down gracefully...\n", sig)
		cancel()
		<-errCh
	case runErr := <-errCh:
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "taskframed error: %v\n", runErr)
			if healthServer != nil {
				healthServer.Shutdown(context.Background())
			}
			os.Exit(1)
		}
	}

	if healthServer != nil {
		healthServer.Shutdown(context.Background())
	}
	fmt.Printf("taskframed (%s) stopped\n", t.ProcessName())
}

func healthAddr() string {
	if addr := os.Getenv("TASKFRAME_HEALTH_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

// firstArgOrDefault picks the worker command out of WorkerArgs' first
// entry; a real deployment configures this per-agent rather than
// hardcoding a path.
func firstArgOrDefault(args []string) string {
	if len(args) == 0 {
		return "/bin/true"
	}
	return args[0]
}
