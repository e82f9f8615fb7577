package transport

import "fmt"

// Redis key patterns used by RedisTransport. All keys are namespaced by
// instance name so that multiple jobs can share one Redis server, mirroring
// the per-instance namespacing convention of pkg/blackboard/schema.go.
//
// Key pattern: taskframe:{instance}:inbox:{rank}

// InboxKey returns the Redis key for a rank's message inbox list.
func InboxKey(instanceName string, rank Rank) string {
	return fmt.Sprintf("taskframe:%s:inbox:%d", instanceName, int(rank))
}

// GroupSizeKey returns the Redis key holding the job's registered process
// count, written by the controller during Init. Other ranks do not read it;
// taskframectl reads it to learn how many inboxes to inspect.
func GroupSizeKey(instanceName string) string {
	return fmt.Sprintf("taskframe:%s:size", instanceName)
}
