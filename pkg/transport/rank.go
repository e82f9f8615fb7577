// Package transport defines the tagged-message transport that the
// Master-Task-Blackboard framework runs on, plus the one production
// implementation (a Redis-backed bus). The framework's control-plane
// packages depend only on the Transport interface in this package; they
// never import github.com/redis/go-redis/v9 directly.
package transport

import "fmt"

// Rank identifies a process uniquely within a job's process group.
type Rank int

// Well-known ranks. Every job reserves the first two ranks for the
// Controller and the Blackboard; workers start at FirstWorker.
const (
	Controller  Rank = 0
	Blackboard  Rank = 1
	FirstWorker Rank = 2

	// InvalidRank marks a rank that has not yet been assigned.
	InvalidRank Rank = -1

	// AnyRank matches any source rank when probing or receiving.
	AnyRank Rank = -2
)

// WorkerSlot converts a worker rank to its 0-based Tracker slot index.
// Panics if r is not a worker rank; callers must check first.
func WorkerSlot(r Rank) int {
	if r < FirstWorker {
		panic(fmt.Sprintf("transport: rank %d is not a worker rank", r))
	}
	return int(r - FirstWorker)
}

// RankForSlot is the inverse of WorkerSlot.
func RankForSlot(slot int) Rank {
	return FirstWorker + Rank(slot)
}

func (r Rank) String() string {
	switch r {
	case Controller:
		return "controller"
	case Blackboard:
		return "blackboard"
	case InvalidRank:
		return "invalid"
	case AnyRank:
		return "any"
	default:
		return fmt.Sprintf("worker(%d)", int(r))
	}
}
