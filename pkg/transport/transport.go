package transport

import (
	"context"
	"time"
)

// Envelope is a received message: its routing (source, tag) plus body.
// A zero-byte control message has a nil or empty Body; the tag alone
// carries its semantics.
type Envelope struct {
	Source Rank
	Tag    MsgTag
	Body   []byte
}

// SendRequest is a handle to an outstanding asynchronous send, returned by
// ISend and consumed by WaitAll.
type SendRequest interface {
	// Tag, Dest identify the send for error reporting from WaitAll.
	Tag() MsgTag
	Dest() Rank
}

// Timer is a monotonic wall-clock stopwatch, standing in for the
// original's MPI job timer.
type Timer interface {
	Start()
	Stop()
	// Elapsed returns the duration between Start and Stop (or "now" if
	// still running).
	Elapsed() time.Duration
}

// Transport is the tagged-message transport the framework's control-plane
// packages run on. MPI was the original instantiation; RedisTransport,
// backed by Redis lists as per-rank inboxes, is this repository's.
//
// Implementations must give messages between any two ranks sharing a tag
// FIFO delivery order. No ordering is required across different senders
// or different tags.
type Transport interface {
	// Init brings the transport up. Idempotent: calling Init twice is a
	// no-op returning nil the second time.
	Init(ctx context.Context) error

	// Finalize tears the transport down. Safe to call after Init failed.
	Finalize(ctx context.Context) error

	// Rank returns this process's rank within the job.
	Rank() Rank

	// Size returns the total number of processes in the job.
	Size() int

	// ProcessName returns a human-readable name for this process, used in
	// log lines and diagnostics.
	ProcessName() string

	// Send blocks until body has been delivered to dst tagged tag.
	Send(ctx context.Context, dst Rank, tag MsgTag, body []byte) error

	// Recv blocks until a message from src tagged tag arrives, then
	// consumes it and returns its envelope. src may be AnyRank and tag may
	// be AnyTag.
	Recv(ctx context.Context, src Rank, tag MsgTag) (Envelope, error)

	// ISend posts an asynchronous send and returns immediately. The
	// caller must eventually call WaitAll on the returned request (or
	// discard it only after the job is torn down).
	ISend(ctx context.Context, dst Rank, tag MsgTag, body []byte) (SendRequest, error)

	// WaitAll blocks until every request has completed, returning one
	// error per request (nil on success) in the same order.
	WaitAll(ctx context.Context, reqs []SendRequest) []error

	// Probe blocks until a message matching (src, tag) is available and
	// returns its envelope without consuming it — a subsequent Recv with
	// the same (src, tag) (or AnyRank/AnyTag) observes the same message.
	Probe(ctx context.Context, src Rank, tag MsgTag) (Envelope, error)

	// TryProbe is the non-blocking form of Probe: it reports ok=false
	// immediately if no matching message is queued.
	TryProbe(ctx context.Context, src Rank, tag MsgTag) (env Envelope, ok bool, err error)

	// Timer returns the job's wall-clock timer.
	Timer() Timer
}
