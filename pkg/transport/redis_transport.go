package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// pollInterval is how often a blocking Recv/Probe re-scans its inbox list
// while waiting for a matching message. Redis gives us no server-side
// selective-match primitive over a list, so we poll; miniredis and real
// Redis both make this cheap enough for a control-plane whose message
// volume is "one state change per worker per transition", not a data path.
const pollInterval = 5 * time.Millisecond

// wireEnvelope is the JSON encoding of an Envelope as stored in a rank's
// inbox list. Body is base64'd by encoding/json's []byte handling.
type wireEnvelope struct {
	Source Rank   `json:"source"`
	Tag    MsgTag `json:"tag"`
	Body   []byte `json:"body"`
	Nonce  string `json:"nonce"`
}

// RedisTransport is the production Transport, backed by Redis lists used as
// per-rank FIFO inboxes. It is grounded on
// pkg/blackboard/client.go: a *redis.Client held alongside an instance name
// used to namespace every key (pkg/blackboard/schema.go), with every
// operation taking a context.Context the way that Client does.
//
// Send/Recv use one Redis list per destination rank rather than Pub/Sub,
// because Pub/Sub in Redis has no buffering: a message published while the
// destination isn't subscribed is lost, which the framework's request/reply
// exchanges (TagRequestStop, TagConfirmation, ...) cannot tolerate. A list
// gives durable point-to-point queuing with the same two-call shape
// (push to send, pop to receive) that client.go uses for its pub/sub events.
type RedisTransport struct {
	rdb          *redis.Client
	instanceName string
	rank         Rank
	size         int
	processName  string
	timer        *stopwatchTimer
}

// NewRedisTransport builds a RedisTransport for the given rank within a job
// of size processes, sharing instanceName as its Redis key namespace.
func NewRedisTransport(rdb *redis.Client, instanceName string, rank Rank, size int) *RedisTransport {
	name := rank.String()
	if rank >= FirstWorker {
		name = fmt.Sprintf("task-%d", WorkerSlot(rank)+1)
	}
	return &RedisTransport{
		rdb:          rdb,
		instanceName: instanceName,
		rank:         rank,
		size:         size,
		processName:  name,
		timer:        &stopwatchTimer{},
	}
}

// Init pings Redis to fail fast on a bad connection, mirroring client.go's
// NewClient dialing eagerly via Ping. On the controller it also records the
// job's process count under GroupSizeKey; other ranks write nothing, and no
// rank reads that key back (Size always returns the constructor's size).
func (t *RedisTransport) Init(ctx context.Context) error {
	if err := t.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("transport: redis ping: %w", err)
	}
	if t.rank == Controller {
		if err := t.rdb.Set(ctx, GroupSizeKey(t.instanceName), strconv.Itoa(t.size), 0).Err(); err != nil {
			return fmt.Errorf("transport: publish group size: %w", err)
		}
	}
	return nil
}

// Finalize drops this rank's own inbox; it leaves other ranks' inboxes and
// the group-size key alone since they may still be draining.
func (t *RedisTransport) Finalize(ctx context.Context) error {
	return t.rdb.Del(ctx, InboxKey(t.instanceName, t.rank)).Err()
}

func (t *RedisTransport) Rank() Rank            { return t.rank }
func (t *RedisTransport) Size() int              { return t.size }
func (t *RedisTransport) ProcessName() string    { return t.processName }
func (t *RedisTransport) Timer() Timer           { return t.timer }

func (t *RedisTransport) Send(ctx context.Context, dst Rank, tag MsgTag, body []byte) error {
	env := wireEnvelope{Source: t.rank, Tag: tag, Body: body, Nonce: uuid.NewString()}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("transport: marshal envelope: %w", err)
	}
	if err := t.rdb.RPush(ctx, InboxKey(t.instanceName, dst), raw).Err(); err != nil {
		return fmt.Errorf("transport: send to %s: %w", dst, err)
	}
	return nil
}

// redisSendRequest is always already complete: RPush is a single round
// trip, so ISend performs the send inline and WaitAll has nothing left to
// do but report the stored outcome.
type redisSendRequest struct {
	dest Rank
	tag  MsgTag
	err  error
}

func (r *redisSendRequest) Tag() MsgTag { return r.tag }
func (r *redisSendRequest) Dest() Rank  { return r.dest }

func (t *RedisTransport) ISend(ctx context.Context, dst Rank, tag MsgTag, body []byte) (SendRequest, error) {
	err := t.Send(ctx, dst, tag, body)
	return &redisSendRequest{dest: dst, tag: tag, err: err}, nil
}

func (t *RedisTransport) WaitAll(ctx context.Context, reqs []SendRequest) []error {
	errs := make([]error, len(reqs))
	for i, r := range reqs {
		if rr, ok := r.(*redisSendRequest); ok {
			errs[i] = rr.err
		}
	}
	return errs
}

func (t *RedisTransport) Recv(ctx context.Context, src Rank, tag MsgTag) (Envelope, error) {
	return t.wait(ctx, src, tag, true)
}

func (t *RedisTransport) Probe(ctx context.Context, src Rank, tag MsgTag) (Envelope, error) {
	return t.wait(ctx, src, tag, false)
}

func (t *RedisTransport) TryProbe(ctx context.Context, src Rank, tag MsgTag) (Envelope, bool, error) {
	env, idx, raw, err := t.scan(ctx, src, tag)
	if err != nil {
		return Envelope{}, false, err
	}
	if idx < 0 {
		return Envelope{}, false, nil
	}
	_ = raw
	return env, true, nil
}

// wait polls this rank's inbox until a message matching (src, tag) appears.
// When consume is true the matching entry is then removed from the list.
func (t *RedisTransport) wait(ctx context.Context, src Rank, tag MsgTag, consume bool) (Envelope, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		env, idx, raw, err := t.scan(ctx, src, tag)
		if err != nil {
			return Envelope{}, err
		}
		if idx >= 0 {
			if consume {
				if err := t.remove(ctx, idx, raw); err != nil {
					return Envelope{}, err
				}
			}
			return env, nil
		}
		select {
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// scan returns the first queued envelope matching (src, tag), its list
// index, and its raw encoding (needed to remove it later), or idx -1 if
// nothing matches yet.
func (t *RedisTransport) scan(ctx context.Context, src Rank, tag MsgTag) (Envelope, int, string, error) {
	key := InboxKey(t.instanceName, t.rank)
	items, err := t.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return Envelope{}, -1, "", fmt.Errorf("transport: scan inbox: %w", err)
	}
	for i, raw := range items {
		var env wireEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			continue
		}
		if (src == AnyRank || env.Source == src) && (tag == AnyTag || env.Tag == tag) {
			return Envelope{Source: env.Source, Tag: env.Tag, Body: env.Body}, i, raw, nil
		}
	}
	return Envelope{}, -1, "", nil
}

// remove deletes one occurrence of raw from this rank's inbox. It marks the
// element at idx with a unique tombstone first so that two structurally
// identical envelopes queued at once don't collide under LREM's
// value-based matching.
func (t *RedisTransport) remove(ctx context.Context, idx int, raw string) error {
	key := InboxKey(t.instanceName, t.rank)
	tombstone := "tombstone:" + uuid.NewString()
	if err := t.rdb.LSet(ctx, key, int64(idx), tombstone).Err(); err != nil {
		return fmt.Errorf("transport: mark consumed: %w", err)
	}
	if err := t.rdb.LRem(ctx, key, 1, tombstone).Err(); err != nil {
		return fmt.Errorf("transport: remove consumed: %w", err)
	}
	return nil
}
