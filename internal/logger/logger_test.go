package logger

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratchet-sh/taskframe/pkg/transport"
)

func newTransports(t *testing.T) (*transport.RedisTransport, *transport.RedisTransport) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	worker := transport.NewRedisTransport(rdb, "job1", transport.FirstWorker, 3)
	blackboard := transport.NewRedisTransport(rdb, "job1", transport.Blackboard, 3)
	return worker, blackboard
}

func TestLogger_MessageGoesToBlackboardUnderLogMessageTag(t *testing.T) {
	worker, blackboard := newTransports(t)
	ctx := context.Background()

	l := New(worker)
	l.MessageFor(ctx, "1", "started")

	env, err := blackboard.Recv(ctx, transport.FirstWorker, transport.TagLogMessage)
	require.NoError(t, err)
	assert.Contains(t, string(env.Body), "Tracker ID 1: started")
}

func TestLogger_WarningGoesToBlackboardUnderLogMessageTag(t *testing.T) {
	worker, blackboard := newTransports(t)
	ctx := context.Background()

	l := New(worker)
	l.Warning(ctx, "retrying")

	env, err := blackboard.Recv(ctx, transport.FirstWorker, transport.TagLogMessage)
	require.NoError(t, err)
	assert.Contains(t, string(env.Body), "Warning: retrying")
}

// TestLogger_ErrorGoesToBlackboardUnderErrorMessageTag checks that
// Logger.ErrorFor(ctx, "1", "boom") sends, under TagErrorMessage, a line
// containing "Tracker ID 1: ERROR: boom".
func TestLogger_ErrorGoesToBlackboardUnderErrorMessageTag(t *testing.T) {
	worker, blackboard := newTransports(t)
	ctx := context.Background()

	l := New(worker)
	l.ErrorFor(ctx, "1", "boom")

	env, err := blackboard.Recv(ctx, transport.FirstWorker, transport.TagErrorMessage)
	require.NoError(t, err)
	assert.Contains(t, string(env.Body), "Tracker ID 1: ERROR: boom")
}
