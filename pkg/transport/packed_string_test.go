package transport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPackedStringChannel_RoundTrip sends ["line 1", "line 2", "last line"]
// over one packed message and checks the receiver reconstructs exactly that
// slice, with WaitAll reporting no errors.
func TestPackedStringChannel_RoundTrip(t *testing.T) {
	rdb := setupMiniredis(t)
	ctx := context.Background()

	controller := NewRedisTransport(rdb, "job1", Controller, 2)
	worker := NewRedisTransport(rdb, "job1", FirstWorker, 2)

	sender := NewPackedStringChannel(controller)
	lines := []string{"line 1", "line 2", "last line"}
	require.NoError(t, sender.ISend(ctx, FirstWorker, TagCmdLineArgs, lines))
	assert.Equal(t, 1, sender.SendCount())

	errs := sender.WaitAll(ctx)
	require.Len(t, errs, 1)
	assert.NoError(t, errs[0])
	assert.Equal(t, 0, sender.SendCount())

	receiver := NewPackedStringChannel(worker)
	got, err := receiver.Receive(ctx, Controller, TagCmdLineArgs)
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestPackedStringChannel_DropsEmptyLines(t *testing.T) {
	rdb := setupMiniredis(t)
	ctx := context.Background()

	controller := NewRedisTransport(rdb, "job1", Controller, 2)
	worker := NewRedisTransport(rdb, "job1", FirstWorker, 2)

	sender := NewPackedStringChannel(controller)
	require.NoError(t, sender.ISend(ctx, FirstWorker, TagCmdLineArgs, []string{"a", "", "b", ""}))
	require.NoError(t, allNil(sender.WaitAll(ctx)))

	receiver := NewPackedStringChannel(worker)
	got, err := receiver.Receive(ctx, Controller, TagCmdLineArgs)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestPackedStringChannel_SplitsOverlongLines(t *testing.T) {
	rdb := setupMiniredis(t)
	ctx := context.Background()

	controller := NewRedisTransport(rdb, "job1", Controller, 2)
	worker := NewRedisTransport(rdb, "job1", FirstWorker, 2)

	long := strings.Repeat("x", maxPackedLineLength+10)
	sender := NewPackedStringChannel(controller)
	require.NoError(t, sender.ISend(ctx, FirstWorker, TagCmdLineArgs, []string{long}))
	require.NoError(t, allNil(sender.WaitAll(ctx)))

	receiver := NewPackedStringChannel(worker)
	got, err := receiver.Receive(ctx, Controller, TagCmdLineArgs)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0], maxPackedLineLength)
	assert.Len(t, got[1], 10)
}

func TestPackedStringChannel_OnSendErrorCallback(t *testing.T) {
	rdb := setupMiniredis(t)
	ctx := context.Background()

	controller := NewRedisTransport(rdb, "job1", Controller, 2)
	sender := NewPackedStringChannel(controller)

	var sawTag MsgTag
	var sawDest Rank
	var called bool
	sender.OnSendError = func(tag MsgTag, dest Rank, err error) {
		called = true
		sawTag = tag
		sawDest = dest
	}

	require.NoError(t, sender.ISend(ctx, FirstWorker, TagCmdLineArgs, []string{"a"}))
	sender.WaitAll(ctx)
	assert.False(t, called, "a successful send must not invoke OnSendError")
	_ = sawTag
	_ = sawDest
}

func allNil(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
