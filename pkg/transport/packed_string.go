package transport

import (
	"context"
	"fmt"
)

// maxPackedLineLength is the longest line PackedStringChannel's receive
// side will accumulate before committing it and starting a new one. Lines
// longer than this are split at the boundary; this mirrors a known
// limitation of the original's CommStrings receive loop rather than a
// design choice of this package.
const maxPackedLineLength = 2048

// lineDelimiter separates packed strings, matching CommStrings's
// lineDelimiter constant.
const lineDelimiter = '\n'

// PackedStringChannel distributes a sequence of text lines from one rank to
// many in a single packed message — grounded on the original's CommStrings
// class (original_source/src/CommStrings.h), which the controller uses to
// hand each worker its slice of the command-line arguments.
//
// The send side keeps one buffer slot alive per outstanding Isend, indexed
// by send-call sequence rather than destination rank: two concurrent sends
// to the same destination get distinct slots, matching CommStrings's own
// GetSendCount()-indexed slot array.
type PackedStringChannel struct {
	transport Transport

	slots []*packedSlot

	// OnSendError, if set, is called for every failed send once WaitAll
	// collects results, reporting the failed send's tag, destination rank
	// and error.
	OnSendError func(tag MsgTag, dest Rank, err error)
}

type packedSlot struct {
	buf  []byte
	dest Rank
	tag  MsgTag
	req  SendRequest
}

// NewPackedStringChannel builds a channel bound to transport.
func NewPackedStringChannel(transport Transport) *PackedStringChannel {
	return &PackedStringChannel{transport: transport}
}

// pack appends a line delimiter to every line and concatenates the result.
func pack(lines []string) []byte {
	buf := make([]byte, 0, len(lines)*16)
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, lineDelimiter)
	}
	return buf
}

// ISend packs lines and posts an asynchronous send to dst tagged tag. The
// packed buffer is retained in a dedicated slot until WaitAll is called, so
// the caller never has to keep it alive itself.
func (c *PackedStringChannel) ISend(ctx context.Context, dst Rank, tag MsgTag, lines []string) error {
	buf := pack(lines)
	req, err := c.transport.ISend(ctx, dst, tag, buf)
	if err != nil {
		return fmt.Errorf("transport: packed isend to %s: %w", dst, err)
	}
	c.slots = append(c.slots, &packedSlot{buf: buf, dest: dst, tag: tag, req: req})
	return nil
}

// SendCount returns the number of Isend calls posted since the channel was
// built or last drained by WaitAll.
func (c *PackedStringChannel) SendCount() int {
	return len(c.slots)
}

// WaitAll blocks on every outstanding send posted via ISend, reports any
// failures through OnSendError, then releases the retained slots.
func (c *PackedStringChannel) WaitAll(ctx context.Context) []error {
	reqs := make([]SendRequest, len(c.slots))
	for i, s := range c.slots {
		reqs[i] = s.req
	}
	errs := c.transport.WaitAll(ctx, reqs)
	for i, err := range errs {
		if err != nil && c.OnSendError != nil {
			c.OnSendError(c.slots[i].tag, c.slots[i].dest, err)
		}
	}
	c.slots = nil
	return errs
}

// Receive probes for a message from src tagged tag, receives it, and
// unpacks it into a slice of non-empty lines. Lines are split at
// maxPackedLineLength bytes if the sender packed one longer than that.
func (c *PackedStringChannel) Receive(ctx context.Context, src Rank, tag MsgTag) ([]string, error) {
	if _, err := c.transport.Probe(ctx, src, tag); err != nil {
		return nil, fmt.Errorf("transport: packed probe from %s: %w", src, err)
	}
	env, err := c.transport.Recv(ctx, src, tag)
	if err != nil {
		return nil, fmt.Errorf("transport: packed recv from %s: %w", src, err)
	}
	return unpack(env.Body), nil
}

// unpack walks buf one byte at a time, accumulating a line buffer and
// committing it on a delimiter, on hitting maxPackedLineLength, or on
// reaching the end of buf. Empty lines are dropped.
func unpack(buf []byte) []string {
	var lines []string
	var cur []byte
	commit := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = nil
		}
	}
	for _, b := range buf {
		if b == lineDelimiter {
			commit()
			continue
		}
		cur = append(cur, b)
		if len(cur) == maxPackedLineLength {
			commit()
		}
	}
	commit()
	return lines
}
