package llm

import (
	"context"
	"errors"
	"io"

	"github.com/kbukum/interviewscribe/httpclient"
	"github.com/kbukum/interviewscribe/httpclient/sse"
)

// pump decodes events into ch until the provider finishes, the stream
// fails or ctx ends. A body without an event-stream content type is
// still read as SSE.
func (a *Adapter) pump(ctx context.Context, resp *httpclient.StreamResponse, ch chan<- StreamChunk) {
	defer close(ch)
	defer func() { _ = resp.Close() }()

	events := resp.SSE
	if events == nil {
		events = sse.NewReader(resp.Body)
	}
	for {
		ev, err := events.Next()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			if !errors.Is(err, io.EOF) {
				deliver(ctx, ch, StreamChunk{Err: err})
			}
			return
		}
		if ev.Data == "" {
			continue
		}
		d, err := a.dialect.DecodeEvent([]byte(ev.Data))
		if err != nil {
			deliver(ctx, ch, StreamChunk{Err: err})
			return
		}
		done := d.FinishReason != ""
		if !deliver(ctx, ch, StreamChunk{Content: d.Text, FinishReason: d.FinishReason, Done: done}) || done {
			return
		}
	}
}

// deliver sends c unless ctx ends first, in which case it makes one
// non-blocking attempt to hand over ctx.Err().
func deliver(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		select {
		case ch <- StreamChunk{Err: ctx.Err()}:
		default:
		}
		return false
	}
}
