package api

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/diogo/walrus/internal/models"
)

// ErrSequenceConsumed is yielded when a stream sequence is ranged a second time
var ErrSequenceConsumed = errors.New("stream already consumed")

// Stream returns the deltas of one chunked exchange as a lazy sequence.
//
// Nothing is sent until the sequence is ranged. Deltas are yielded in arrival
// order. On failure the sequence yields exactly one ("", err) pair and stops;
// the stream is never retried. The sequence can be ranged only once.
func (c *AgentClient) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	var used atomic.Bool

	return func(yield func(string, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield("", ErrSequenceConsumed)
			return
		}

		resp, err := c.post(ctx, "stream chat", models.PathChatStream, prompt)
		if err != nil {
			c.logger.Debug("stream request failed", zap.Error(err))
			yield("", err)
			return
		}
		defer resp.Body.Close()

		var deltas, ignored int
		for frame, err := range DecodeFrames(resp.Body, c.Endpoint(models.PathChatStream)) {
			if err != nil {
				c.logger.Debug("stream read failed",
					zap.Int("deltas", deltas),
					zap.Error(err))
				yield("", err)
				return
			}
			if frame.Kind != FrameDelta {
				ignored++
				continue
			}
			deltas++
			if !yield(frame.Delta, nil) {
				return
			}
		}

		c.logger.Debug("stream ended",
			zap.Int("deltas", deltas),
			zap.Int("ignored_frames", ignored))
	}
}

// Consume drives one chunked exchange with callbacks.
// onDelta receives each delta in arrival order. On failure onError is invoked
// exactly once and the error is returned; it is never invoked after success.
func (c *AgentClient) Consume(ctx context.Context, prompt string, onDelta func(string), onError func(error)) error {
	return ConsumeStream(c.Stream(ctx, prompt), onDelta, onError)
}

// ConsumeStream adapts a delta sequence to the callback form
func ConsumeStream(seq iter.Seq2[string, error], onDelta func(string), onError func(error)) error {
	for delta, err := range seq {
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return err
		}
		if onDelta != nil {
			onDelta(delta)
		}
	}
	return nil
}
