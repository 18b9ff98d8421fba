package api

import (
	"bufio"
	"bytes"
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	apierrors "github.com/diogo/walrus/internal/errors"
	"github.com/diogo/walrus/internal/models"
)

// MaxFrameSize is the largest frame the decoder buffers before failing
const MaxFrameSize = 4 << 20

// FrameKind tags the result of parsing one frame
type FrameKind int

const (
	// FrameIgnored is any frame without the data prefix
	FrameIgnored FrameKind = iota
	// FrameDelta carries incremental agent text
	FrameDelta
)

// Frame is one blank-line-delimited unit of the chunked transport
type Frame struct {
	Kind  FrameKind
	Delta string
	Raw   string
}

// ParseFrame classifies a raw frame. Only frames starting with the literal
// "data: " prefix carry a delta: every byte after the prefix, verbatim.
func ParseFrame(raw string) Frame {
	if delta, ok := strings.CutPrefix(raw, models.FramePrefix); ok {
		return Frame{Kind: FrameDelta, Delta: delta, Raw: raw}
	}
	return Frame{Kind: FrameIgnored, Raw: raw}
}

var frameDelimiter = []byte(models.FrameDelimiter)

// splitFrames is a bufio.SplitFunc yielding frames separated by a blank line.
// A trailing frame without a delimiter is emitted at end of data.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, frameDelimiter); i >= 0 {
		return i + len(frameDelimiter), data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// failReader records whether the underlying reader failed with something
// other than io.EOF.
type failReader struct {
	r      io.Reader
	failed bool
}

func (f *failReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err != nil && err != io.EOF {
		f.failed = true
	}
	return n, err
}

// DecodeFrames reads r incrementally and yields parsed frames in arrival order.
// Frames may span any number of reads. A frame that is not valid UTF-8 yields
// a DecodeError; a failed read yields a TransportError. Either ends the sequence.
func DecodeFrames(r io.Reader, endpoint string) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		fr := &failReader{r: r}
		scanner := bufio.NewScanner(fr)
		scanner.Buffer(make([]byte, 0, 4096), MaxFrameSize)
		// an unterminated frame is only complete at a clean EOF
		scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
			return splitFrames(data, atEOF && !fr.failed)
		})

		for scanner.Scan() {
			raw := scanner.Bytes()
			if !utf8.Valid(raw) {
				frame := make([]byte, len(raw))
				copy(frame, raw)
				yield(Frame{}, apierrors.NewDecodeError(frame, nil))
				return
			}
			if !yield(ParseFrame(string(raw)), nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(Frame{}, apierrors.NewTransportError("read stream", endpoint, err))
		}
	}
}
