package proc

import (
	"io"
	"strings"
)

// Stream identifies which output stream a chunk came from.
type Stream string

const (
	// StreamOutput is the child's standard output.
	StreamOutput Stream = "stdout"
	// StreamError is the child's standard error.
	StreamError Stream = "stderr"
)

// Chunk is a maximal run of consecutive same-stream bytes.
type Chunk struct {
	// Stream is the origin stream of every byte in Text.
	Stream Stream
	// Text is the captured bytes in arrival order.
	Text []byte
}

// Buffer is the ordered, replayable capture of a child process's two output
// streams. Bytes are appended in the order the readers observed them;
// adjacent same-stream bytes coalesce into one chunk, so the chunk count
// equals the number of stream switches plus one, not the byte count.
//
// A Buffer is mutated only inside the runner's ticket-lock critical section
// and is safe for reads once the runner has returned.
type Buffer struct {
	chunks []Chunk
}

// add appends one byte, coalescing into the tail chunk when it belongs to
// the same stream. Callers must hold the runner's ticket lock.
func (b *Buffer) add(stream Stream, c byte) {
	if n := len(b.chunks); n > 0 && b.chunks[n-1].Stream == stream {
		b.chunks[n-1].Text = append(b.chunks[n-1].Text, c)
		return
	}
	b.chunks = append(b.chunks, Chunk{Stream: stream, Text: []byte{c}})
}

// Chunks returns the chronological chunk sequence.
func (b *Buffer) Chunks() []Chunk {
	return b.chunks
}

// String returns the full interleaved text in chronological order.
func (b *Buffer) String() string {
	var sb strings.Builder
	for _, c := range b.chunks {
		sb.Write(c.Text)
	}
	return sb.String()
}

// Stdout returns the concatenated standard-output bytes only.
func (b *Buffer) Stdout() string {
	return b.filtered(StreamOutput)
}

// Stderr returns the concatenated standard-error bytes only.
func (b *Buffer) Stderr() string {
	return b.filtered(StreamError)
}

func (b *Buffer) filtered(stream Stream) string {
	var sb strings.Builder
	for _, c := range b.chunks {
		if c.Stream == stream {
			sb.Write(c.Text)
		}
	}
	return sb.String()
}

// Replay writes the chunks in chronological order to their respective
// destinations, reproducing the original interleaving on the console.
func (b *Buffer) Replay(stdout, stderr io.Writer) error {
	for _, c := range b.chunks {
		w := stdout
		if c.Stream == StreamError {
			w = stderr
		}
		if _, err := w.Write(c.Text); err != nil {
			return err
		}
	}
	return nil
}
