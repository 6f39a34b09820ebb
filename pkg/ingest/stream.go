package ingest

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrStreamAttached is returned when a stream is attached a second time
var ErrStreamAttached = errors.New("stream already attached")

// Stream is a source of raw document bytes. Attach registers the callbacks
// the source invokes: data with each chunk as it arrives, then end exactly
// once when no more data will come. data must not be called after end,
// and the chunk passed to data may be reused once data returns.
type Stream interface {
	Attach(data func(chunk []byte), end func()) error
}

const defaultChunkSize = 32 * 1024

// ReaderStream adapts an io.Reader, such as an HTTP response body, into a
// Stream. Chunks are pumped from a goroutine started by Attach.
type ReaderStream struct {
	r         io.Reader
	chunkSize int
	attached  atomic.Bool

	mu  sync.Mutex
	err error
}

// NewReaderStream returns a stream reading chunks of at most chunkSize
// bytes from r. A non-positive chunkSize selects 32 KiB.
func NewReaderStream(r io.Reader, chunkSize int) *ReaderStream {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &ReaderStream{r: r, chunkSize: chunkSize}
}

func (s *ReaderStream) Attach(data func([]byte), end func()) error {
	if !s.attached.CompareAndSwap(false, true) {
		return ErrStreamAttached
	}
	go func() {
		defer end()
		buf := make([]byte, s.chunkSize)
		for {
			n, err := s.r.Read(buf)
			if n > 0 {
				data(buf[:n])
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
				return
			}
		}
	}()
	return nil
}

// Err returns the read error that ended the stream early, if any. A
// failed read still ends the stream normally; the truncated document
// usually surfaces as a parse error.
func (s *ReaderStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
