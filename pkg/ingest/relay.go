package ingest

import (
	"io"
	"sync"
)

// relay queues source chunks so that the data callback never blocks, even
// when a source delivers its whole document from inside Attach. A single
// goroutine drains the queue into the decoding pipe.
type relay struct {
	mu     sync.Mutex
	cond   *sync.Cond
	chunks [][]byte
	done   bool
	failed bool
}

func newRelay() *relay {
	r := &relay{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// push copies chunk onto the queue. Chunks arriving after end or after the
// reader gave up are dropped.
func (r *relay) push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done || r.failed {
		return
	}
	r.chunks = append(r.chunks, append([]byte(nil), chunk...))
	r.cond.Signal()
}

// end marks the input complete; queued chunks are still delivered
func (r *relay) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	r.cond.Signal()
}

// run writes queued chunks to w until end, then calls finish. A failed
// write discards the rest of the input.
func (r *relay) run(w io.Writer, finish func()) {
	defer finish()
	for {
		r.mu.Lock()
		for len(r.chunks) == 0 && !r.done {
			r.cond.Wait()
		}
		batch := r.chunks
		r.chunks = nil
		done := r.done
		r.mu.Unlock()

		for _, chunk := range batch {
			if _, err := w.Write(chunk); err != nil {
				r.mu.Lock()
				r.failed = true
				r.chunks = nil
				r.mu.Unlock()
				return
			}
		}
		if done {
			return
		}
	}
}
