package ytdlp

import (
	"bytes"
	"sync"
)

// tailBuffer keeps the most recent limit bytes written to it. Older output is
// discarded so a chatty tool cannot grow memory without bound.
type tailBuffer struct {
	mu        sync.Mutex
	buf       []byte
	limit     int
	truncated bool
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = 64 * 1024
	}
	return &tailBuffer{buf: make([]byte, 0, min(limit, 4096)), limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n == 0 {
		return 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if n >= b.limit {
		b.buf = append(b.buf[:0], p[n-b.limit:]...)
		b.truncated = true
		return n, nil
	}
	if overflow := len(b.buf) + n - b.limit; overflow > 0 {
		b.buf = append(b.buf[:0], b.buf[overflow:]...)
		b.truncated = true
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

// String returns the retained output. When older bytes were dropped the
// partial first line is removed as well.
func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.buf
	if b.truncated {
		if idx := bytes.IndexByte(out, '\n'); idx >= 0 && idx < len(out)-1 {
			out = out[idx+1:]
		}
	}
	return string(out)
}

func (b *tailBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
