package bytestream

// buffer is a growable byte buffer with an explicit commit step: callers
// read into spare, then commit exactly the count of bytes written. Bytes
// are only ever observable through split, which returns the committed
// prefix, so uncommitted capacity can never leak into a chunk.
type buffer struct {
	b []byte // len(b) = committed bytes not yet split off
}

// spare returns the writable tail between the committed length and the
// buffer's capacity. It may be empty; reserve grows it.
func (w *buffer) spare() []byte {
	return w.b[len(w.b):cap(w.b)]
}

// reserve ensures at least n bytes of spare capacity.
func (w *buffer) reserve(n int) {
	if cap(w.b)-len(w.b) >= n {
		return
	}
	grown := make([]byte, len(w.b), len(w.b)+n)
	copy(grown, w.b)
	w.b = grown
}

// commit marks the next n spare bytes as initialized. n must not exceed
// the length of the slice returned by spare.
func (w *buffer) commit(n int) {
	w.b = w.b[:len(w.b)+n]
}

// split detaches the committed bytes as an owned chunk and keeps the
// remaining capacity for reuse. The chunk's capacity is clamped to its
// length, and the buffer never writes below its own offset again, so the
// chunk is immutable from the caller's point of view.
func (w *buffer) split() []byte {
	chunk := w.b[:len(w.b):len(w.b)]
	w.b = w.b[len(w.b):]
	return chunk
}
