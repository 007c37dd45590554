// Package bytestream adapts a byte source into a finite, pull-based
// sequence of owned chunks. A Reader is not restartable: once it reports
// end-of-input or an error it is permanently exhausted.
package bytestream

import "io"

// DefaultChunkSize is the target capacity of chunks produced by a Reader
// when none is given at construction.
const DefaultChunkSize = 4096

// Reader owns at most one underlying source at a time. Each call to Next
// reads into the spare capacity of an internal buffer and splits off
// exactly the bytes the source produced as an immutable chunk. The source
// is never read from again after it reports completion or an error.
type Reader struct {
	src     io.Reader
	staged  []byte // single pre-built chunk, see FromBytes
	stashed error  // read error observed alongside data, surfaced on the next pull
	buf     buffer
	size    int
	cur     []byte // unconsumed tail of the last chunk handed to Read
}

// New takes ownership of src. If src is an io.Closer it is closed when the
// Reader goes terminal. size is the target chunk capacity; values <= 0 use
// DefaultChunkSize.
func New(src io.Reader, size int) *Reader {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Reader{src: src, size: size}
}

// FromBytes wraps an in-memory payload as a stream of exactly one chunk
// (zero chunks when b is empty). The payload is owned by the Reader from
// this point on.
func FromBytes(b []byte) *Reader {
	return &Reader{staged: b, size: DefaultChunkSize}
}

// Next pulls the next chunk. It returns (nil, io.EOF) once the source is
// exhausted and on every call thereafter. A source error is returned
// exactly once; afterwards the Reader behaves as exhausted. The returned
// chunk is owned by the caller and is never rewritten by the Reader.
func (r *Reader) Next() ([]byte, error) {
	if len(r.staged) > 0 {
		c := r.staged
		r.staged = nil
		return c, nil
	}
	if r.stashed != nil {
		err := r.stashed
		r.stashed = nil
		return nil, err
	}
	if r.src == nil {
		return nil, io.EOF
	}
	if len(r.buf.spare()) == 0 {
		r.buf.reserve(r.size)
	}
	for {
		n, err := r.src.Read(r.buf.spare())
		if n > 0 {
			// Commit exactly the bytes the source reported; anything
			// beyond them in the buffer stays uncommitted garbage.
			r.buf.commit(n)
			chunk := r.buf.split()
			if err != nil {
				r.drop()
				if err != io.EOF {
					r.stashed = err
				}
			}
			return chunk, nil
		}
		switch err {
		case nil:
			// io.Reader permits (0, nil); end-of-input is io.EOF.
			continue
		case io.EOF:
			r.drop()
			return nil, io.EOF
		default:
			r.drop()
			return nil, err
		}
	}
}

// Read exposes the chunk sequence as an io.Reader so engine-native bodies
// can consume it. It serves the current chunk to exhaustion before pulling
// the next one.
func (r *Reader) Read(p []byte) (int, error) {
	for len(r.cur) == 0 {
		c, err := r.Next()
		if err != nil {
			return 0, err
		}
		r.cur = c
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

// Close drops the owned source and transitions to the terminal state.
// It is safe to call on an already-terminal Reader.
func (r *Reader) Close() error {
	r.staged, r.stashed, r.cur = nil, nil, nil
	return r.drop()
}

func (r *Reader) drop() error {
	if r.src == nil {
		return nil
	}
	src := r.src
	r.src = nil
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
