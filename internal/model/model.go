package model

import (
	"net/http"

	"github.com/strandline/httpbridge/internal/bytestream"
)

// Request describes one HTTP exchange. It is built once by the caller and
// must not be mutated after being handed to the transport.
//
// Body accepts the variants the transport knows how to ship: nil (no
// body), string, []byte, *bytes.Buffer, *bytes.Reader, *strings.Reader
// (all in-memory, replayable), or an io.Reader / io.ReadCloser
// (streaming, consumed at most once).
type Request struct {
	Method     string
	URL        string
	Body       interface{}
	Header     http.Header
	Extensions Extensions
}

// Response is the envelope handed back to callers. Body is a lazy chunk
// stream over the engine's response bytes; it is never materialized
// eagerly, so callers who need the full payload drain it themselves.
type Response struct {
	Proto      string
	Status     string
	StatusCode int
	Header     http.Header

	ContentLength int64
	Body          *bytestream.Reader
}
