// Package engine defines the contract between the transport and the
// underlying networking engine. Engine-native request and response types
// never cross the transport boundary; the transport translates in both
// directions.
//
// The engine owns everything the transport delegates: connection pooling,
// TLS, DNS, protocol negotiation.
package engine

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/strandline/httpbridge/internal/bytestream"
)

// ErrTooManyRedirects is reported by engines when a redirect chain
// exceeds the configured hop budget.
var ErrTooManyRedirects = errors.New("engine: too many redirects")

// Engine executes one built request against the network.
type Engine interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// RedirectRule is the engine-native form of a redirect policy. The zero
// value means "not set": the engine applies its own default.
type RedirectRule struct {
	Explicit bool
	Follow   bool
	Max      int // hop budget when Follow is set
}

// Request is the engine-native request.
type Request struct {
	Method string
	URL    string
	Host   string
	Header http.Header

	// Body is the request payload as a chunk stream, nil for no body.
	// GetBody, when non-nil, re-creates the payload so the engine may
	// replay it across redirects.
	Body          *bytestream.Reader
	GetBody       func() (io.ReadCloser, error)
	ContentLength int64

	Redirects RedirectRule
	Timeout   time.Duration // bounds the exchange through body read; 0 = none
}

// Response is the engine-native response. Body is a raw byte source; the
// transport wraps it into the public chunk stream.
type Response struct {
	Proto         string
	Status        string
	StatusCode    int
	Header        http.Header
	ContentLength int64
	Body          io.ReadCloser
}

// IsTimeout classifies an engine error as a timeout, regardless of which
// engine produced it.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
