// Package httpbridge is an asynchronous HTTP transport bridge: it builds
// engine-native requests from a generic request description plus its
// extension bag, dispatches them either inline or through a dedicated
// background dispatcher, and hands back a response envelope whose body is
// a lazily-consumed chunk stream.
package httpbridge

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/strandline/httpbridge/internal"
	"github.com/strandline/httpbridge/internal/model"
)

type Client = internal.Client
type Header = http.Header
type Request = model.Request
type PreparedRequest = model.PreparedRequest
type Response = model.Response

type Middleware = internal.Middleware
type Handler = internal.Handler

type Error = internal.Error
type ErrorKind = internal.ErrorKind

const (
	KindBuild    = internal.KindBuild
	KindBridge   = internal.KindBridge
	KindEngine   = internal.KindEngine
	KindBodyRead = internal.KindBodyRead
)

// New builds a transport. See the Option constructors below.
func New(opts ...Option) *Client { return internal.New(opts...) }

// UserAgent builds a transport whose requests default to agent.
func UserAgent(agent string) *Client { return internal.UserAgent(agent) }

// ProxyAndUserAgent builds a transport routing through proxy (may be nil)
// with the given default User-Agent.
func ProxyAndUserAgent(proxy *url.URL, agent string) *Client {
	return internal.ProxyAndUserAgent(proxy, agent)
}

type Option = internal.Option

func WithInlineDispatch() Option { return internal.WithInlineDispatch() }

func WithProxy(proxy *url.URL) Option { return internal.WithProxy(proxy) }

func WithUserAgent(agent string) Option { return internal.WithUserAgent(agent) }

func WithChunkSize(n int) Option { return internal.WithChunkSize(n) }

func WithLogger(log zerolog.Logger) Option { return internal.WithLogger(log) }
