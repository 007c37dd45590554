package internal

import (
	"net/url"

	"github.com/rs/zerolog"

	"github.com/strandline/httpbridge/internal/bytestream"
	"github.com/strandline/httpbridge/internal/engine"
)

type options struct {
	engine    engine.Engine
	inline    bool
	proxy     *url.URL
	userAgent string
	chunkSize int
	log       zerolog.Logger
}

func defaultOptions() options {
	return options{
		chunkSize: bytestream.DefaultChunkSize,
		log:       zerolog.Nop(),
	}
}

type Option func(*options)

// WithEngine substitutes the networking engine. Mostly useful for tests
// and for the fasthttp engine; the default is the net/http engine.
func WithEngine(eng engine.Engine) Option {
	return func(o *options) { o.engine = eng }
}

// WithInlineDispatch elides the background dispatcher: engine calls run
// directly on the calling goroutine. For callers that already own a
// scheduling context and do not want the extra goroutine hop.
func WithInlineDispatch() Option {
	return func(o *options) { o.inline = true }
}

// WithProxy routes requests of the default engine through proxy.
func WithProxy(proxy *url.URL) Option {
	return func(o *options) { o.proxy = proxy }
}

// WithUserAgent sets the default User-Agent for requests that do not
// carry their own.
func WithUserAgent(agent string) Option {
	return func(o *options) { o.userAgent = agent }
}

// WithChunkSize overrides the target capacity of body chunks.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithLogger enables debug logging of dispatches and bridge lifecycle.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}
