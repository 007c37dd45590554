package internal

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/strandline/httpbridge/internal/bridge"
	"github.com/strandline/httpbridge/internal/bytestream"
	"github.com/strandline/httpbridge/internal/engine"
	"github.com/strandline/httpbridge/internal/model"
)

type PreparedRequest = model.PreparedRequest

type Handler = func(ctx context.Context, req *PreparedRequest) (*model.Response, error)
type Middleware func(next Handler) Handler

// Client dispatches requests through an underlying networking engine. By
// default every send is shipped to a dedicated dispatcher goroutine owned
// by the client; WithInlineDispatch elides that bridge for callers that
// prefer the engine call to run on their own goroutine. Either way the
// caller context travels with the request, so cancellation reaches the
// engine identically on both paths.
type Client struct {
	engine      engine.Engine
	bridge      *bridge.Bridge // nil for inline dispatch
	proxy       *url.URL
	chunkSize   int
	log         zerolog.Logger
	middlewares []Middleware
}

// New builds a Client. Without options it uses the net/http engine with
// bridged dispatch and no logging.
func New(opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	eng := o.engine
	if eng == nil {
		eng = engine.NewNet(o.proxy, o.userAgent)
	}
	c := &Client{
		engine:    eng,
		proxy:     o.proxy,
		chunkSize: o.chunkSize,
		log:       o.log,
	}
	if !o.inline {
		c.bridge = bridge.New(eng, o.log)
	}
	return c
}

// UserAgent builds a Client whose requests default to the given
// User-Agent header.
func UserAgent(agent string) *Client {
	return New(WithUserAgent(agent))
}

// ProxyAndUserAgent builds a Client routing through proxy with the given
// default User-Agent. proxy may be nil.
func ProxyAndUserAgent(proxy *url.URL, agent string) *Client {
	return New(WithProxy(proxy), WithUserAgent(agent))
}

// Proxy returns the proxy the client was configured with, if any.
func (c *Client) Proxy() *url.URL { return c.proxy }

// Use appends mw to the end of the chain. The last "Use"d mw executes first
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// CtxDo sends one request and returns the response envelope. The response
// body is a lazy chunk stream; callers drain and close it themselves.
func (c *Client) CtxDo(ctx context.Context, req *model.Request) (*model.Response, error) {
	pr, err := req.Prepare()
	if err != nil {
		return nil, &Error{Kind: KindBuild, Err: err}
	}
	// wrap ascending so the last-added middleware ends up outermost
	next := c.dispatch
	for i := 0; i < len(c.middlewares); i++ {
		next = c.middlewares[i](next)
	}
	return next(ctx, pr)
}

func (c *Client) dispatch(ctx context.Context, pr *PreparedRequest) (*model.Response, error) {
	ereq, err := c.buildEngineRequest(pr)
	if err != nil {
		return nil, &Error{Kind: KindBuild, Err: err}
	}

	id := uuid.NewString()
	c.log.Debug().Str("id", id).Str("method", ereq.Method).Str("url", ereq.URL).
		Bool("bridged", c.bridge != nil).Msg("dispatching request")

	var eresp *engine.Response
	if c.bridge != nil {
		eresp, err = c.bridge.Dispatch(ctx, ereq)
	} else {
		eresp, err = c.engine.Send(ctx, ereq)
	}
	if err != nil {
		kind := KindEngine
		if errors.Is(err, bridge.ErrClosed) {
			kind = KindBridge
		}
		c.log.Debug().Str("id", id).Err(err).Msg("dispatch failed")
		return nil, &Error{Kind: kind, Err: err}
	}

	c.log.Debug().Str("id", id).Int("status", eresp.StatusCode).Msg("response received")
	return &model.Response{
		Proto:         eresp.Proto,
		Status:        eresp.Status,
		StatusCode:    eresp.StatusCode,
		Header:        eresp.Header,
		ContentLength: eresp.ContentLength,
		Body:          bytestream.New(bodyReader{rc: eresp.Body}, c.chunkSize),
	}, nil
}

// bodyReader classifies engine-level read failures on the response body
// as KindBodyRead before they surface through the chunk stream.
type bodyReader struct {
	rc io.ReadCloser
}

func (b bodyReader) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err != nil && err != io.EOF {
		err = &Error{Kind: KindBodyRead, Err: err}
	}
	return n, err
}

func (b bodyReader) Close() error { return b.rc.Close() }

// buildEngineRequest resolves the extension bag into engine-native options
// and converts the body variant into an engine-native chunk stream.
func (c *Client) buildEngineRequest(pr *PreparedRequest) (*engine.Request, error) {
	rc, err := pr.GetBody()
	if err != nil {
		return nil, err
	}
	var body *bytestream.Reader
	if rc != nil {
		if pr.Replayable() {
			// in-memory variant: ship as a single finite chunk
			buf, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			if len(buf) > 0 {
				body = bytestream.FromBytes(buf)
			}
		} else {
			body = bytestream.New(rc, c.chunkSize)
		}
	}

	ereq := &engine.Request{
		Method:        pr.Method,
		URL:           pr.U.String(),
		Host:          pr.HeaderHost,
		Header:        pr.Header,
		Body:          body,
		ContentLength: pr.ContentLength,
	}
	if pr.Replayable() {
		ereq.GetBody = pr.GetBody
	}

	if p, ok := model.GetExtension[model.RedirectPolicy](&pr.Request.Extensions); ok {
		switch p.Mode {
		case model.RedirectNoFollow:
			ereq.Redirects = engine.RedirectRule{Explicit: true}
		case model.RedirectFollowLimit:
			ereq.Redirects = engine.RedirectRule{Explicit: true, Follow: true, Max: p.Limit}
		case model.RedirectFollowAll:
			ereq.Redirects = engine.RedirectRule{Explicit: true, Follow: true, Max: 100}
		}
	}
	if t, ok := model.GetExtension[model.ReadTimeout](&pr.Request.Extensions); ok {
		ereq.Timeout = time.Duration(t)
	}
	return ereq, nil
}

// Close tears down the background dispatcher, if any. In-flight requests
// still complete; later sends fail with a KindBridge error.
func (c *Client) Close() {
	if c.bridge != nil {
		c.bridge.Close()
	}
}

// Done is closed once the background dispatcher has fully terminated
// after Close. For inline clients it is closed from the start.
func (c *Client) Done() <-chan struct{} {
	if c.bridge != nil {
		return c.bridge.Done()
	}
	return closedDone
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
