package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

// followAllCap bounds FollowAll redirect chains; fasthttp has no
// "unlimited" mode and an actual loop should still terminate.
const followAllCap = 100

// Fast is an alternative engine backed by fasthttp. Response bodies are
// streamed rather than buffered, matching the transport's lazy body
// contract.
type Fast struct {
	client    *fasthttp.Client
	userAgent string
}

func NewFast(userAgent string) *Fast {
	return &Fast{
		client: &fasthttp.Client{
			StreamResponseBody:            true,
			NoDefaultUserAgentHeader:      true,
			DisablePathNormalizing:        true,
			DisableHeaderNamesNormalizing: true,
		},
		userAgent: userAgent,
	}
}

func (f *Fast) Send(ctx context.Context, r *Request) (*Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	release := func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}

	req.Header.SetMethod(r.Method)
	req.SetRequestURI(r.URL)
	if r.Host != "" {
		req.UseHostHeader = true
		req.Header.SetHost(r.Host)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if f.userAgent != "" && len(req.Header.Peek(fasthttp.HeaderUserAgent)) == 0 {
		req.Header.SetUserAgent(f.userAgent)
	}
	if r.Body != nil {
		req.SetBodyStream(r.Body, int(r.ContentLength))
	}

	deadline, hasDeadline := ctx.Deadline()
	if r.Timeout > 0 {
		d := time.Now().Add(r.Timeout)
		if !hasDeadline || d.Before(deadline) {
			deadline, hasDeadline = d, true
		}
	}

	// fasthttp calls do not take a context, so the round trip runs in its
	// own goroutine and the caller context is raced against it here. An
	// abandoned call keeps the pooled request and response alive until it
	// actually returns, then releases them.
	done := make(chan error, 1)
	go func() {
		done <- f.roundTrip(req, resp, r.Redirects, deadline, hasDeadline)
	}()
	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		go func() {
			<-done
			release()
		}()
		return nil, ctx.Err()
	}
	if err != nil {
		release()
		if errors.Is(err, fasthttp.ErrTooManyRedirects) {
			return nil, ErrTooManyRedirects
		}
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, context.DeadlineExceeded
		}
		return nil, err
	}

	header := make(http.Header)
	resp.Header.VisitAll(func(k, v []byte) {
		header.Add(string(k), string(v))
	})
	body := resp.BodyStream()
	if body == nil {
		body = bytesReaderEmpty{}
	}
	code := resp.StatusCode()
	return &Response{
		Proto:         "HTTP/1.1",
		Status:        fasthttp.StatusMessage(code),
		StatusCode:    code,
		Header:        header,
		ContentLength: int64(resp.Header.ContentLength()),
		Body:          &releasingBody{r: body, release: release},
	}, nil
}

func (f *Fast) roundTrip(req *fasthttp.Request, resp *fasthttp.Response, rule RedirectRule, deadline time.Time, hasDeadline bool) error {
	do := func() error {
		if hasDeadline {
			return f.client.DoDeadline(req, resp, deadline)
		}
		return f.client.Do(req, resp)
	}
	if !rule.Explicit || !rule.Follow {
		// Do never follows redirects, which is exactly the NoFollow and
		// engine-default behavior
		return do()
	}
	// DoRedirects takes no deadline, so following is a manual loop (the
	// shape of fasthttp's own doRequestFollowRedirects) with the deadline
	// applied per attempt.
	max := rule.Max
	if max <= 0 {
		max = followAllCap
	}
	for hops := 0; ; hops++ {
		if err := do(); err != nil {
			return err
		}
		if !fasthttp.StatusCodeIsRedirect(resp.StatusCode()) {
			return nil
		}
		if hops >= max {
			return fasthttp.ErrTooManyRedirects
		}
		location := resp.Header.Peek(fasthttp.HeaderLocation)
		if len(location) == 0 {
			return fasthttp.ErrMissingLocation
		}
		req.URI().UpdateBytes(location)
	}
}

type releasingBody struct {
	r       io.Reader
	release func()
	done    bool
}

func (b *releasingBody) Read(p []byte) (int, error) {
	if b.done {
		return 0, io.EOF
	}
	return b.r.Read(p)
}

func (b *releasingBody) Close() error {
	if b.done {
		return nil
	}
	b.done = true
	b.release()
	return nil
}

type bytesReaderEmpty struct{}

func (bytesReaderEmpty) Read([]byte) (int, error) { return 0, io.EOF }
