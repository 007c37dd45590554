package engine

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Net is the production engine, backed by net/http. One *http.Transport
// (and with it the connection pool) is shared across every request; the
// http.Client value is copied per request so redirect and timeout options
// never leak between concurrent sends.
type Net struct {
	client    http.Client
	proxy     *url.URL
	userAgent string
}

// NewNet builds a net/http engine. proxy may be nil, in which case the
// environment proxy configuration applies. userAgent, when non-empty, is
// the default User-Agent for requests that do not set their own.
func NewNet(proxy *url.URL, userAgent string) *Net {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		tr.Proxy = http.ProxyURL(proxy)
	}
	return &Net{
		client:    http.Client{Transport: tr},
		proxy:     proxy,
		userAgent: userAgent,
	}
}

// Proxy returns the proxy the engine was configured with, if any.
func (n *Net) Proxy() *url.URL { return n.proxy }

func (n *Net) Send(ctx context.Context, r *Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = r.Body
	}
	hreq, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}
	if r.Header != nil {
		hreq.Header = r.Header.Clone()
	}
	if r.Host != "" {
		hreq.Host = r.Host
	}
	if r.ContentLength >= 0 {
		hreq.ContentLength = r.ContentLength
	}
	hreq.GetBody = r.GetBody
	if n.userAgent != "" && hreq.Header.Get("User-Agent") == "" {
		hreq.Header.Set("User-Agent", n.userAgent)
	}

	client := n.client
	if r.Timeout > 0 {
		client.Timeout = r.Timeout
	}
	if r.Redirects.Explicit {
		if !r.Redirects.Follow {
			client.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
		} else {
			max := r.Redirects.Max
			client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
				if len(via) > max {
					return ErrTooManyRedirects
				}
				return nil
			}
		}
	}

	resp, err := client.Do(hreq)
	if err != nil {
		return nil, err
	}
	return &Response{
		Proto:         resp.Proto,
		Status:        resp.Status,
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}
