// Package http implements the network transport over net/http.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"

	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/logging"
	"github.com/sadopc/treq/internal/protocol"
)

// DefaultProtocol is used when a validated URL carries no protocol.
const DefaultProtocol = "http"

// ProxyConfig holds proxy settings.
type ProxyConfig struct {
	URL     string // http://, https://, or socks5:// proxy URL
	NoProxy string // comma-separated list of hosts to bypass proxy
}

// Client submits requests over HTTP. Configure it before the first submission.
type Client struct {
	timeout   time.Duration
	proxyConf *ProxyConfig
	tlsConfig *tls.Config
	log       *slog.Logger

	mu        sync.Mutex
	transport http.RoundTripper
}

// New creates a client without timeout or proxy.
func New() *Client {
	return &Client{log: logging.Nop()}
}

// SetTimeout bounds each request. Zero means no timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// SetProxy configures proxy settings for the client.
func (c *Client) SetProxy(proxyURL, noProxy string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = nil
	if proxyURL == "" {
		c.proxyConf = nil
		return
	}
	c.proxyConf = &ProxyConfig{URL: proxyURL, NoProxy: noProxy}
}

// SetTLSConfig sets the TLS configuration used for https targets.
func (c *Client) SetTLSConfig(cfg *tls.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = nil
	c.tlsConfig = cfg
}

// SetLogger sets the logger used for debug output.
func (c *Client) SetLogger(log *slog.Logger) {
	if log != nil {
		c.log = log
	}
}

// Submit runs the request on its own goroutine with an owned copy of req.
// No cancellation is attached; an abandoned completion still runs to the end.
func (c *Client) Submit(req request.Data) *protocol.Completion {
	owned := req.Clone()
	return protocol.Go(func() (*protocol.Response, error) {
		return c.Execute(context.Background(), owned)
	})
}

// Execute sends req and waits for the full response.
func (c *Client) Execute(ctx context.Context, req request.Data) (*protocol.Response, error) {
	target := req.URL.WithDefaultProtocol(DefaultProtocol).String()
	method := req.Method.String()
	fail := func(err error) error {
		return &errs.TransportError{Method: method, URL: target, Err: err}
	}

	if _, err := url.Parse(target); err != nil {
		return nil, fail(fmt.Errorf("invalid URL: %w", err))
	}

	// GET never carries a body, even when one is stored.
	var body io.Reader
	if req.Method != request.MethodGet && req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fail(fmt.Errorf("creating request: %w", err))
	}
	setHeaders(httpReq, req.Headers)

	transport, err := c.roundTripper()
	if err != nil {
		return nil, fail(fmt.Errorf("configuring transport: %w", err))
	}
	client := &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	var dnsStart, connStart, tlsStart, gotConn, gotFirstByte time.Time
	var dnsDuration, connDuration, tlsDuration time.Duration
	trace := &httptrace.ClientTrace{
		DNSStart:          func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:           func(httptrace.DNSDoneInfo) { dnsDuration = time.Since(dnsStart) },
		ConnectStart:      func(_, _ string) { connStart = time.Now() },
		ConnectDone:       func(_, _ string, _ error) { connDuration = time.Since(connStart) },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone:  func(tls.ConnectionState, error) { tlsDuration = time.Since(tlsStart) },
		GotConn:           func(httptrace.GotConnInfo) { gotConn = time.Now() },
		GotFirstResponseByte: func() {
			gotFirstByte = time.Now()
		},
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), trace))

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fail(fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	transferStart := time.Now()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(fmt.Errorf("reading response: %w", err))
	}
	total := time.Since(start)

	var ttfb time.Duration
	if !gotConn.IsZero() && !gotFirstByte.IsZero() {
		ttfb = gotFirstByte.Sub(gotConn)
	}

	c.log.Debug("request finished",
		"method", method, "url", target, "status", resp.StatusCode, "duration", total)

	return &protocol.Response{
		Status:         resp.StatusCode,
		Body:           string(respBody),
		Headers:        flattenHeaders(resp.Header),
		ResponseTimeMs: total.Milliseconds(),
		Stage:          protocol.StageFinished,
		Proto:          resp.Proto,
		Timing: &protocol.TimingDetail{
			DNSLookup:    dnsDuration,
			TCPConnect:   connDuration,
			TLSHandshake: tlsDuration,
			TTFB:         ttfb,
			Transfer:     time.Since(transferStart),
			Total:        total,
		},
	}, nil
}

// setHeaders copies headers verbatim, without canonicalizing keys. Go's
// default User-Agent is suppressed unless the caller sets one.
func setHeaders(r *http.Request, headers map[string]string) {
	for k, v := range headers {
		if strings.EqualFold(k, "Host") {
			r.Host = v
			continue
		}
		r.Header[k] = []string{v}
	}
	if _, ok := r.Header["User-Agent"]; !ok {
		r.Header["User-Agent"] = []string{""}
	}
}

// flattenHeaders returns one entry per header value, sorted by key with
// repeated values in wire order.
func flattenHeaders(h http.Header) []protocol.Header {
	out := make([]protocol.Header, 0, len(h))
	for k, values := range h {
		for _, v := range values {
			out = append(out, protocol.Header{Key: k, Value: v})
		}
	}
	return protocol.SortHeaders(out)
}

func (c *Client) roundTripper() (http.RoundTripper, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		return c.transport, nil
	}
	rt, err := c.buildTransport()
	if err != nil {
		return nil, err
	}
	c.transport = rt
	return rt, nil
}

// buildTransport creates an http.Transport configured with proxy and TLS
// settings. NoProxy hosts are dialed directly for both HTTP and SOCKS5 proxies.
func (c *Client) buildTransport() (http.RoundTripper, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// Requests go out exactly as stored, so no implicit Accept-Encoding.
		DisableCompression: true,
	}

	if c.tlsConfig != nil {
		transport.TLSClientConfig = c.tlsConfig
	}

	if c.proxyConf == nil || c.proxyConf.URL == "" {
		return transport, nil
	}
	noProxy := c.proxyConf.NoProxy

	parsed, err := url.Parse(c.proxyConf.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy URL: %w", err)
	}

	switch parsed.Scheme {
	case "socks5", "socks5h":
		var auth *proxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			auth = &proxy.Auth{
				User:     parsed.User.Username(),
				Password: password,
			}
		}
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("creating SOCKS5 dialer: %w", err)
		}
		if noProxy != "" {
			perHost := proxy.NewPerHost(dialer, proxy.Direct)
			perHost.AddFromString(noProxy)
			dialer = perHost
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	case "http", "https":
		if noProxy != "" {
			noProxyHosts := parseNoProxy(noProxy)
			transport.Proxy = func(r *http.Request) (*url.URL, error) {
				if shouldBypassProxy(r.URL.Hostname(), noProxyHosts) {
					return nil, nil
				}
				return parsed, nil
			}
		} else {
			transport.Proxy = http.ProxyURL(parsed)
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", parsed.Scheme)
	}

	return transport, nil
}

// parseNoProxy splits a comma-separated no-proxy string into trimmed host entries.
func parseNoProxy(noProxy string) []string {
	parts := strings.Split(noProxy, ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			hosts = append(hosts, strings.ToLower(p))
		}
	}
	return hosts
}

// shouldBypassProxy checks whether a host should bypass the proxy.
func shouldBypassProxy(host string, noProxyHosts []string) bool {
	host = strings.ToLower(host)
	for _, h := range noProxyHosts {
		if h == host {
			return true
		}
		// Support wildcard suffix matching (e.g., .example.com)
		if strings.HasPrefix(h, ".") && strings.HasSuffix(host, h) {
			return true
		}
	}
	return false
}
