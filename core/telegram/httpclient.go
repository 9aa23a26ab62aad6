package telegram

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/vitorynet/configbot/core/telegram/netutil"
)

const (
	httpDialTimeout    = 5 * time.Second
	httpHeaderTimeout  = 5 * time.Second
	httpOverallTimeout = 30 * time.Second
	httpRetryAttempts  = 3
	httpRetryBackoff   = 2 * time.Second
)

// BuildHTTPClient builds the client telebot uses for Bot API calls:
// environment proxy support, pooled keep-alive connections, and transparent
// retries for transient network failures.
func BuildHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: httpDialTimeout, KeepAlive: 30 * time.Second}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   httpDialTimeout,
		ResponseHeaderTimeout: httpHeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Timeout: httpOverallTimeout,
		Transport: &retryTransport{
			base:     base,
			attempts: httpRetryAttempts,
			backoff:  httpRetryBackoff,
		},
	}
}

// retryTransport retries RoundTrip for errors netutil.ShouldRetry classifies
// as transient. Requests whose body has been consumed and cannot be rebuilt
// via GetBody are never retried.
type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var lastErr error
	for attempt := 0; attempt <= t.attempts; attempt++ {
		curr := req
		if attempt > 0 {
			if req.GetBody == nil && req.Body != nil {
				return nil, lastErr
			}
			curr = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				curr.Body = body
			}
		}

		resp, err := base.RoundTrip(curr)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == t.attempts {
			break
		}

		if err := sleepCtx(req.Context(), t.backoff*time.Duration(attempt+1)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
