package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	"github.com/vpasslabs/signalbot/core/telegram/netutil"
)

const (
	defaultDialTimeout     = 5 * time.Second
	defaultTLSHandshake    = 5 * time.Second
	defaultIdleConnTimeout = 30 * time.Second
	defaultResponseTimeout = 65 * time.Second // must exceed the long-poll window
	defaultClientTimeout   = 90 * time.Second
	defaultRetryAttempts   = 3
)

// BuildHTTPClient returns an HTTP client tuned for the Telegram API, with
// exponential backoff on transient dial and timeout errors.
func BuildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: defaultResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: defaultClientTimeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: defaultRetryAttempts,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	bo := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		currReq := req
		if attempt > 0 {
			currReq = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				currReq.Body = body
			} else if req.Body != nil {
				// Consumed non-replayable body; retrying would send garbage.
				return nil, lastErr
			}
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == t.maxRetries {
			break
		}

		timer := time.NewTimer(bo.Duration())
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
