package netutil

import (
	"errors"
	"net"
	"net/url"
)

// ShouldRetry reports whether a transport error looks transient. Dial
// failures and timeouts qualify; anything the Telegram API answered does not.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return ShouldRetry(urlErr.Err)
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
		if nested, ok := opErr.Err.(net.Error); ok && nested.Timeout() {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
