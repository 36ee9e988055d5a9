package client

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/genai"
)

// IsRetryableError reports whether a failed model request is worth
// repeating. Cancellation never is.
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Untyped errors from the transport
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "eof", "no such host", "tls handshake", "unavailable", "resource_exhausted"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
