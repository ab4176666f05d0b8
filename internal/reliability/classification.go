package reliability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// DefaultRetryable is the default retry predicate. It treats connection
// resets, timeouts, DNS resolution failures, and 5xx-class responses as
// retryable; circuit breaker rejections and everything unrecognized are not.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Check specific error types before interfaces so classification
	// takes precedence over generic marker methods.

	var circuitErr *CircuitOpenError
	if errors.As(err, &circuitErr) {
		return false // Circuit rejections are handled by the breaker, not the retry layer.
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Examine HTTP status codes for retry classification.
	type statusCoder interface {
		StatusCode() int
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		return code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout ||
			code >= http.StatusInternalServerError
	}

	if isNetworkError(err) {
		return true
	}

	// Default: don't retry unknown errors.
	return false
}

// isNetworkError checks if an error is a network-related error using proper
// type assertions before falling back to string matching.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var netErr net.Error
		if errors.As(urlErr.Err, &netErr) {
			return netErr.Timeout()
		}
		return isNetworkErrorByString(urlErr.Err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return isNetworkErrorByString(err.Error())
}

// isNetworkErrorByString checks for network errors using string patterns.
func isNetworkErrorByString(errStr string) bool {
	lowered := strings.ToLower(errStr)
	for _, indicator := range networkErrorIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}

// networkErrorIndicators holds pre-lowercased network error fragments.
var networkErrorIndicators = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
}
