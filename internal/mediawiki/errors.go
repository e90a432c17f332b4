package mediawiki

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// TransportErrorKind categorizes a transport failure.
type TransportErrorKind int

const (
	// TransportErrorUnknown indicates an unclassified transport error.
	TransportErrorUnknown TransportErrorKind = iota
	// TransportErrorTLS indicates a TLS/certificate verification error.
	TransportErrorTLS
	// TransportErrorNetwork indicates a connectivity error (refused, unreachable).
	TransportErrorNetwork
	// TransportErrorTimeout indicates a timeout.
	TransportErrorTimeout
	// TransportErrorDNS indicates a DNS resolution failure.
	TransportErrorDNS
	// TransportErrorStatus indicates a non-2xx HTTP status.
	TransportErrorStatus
	// TransportErrorDecode indicates a response body that is not a valid API envelope.
	TransportErrorDecode
)

// String returns a human-readable name for the kind.
func (k TransportErrorKind) String() string {
	switch k {
	case TransportErrorTLS:
		return "TLS certificate error"
	case TransportErrorNetwork:
		return "network error"
	case TransportErrorTimeout:
		return "timeout"
	case TransportErrorDNS:
		return "DNS resolution error"
	case TransportErrorStatus:
		return "HTTP error"
	case TransportErrorDecode:
		return "malformed response"
	default:
		return "transport error"
	}
}

// TransportError is a network or HTTP-layer failure talking to a wiki.
// It is always fatal for the run.
type TransportError struct {
	// Endpoint is the API URL that was called.
	Endpoint string
	// Kind categorizes the failure.
	Kind TransportErrorKind
	// StatusCode is set for TransportErrorStatus.
	StatusCode int
	// Err is the underlying error.
	Err error
}

func (e *TransportError) Error() string {
	if e.Kind == TransportErrorStatus {
		return fmt.Sprintf("%s from %s: status %d", e.Kind, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s calling %s: %v", e.Kind, e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// classifyTransportError wraps err in a TransportError with the matching kind.
func classifyTransportError(err error, endpoint string) *TransportError {
	kind := TransportErrorUnknown
	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		kind = TransportErrorTLS
	case errors.As(err, &dnsErr):
		kind = TransportErrorDNS
	case isTimeoutError(err):
		kind = TransportErrorTimeout
	case isNetworkError(err.Error()):
		kind = TransportErrorNetwork
	}
	return &TransportError{Endpoint: endpoint, Kind: kind, Err: err}
}

func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// Codes of APIErrors raised on the client side when a reply does not
// confirm the action or a request is incomplete.
const (
	CodeMissingResult = "wikisync-missingresult"
	CodeBadResult     = "wikisync-badresult"
	CodeMissingParam  = "wikisync-missingparam"
)

// APIError is an application-level failure: either reported by the wiki in
// the errors array of a response, or a reply that does not confirm the
// requested action.
type APIError struct {
	// Action is the API action that failed.
	Action string
	// Code is the machine-readable error code, e.g. "articleexists".
	Code string
	// Info is the human-readable message.
	Info string
	// Additional holds any further errors of the same response.
	Additional []Message
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error in %s: %s: %s", e.Action, e.Code, e.Info)
	if len(e.Additional) > 0 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Additional))
	}
	return msg
}

// IsAPIError reports whether err is an APIError with one of the given codes,
// or any APIError when no codes are given.
func IsAPIError(err error, codes ...string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if apiErr.Code == c {
			return true
		}
	}
	return false
}

// AuthError indicates a login attempt that did not return Success.
type AuthError struct {
	// Endpoint is the API URL of the wiki.
	Endpoint string
	// Result is the login result, e.g. "Failed" or "Aborted".
	Result string
	// Reason is the message returned with the result.
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("login to %s failed: %s", e.Endpoint, e.Result)
	}
	return fmt.Sprintf("login to %s failed: %s: %s", e.Endpoint, e.Result, e.Reason)
}

// Is allows errors.Is() to match any AuthError.
func (e *AuthError) Is(target error) bool {
	_, ok := target.(*AuthError)
	return ok
}
