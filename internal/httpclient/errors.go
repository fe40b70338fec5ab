package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// Stable error codes for transport failures. The scorer relies on these to
// tell "unreachable" from "misbehaving", so the strings must not change.
const (
	CodeTimeout           = "NETWORK_TIMEOUT"
	CodeDNSFailure        = "DNS_FAILURE"
	CodeConnectionRefused = "CONNECTION_REFUSED"
	CodeTLSError          = "TLS_ERROR"
	CodeHTTPStatus        = "HTTP_STATUS_ERROR"
	CodeCancelled         = "CANCELLED"
	CodeNetworkError      = "NETWORK_ERROR"
)

// Error is a transport failure with a stable, classified code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Classify maps a transport-level error onto one stable code. Unrecognized
// failures fall back to CodeNetworkError rather than guessing.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Code: CodeCancelled, Message: "request cancelled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: "request timed out"}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Code: CodeDNSFailure, Message: dnsErr.Error()}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{Code: CodeConnectionRefused, Message: "connection refused"}
	}

	var certErr *tls.CertificateVerificationError
	var hostErr x509.HostnameError
	var authErr x509.UnknownAuthorityError
	var invErr x509.CertificateInvalidError
	var recErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &authErr) ||
		errors.As(err, &invErr) || errors.As(err, &recErr) {
		return &Error{Code: CodeTLSError, Message: err.Error()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Code: CodeTimeout, Message: netErr.Error()}
	}

	return &Error{Code: CodeNetworkError, Message: err.Error()}
}
