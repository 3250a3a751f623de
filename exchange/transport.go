package exchange

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
)

type TransportErrorKind int

const (
	ConnectionFailed TransportErrorKind = iota
	TLSFailed
	Timeout
	InvalidResponse
)

func (k TransportErrorKind) String() string {
	switch k {
	case ConnectionFailed:
		return "connection failed"
	case TLSFailed:
		return "TLS failed"
	case Timeout:
		return "timeout"
	case InvalidResponse:
		return "invalid response"
	default:
		return "unknown"
	}
}

// TransportError wraps any failure of the network exchange. Exactly one is
// produced per failed invocation; the kind decides nothing but the message
// here, the exit status mapping lives at the top level.
type TransportError struct {
	Kind TransportErrorKind
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func classifyTransportError(err error, url string) *TransportError {
	return &TransportError{
		Kind: transportErrorKind(err),
		URL:  url,
		Err:  err,
	}
}

func transportErrorKind(err error) TransportErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}

	var recordErr tls.RecordHeaderError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &certInvalid) {
		return TLSFailed
	}

	// Some handshake failures surface as opaque errors; net/http reports
	// protocol-level garbage only by message.
	msg := err.Error()
	if strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:") {
		return TLSFailed
	}
	if strings.Contains(msg, "malformed HTTP") || strings.Contains(msg, "malformed MIME") {
		return InvalidResponse
	}

	return ConnectionFailed
}
