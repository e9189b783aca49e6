package transportclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorCode is the numeric transport error indicator embedded in TransportRequestError.
// Values follow libcurl numbering so they line up with logs from older clients.
type ErrorCode int

const (
	CodeVersionFile            ErrorCode = -1
	CodeUnknown                ErrorCode = 0
	CodeUnsupportedProtocol    ErrorCode = 1
	CodeMalformedURL           ErrorCode = 3
	CodeCouldNotResolveHost    ErrorCode = 6
	CodeCouldNotConnect        ErrorCode = 7
	CodeOperationTimedOut      ErrorCode = 28
	CodeSSLConnectError        ErrorCode = 35
	CodeAbortedByCallback      ErrorCode = 42
	CodeGotNothing             ErrorCode = 52
	CodeSendError              ErrorCode = 55
	CodeRecvError              ErrorCode = 56
	CodePeerFailedVerification ErrorCode = 60
)

var (
	ErrVersionFileMissing    = errors.New("the .version file does not exist")
	ErrVersionFileUnreadable = errors.New("could not read the .version file")
	ErrInvalidVersion        = errors.New("the version in the .version file is not a valid Semantic Versioning compliant version")
)

// TransportRequestError is returned for every failure the client surfaces:
// transport-level errors and version file problems. HTTP error statuses are
// not errors.
type TransportRequestError struct {
	Code        ErrorCode
	Description string
	Err         error
}

func (e *TransportRequestError) Error() string {
	if e.Code == CodeVersionFile {
		return e.Description + "."
	}
	msg := fmt.Sprintf("transport request failed: error %d", e.Code)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg + "."
}

func (e *TransportRequestError) Unwrap() error { return e.Err }

func versionError(sentinel error, cause error) *TransportRequestError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &TransportRequestError{
		Code:        CodeVersionFile,
		Description: sentinel.Error(),
		Err:         err,
	}
}

// classify maps an error from the HTTP engine to a TransportRequestError.
func classify(err error) *TransportRequestError {
	if err == nil {
		return nil
	}
	var tre *TransportRequestError
	if errors.As(err, &tre) {
		return tre
	}

	code, desc := classifyCode(err)
	if desc == "" {
		desc = rootMessage(err)
	}
	return &TransportRequestError{Code: code, Description: desc, Err: err}
}

func classifyCode(err error) (ErrorCode, string) {
	if errors.Is(err, context.Canceled) {
		return CodeAbortedByCallback, "operation was aborted"
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return CodeOperationTimedOut, "operation timed out"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return CodeMalformedURL, "URL using bad/illegal format"
	}
	if strings.Contains(err.Error(), "unsupported protocol scheme") {
		return CodeUnsupportedProtocol, "unsupported protocol"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return CodeOperationTimedOut, "operation timed out"
		}
		return CodeCouldNotResolveHost, "could not resolve host: " + dnsErr.Name
	}

	var (
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		invalidCert      x509.CertificateInvalidError
		verifyErr        *tls.CertificateVerificationError
	)
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert) || errors.As(err, &verifyErr) {
		return CodePeerFailedVerification, "SSL peer certificate or SSH remote key was not OK"
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return CodeSSLConnectError, "SSL connect error"
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return CodeCouldNotConnect, ""
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return CodeGotNothing, "empty reply from server"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return CodeCouldNotConnect, ""
		case "write":
			return CodeSendError, ""
		case "read":
			return CodeRecvError, ""
		}
	}

	return CodeUnknown, ""
}

// rootMessage returns the innermost error text, which is what callers want to see
// instead of the full "Get \"url\": dial tcp ..." chain.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
