package transportclient

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
)

func TestClassifyCodes(t *testing.T) {
	wrap := func(err error) error { return &url.Error{Op: "Get", URL: "https://api.example", Err: err} }

	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"dns", wrap(&net.DNSError{Name: "api.invalid", Err: "no such host"}), CodeCouldNotResolveHost},
		{"refused", wrap(&net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}), CodeCouldNotConnect},
		{"deadline", wrap(context.DeadlineExceeded), CodeOperationTimedOut},
		{"cancel", wrap(context.Canceled), CodeAbortedByCallback},
		{"eof", wrap(io.EOF), CodeGotNothing},
		{"read", wrap(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("reset")}), CodeRecvError},
		{"write", wrap(&net.OpError{Op: "write", Net: "tcp", Err: errors.New("broken pipe")}), CodeSendError},
		{"cert", wrap(x509.UnknownAuthorityError{}), CodePeerFailedVerification},
		{"parse", &url.Error{Op: "parse", URL: "::", Err: errors.New("missing protocol scheme")}, CodeMalformedURL},
		{"scheme", wrap(errors.New(`unsupported protocol scheme "ftp"`)), CodeUnsupportedProtocol},
		{"other", wrap(errors.New("weird")), CodeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			if got.Code != tc.want {
				t.Fatalf("code = %d, want %d (%v)", got.Code, tc.want, got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("classified error does not unwrap to the original")
			}
		})
	}
}

func TestTransportRequestErrorMessage(t *testing.T) {
	withDesc := &TransportRequestError{Code: CodeCouldNotResolveHost, Description: "could not resolve host: x"}
	if got := withDesc.Error(); got != "transport request failed: error 6: could not resolve host: x." {
		t.Fatalf("message = %q", got)
	}

	bare := &TransportRequestError{Code: CodeRecvError}
	if got := bare.Error(); got != "transport request failed: error 56." {
		t.Fatalf("message = %q", got)
	}
}

func TestClassifyKeepsExistingTransportError(t *testing.T) {
	orig := &TransportRequestError{Code: CodeSSLConnectError, Description: "handshake"}
	if got := classify(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Fatalf("expected original error to be returned, got %v", got)
	}
	if classify(nil) != nil {
		t.Fatalf("classify(nil) should be nil")
	}
}
