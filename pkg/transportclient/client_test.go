package transportclient

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type captured struct {
	method  string
	rawURL  string
	query   string
	headers http.Header
	body    string
}

func newCaptureServer(t *testing.T, status int, respBody string) (*httptest.Server, *captured, *int32) {
	t.Helper()
	got := &captured{}
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.rawURL = r.URL.String()
		got.query = r.URL.RawQuery
		got.headers = r.Header.Clone()
		got.body = string(body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, got, &hits
}

func writeVersionFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".version")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func basicHeader(login, token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+token))
}

func TestGetSendsCredentialsQueryAndContentType(t *testing.T) {
	srv, got, _ := newCaptureServer(t, http.StatusOK, `{"ok":true}`)

	client := New().Authorize("shop", "secret-token")
	resp, err := client.Get(context.Background(), srv.URL+"/orders", NewPayload(
		"id", 42,
		"name", "two words",
		"paid", true,
	))
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "id=42&name=two+words&paid=1", got.query)
	assert.Equal(t, basicHeader("shop", "secret-token"), got.headers.Get("Authorization"))
	assert.Equal(t, ContentTypeJSON, got.headers.Get("Content-Type"))
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, `{"ok":true}`, resp.String())
}

func TestGetWithoutPayloadLeavesURLUntouched(t *testing.T) {
	srv, got, _ := newCaptureServer(t, http.StatusOK, "")

	_, err := New().Get(context.Background(), srv.URL+"/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "/ping", got.rawURL)
}

func TestAuthorizeOverwritesPreviousCredentials(t *testing.T) {
	srv, got, _ := newCaptureServer(t, http.StatusOK, "")

	client := New().Authorize("first", "one").Authorize("second", "two")
	_, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, basicHeader("second", "two"), got.headers.Get("Authorization"))
}

func TestAuthorizeWithEmptyCredentials(t *testing.T) {
	srv, got, _ := newCaptureServer(t, http.StatusOK, "")

	_, err := New().Authorize("", "").Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, basicHeader("", ""), got.headers.Get("Authorization"))
}

func TestPostSendsVersionHeaderAndJSONBody(t *testing.T) {
	srv, got, _ := newCaptureServer(t, http.StatusCreated, "created")
	versionFile := writeVersionFile(t, "  1.2.3\n")

	client := New(WithVersionFile(versionFile)).Authorize("shop", "secret-token")
	resp, err := client.Post(context.Background(), srv.URL+"/orders", NewPayload(
		"b", "second-key-first",
		"a", 1.5,
		"none", nil,
	))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/orders", got.rawURL)
	assert.Equal(t, "1.2.3", got.headers.Get(HeaderAPIVersion))
	assert.Equal(t, ContentTypeJSON, got.headers.Get("Content-Type"))
	assert.Equal(t, basicHeader("shop", "secret-token"), got.headers.Get("Authorization"))
	assert.Equal(t, `{"b":"second-key-first","a":1.5,"none":null}`, got.body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.Equal(t, "created", resp.String())
}

func TestPostNilPayloadSendsNull(t *testing.T) {
	srv, got, _ := newCaptureServer(t, http.StatusOK, "")
	versionFile := writeVersionFile(t, "2.0.0-rc.1+build.5")

	_, err := New(WithVersionFile(versionFile)).Post(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "null", got.body)
	assert.Equal(t, "2.0.0-rc.1+build.5", got.headers.Get(HeaderAPIVersion))
}

func TestErrorStatusesAreReturnedAsResponses(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusFound, http.StatusNotFound, http.StatusInternalServerError} {
		srv, _, _ := newCaptureServer(t, status, "payload")
		versionFile := writeVersionFile(t, "1.0.0")
		client := New(WithVersionFile(versionFile))

		resp, err := client.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err, "GET status %d", status)
		assert.Equal(t, status, resp.StatusCode())
		assert.Equal(t, "payload", resp.String())

		resp, err = client.Post(context.Background(), srv.URL, nil)
		require.NoError(t, err, "POST status %d", status)
		assert.Equal(t, status, resp.StatusCode())
		assert.Equal(t, "payload", resp.String())
	}
}

func TestPostFailsBeforeNetworkOnVersionProblems(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name     string
		path     string
		sentinel error
	}{
		{name: "invalid", path: writeVersionFile(t, "not-a-version"), sentinel: ErrInvalidVersion},
		{name: "missing", path: filepath.Join(dir, "absent"), sentinel: ErrVersionFileMissing},
		{name: "unreadable", path: dir, sentinel: ErrVersionFileUnreadable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _, hits := newCaptureServer(t, http.StatusOK, "")

			_, err := New(WithVersionFile(tc.path)).Post(context.Background(), srv.URL, nil)
			require.Error(t, err)

			var tre *TransportRequestError
			require.True(t, errors.As(err, &tre))
			assert.Equal(t, CodeVersionFile, tre.Code)
			assert.ErrorIs(t, err, tc.sentinel)
			assert.Equal(t, int32(0), atomic.LoadInt32(hits))
		})
	}
}

func TestTransportFailureIsTyped(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("simulated engine failure")
	})

	_, err := New(WithTransport(rt)).Get(context.Background(), "http://example.test/", nil)
	require.Error(t, err)

	var tre *TransportRequestError
	require.True(t, errors.As(err, &tre))
	assert.Equal(t, CodeUnknown, tre.Code)
	assert.Contains(t, err.Error(), "error 0")
	assert.Contains(t, err.Error(), "simulated engine failure")
}

func TestConnectionRefusedMapsToCouldNotConnect(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	versionFile := writeVersionFile(t, "1.0.0")
	_, err := New(WithVersionFile(versionFile)).Post(context.Background(), addr, NewPayload("k", "v"))
	require.Error(t, err)

	var tre *TransportRequestError
	require.True(t, errors.As(err, &tre))
	assert.Equal(t, CodeCouldNotConnect, tre.Code)
	assert.Contains(t, err.Error(), "error 7")
}

func TestCancelledContextIsAborted(t *testing.T) {
	srv, _, _ := newCaptureServer(t, http.StatusOK, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Get(ctx, srv.URL, nil)
	var tre *TransportRequestError
	require.True(t, errors.As(err, &tre))
	assert.Equal(t, CodeAbortedByCallback, tre.Code)
}
