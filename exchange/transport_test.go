package exchange

import (
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/npc-z/minihttpie/input"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "deadline exceeded" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestTransportErrorKind(t *testing.T) {
	testCases := []struct {
		title    string
		err      error
		expected TransportErrorKind
	}{
		{
			title:    "Timeout",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: fakeTimeoutError{}},
			expected: Timeout,
		},
		{
			title:    "Unknown certificate authority",
			err:      &url.Error{Op: "Get", URL: "https://example.com", Err: x509.UnknownAuthorityError{}},
			expected: TLSFailed,
		},
		{
			title:    "Malformed response",
			err:      errors.New(`malformed HTTP response "x"`),
			expected: InvalidResponse,
		},
		{
			title:    "Connection refused",
			err:      errors.New("dial tcp 127.0.0.1:1: connect: connection refused"),
			expected: ConnectionFailed,
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, transportErrorKind(tt.err))
		})
	}
}

func TestSendRequestSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	in := &input.Input{
		Method: input.Method("POST"),
		URL:    parseURL(t, server.URL),
		Body: input.Body{
			BodyType: input.JSONBody,
			Fields:   []input.Field{{Name: "a", Value: "b"}},
		},
	}
	request, err := BuildHTTPRequest(in, &Options{})
	require.NoError(t, err)

	resp, err := SendRequest(request, &Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
}

func TestSendRequestConnectionFailure(t *testing.T) {
	// A closed server guarantees a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	in := &input.Input{
		Method: input.Method("GET"),
		URL:    parseURL(t, serverURL),
	}
	request, err := BuildHTTPRequest(in, &Options{})
	require.NoError(t, err)

	_, err = SendRequest(request, &Options{Timeout: 5 * time.Second})
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, ConnectionFailed, transportErr.Kind)
}

func TestSendRequestDoesNotFollowRedirectsByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	in := &input.Input{
		Method: input.Method("GET"),
		URL:    parseURL(t, server.URL),
	}
	request, err := BuildHTTPRequest(in, &Options{})
	require.NoError(t, err)

	resp, err := SendRequest(request, &Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
