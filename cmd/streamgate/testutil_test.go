package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockServer stands in for a running streamgated instance in client
// tests: it checks the request shape and serves a canned response.
type mockServer struct {
	t        *testing.T
	handler  http.HandlerFunc
	wantPath string
	wantMeth string
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	return &mockServer{t: t}
}

// ExpectPath asserts the request path inside the handler.
func (m *mockServer) ExpectPath(path string) *mockServer {
	m.wantPath = path
	return m
}

// ExpectMethod asserts the HTTP method inside the handler.
func (m *mockServer) ExpectMethod(method string) *mockServer {
	m.wantMeth = method
	return m
}

func (m *mockServer) ExpectGET() *mockServer {
	return m.ExpectMethod(http.MethodGet)
}

func (m *mockServer) ExpectPOST() *mockServer {
	return m.ExpectMethod(http.MethodPost)
}

// RespondJSON serves v JSON-encoded, as the daemon's endpoints do.
func (m *mockServer) RespondJSON(v any) *mockServer {
	m.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			m.t.Fatalf("encode response: %v", err)
		}
	}
	return m
}

// RespondError serves a bare error status with a plain-text body.
func (m *mockServer) RespondError(code int, message string) *mockServer {
	m.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(message))
	}
	return m
}

// Build starts the server. Close it with defer srv.Close().
func (m *mockServer) Build() *httptest.Server {
	m.t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.wantPath != "" {
			assert.Equal(m.t, m.wantPath, r.URL.Path, "unexpected request path")
		}
		if m.wantMeth != "" {
			assert.Equal(m.t, m.wantMeth, r.Method, "unexpected request method")
		}
		if m.handler != nil {
			m.handler(w, r)
		}
	})

	return httptest.NewServer(handler)
}
