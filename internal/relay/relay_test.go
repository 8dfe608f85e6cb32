// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testRelay(t *testing.T, upstream http.HandlerFunc) *Relay {
	t.Helper()
	var server *httptest.Server
	if upstream != nil {
		server = httptest.NewServer(upstream)
		t.Cleanup(server.Close)
	}

	cfg := Config{Logger: log.New(io.Discard, "", 0)}
	if server != nil {
		cfg.OllamaURL = server.URL
	} else {
		// Nothing listens here
		cfg.OllamaURL = "http://127.0.0.1:1"
	}
	return New(cfg)
}

func TestRelay_ForwardsChatRequest(t *testing.T) {
	var gotPath, gotBody, gotContentType string
	relay := testRelay(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"content":"hello"}}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"model":"gemma3:4b"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	relay.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotPath != "/api/chat" {
		t.Errorf("upstream path = %q", gotPath)
	}
	if gotBody != `{"model":"gemma3:4b"}` {
		t.Errorf("body not forwarded verbatim: %q", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if got := rec.Body.String(); got != `{"message":{"content":"hello"}}` {
		t.Errorf("response body = %q", got)
	}
}

func TestRelay_CORSHeadersOnAllResponses(t *testing.T) {
	relay := testRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/chat"},
		{http.MethodGet, "/nope"},
		{http.MethodOptions, "/api/chat"},
	}
	for _, tt := range paths {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		relay.Handler().ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s %s: Allow-Origin = %q, want *", tt.method, tt.path, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
			t.Errorf("%s %s: Allow-Methods = %q", tt.method, tt.path, got)
		}
	}
}

func TestRelay_PreflightReturns204(t *testing.T) {
	relay := testRelay(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	rec := httptest.NewRecorder()
	relay.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}

func TestRelay_RejectsNonAPIRoutes(t *testing.T) {
	relay := testRelay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be reached")
	})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/chat"},
		{http.MethodPost, "/other"},
		{http.MethodPost, "/"},
		{http.MethodDelete, "/api/chat"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		relay.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", tt.method, tt.path, rec.Code)
		}
	}
}

func TestRelay_UpstreamDownReturns502(t *testing.T) {
	relay := testRelay(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	relay.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if payload.Error != "Could not reach Ollama. Is it running?" {
		t.Errorf("error = %q", payload.Error)
	}
}

func TestRelay_StreamsUpstreamBody(t *testing.T) {
	relay := testRelay(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, line := range []string{`{"message":{"content":"a"}}`, `{"message":{"content":"b"}}`, `{"done":true}`} {
			io.WriteString(w, line+"\n")
			flusher.Flush()
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	relay.Handler().ServeHTTP(rec, req)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 stream lines, got %d: %q", len(lines), rec.Body.String())
	}
	if !rec.Flushed {
		t.Error("response was never flushed")
	}
}

func TestRelay_MirrorsUpstreamStatus(t *testing.T) {
	relay := testRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"model not found"}`)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	relay.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want upstream 404 mirrored", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "model not found") {
		t.Errorf("upstream error body not mirrored: %q", rec.Body.String())
	}
}

func TestRelay_Defaults(t *testing.T) {
	relay := New(Config{})
	if relay.Addr() != DefaultListenAddr {
		t.Errorf("addr = %q", relay.Addr())
	}
	if relay.upstream != DefaultOllamaURL {
		t.Errorf("upstream = %q", relay.upstream)
	}
}

func TestRelay_RecoversFromPanic(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	handler := Chain(
		RecoveryMiddleware(logger),
		CORSMiddleware(),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
