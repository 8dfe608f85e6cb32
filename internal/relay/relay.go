// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay provides the CORS relay in front of Ollama.
//
// Clients on other devices cannot talk to Ollama directly because it only
// answers same-origin requests; the relay forwards POST /api/* to the local
// Ollama instance verbatim, streams the response back, and adds permissive
// CORS headers so any origin can reach it.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultListenAddr is where the relay listens when unconfigured.
	DefaultListenAddr = ":3000"

	// DefaultOllamaURL is the local Ollama instance.
	DefaultOllamaURL = "http://localhost:11434"

	// upstreamErrorBody is returned verbatim when Ollama is unreachable.
	upstreamErrorBody = "Could not reach Ollama. Is it running?"

	// MaxRequestBodySize caps forwarded request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024
)

// =============================================================================
// RELAY
// =============================================================================

// Config configures a Relay.
type Config struct {
	// ListenAddr is the address to listen on.
	ListenAddr string

	// OllamaURL is the upstream Ollama base URL, without a trailing slash.
	OllamaURL string

	// Logger receives request logs; nil uses the standard logger.
	Logger *log.Logger
}

// Relay forwards chat requests to Ollama with CORS applied.
type Relay struct {
	addr     string
	upstream string
	logger   *log.Logger

	client *http.Client
	server *http.Server
}

// New creates a relay from config, filling in defaults for zero values.
func New(cfg Config) *Relay {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.OllamaURL == "" {
		cfg.OllamaURL = DefaultOllamaURL
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Relay{
		addr:     cfg.ListenAddr,
		upstream: strings.TrimSuffix(cfg.OllamaURL, "/"),
		logger:   cfg.Logger,
		// No client timeout: forwarded streams can run for minutes
		client: &http.Client{},
	}
}

// Addr returns the configured listen address.
func (r *Relay) Addr() string {
	return r.addr
}

// Handler returns the relay's HTTP handler with middleware applied.
func (r *Relay) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(r.logger),
		LoggingMiddleware(r.logger),
		CORSMiddleware(),
	)(http.HandlerFunc(r.handleForward))
}

// Start listens and serves until Shutdown. Blocks.
func (r *Relay) Start() error {
	r.server = &http.Server{
		Addr:        r.addr,
		Handler:     r.Handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: responses stream token by token
		IdleTimeout: 120 * time.Second,
	}

	r.logger.Printf("RELAY_START | addr=%s upstream=%s", r.addr, r.upstream)
	return r.server.ListenAndServe()
}

// Shutdown gracefully stops the relay.
func (r *Relay) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Printf("RELAY_SHUTDOWN | starting graceful shutdown")
	return r.server.Shutdown(ctx)
}

// =============================================================================
// FORWARDING
// =============================================================================

// handleForward proxies one request to Ollama. Only POST under /api/ is
// forwarded; everything else is a 404. Preflight is answered by the CORS
// middleware before reaching here.
func (r *Relay) handleForward(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost || !strings.HasPrefix(req.URL.Path, "/api/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body := http.MaxBytesReader(w, req.Body, MaxRequestBodySize)

	upstreamReq, err := http.NewRequestWithContext(req.Context(), http.MethodPost, r.upstream+req.URL.Path, body)
	if err != nil {
		r.writeUpstreamError(w, err)
		return
	}
	contentType := req.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	upstreamReq.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(upstreamReq)
	if err != nil {
		r.writeUpstreamError(w, err)
		return
	}
	defer resp.Body.Close()

	// Mirror the upstream response, then stream the body through with a
	// flush per chunk so tokens reach the client as they arrive
	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	copyStream(w, resp.Body)
}

func (r *Relay) writeUpstreamError(w http.ResponseWriter, err error) {
	r.logger.Printf("RELAY_UPSTREAM_ERROR | %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(map[string]string{"error": upstreamErrorBody})
}

// copyStream copies the upstream body to the client, flushing after each
// read so streamed chunks are not buffered.
func copyStream(w http.ResponseWriter, body io.Reader) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares; the first listed runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		handler := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// CORSMiddleware sets permissive CORS headers on every response and answers
// preflight requests with 204. The relay is meant to be reachable from any
// device on the network, so the allowlist is a wildcard.
func CORSMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs each request with timing information.
func LoggingMiddleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			logger.Printf("RELAY_REQUEST | method=%s path=%s status=%d duration=%s",
				r.Method, r.URL.Path, recorder.status, time.Since(start).Round(time.Millisecond))
		})
	}
}

// RecoveryMiddleware converts handler panics into 500s instead of dropping
// the connection.
func RecoveryMiddleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Printf("RELAY_PANIC | %v\n%s", rec, debug.Stack())
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"error":"internal server error"}`)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for logging while passing
// Flush through for streamed responses.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Flush() {
	if flusher, ok := s.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
