// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// mira-relay is the local CORS relay that sits between mira clients and an
// Ollama server, so browser-based builds can reach it too.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cosmoscoderrs/mira-tui/internal/config"
	"github.com/cosmoscoderrs/mira-tui/internal/relay"
)

// shutdownGrace bounds how long in-flight streams may finish on exit.
const shutdownGrace = 10 * time.Second

func main() {
	listenAddr := flag.String("listen", "", "listen address (default from config)")
	ollamaURL := flag.String("ollama", "", "upstream Ollama base URL (default from config)")
	flag.Parse()

	if err := run(*listenAddr, *ollamaURL); err != nil {
		fmt.Fprintf(os.Stderr, "mira-relay: %v\n", err)
		os.Exit(1)
	}
}

func run(listenAddr, ollamaURL string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if listenAddr == "" {
		listenAddr = cfg.Relay.ListenAddr
	}
	if ollamaURL == "" {
		ollamaURL = cfg.Relay.OllamaURL
	}

	r := relay.New(relay.Config{
		ListenAddr: listenAddr,
		OllamaURL:  ollamaURL,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("RELAY_STOP | signal=%v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return r.Shutdown(ctx)
}
