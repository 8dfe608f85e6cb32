// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// mira is the terminal chat client: local accounts, multi-conversation
// journaling, and streamed replies from a local Ollama model.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cosmoscoderrs/mira-tui/internal/account"
	"github.com/cosmoscoderrs/mira-tui/internal/config"
	"github.com/cosmoscoderrs/mira-tui/internal/convo"
	"github.com/cosmoscoderrs/mira-tui/internal/kvstore"
	"github.com/cosmoscoderrs/mira-tui/internal/mira"
	"github.com/cosmoscoderrs/mira-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// watchDebounce settles SQLite's multi-file write bursts into one resync.
const watchDebounce = 500 * time.Millisecond

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	dbPath := flag.String("db", "", "path to the sqlite database (default: per-user data dir)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mira %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "mira: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if dbPath == "" {
		dbPath, err = kvstore.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
	}

	kv, err := kvstore.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()

	store, err := convo.NewStore(kv)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}
	accounts := account.NewManager(kv)

	username := ""
	if user, err := accounts.Current(); err == nil && user != nil {
		username = user.Name
	}
	client := mira.NewClient(cfg, username)

	model := ui.New(cfg, store, accounts, client, callDevices())
	client.Hidden = model.IsHidden

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())

	// Re-read shared state when another process writes the database.
	watcher, err := kvstore.NewWatcher(kv.Path(), watchDebounce, func() {
		program.Send(ui.StoreChangedMsg{})
	})
	if err == nil {
		if err := watcher.Watch(); err != nil {
			log.Printf("WATCH_FAIL | err=%v", err)
		}
		defer watcher.Close()
	} else {
		log.Printf("WATCH_FAIL | err=%v", err)
	}

	_, err = program.Run()
	return err
}

// callDevices wires platform speech devices. None exist in a plain
// terminal, so calls degrade to the unsupported notice; builds that link a
// speech backend fill these in.
func callDevices() ui.CallDevices {
	return ui.CallDevices{}
}
