// Emberlight is an audio-first interactive fiction runtime: a locked
// house, a persona to win over, and ambient sound that follows you
// from room to room.
// Usage: emberlight [--version] [--plain] [--script <file>] [--config <file>] [story_directory]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/nathoo/emberlight/audio"
	"github.com/nathoo/emberlight/audio/playback"
	"github.com/nathoo/emberlight/auth"
	"github.com/nathoo/emberlight/cli"
	"github.com/nathoo/emberlight/client"
	"github.com/nathoo/emberlight/config"
	"github.com/nathoo/emberlight/convo"
	"github.com/nathoo/emberlight/loader"
	"github.com/nathoo/emberlight/session"
	"github.com/nathoo/emberlight/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	configPath := "emberlight.yaml"
	var storyDir string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("emberlight %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--config requires a file path\n")
				os.Exit(1)
			}
			i++
			configPath = args[i]
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		default:
			if storyDir == "" {
				storyDir = args[i]
			}
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if storyDir != "" {
		cfg.StoryDir = storyDir
	}

	log, closeLog := openLogger(cfg.LogFile)
	defer closeLog()

	// Load and compile the Lua story content.
	defs, err := loader.Load(cfg.StoryDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading story: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(defs)
	sess.SetVolume(cfg.Volume)
	sess.SetMuted(cfg.Muted)
	gate := auth.New(sess)
	ctrl := convo.New(sess, defs)

	httpc := &http.Client{Timeout: cfg.RequestTimeout}
	verify := &client.Verifier{BaseURL: cfg.VerifyURL, HTTP: httpc}
	chat := &client.Chat{BaseURL: cfg.ChatURL, HTTP: httpc}
	health := &client.Health{BaseURL: cfg.HealthURL, HTTP: httpc}

	// Script mode: open file, force plain, echo input.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(sess, defs, gate, ctrl, verify, chat)
		c.In = f
		c.EchoInput = true
		c.Timeout = cfg.RequestTimeout
		c.Run()
		return
	}

	// Use the plain CLI if --plain or stdout is not a terminal. Audio
	// stays off in plain mode.
	if plain || !isTerminal() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		if !health.Check(ctx) {
			fmt.Println("[The house is quiet tonight. (companion service offline)]")
		}
		cancel()

		c := cli.New(sess, defs, gate, ctrl, verify, chat)
		c.Timeout = cfg.RequestTimeout
		c.Run()
		return
	}

	// Audio device: fall back to silence when the speaker cannot open
	// (headless, no audio hardware). Gameplay is unaffected.
	var dev audio.Device
	if d, err := playback.New(cfg.AssetDir); err == nil {
		dev = d
	} else {
		log.Warn("speaker unavailable, audio disabled", "error", err)
		dev = playback.Silent{}
	}

	eng := audio.New(dev, defs, log)
	defer eng.Close()
	sess.SetObserver(eng.Observe)

	err = tui.Run(tui.Deps{
		Session: sess,
		Defs:    defs,
		Gate:    gate,
		Convo:   ctrl,
		Audio:   eng,
		Verify:  verify,
		Chat:    chat,
		Health:  health,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLogger builds the process logger. The TUI owns the terminal, so
// logs go to the configured file or nowhere.
func openLogger(path string) (*slog.Logger, func()) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", path, err)
		return slog.New(slog.DiscardHandler), func() {}
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
