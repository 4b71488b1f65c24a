// lairgrid runs Lua-defined tactical lair battles in the terminal.
// Usage: lairgrid [--version] [--plain] [--config <file>] [--seed <n>] [--script <file>] [--trace] <game_directory>
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nathoo/lairgrid/cli"
	"github.com/nathoo/lairgrid/config"
	"github.com/nathoo/lairgrid/engine"
	"github.com/nathoo/lairgrid/loader"
	"github.com/nathoo/lairgrid/logger"
	"github.com/nathoo/lairgrid/storage"
	"github.com/nathoo/lairgrid/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: lairgrid [--version] [--plain] [--config <file>] [--seed <n>] [--script <file>] [--trace] <game_directory>\n"

func main() {
	plain := false
	trace := false
	var gameDir, scriptFile, configFile string
	var seed int64

	args := os.Args[1:]
	// value returns the argument after a flag or exits.
	value := func(i int, flag string) string {
		if i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s requires a value\n", flag)
			os.Exit(1)
		}
		return args[i+1]
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("lairgrid %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script":
			scriptFile = value(i, "--script")
			i++
		case "--config":
			configFile = value(i, "--config")
			i++
		case "--seed":
			n, err := strconv.ParseInt(value(i, "--seed"), 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "--seed: %v\n", err)
				os.Exit(1)
			}
			seed = n
			i++
		default:
			if gameDir == "" {
				gameDir = args[i]
			}
		}
	}

	if gameDir == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	interactive := scriptFile == "" && !plain && isTerminal()
	closeLog := initLogging(cfg, interactive)
	defer closeLog()

	// Load and compile Lua game content.
	defs, err := loader.Load(gameDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(defs, cfg)

	// Without a slot database, saves fall back to JSON files.
	var store *storage.Store
	if cfg.SaveDB != "" {
		if store, err = storage.Open(cfg.SaveDB); err != nil {
			logger.Log.WithError(err).Warn("save database unavailable; using JSON saves")
			store = nil
		} else {
			defer store.Close()
		}
	}

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		c := cli.New(eng, defs)
		c.Store = store
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return
	}

	if !interactive {
		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		c := cli.New(eng, defs)
		c.Store = store
		c.Trace = trace
		c.Run()
		return
	}

	if err := tui.Run(eng, defs, store); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogging points the logger at the configured file, or stderr. The TUI
// owns the screen, so without a log file it logs nowhere.
func initLogging(cfg config.Config, interactive bool) func() {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			logger.Init(cfg.LogLevel, cfg.LogFormat, f)
			return func() { f.Close() }
		}
		fmt.Fprintf(os.Stderr, "Cannot open log file: %v\n", err)
	}
	if interactive {
		logger.Discard()
		return func() {}
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return func() {}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
