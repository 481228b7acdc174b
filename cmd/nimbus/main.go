// Command nimbus is an interactive weather assistant. It identifies a
// returning user, replays their conversation history and answers questions
// with live open-meteo data via model tool calls.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	core "github.com/webforspeed/nimbus-core"
)

type options struct {
	Config   string `short:"f" long:"config" description:"config YAML path"`
	Database string `short:"d" long:"db" description:"SQLite database path (overrides config)"`
	Model    string `short:"m" long:"model" description:"model identifier (overrides config)"`
	Verbose  bool   `short:"v" long:"verbose" description:"enable debug logging"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		return 2
	}

	logger := newLogger(opts.Verbose)
	slog.SetDefault(logger)

	var cfg core.Config
	if opts.Config != "" {
		loaded, err := core.LoadConfig(opts.Config)
		if err != nil {
			logger.Error("load config", "path", opts.Config, "error", err)
			return 1
		}
		cfg = loaded
	}
	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		return 1
	}

	store, err := core.OpenStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("open store", "path", cfg.DatabasePath, "error", err)
		return 1
	}
	defer store.Close()

	client, err := core.NewClient(cfg)
	if err != nil {
		logger.Error("create client", "error", err)
		return 1
	}

	log := logger.With("session", uuid.NewString())

	agent, err := core.NewAgent(cfg, client, core.BuiltinTools(core.NewProviders(cfg)), store, log)
	if err != nil {
		logger.Error("create agent", "error", err)
		return 1
	}

	session := &core.Session{
		Agent:        agent,
		Store:        store,
		In:           os.Stdin,
		Out:          os.Stdout,
		Logger:       log,
		SystemPrompt: cfg.SystemPrompt,
	}
	if err := session.Run(context.Background()); err != nil {
		log.Error("session failed", "error", err)
		return 1
	}
	return 0
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	return slog.New(handler)
}
