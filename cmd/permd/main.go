package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/permbroker-org/permbroker/pkg/api"
	"github.com/permbroker-org/permbroker/pkg/api/service"
	"github.com/permbroker-org/permbroker/pkg/broker"
	"github.com/permbroker-org/permbroker/pkg/config"
	"github.com/permbroker-org/permbroker/pkg/frame"
	"github.com/permbroker-org/permbroker/pkg/policy"
	"github.com/permbroker-org/permbroker/pkg/types"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		logger.Error("permd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	flagSet := flag.NewFlagSet("permd", flag.ContinueOnError)
	configPath := flagSet.String("config", "", "Path to configuration file")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	remaining := flagSet.Args()
	mode := ""
	if len(remaining) > 0 {
		mode = remaining[0]
	}

	// CLI Command Dispatch
	if mode == "rules" {
		if len(remaining) < 2 {
			return errors.New("usage: permd rules <file>")
		}
		return cmdRules(logger, remaining[1])
	}

	return cmdServe(ctx, logger, *configPath)
}

// cmdRules validates a policy rule file.
func cmdRules(logger *slog.Logger, path string) error {
	rules, err := policy.LoadRules(path)
	if err != nil {
		return err
	}
	logger.Info("rules file valid", "path", path, "rules", len(rules.Rules), "default", rules.Default)
	return nil
}

func cmdServe(ctx context.Context, logger *slog.Logger, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("failed to load config", "error", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	frames := frame.NewRegistry()

	// Environment grant hooks: the embedding platform reacts to grants of
	// these kinds exactly once per granted slot.
	hooks := map[types.PermissionKind]broker.GrantHook{
		types.PermissionGeolocation: func() {
			logger.Info("user opted into location services")
		},
		types.PermissionMIDISysex: func() {
			logger.Info("sysex message access granted")
		},
	}
	b := broker.New(hooks, logger)

	prompts := service.NewPromptService(logger)
	tickets := service.NewTicketService(logger)

	if cfg.Policy.RulesPath != "" {
		rules, err := policy.LoadRules(cfg.Policy.RulesPath)
		if err != nil {
			logger.Error("failed to load policy rules", "error", err)
			return fmt.Errorf("load policy rules: %w", err)
		}
		engine := policy.NewEngine(rules, prompts, logger)
		b.SetRequestHandler(engine.RequestHandler())
		b.SetCheckHandler(engine.CheckHandler())
		logger.Info("policy engine installed",
			"rules", len(rules.Rules), "default", rules.Default)
	} else {
		logger.Warn("no policy rules configured, broker runs fail-open")
	}

	srv := api.NewServer(api.Config{
		Enable: cfg.HTTP.Enable,
		Addr:   cfg.HTTP.Addr,
		APIKey: cfg.HTTP.APIKey,
	}, b, frames, prompts, tickets, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	logger.Info("permd started", "addr", srv.Addr())

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		// Withdraw the decision authority so no caller is left waiting.
		b.SetRequestHandler(nil)
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
