package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"markestedt/zoomdeck/config"
	"markestedt/zoomdeck/platform"
	"markestedt/zoomdeck/storage"
	"markestedt/zoomdeck/streamdeck"
	"markestedt/zoomdeck/web"
)

func main() {
	// Setup logging until the config says where logs go
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Parse the arguments the Stream Deck application launches us with
	args, err := streamdeck.ParseArgs(filepath.Base(os.Args[0]), os.Args[1:])
	if err != nil {
		slog.Error("Invalid launch arguments", "error", err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := serve(ctx, cfg, args)
	cancel()
	os.Exit(code)
}

// serve switches logging to cfg, runs the plugin and returns the process
// exit code. The log file is closed before it returns.
func serve(ctx context.Context, cfg *config.Config, args streamdeck.Args) int {
	logFile, err := setupLogging(cfg.Log)
	if err != nil {
		slog.Error("Failed to set up logging", "error", err)
		return 1
	}
	if logFile != nil {
		defer logFile.Close()
	}

	slog.Info("Configuration loaded",
		"path", cfg.Path(),
		"streamdeck_version", args.Info.Application.Version,
		"plugin_version", args.Info.Plugin.Version,
		"devices", len(args.Info.Devices),
	)

	if err := run(ctx, cfg, args); err != nil {
		slog.Error("Plugin error", "error", err)
		return 1
	}

	slog.Info("Zoom plugin stopped")
	return 0
}

// run connects to the Stream Deck application and serves until it goes away
func run(ctx context.Context, cfg *config.Config, args streamdeck.Args) error {
	conn, err := streamdeck.Dial(ctx, args)
	if err != nil {
		return err
	}
	defer conn.Close()

	runner := platform.NewExecRunner(cfg.Commands.Shell, cfg.CommandTimeout())
	plugin := NewPlugin(cfg, runner, conn)

	var db *storage.DB
	if cfg.History.Enabled {
		configDir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		db, err = storage.Open(configDir)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer db.Close()

		if n, err := db.Prune(cfg.History.RetentionDays); err != nil {
			slog.Warn("Failed to prune history", "error", err)
		} else if n > 0 {
			slog.Info("Pruned history", "rows", n)
		}
		plugin.SetHistory(db)
	}

	if cfg.Web.Enabled {
		server := web.NewServer(db, cfg, plugin)
		plugin.SetDashboard(server)
		go func() {
			if err := server.Start(ctx); err != nil {
				slog.Error("Web server error", "error", err)
			}
		}()
	}

	plugin.Start(ctx)
	defer plugin.Stop()

	conn.LogMessage("Zoom plugin connected")

	return conn.Run(ctx, plugin)
}

// setupLogging replaces the default logger according to cfg. The
// returned file, if any, must be closed on exit.
func setupLogging(cfg config.LogConfig) (io.Closer, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stdout
	var f *os.File
	if cfg.File != "" {
		f, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))

	if f == nil {
		return nil, nil
	}
	return f, nil
}
