// CLAUDE:SUMMARY Entry point for the aitools MCP server — config file, AI_TOOLS_* env, flags; stdio or streamable HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/aitools/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "YAML config file")
	workspace := flag.String("workspace", "", "workspace root (default: current directory)")
	transport := flag.String("transport", "", "stdio or http")
	addr := flag.String("addr", "", "HTTP listen address (default 127.0.0.1:0)")
	auditDB := flag.String("audit-db", "", "SQLite path for the extraction history")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	// Logs go to stderr: stdout carries the stdio transport.
	var lvl slog.Level
	switch *logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg := &server.Config{}
	if *configPath != "" {
		var err error
		cfg, err = server.LoadConfigFile(*configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		slog.Error("env config", "error", err)
		os.Exit(1)
	}
	if *workspace != "" {
		cfg.Workspace = *workspace
	}
	if *transport != "" {
		cfg.Transport = *transport
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *auditDB != "" {
		cfg.AuditDB = *auditDB
	}
	if cfg.Version == "" {
		cfg.Version = version
	}
	cfg.Logger = logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv, err := server.New(ctx, *cfg)
	if err != nil {
		slog.Error("server init", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server", "error", err)
		srv.Close()
		os.Exit(1)
	}
	slog.Info("aitools: stopped")
}
