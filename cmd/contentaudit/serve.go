package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/contentaudit/internal/audit"
	"github.com/dshills/contentaudit/internal/auditlog"
	"github.com/dshills/contentaudit/internal/config"
	"github.com/dshills/contentaudit/internal/journal"
	"github.com/dshills/contentaudit/internal/logging"
	"github.com/dshills/contentaudit/internal/observability"
	"github.com/dshills/contentaudit/internal/rules"
	"github.com/dshills/contentaudit/internal/schema"
	"github.com/dshills/contentaudit/internal/server"
)

type serveFlags struct {
	configPath  string
	addr        string
	rulesPath   string
	journalPath string
	watch       bool
}

func newServeCmd(configPath *string) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.configPath = *configPath
			return runServe(cmd.Context(), flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.addr, "addr", "", "Listen address (overrides config)")
	f.StringVar(&flags.rulesPath, "rules", "", "Rule catalog YAML (overrides config)")
	f.StringVar(&flags.journalPath, "journal", "", "BadgerDB directory for the audit journal (overrides config)")
	f.BoolVar(&flags.watch, "watch", false, "Reload the rule catalog when the file changes")
	return cmd
}

func runServe(ctx context.Context, flags serveFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return codeError(exitInput, "%s", err)
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.rulesPath != "" {
		cfg.Audit.RulesPath = flags.rulesPath
	}
	if flags.journalPath != "" {
		cfg.Journal.Path = flags.journalPath
		cfg.Journal.InMemory = false
	}
	if flags.watch {
		cfg.Audit.WatchRules = true
	}
	if err := cfg.Validate(); err != nil {
		return codeError(exitInput, "invalid config: %s", err)
	}

	if err := logging.Init(cfg.Logging.Level, cfg.Logging.JSON); err != nil {
		return codeError(exitInput, "%s", err)
	}
	defer logging.Sync()
	log := logging.Logger

	metrics := observability.NewMetrics()

	if cfg.Tracing.Stdout {
		shutdown, err := observability.InitTracing(ctx, version, os.Stderr)
		if err != nil {
			return codeError(exitInput, "%s", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Warnw("tracer shutdown failed", "error", err)
			}
		}()
	}

	catalog, err := rules.LoadOrDefault(cfg.Audit.RulesPath)
	if err != nil {
		return codeError(exitInput, "loading rules: %s", err)
	}
	log.Infow("rule catalog loaded", "version", catalog.Version(), "rules", catalog.Len())

	logOpts := []auditlog.Option{
		auditlog.WithLogger(log),
		auditlog.WithJournalErrorHook(metrics.JournalError),
	}
	var restored []*schema.AuditResult
	if cfg.JournalEnabled() {
		j, err := journal.Open(journal.Config{Path: cfg.Journal.Path, InMemory: cfg.Journal.InMemory, Logger: log})
		if err != nil {
			return codeError(exitInput, "opening journal: %s", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				log.Warnw("journal close failed", "error", err)
			}
		}()
		restored, err = j.Load()
		if err != nil {
			return codeError(exitInput, "replaying journal: %s", err)
		}
		logOpts = append(logOpts, auditlog.WithJournal(j))
	}
	history := auditlog.New(logOpts...)
	history.Restore(restored)
	metrics.SetLogSize(history.Len())
	if len(restored) > 0 {
		log.Infow("audit history restored", "entries", len(restored))
	}

	a := audit.New(catalog, history, audit.WithLogger(log), audit.WithObserver(metrics))

	if cfg.Audit.WatchRules {
		go func() {
			err := rules.Watch(ctx, cfg.Audit.RulesPath, log,
				func(c *rules.Catalog) {
					a.Reload(c)
					metrics.CatalogReload(true)
				},
				func(error) { metrics.CatalogReload(false) },
			)
			if err != nil {
				log.Errorw("rule watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(a, server.Options{
		HistoryLimit:    cfg.Server.HistoryLimit,
		Workers:         cfg.Audit.Workers,
		DefaultPlatform: schema.Platform(cfg.Audit.DefaultPlatform),
		Metrics:         metrics,
		Logger:          log,
	})
	log.Infow("service configured", "addr", cfg.Server.Addr, "journal", cfg.JournalEnabled(), "watch", cfg.Audit.WatchRules)
	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		return codeError(1, "%s", err)
	}
	return nil
}
