package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/contentaudit/internal/audit"
	"github.com/dshills/contentaudit/internal/auditlog"
	"github.com/dshills/contentaudit/internal/calendar"
	"github.com/dshills/contentaudit/internal/config"
	"github.com/dshills/contentaudit/internal/logging"
	"github.com/dshills/contentaudit/internal/render"
	"github.com/dshills/contentaudit/internal/rules"
	"github.com/dshills/contentaudit/internal/schema"
)

type batchFlags struct {
	configPath string
	format     string
	out        string
	rulesPath  string
	failOn     string
	workers    int
	verbose    bool
}

func newBatchCmd(configPath *string) *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "batch <calendar.yaml>",
		Short: "Audit every post of a content calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.configPath = *configPath
			return runBatch(cmd.Context(), args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.format, "format", "json", "Output format: json or md")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	f.StringVar(&flags.rulesPath, "rules", "", "Rule catalog YAML (default: embedded catalog)")
	f.StringVar(&flags.failOn, "fail-on", "", "Exit 2 if any post's risk tier is at or above this level, or any post is rejected (rejected)")
	f.IntVar(&flags.workers, "workers", 0, "Concurrent audits (default from config, else GOMAXPROCS)")
	f.BoolVar(&flags.verbose, "verbose", false, "Print processing steps to stderr")
	return cmd
}

func runBatch(ctx context.Context, path string, flags batchFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateFormat(flags.format); err != nil {
		return codeError(exitInput, "invalid flags: %s", err)
	}
	if err := validateFailOn(flags.failOn); err != nil {
		return codeError(exitInput, "invalid flags: %s", err)
	}
	if flags.workers < 0 {
		return codeError(exitInput, "invalid flags: --workers must be >= 0, got %d", flags.workers)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return codeError(exitInput, "%s", err)
	}
	if err := logging.Init(cliLogLevel(flags.verbose, false), false); err != nil {
		return codeError(exitInput, "%s", err)
	}
	defer logging.Sync()
	log := logging.Logger

	rulesPath := flags.rulesPath
	if rulesPath == "" {
		rulesPath = cfg.Audit.RulesPath
	}
	workers := flags.workers
	if workers == 0 {
		workers = cfg.Audit.Workers
	}

	catalog, err := rules.LoadOrDefault(rulesPath)
	if err != nil {
		return codeError(exitInput, "loading rules: %s", err)
	}

	log.Infow("loading calendar", "path", path)
	entries, err := calendar.Load(path)
	if err != nil {
		return codeError(exitInput, "%s", err)
	}

	items := make([]audit.Item, len(entries))
	for i, e := range entries {
		items[i] = audit.Item{ID: e.ID, Text: e.Text, Platform: e.Platform}
	}

	a := audit.New(catalog, auditlog.New(), audit.WithLogger(log))
	results, batchErr := a.AuditBatch(ctx, items, workers)

	report := &schema.BatchReport{
		Tool:    "contentaudit",
		Version: version,
		Source:  path,
		Items:   make([]schema.BatchItem, len(results)),
		Stats:   a.Stats(),
	}
	failed, tripped := 0, 0
	for i, br := range results {
		item := schema.BatchItem{ID: br.ID, Date: entries[i].Date, Result: br.Result}
		if br.Err != nil {
			item.Error = br.Err.Error()
			failed++
		} else if failOnMet(flags.failOn, br.Result) {
			tripped++
		}
		report.Items[i] = item
	}

	renderer, err := render.NewRenderer(flags.format)
	if err != nil {
		return codeError(exitInput, "invalid format: %s", err)
	}
	out, err := renderer.RenderBatch(report)
	if err != nil {
		return codeError(exitInput, "rendering output: %s", err)
	}
	if err := writeOutput(flags.out, out); err != nil {
		return err
	}

	if batchErr != nil {
		return codeError(exitInput, "batch interrupted: %s", batchErr)
	}
	if failed > 0 {
		return codeError(exitInput, "%d of %d posts could not be audited", failed, len(results))
	}
	if tripped > 0 {
		return codeError(exitFailOn, "%s", failOnMessage(flags.failOn, tripped, len(results)))
	}
	return nil
}

func failOnMessage(failOn string, n, total int) string {
	if failOn == failOnRejected {
		return fmt.Sprintf("%d of %d posts rejected", n, total)
	}
	return fmt.Sprintf("%d of %d posts meet or exceed --fail-on threshold %s", n, total, failOn)
}
