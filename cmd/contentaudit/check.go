package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/contentaudit/internal/audit"
	"github.com/dshills/contentaudit/internal/auditlog"
	"github.com/dshills/contentaudit/internal/config"
	"github.com/dshills/contentaudit/internal/content"
	"github.com/dshills/contentaudit/internal/logging"
	"github.com/dshills/contentaudit/internal/patch"
	"github.com/dshills/contentaudit/internal/render"
	"github.com/dshills/contentaudit/internal/review"
	"github.com/dshills/contentaudit/internal/rules"
	"github.com/dshills/contentaudit/internal/schema"
)

// failOnRejected is the --fail-on value that gates on approval instead of tier.
const failOnRejected = "rejected"

// checkFlags holds the parsed flags for the check command.
type checkFlags struct {
	configPath        string
	format            string
	out               string
	platform          string
	rulesPath         string
	failOn            string
	severityThreshold string
	patchOut          string
	fixOut            string
	verbose           bool
	debug             bool
}

func newCheckCmd(configPath *string) *cobra.Command {
	var flags checkFlags
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Audit one content file (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.configPath = *configPath
			return runCheck(cmd.Context(), args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.format, "format", "json", "Output format: json or md")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	f.StringVar(&flags.platform, "platform", "", "Target platform: instagram, linkedin, whatsapp or site (default from config)")
	f.StringVar(&flags.rulesPath, "rules", "", "Rule catalog YAML (default: embedded catalog)")
	f.StringVar(&flags.failOn, "fail-on", "", "Exit 2 if the risk tier is at or above this level (low, medium, high, critical) or if the content is rejected (rejected)")
	f.StringVar(&flags.severityThreshold, "severity-threshold", "info", "Minimum severity to emit: info, low, medium, high or critical")
	f.StringVar(&flags.patchOut, "patch-out", "", "Write a remediation diff in diff-match-patch format to this file")
	f.StringVar(&flags.fixOut, "fix-out", "", "Write the content with every remediation applied to this file")
	f.BoolVar(&flags.verbose, "verbose", false, "Print processing steps to stderr")
	f.BoolVar(&flags.debug, "debug", false, "Debug logging, including a redacted preview of the audited text")
	return cmd
}

func runCheck(ctx context.Context, path string, flags checkFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// --- Step 1: Validate flags ---
	if err := validateCheckFlags(flags); err != nil {
		return codeError(exitInput, "invalid flags: %s", err)
	}

	// --- Step 2: Configuration and logging ---
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return codeError(exitInput, "%s", err)
	}
	if err := logging.Init(cliLogLevel(flags.verbose, flags.debug), false); err != nil {
		return codeError(exitInput, "%s", err)
	}
	defer logging.Sync()
	log := logging.Logger

	platform := flags.platform
	if platform == "" {
		platform = cfg.Audit.DefaultPlatform
	}
	rulesPath := flags.rulesPath
	if rulesPath == "" {
		rulesPath = cfg.Audit.RulesPath
	}

	// --- Step 3: Load rule catalog ---
	log.Infow("loading rule catalog", "path", rulesPath)
	catalog, err := rules.LoadOrDefault(rulesPath)
	if err != nil {
		return codeError(exitInput, "loading rules: %s", err)
	}

	// --- Step 4: Load content ---
	log.Infow("loading content", "path", path)
	c, err := content.Load(path)
	if err != nil {
		return codeError(exitInput, "loading content: %s", err)
	}

	// --- Step 5: Audit ---
	a := audit.New(catalog, auditlog.New(), audit.WithLogger(log))
	result, err := a.Audit(ctx, c.Text, schema.Platform(platform))
	if err != nil {
		return codeError(exitInput, "%s", err)
	}
	log.Infow("audit complete", "score", result.Score, "tier", result.RiskTier, "violations", len(result.Violations))

	// --- Step 6: Build report; counts reflect all findings before filtering ---
	threshold := schema.Severity(flags.severityThreshold)
	report := &schema.Report{
		Tool:    "contentaudit",
		Version: version,
		Input:   schema.Input{Path: path, Hash: c.Hash, LineCount: c.LineCount},
		Result:  result.Clone(),
		Counts:  review.Counts(result.Violations),
		Lines:   locate(c, result.Violations),
	}
	if threshold != schema.SeverityInfo {
		report.Threshold = threshold
		report.Result.Violations = review.FilterBySeverity(result.Violations, threshold)
	}

	// --- Step 7: Write remediation patch and fixed content ---
	if flags.patchOut != "" {
		log.Infow("generating remediation patch", "path", flags.patchOut)
		diffText := patch.GenerateDiff(c.Text, result.Violations, os.Stderr)
		if err := os.WriteFile(flags.patchOut, []byte(diffText), 0o644); err != nil {
			log.Warnw("patch write failed", "error", err)
		}
	}
	if flags.fixOut != "" {
		log.Infow("writing remediated content", "path", flags.fixOut)
		if err := os.WriteFile(flags.fixOut, []byte(patch.Remediate(c.Text, result.Violations)), 0o644); err != nil {
			return codeError(exitInput, "writing remediated content: %s", err)
		}
	}

	// --- Step 8: Render and write ---
	renderer, err := render.NewRenderer(flags.format)
	if err != nil {
		return codeError(exitInput, "invalid format: %s", err)
	}
	out, err := renderer.Render(report)
	if err != nil {
		return codeError(exitInput, "rendering output: %s", err)
	}
	if err := writeOutput(flags.out, out); err != nil {
		return err
	}

	// --- Step 9: Evaluate --fail-on ---
	if failOnMet(flags.failOn, result) {
		if flags.failOn == failOnRejected {
			return codeError(exitFailOn, "content rejected (tier %s)", result.RiskTier)
		}
		return codeError(exitFailOn, "risk tier %s meets or exceeds --fail-on threshold %s", result.RiskTier, flags.failOn)
	}
	return nil
}

// locate maps each presence finding's phrase to the lines containing it.
func locate(c *content.Content, violations []schema.Violation) map[string][]int {
	lines := make(map[string][]int)
	for _, v := range violations {
		if v.Kind != schema.KindPresence {
			continue
		}
		if _, done := lines[v.MatchedExcerpt]; done {
			continue
		}
		if ls := c.LinesOf(v.MatchedExcerpt); len(ls) > 0 {
			lines[v.MatchedExcerpt] = ls
		}
	}
	return lines
}

func failOnMet(failOn string, r *schema.AuditResult) bool {
	switch failOn {
	case "":
		return false
	case failOnRejected:
		return !r.Approved
	default:
		return schema.TierOrdinal(r.RiskTier) >= schema.TierOrdinal(schema.RiskTier(failOn))
	}
}

// validateCheckFlags returns an error if any flag value is invalid.
func validateCheckFlags(flags checkFlags) error {
	if err := validateFormat(flags.format); err != nil {
		return err
	}
	if err := validateFailOn(flags.failOn); err != nil {
		return err
	}
	if !schema.IsValidSeverity(schema.Severity(flags.severityThreshold)) {
		return fmt.Errorf("--severity-threshold must be info, low, medium, high or critical, got %q", flags.severityThreshold)
	}
	if flags.platform != "" {
		if _, err := schema.ParsePlatform(flags.platform); err != nil {
			return fmt.Errorf("--platform: %w", err)
		}
	}
	return nil
}

func validateFormat(format string) error {
	if !slices.Contains(render.Formats, format) {
		return fmt.Errorf("--format must be one of %s, got %q", strings.Join(render.Formats, ", "), format)
	}
	return nil
}

func validateFailOn(failOn string) error {
	switch schema.RiskTier(failOn) {
	case "", schema.TierLow, schema.TierMedium, schema.TierHigh, schema.TierCritical:
		return nil
	}
	if failOn == failOnRejected {
		return nil
	}
	return fmt.Errorf("--fail-on must be low, medium, high, critical or rejected, got %q", failOn)
}

// cliLogLevel maps the verbosity flags to a log level. Without either flag
// only warnings reach stderr.
func cliLogLevel(verbose, debug bool) string {
	switch {
	case debug:
		return "debug"
	case verbose:
		return "info"
	default:
		return "warn"
	}
}

// writeOutput writes to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return codeError(exitInput, "writing output file: %s", err)
		}
		return nil
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return codeError(exitInput, "writing output: %s", err)
	}
	// Ensure output ends with a newline for terminal friendliness.
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(os.Stdout)
	}
	return nil
}
