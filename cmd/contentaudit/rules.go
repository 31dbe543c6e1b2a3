package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/contentaudit/internal/config"
	"github.com/dshills/contentaudit/internal/rules"
	"github.com/dshills/contentaudit/internal/schema"
)

type rulesFlags struct {
	configPath string
	rulesPath  string
	category   string
	format     string
}

func newRulesCmd(configPath *string) *cobra.Command {
	var flags rulesFlags
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule catalog grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.configPath = *configPath
			return runRules(cmd.OutOrStdout(), flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.rulesPath, "rules", "", "Rule catalog YAML (default: embedded catalog)")
	f.StringVar(&flags.category, "category", "", "Only list one category")
	f.StringVar(&flags.format, "format", "text", "Output format: text or json")
	return cmd
}

func runRules(w io.Writer, flags rulesFlags) error {
	if flags.format != "text" && flags.format != "json" {
		return codeError(exitInput, "invalid flags: --format must be text or json, got %q", flags.format)
	}
	if flags.category != "" && !schema.IsValidCategory(schema.Category(flags.category)) {
		return codeError(exitInput, "invalid flags: unknown category %q", flags.category)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return codeError(exitInput, "%s", err)
	}
	rulesPath := flags.rulesPath
	if rulesPath == "" {
		rulesPath = cfg.Audit.RulesPath
	}
	catalog, err := rules.LoadOrDefault(rulesPath)
	if err != nil {
		return codeError(exitInput, "loading rules: %s", err)
	}

	categories := catalog.Categories()
	if flags.category != "" {
		categories = []schema.Category{schema.Category(flags.category)}
	}

	if flags.format == "json" {
		grouped := make(map[schema.Category][]rules.Rule, len(categories))
		for _, cat := range categories {
			grouped[cat] = catalog.ByCategory(cat)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"version": catalog.Version(), "rules": grouped}); err != nil {
			return codeError(exitInput, "writing output: %s", err)
		}
		return nil
	}

	fmt.Fprintf(w, "Catalog %s: %d rules\n", catalog.Version(), catalog.Len())
	for _, cat := range categories {
		fmt.Fprintf(w, "\n%s\n", strings.ToUpper(string(cat)))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, r := range catalog.ByCategory(cat) {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", r.ID, r.Severity, r.Kind, citation(r), r.Description)
		}
		if err := tw.Flush(); err != nil {
			return codeError(exitInput, "writing output: %s", err)
		}
	}
	return nil
}

func citation(r rules.Rule) string {
	if r.Article == "" {
		return r.Regulation
	}
	return r.Regulation + ", " + r.Article
}

