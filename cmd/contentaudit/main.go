package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// Exit codes.
const (
	exitFailOn = 2 // --fail-on threshold met
	exitInput  = 3 // configuration or input error
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contentaudit",
		Short:         "Audit medical marketing content for regulatory compliance",
		Long:          "contentaudit checks posts, message templates and site copy against a catalog of medical advertising, ethics, data protection, telehealth and consumer protection rules.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./contentaudit.yaml when present)")

	root.AddCommand(
		newCheckCmd(&configPath),
		newBatchCmd(&configPath),
		newRulesCmd(&configPath),
		newServeCmd(&configPath),
	)
	return root
}
