package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/schema"
)

// errViolations signals a lint failure whose details were already printed.
var errViolations = errors.New("schema extensions have violations")

func (a *app) newLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Check OpenAPI documents for unsupported or malformed x-formsync extensions",
		Long:  `lint checks every given document, or the configured schema when none is given, and exits non-zero when any extension is unsupported or malformed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 && a.cfg.Schema != "" {
				paths = []string{a.cfg.Schema}
			}
			if len(paths) == 0 {
				return errors.New("no schema given: pass paths or --schema")
			}

			found := 0
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				violations, err := schema.Lint(cmd.Context(), data)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				for _, v := range violations {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, v)
				}
				found += len(violations)
			}
			if found > 0 {
				return fmt.Errorf("%w: %d found", errViolations, found)
			}
			return nil
		},
	}
}
