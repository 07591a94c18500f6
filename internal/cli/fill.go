package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/renderers/tui"
)

type fillFlags struct {
	buildOptions
	format string
}

func (a *app) newFillCommand() *cobra.Command {
	var flags fillFlags
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the form interactively and print the submission",
		Long: `fill prompts for every control in document order. Dependent-field rules
run between prompts, so autocomplete choices follow the values already given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFill(cmd, flags, a.newDriver(cmd.ErrOrStderr()))
		},
	}
	cmd.Flags().StringToIntVar(&flags.rows, "rows", nil, "extra rows per inline fieldset (fieldset=n)")
	cmd.Flags().StringArrayVar(&flags.values, "set", nil, "preset a control value (name=value, repeatable, applied in order)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "output format: json, form or pretty (default from config)")
	return cmd
}

func (a *app) runFill(cmd *cobra.Command, flags fillFlags, driver tui.PromptDriver) error {
	ctx := cmd.Context()
	req, err := a.request(flags.buildOptions)
	if err != nil {
		return err
	}
	result, err := a.newOrchestrator().Build(ctx, req)
	if err != nil {
		return err
	}
	defer result.Close()

	format := flags.format
	if format == "" {
		format = a.cfg.Fill.Format
	}
	session := tui.New(
		tui.WithPromptDriver(driver),
		tui.WithOutputFormat(tui.ParseOutputFormat(format)),
		tui.WithEmptyLabel(a.cfg.Fill.EmptyLabel),
	)
	out, err := session.Fill(ctx, result.Document)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(out, '\n'))
	return err
}
