package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/internal/watch"
)

type renderFlags struct {
	buildOptions
	output string
	page   bool
	watch  bool
}

func (a *app) newRenderCommand() *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the synchronised form as HTML",
		Example: `  formsync render -s api.yaml -o createBottle --preset bottlefield --set bottle=9
  formsync render -s api.yaml -o createBottle --rows bottlefield_set=2 --page --output form.html --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRender(cmd, flags)
		},
	}
	cmd.Flags().StringToIntVar(&flags.rows, "rows", nil, "extra rows per inline fieldset (fieldset=n)")
	cmd.Flags().StringArrayVar(&flags.values, "set", nil, "assign a control value (name=value, repeatable, applied in order)")
	cmd.Flags().StringVar(&flags.output, "output", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&flags.page, "page", false, "render a standalone HTML page")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-render when the schema or rule files change")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, flags renderFlags) error {
	if err := a.renderOnce(cmd.Context(), cmd.OutOrStdout(), flags); err != nil {
		return err
	}
	if !flags.watch {
		return nil
	}

	paths := a.watchedPaths()
	if len(paths) == 0 {
		return errors.New("--watch needs a local schema or rule file")
	}
	w, err := watch.New(watch.Config{Paths: paths, Debounce: a.cfg.Watch.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()
	changes, err := w.Start()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %d file(s), press Ctrl+C to stop\n", len(paths))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := a.renderOnce(ctx, cmd.OutOrStdout(), flags); err != nil {
				log.ErrorErr(log.CatCLI, "re-render failed", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "render failed: %v\n", err)
				continue
			}
			log.Info(log.CatCLI, "re-rendered", "output", flags.output)
		}
	}
}

func (a *app) renderOnce(ctx context.Context, stdout io.Writer, flags renderFlags) error {
	req, err := a.request(flags.buildOptions)
	if err != nil {
		return err
	}
	orch := a.newOrchestrator()
	generate := orch.Generate
	if flags.page {
		generate = orch.GeneratePage
	}
	out, err := generate(ctx, req)
	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(flags.output, out, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
