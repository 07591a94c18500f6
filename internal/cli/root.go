// Package cli implements the formsync command tree.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formsync/internal/config"
	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/renderers/tui"
)

// app carries state shared by the subcommands of one root command.
type app struct {
	viper     *viper.Viper
	cfgFile   string
	cfg       config.Config
	newDriver func(out io.Writer) tui.PromptDriver
}

// NewRootCommand builds the command tree with its own viper instance.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &app{viper: viper.New(), newDriver: tui.NewSurveyDriver})
}

func newRootCommand(version string, a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "formsync",
		Short:         "Render and fill admin forms with dependent-field sync",
		Long:          `formsync builds forms from an OpenAPI operation, attaches dependent-field rules and renders the live result as HTML or fills it interactively.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./.formsync.yaml or ~/.config/formsync/config.yaml)")
	flags.Bool("debug", false, "log debug output to stderr")
	flags.StringP("schema", "s", "", "OpenAPI document path or URL")
	flags.StringP("operation", "o", "", "operation id to build the form from")
	flags.StringSlice("rules", nil, "rule document files (JSON or YAML)")
	flags.StringSlice("preset", nil, "bundled rule documents to apply")

	_ = a.viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = a.viper.BindPFlag("schema", flags.Lookup("schema"))
	_ = a.viper.BindPFlag("operation", flags.Lookup("operation"))
	_ = a.viper.BindPFlag("rules", flags.Lookup("rules"))
	_ = a.viper.BindPFlag("presets", flags.Lookup("preset"))

	root.AddCommand(
		a.newRenderCommand(),
		a.newFillCommand(),
		a.newRulesCommand(),
		a.newOperationsCommand(),
		a.newLintCommand(),
	)
	return root
}

func (a *app) loadConfig(stderr io.Writer) error {
	cfg, err := config.Load(a.viper, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if cfg.Debug {
		log.Init(stderr, slog.LevelDebug)
	}
	log.Debug(log.CatCLI, "config loaded", "file", a.viper.ConfigFileUsed())
	return nil
}
