package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/rules"
)

func (a *app) newRulesCommand() *cobra.Command {
	var list bool
	var name string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate rule documents and print the merged result as YAML",
		Example: `  formsync rules --rules alerts.yaml --preset taste
  formsync rules --list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				return a.listPresets(cmd)
			}
			return a.printRules(cmd, name)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the bundled presets")
	cmd.Flags().StringVar(&name, "name", "merged", "name of the merged document")
	return cmd
}

func (a *app) listPresets(cmd *cobra.Command) error {
	store, err := rules.Presets()
	if err != nil {
		return err
	}
	for _, preset := range store.Names() {
		doc, _ := store.Document(preset)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", preset, strings.TrimSpace(doc.Description))
	}
	return nil
}

func (a *app) printRules(cmd *cobra.Command, name string) error {
	docs, err := loadRuleFiles(a.cfg.Rules)
	if err != nil {
		return err
	}
	for _, preset := range a.cfg.Presets {
		doc, err := rules.Preset(preset)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return errors.New("no rules given: pass --rules or --preset")
	}

	merged := docs[0]
	if len(docs) > 1 {
		merged = rules.Merge(name, docs...)
		if err := merged.Validate(); err != nil {
			return err
		}
	}
	out, err := rules.Marshal(merged)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
