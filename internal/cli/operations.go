package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/schema"
)

func (a *app) newOperationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List the operations of a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Schema == "" {
				return errors.New("no schema given: pass --schema or set schema in the config file")
			}
			src, err := schema.ParseSource(a.cfg.Schema)
			if err != nil {
				return err
			}
			fetcher := schema.NewFetcher(schema.WithTimeout(a.cfg.Endpoint.Timeout), schema.WithHTTPClient(httpClient(a.cfg.Endpoint.Timeout)))
			data, err := fetcher.Fetch(cmd.Context(), src)
			if err != nil {
				return err
			}
			ids, err := schema.Operations(cmd.Context(), data)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
