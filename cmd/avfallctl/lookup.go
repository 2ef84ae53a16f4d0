package main

import (
	"fmt"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/internal/addresses/service"
	"avfall_backend/internal/addresses/transport"
	"avfall_backend/internal/fractions"

	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	var (
		flags    storeFlags
		postcode string
		fraction string
		prefix   bool
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Show the collection days for a postcode and fraction group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalog, err := fractions.Load(cfg.GetFractionsFile())
			if err != nil {
				return fmt.Errorf("load fraction groups: %w", err)
			}

			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, cfg, flags)
			if err != nil {
				return err
			}
			defer closeStore()

			req := transport.LookupRequest{Postcode: postcode, Fraction: fraction, Scope: string(domain.ScopeExact)}
			if prefix {
				req.Scope = string(domain.ScopePrefix)
			}

			lookup := service.NewLookup(store, catalog, nil, nil, cliLogger(cmd, cfg))
			resp, err := lookup.Lookup(ctx, nil, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	addStoreFlags(cmd, &flags)
	cmd.Flags().StringVar(&postcode, "postcode", "", "postcode, or its first three digits with --prefix")
	cmd.Flags().StringVar(&fraction, "fraction", "", "fraction group code, e.g. MAT or REST")
	cmd.Flags().BoolVar(&prefix, "prefix", false, "match on the 3-digit postcode prefix")
	_ = cmd.MarkFlagRequired("fraction")
	return cmd
}
