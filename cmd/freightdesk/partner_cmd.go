package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/freightdesk/freightdesk/modules/rates/infrastructure/persistence"
	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/composables"
	"github.com/freightdesk/freightdesk/pkg/configuration"
)

func newPartnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partner",
		Short: "Manage transport partners",
	}
	cmd.AddCommand(newPartnerCreateCmd())
	cmd.AddCommand(newPartnerListCmd())
	return cmd
}

func newPartnerCreateCmd() *cobra.Command {
	var name, currency string

	cmd := &cobra.Command{
		Use:   "create <code>",
		Short: "Register a transport partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			ctx := composables.WithPool(cmd.Context(), pool)

			svc := services.NewPartnerService(persistence.NewPartnerRepository())
			p, err := svc.Create(ctx, &services.CreatePartnerDTO{
				Code:     args[0],
				Name:     name,
				Currency: currency,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&currency, "currency", configuration.Use().DefaultCurrency, "local currency code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPartnerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered partners",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			ctx := composables.WithPool(cmd.Context(), pool)

			svc := services.NewPartnerService(persistence.NewPartnerRepository())
			partners, err := svc.List(ctx, 0, 0)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(partners)
		},
	}
}
