package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/freightdesk/freightdesk/modules/rates/infrastructure/persistence"
	"github.com/freightdesk/freightdesk/modules/rates/mapping"
	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/composables"
	"github.com/freightdesk/freightdesk/pkg/configuration"
	"github.com/freightdesk/freightdesk/pkg/eventbus"
)

// import runs one rate sheet through the full pipeline from the command
// line, bypassing the HTTP upload.
func newImportCmd() *cobra.Command {
	var partnerCode string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a partner rate sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			log := conf.Logger()

			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			ctx := composables.WithPool(cmd.Context(), pool)

			layouts, err := mapping.LoadConfig(conf.PartnerMappingPath)
			if err != nil {
				return err
			}

			publisher := eventbus.NewEventPublisher(log)
			subscribeImportEvents(publisher, log)

			jobRepo := persistence.NewImportJobRepository()
			partnerRepo := persistence.NewPartnerRepository()
			importService := services.NewImportService(
				jobRepo,
				persistence.NewRateRepository(),
				partnerRepo,
				layouts,
				publisher,
				log,
				conf.UploadsPath,
			)

			p, err := partnerRepo.GetByCode(ctx, partnerCode)
			if err != nil {
				return err
			}

			src, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			job, err := importService.Upload(ctx, p.ID, args[0], src)
			if err != nil {
				return err
			}
			job, err = importService.Process(ctx, job.ID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(job)
		},
	}
	cmd.Flags().StringVar(&partnerCode, "partner", "", "partner code owning the rate sheet")
	_ = cmd.MarkFlagRequired("partner")
	return cmd
}
