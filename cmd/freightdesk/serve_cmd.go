package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/freightdesk/freightdesk/modules/rates/infrastructure/persistence"
	"github.com/freightdesk/freightdesk/modules/rates/mapping"
	"github.com/freightdesk/freightdesk/modules/rates/presentation/controllers"
	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/composables"
	"github.com/freightdesk/freightdesk/pkg/configuration"
	"github.com/freightdesk/freightdesk/pkg/eventbus"
	"github.com/freightdesk/freightdesk/pkg/middleware"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conf := configuration.Use()
			log := conf.Logger()

			pool, err := connectDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			layouts, err := mapping.LoadConfig(conf.PartnerMappingPath)
			if err != nil {
				return err
			}

			publisher := eventbus.NewEventPublisher(log)
			subscribeImportEvents(publisher, log)

			rateRepo := persistence.NewRateRepository()
			jobRepo := persistence.NewImportJobRepository()
			partnerRepo := persistence.NewPartnerRepository()

			pricingService := services.NewPricingService()
			matchingService := services.NewMatchingService(rateRepo, pricingService)
			rateService := services.NewRateService(rateRepo)
			partnerService := services.NewPartnerService(partnerRepo)
			importService := services.NewImportService(
				jobRepo, rateRepo, partnerRepo, layouts, publisher, log, conf.UploadsPath,
			)

			// Background imports outlive the request that triggered them.
			appCtx := composables.WithPool(context.Background(), pool)

			router := mux.NewRouter()
			router.Use(middleware.RequestLogger(log, conf.RequestIDHeader))
			router.Use(middleware.WithPool(pool))

			controllers.NewMatchingController(matchingService, log).Register(router)
			controllers.NewRatesController(rateService, log).Register(router)
			controllers.NewPartnersController(partnerService, log).Register(router)
			controllers.NewImportsController(importService, log, appCtx, conf.MaxUploadSize).Register(router)

			srv := &http.Server{
				Addr:         conf.SocketAddress,
				Handler:      router,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", conf.SocketAddress).Info("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
