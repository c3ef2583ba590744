package api

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/api/routes"
	"github.com/travigo/nextbus/pkg/config"
	"github.com/travigo/nextbus/pkg/datamall"
	"github.com/travigo/nextbus/pkg/liked"
	"github.com/travigo/nextbus/pkg/ranker"
	"github.com/travigo/nextbus/pkg/realtime/arrivals"
	"github.com/travigo/nextbus/pkg/redis_client"
	"github.com/travigo/nextbus/pkg/stats"
	"github.com/travigo/nextbus/pkg/stopcatalog"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local HTTP bridge for the UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen target for the web server (overrides NEXTBUS_LISTEN)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.String("listen") != "" {
				cfg.Listen = c.String("listen")
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			catalog, err := stopcatalog.Open(cfg.CatalogPath)
			if err != nil {
				return err
			}

			if err := redis_client.Connect(ctx, cfg); err != nil {
				return err
			}

			likedCollections := liked.NewCollections(liked.NewRedisStore(redis_client.Client))
			if err := likedCollections.Load(ctx); err != nil {
				var persistenceErr *liked.PersistenceError
				if !errors.As(err, &persistenceErr) {
					return err
				}
				log.Error().Err(err).Msg("Starting with empty liked collections")
			}

			collector := stats.NewCollector()

			pollers := arrivals.NewPollerPool(
				ctx,
				datamall.NewClient(cfg.ArrivalsBaseURL, cfg.ArrivalsAccountKey, cfg.ArrivalsTimeout),
				catalog,
			)
			pollers.Interval = cfg.PollInterval
			pollers.MaxActive = cfg.MaxActivePollers
			pollers.Stats = collector
			defer pollers.StopAll()

			services := &routes.Services{
				Catalog: catalog,
				Ranker: &ranker.Ranker{
					Catalog: catalog,
					Stats:   collector,
				},
				Pollers: pollers,
				Liked:   likedCollections,

				NearbyRadiusMeters: cfg.NearbyRadiusMeters,
				PageSize:           cfg.PageSize,
			}

			return SetupServer(ctx, cfg.Listen, services, collector)
		},
	}
}
