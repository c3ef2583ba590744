package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/api/routes"
	"github.com/travigo/nextbus/pkg/stats"
)

const shutdownTimeout = 5 * time.Second

func NewApp(services *routes.Services, collector *stats.Collector) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
	})
	webApp.Use(NewLogger())

	if collector != nil {
		webApp.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))
	}

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.StopsRouter(group.Group("/stops"), services)
	routes.VisibleRouter(group.Group("/visible"), services)
	routes.LikedRouter(group.Group("/liked"), services)

	return webApp
}

// SetupServer serves the bridge on listen until ctx is done
func SetupServer(ctx context.Context, listen string, services *routes.Services, collector *stats.Collector) error {
	webApp := NewApp(services, collector)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := webApp.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down web server")
		}
	}()

	log.Info().Str("listen", listen).Msg("Starting web server")

	return webApp.Listen(listen)
}
