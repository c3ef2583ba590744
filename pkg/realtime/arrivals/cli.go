package arrivals

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/config"
	"github.com/travigo/nextbus/pkg/ctdf"
	"github.com/travigo/nextbus/pkg/datamall"
	"github.com/travigo/nextbus/pkg/stopcatalog"
	"github.com/travigo/nextbus/pkg/util"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll the live arrivals for one stop and log every update",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "stop",
				Usage:    "Stop code to poll",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "services",
				Usage: "Comma separated service numbers to filter the stop to",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Override the configured poll interval",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			catalog, err := stopcatalog.Open(cfg.CatalogPath)
			if err != nil {
				return err
			}

			interval := cfg.PollInterval
			if c.Duration("interval") > 0 {
				interval = c.Duration("interval")
			}

			poller := &Poller{
				StopCode: c.String("stop"),
				Services: util.SplitList(c.String("services"), ","),
				Interval: interval,
				Fetcher:  datamall.NewClient(cfg.ArrivalsBaseURL, cfg.ArrivalsAccountKey, cfg.ArrivalsTimeout),
				OnUpdate: logSnapshot,
			}

			if stop, ok := catalog.Get(poller.StopCode); ok {
				poller.KnownServices = stop.ServiceNumbers
				log.Info().Str("stop", stop.Code).Str("description", stop.Description).Str("road", stop.RoadName).Msg("Watching stop")
			} else {
				log.Warn().Str("stop", poller.StopCode).Msg("Stop is not in the catalog")
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := poller.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			poller.Stop()
			poller.Wait()

			return nil
		},
	}
}

func logSnapshot(snapshot *Snapshot) {
	now := time.Now()

	if snapshot.LastError != nil {
		log.Warn().
			Err(snapshot.LastError).
			Time("lastSuccess", snapshot.LastSuccess).
			Msg("Showing last known arrivals")
	}

	for _, service := range snapshot.Services {
		for index, slot := range service.Slots {
			log.Info().
				Str("service", service.ServiceNumber).
				Int("slot", index).
				Time("estimatedArrival", slot.EstimatedArrival).
				Dur("due", slot.EstimatedArrival.Sub(now).Round(time.Second)).
				Bool("monitored", slot.Monitored).
				Str("load", string(slot.Load)).
				Str("vehicle", string(slot.VehicleType)).
				Str("freshness", string(ctdf.ClassifyFreshness(slot.LastChangedAt, now))).
				Msg("Arrival")
		}
	}

	if len(snapshot.NotInOperation) > 0 {
		log.Info().Strs("services", snapshot.NotInOperation).Msg("Not in operation")
	}
}
