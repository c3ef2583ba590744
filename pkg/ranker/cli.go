package ranker

import (
	"errors"
	"fmt"
	"math"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/config"
	"github.com/travigo/nextbus/pkg/ctdf"
	"github.com/travigo/nextbus/pkg/stats"
	"github.com/travigo/nextbus/pkg/stopcatalog"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "nearby",
		Usage: "Rank the catalog's stops around a location",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "lat",
				Usage: "Latitude of the origin, leave unset to rank without a location",
				Value: math.NaN(),
			},
			&cli.Float64Flag{
				Name:  "lon",
				Usage: "Longitude of the origin",
				Value: math.NaN(),
			},
			&cli.Float64Flag{
				Name:  "radius",
				Usage: "Maximum distance in meters (defaults to the configured nearby radius, 0 for none)",
				Value: -1,
			},
			&cli.StringFlag{
				Name:  "query",
				Usage: "Text to match against stop description, code and road",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of stops to print",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Dump the full ranked stops instead of one line each",
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

			query := Query{
				Text:  c.String("query"),
				Limit: c.Int("limit"),
			}

			lat, lon := c.Float64("lat"), c.Float64("lon")
			if !math.IsNaN(lat) && !math.IsNaN(lon) {
				query.Origin = &ctdf.Location{Latitude: lat, Longitude: lon}
			}

			radius := c.Float64("radius")
			if radius < 0 {
				radius = cfg.NearbyRadiusMeters
			}
			if radius > 0 {
				query.MaxDistanceMeters = &radius
			}

			ranker := &Ranker{Catalog: catalog, Stats: stats.NewCollector()}
			ranked, err := ranker.Nearby(query)
			if errors.Is(err, ErrPermissionDenied) {
				log.Warn().Msg("No location given, listing stops in catalog order")
			}

			if len(ranked) == 0 {
				log.Info().Msg("No stops nearby")
				return nil
			}

			for _, rankedStop := range ranked {
				if c.Bool("pretty") {
					pretty.Println(rankedStop)
					continue
				}

				distance := "-"
				if rankedStop.HasDistance {
					distance = fmt.Sprintf("%.0fm", rankedStop.DistanceMeters)
				}
				fmt.Printf("%-8s %-7s %-32s %s\n", rankedStop.Stop.Code, distance, rankedStop.Stop.Description, rankedStop.Stop.RoadName)
			}

			return nil
		},
	}
}
