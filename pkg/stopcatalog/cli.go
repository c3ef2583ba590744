package stopcatalog

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect stop datasets",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "load a stop dataset and report what it contains",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Path to a .json, .csv or .yaml dataset (defaults to the bundled dataset)",
					},
				},
				Action: func(c *cli.Context) error {
					catalog, err := Open(c.String("path"))
					if err != nil {
						return err
					}

					services := map[string]bool{}
					withoutServices := 0
					for _, stop := range catalog.All() {
						if len(stop.ServiceNumbers) == 0 {
							withoutServices++
						}
						for _, service := range stop.ServiceNumbers {
							services[service] = true
						}
					}

					log.Info().
						Str("source", catalog.DataSource.Dataset).
						Str("format", catalog.DataSource.OriginalFormat).
						Int("stops", catalog.Len()).
						Int("services", len(services)).
						Int("stopsWithoutServices", withoutServices).
						Msg("Stop catalog is valid")

					return nil
				},
			},
		},
	}
}
