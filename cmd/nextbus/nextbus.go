package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/api"
	"github.com/travigo/nextbus/pkg/ranker"
	"github.com/travigo/nextbus/pkg/realtime"
	"github.com/travigo/nextbus/pkg/stopcatalog"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("NEXTBUS_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if os.Getenv("NEXTBUS_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "nextbus",
		Description: "Nearby stops and live bus arrivals, with a local bridge for the app UI",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			ranker.RegisterCLI(),
			realtime.RegisterCLI(),
			stopcatalog.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
