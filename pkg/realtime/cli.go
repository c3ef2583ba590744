package realtime

import (
	"github.com/travigo/nextbus/pkg/realtime/arrivals"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "realtime",
		Usage: "Live arrival sources",
		Subcommands: []*cli.Command{
			arrivals.RegisterCLI(),
		},
	}
}
