package main

import (
	"log/slog"
	"os"

	"github.com/honeynil/CoinLedgerService/internal/config"
	"github.com/urfave/cli/v2"
)

const serviceName = "coin-ledger-service"

func main() {
	cfg := config.Load()

	app := &cli.App{
		Name:  "server",
		Usage: "coin ledger and reward rules service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP server and the action consumer",
				Action: func(c *cli.Context) error {
					return serve(c.Context, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "create the postgres schema",
				Action: func(c *cli.Context) error {
					return migrate(c.Context, cfg)
				},
			},
			{
				Name:  "seed-rules",
				Usage: "create coin rules from a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Value: "rules.yaml", Usage: "path to the rule seed file"},
				},
				Action: func(c *cli.Context) error {
					return seedRules(c.Context, cfg, c.String("file"))
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
