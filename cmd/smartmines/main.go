package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

var log = logrus.New()

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	cmd := &cli.Command{
		Name:   "smartmines",
		Usage:  "Minesweeper game server with smart uncover and persistent high scores",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file (json or yaml)",
				DefaultText: "config.json",
				Value:       "config.json",
				Sources:     cli.EnvVars("SMARTMINES_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the game server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending postgres migrations",
				Action: migrateUp,
			},
			{
				Name:   "games",
				Usage:  "print the saved games and their high scores",
				Action: listGames,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.WithError(err).Fatal("exit")
	}
}
