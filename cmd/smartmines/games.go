package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/vancomm/smartmines/internal/database"
)

var errNoPostgres = errors.New("postgres is not configured")

func migrateUp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Postgres == nil {
		return errNoPostgres
	}
	migrator, err := database.Migrate(cfg.Postgres.DbUrl(), database.Migrations)
	if err != nil {
		return err
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("unable to read migration version: %w", err)
	}
	log.WithField("dirty", dirty).Infof("database is at version %d", version)
	return nil
}

func listGames(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tNAME\tSTARTED\tWON\tLOST\tBEST")
	for _, g := range app.games.Games() {
		best := "-"
		if hs := g.HighScores(); hs != nil {
			scores, err := hs.List(ctx)
			if err != nil {
				return err
			}
			if len(scores) > 0 {
				best = fmt.Sprintf("%s (%s)", scores[0].Elapsed, scores[0].Player)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			g.Description(), g.Name(), g.TimesStarted(), g.TimesWon(), g.TimesLost(), best,
		)
	}
	return w.Flush()
}
