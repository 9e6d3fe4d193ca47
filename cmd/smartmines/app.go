package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v3"

	"github.com/vancomm/smartmines/internal/config"
	"github.com/vancomm/smartmines/internal/controller"
	"github.com/vancomm/smartmines/internal/database"
	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/handlers"
	"github.com/vancomm/smartmines/internal/minefield"
	"github.com/vancomm/smartmines/internal/repository"
	"github.com/vancomm/smartmines/internal/store"
)

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	configPath := cmd.String("config")

	cfg := config.Default()
	if err := config.Read(configPath, cfg); err != nil {
		return nil, fmt.Errorf("unable to read config %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	err := cfg.SetupLogging(
		log,
		minefield.Log,
		controller.Log,
		store.Log,
		handlers.Log,
	)
	if err != nil {
		return nil, err
	}
	log.WithFields(cfg.Fields()).Debug("config")
	return cfg, nil
}

type application struct {
	config *config.Config
	db     *sql.DB
	pg     *pgxpool.Pool
	store  *store.GameStore
	games  *game.Collection
}

// setup opens the game store and builds the collection of saved games. High
// scores live in postgres when it is configured, in sqlite otherwise.
func setup(ctx context.Context, cfg *config.Config) (*application, error) {
	app := &application{config: cfg}

	var err error
	app.db, err = sql.Open("sqlite3", cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite db: %w", err)
	}
	app.store, err = store.NewGameStore(app.db, cfg.Game.HighScores)
	if err != nil {
		app.Close()
		return nil, err
	}

	highScores := app.store.HighScores
	if cfg.Postgres != nil {
		pg, migrator, err := database.ConnectAndMigrate(ctx, cfg.Postgres.DbUrl())
		if err != nil {
			app.Close()
			return nil, err
		}
		migrator.Close()
		app.pg = pg
		highScores = repository.HighScoresFunc(repository.New(app.pg), cfg.Game.HighScores)
		log.Info("high scores are kept in postgres")
	}

	app.games, err = game.NewCollection(cfg.Game.CustomGames, highScores)
	if err != nil {
		app.Close()
		return nil, err
	}
	if err := app.restore(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// restore loads the saved records into the collection. Games evicted on the
// way are dropped from the store.
func (app *application) restore() error {
	records, err := app.store.LoadRecords()
	if err != nil {
		return err
	}
	for _, r := range records {
		evicted, err := app.games.Restore(r)
		if err != nil {
			log.WithError(err).WithField("game", r.Key()).Warn("skipping saved game")
			continue
		}
		if evicted != nil {
			if err := app.store.DeleteGame(evicted); err != nil {
				return err
			}
		}
	}
	log.WithField("games", len(records)).Info("restored saved games")
	return nil
}

func (app *application) Close() {
	if app.pg != nil {
		app.pg.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			log.WithError(err).Warn("unable to close sqlite db")
		}
	}
}
