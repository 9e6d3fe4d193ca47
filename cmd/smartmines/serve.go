package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/smartmines/internal/handlers"
	"github.com/vancomm/smartmines/internal/middleware"
)

const sessionSweepInterval = time.Minute

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Info("starting up, mode = ", cfg.Mode)

	app, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	j, err := cfg.Session.NewJWT()
	if err != nil {
		return err
	}
	sessions := handlers.NewSessions(
		cfg.Session.MaxSessions, cfg.Session.IdleTimeout.Duration, time.Now,
	)
	h := handlers.NewGameHandler(
		handlers.Log, app.games, app.store, j, cfg.Game, sessions,
		handlers.WithOrigins(cfg.Origins...),
	)

	mux := http.NewServeMux()
	h.Routes(mux)

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: middleware.Wrap(mux,
			middleware.Auth(log, j),
			middleware.Cors(cfg.Origins...),
			middleware.Logging(log),
			middleware.Recover(log),
		),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	log.Infof("ready to serve @ %s", cfg.Addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gCtx, sessionSweepInterval)
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("exit reason: %s\n", err)
		return err
	}
	log.Info("shut down")
	return nil
}
