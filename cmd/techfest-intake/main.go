// cmd/techfest-intake/main.go
//
// The intake service receives registrations posted by the companion,
// validates them and stores them in SQLite. It reads the same .techfest
// config as the companion so both agree on the flow variant and the events.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/techfest/internal/config"
	"github.com/kingrea/techfest/internal/festival"
	"github.com/kingrea/techfest/internal/intake"
	"github.com/kingrea/techfest/internal/intake/sqlite"
	"github.com/kingrea/techfest/internal/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	reportInterval  = time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "techfest-intake: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if err := config.InitDir(cwd); err != nil {
		return fmt.Errorf("init %s: %w", config.Dir, err)
	}
	cfg, err := config.New(cwd)
	if err != nil {
		return err
	}
	logger := logging.NewWriter(os.Stderr, "intake")

	fest, err := festival.Load(cfg.FestivalPath())
	if err != nil {
		return err
	}
	catalog, err := fest.Catalog()
	if err != nil {
		return err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}
	settings, err := intake.SettingsFromConfig(cfg)
	if err != nil {
		return err
	}
	if !settings.Enabled {
		logger.Printf("intake disabled by configuration; exiting")
		return nil
	}

	store, err := sqlite.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	srv := intake.NewServer(settings,
		intake.WithStore(store),
		intake.WithProfile(profile),
		intake.WithCatalog(catalog),
		intake.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Printf("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := store.Count(gctx)
				if err != nil {
					logger.Printf("count registrations: %v", err)
					continue
				}
				logger.Printf("%d registration(s) stored at %s", n, srv.BaseURL())
			}
		}
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
