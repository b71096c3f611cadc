package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/royalcat/communityaddr/addrcache"
	"github.com/royalcat/communityaddr/addresser"
	"github.com/royalcat/communityaddr/cachesaver"
	"github.com/royalcat/communityaddr/internal/config"
	"github.com/royalcat/communityaddr/region"
	"github.com/royalcat/communityaddr/streetindex"
	"github.com/royalcat/communityaddr/streetstore"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the environment and applies command line overrides.
func loadConfig(ctx *cli.Context) config.Config {
	cfg := config.Load(ctx.String("env-file"))
	if v := ctx.String("listen"); v != "" {
		cfg.Listen = v
	}
	if v := ctx.String("regions"); v != "" {
		cfg.RegionsFile = v
	}
	if v := ctx.String("streets"); v != "" {
		cfg.StreetsFile = v
	}
	if v := ctx.String("snapshot"); v != "" {
		cfg.SnapshotFile = v
	}
	if v := ctx.String("algorithm"); v != "" {
		cfg.Algorithm = v
	}
	return cfg
}

func loadClassifier(name string) (*region.Classifier, error) {
	country := region.Uganda()
	if name != "" {
		var err error
		country, err = region.LoadCountry(name)
		if err != nil {
			return nil, err
		}
	}
	return region.NewClassifier(country)
}

// backend holds the assembler and everything that has to be released with it.
type backend struct {
	assembler *addresser.Assembler
	closers   []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	log := slog.Default()
	b := &backend{}

	classifier, err := loadClassifier(cfg.RegionsFile)
	if err != nil {
		return nil, err
	}

	opts := []addresser.Option{
		addresser.WithAlgorithm(cfg.Algorithm),
		addresser.WithMaxStreetDistance(cfg.MaxStreetDistance),
		addresser.WithStepTimeout(cfg.StepTimeout),
		addresser.WithLogger(log),
	}

	if cfg.Redis.Enabled() {
		cache, err := addrcache.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, cache.Close)
		opts = append(opts, addresser.WithCache(cache))
		log.Info("Address cache enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.Postgres.Enabled() {
		pg, err := streetstore.OpenPostgres(ctx, cfg.Postgres.DSN(), cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pg.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}

		b.assembler, err = addresser.New(classifier, pg, pg, opts...)
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Using postgres street backend", "host", cfg.Postgres.Host, "db", cfg.Postgres.DB)
		return b, nil
	}

	index := streetindex.New()
	if cfg.StreetsFile != "" {
		streets, err := streetindex.LoadFile(cfg.StreetsFile)
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Loaded named streets", "file", cfg.StreetsFile, "count", index.InsertAll(streets))
	} else {
		log.Warn("No named streets configured, every address will use a placeholder street")
	}

	memory := streetstore.NewMemoryStore()
	if cfg.SnapshotFile != "" {
		if err := loadSnapshot(cfg.SnapshotFile, memory); err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() error {
			return saveSnapshot(cfg.SnapshotFile, classifier.Country().Code, memory)
		})
	}

	b.assembler, err = addresser.New(classifier, index, memory, opts...)
	if err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func loadSnapshot(name string, store *streetstore.MemoryStore) error {
	meta, streets, err := cachesaver.LoadFile(name, slog.Default())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error loading snapshot %s: %w", name, err)
	}
	for _, st := range streets {
		store.Put(st)
	}
	slog.Info("Loaded placeholder street snapshot", "file", name, "count", len(streets), "created", meta.DateCreated)
	return nil
}

func saveSnapshot(name, country string, store *streetstore.MemoryStore) error {
	streets := store.List()
	err := cachesaver.SaveFile(name, cachesaver.Metadata{
		Version:     1,
		Country:     country,
		DateCreated: time.Now(),
	}, streets)
	if err != nil {
		return fmt.Errorf("error saving snapshot %s: %w", name, err)
	}
	slog.Info("Saved placeholder street snapshot", "file", name, "count", len(streets))
	return nil
}
