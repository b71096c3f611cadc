package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/geoparser"
	"github.com/royalcat/communityaddr/internal/config"
	"github.com/royalcat/communityaddr/internal/stats"
	"github.com/royalcat/communityaddr/streetindex"
	"github.com/royalcat/communityaddr/streetstore"
	"github.com/royalcat/osmpbfdb"
	"github.com/urfave/cli/v3"
	"golang.org/x/exp/mmap"
)

func importStreets(ctx *cli.Context) error {
	log := slog.Default()

	inputs := ctx.StringSlice("input")
	bboxS := ctx.String("overpass-bbox")
	if len(inputs) == 0 && bboxS == "" {
		return errors.New("either --input or --overpass-bbox is required")
	}
	output := ctx.String("output")
	toPostgres := ctx.Bool("postgres")
	if output == "" && !toPostgres {
		return errors.New("either --output or --postgres is required")
	}

	threads := ctx.Int("threads")
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	log = log.With("threads", threads)

	preferredLocalization := ctx.String("preferred-localization")
	if preferredLocalization == "official" {
		preferredLocalization = ""
	}

	if pprofListen := ctx.String("pprof.listen"); pprofListen != "" {
		go func() {
			log.Info("Starting pprof server")
			err := http.ListenAndServe(pprofListen, nil)
			if err != nil {
				log.Error("Error starting pprof server", "error", err)
			}
		}()
	}
	if ctx.Bool("pprof.profile") {
		f, err := os.OpenFile("profile.cpu.pprof", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error creating pprof file: %w", err)
		}
		err = pprof.StartCPUProfile(f)
		if err != nil {
			return fmt.Errorf("error starting pprof: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var osmdb geoparser.NodeDB
	if len(inputs) > 0 {
		log.Info("Input maps", "inputs", inputs)

		var inputsReaders []io.ReaderAt
		for _, input := range inputs {
			file, err := mmap.Open(input)
			if err != nil {
				return err
			}
			defer file.Close()
			inputsReaders = append(inputsReaders, file)
		}

		db, err := osmpbfdb.OpenMultiDB(inputsReaders, osmpbfdb.Config{})
		if err != nil {
			return err
		}
		osmdb = db
	}

	cfg := geoparser.ConfigDefault()
	cfg.Threads = threads
	cfg.PreferredLocalization = preferredLocalization
	gen := geoparser.NewStreetGen(osmdb, cfg)

	var collector *stats.Collector
	if statsFile := ctx.String("stats"); statsFile != "" {
		var err error
		collector, err = stats.NewCollector(time.Second, gen.Len)
		if err != nil {
			return err
		}
		collector.Start()
		defer func() {
			report := collector.Stop()
			if err := report.SaveToFile(statsFile); err != nil {
				log.Error("failed to save import stats", "error", err)
			}
		}()
	}

	for _, input := range inputs {
		if err := gen.ParseOSMFile(ctx.Context, input); err != nil {
			return fmt.Errorf("error parsing osm: %w", err)
		}
	}

	if bboxS != "" {
		bound, err := parseBound(bboxS)
		if err != nil {
			return err
		}
		client := geoparser.NewOverpassClient(ctx.String("overpass-endpoint"), ctx.Duration("overpass-timeout"))
		if err := gen.FetchOverpass(ctx.Context, client, bound); err != nil {
			return err
		}
	}

	streets := gen.Streets()
	log.Info("Import complete", "streets", len(streets))

	if output != "" {
		if err := streetindex.WriteFile(output, streets); err != nil {
			return fmt.Errorf("failed to save streets to file: %w", err)
		}
		log.Info("Saved streets", "file", output)
	}

	if toPostgres {
		pgCfg := config.Load(ctx.String("env-file")).Postgres
		if !pgCfg.Enabled() {
			return errors.New("postgres is not configured, set PG_HOST")
		}
		pg, err := streetstore.OpenPostgres(ctx.Context, pgCfg.DSN(), pgCfg.MaxOpenConns, pgCfg.MaxIdleConns)
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := pg.EnsureSchema(ctx.Context); err != nil {
			return err
		}
		if err := pg.UpsertNamedStreets(ctx.Context, streets); err != nil {
			return err
		}
		log.Info("Upserted streets into postgres", "host", pgCfg.Host, "db", pgCfg.DB)
	}

	return nil
}

// parseBound parses "min_lon,min_lat,max_lon,max_lat".
func parseBound(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: expected 4 comma separated numbers", s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] >= v[2] || v[1] >= v[3] {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: min must be below max", s)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
