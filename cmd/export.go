package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/communityaddr/cachesaver"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/royalcat/communityaddr/internal/config"
	"github.com/royalcat/communityaddr/streetstore"
	"github.com/urfave/cli/v3"
)

func exportRegions(ctx *cli.Context) error {
	classifier, err := loadClassifier(ctx.String("regions"))
	if err != nil {
		return err
	}
	country := classifier.Country()
	level := ctx.Int("level")
	if level != 1 && level != 2 {
		return fmt.Errorf("invalid level %d, expected 1 or 2", level)
	}

	geojsonFile := ctx.String("geojson")
	shapeDir := ctx.String("shapefile-dir")
	if geojsonFile == "" && shapeDir == "" {
		return errors.New("either --geojson or --shapefile-dir is required")
	}

	if geojsonFile != "" {
		data, err := country.FeatureCollection(level).MarshalJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(geojsonFile, data, 0644); err != nil {
			return err
		}
		slog.Info("Wrote geojson", "file", geojsonFile, "level", level)
	}

	if shapeDir != "" {
		name, err := country.WriteShapefile(shapeDir, level)
		if err != nil {
			return err
		}
		slog.Info("Wrote shapefile", "file", name, "level", level)
	}
	return nil
}

func snapshot(ctx *cli.Context) error {
	name := ctx.String("snapshot")

	if ctx.Bool("from-postgres") {
		pgCfg := config.Load(ctx.String("env-file")).Postgres
		if !pgCfg.Enabled() {
			return errors.New("postgres is not configured, set PG_HOST")
		}
		pg, err := streetstore.OpenPostgres(ctx.Context, pgCfg.DSN(), pgCfg.MaxOpenConns, pgCfg.MaxIdleConns)
		if err != nil {
			return err
		}
		defer pg.Close()

		streets, err := pg.ListPlaceholderStreets(ctx.Context)
		if err != nil {
			return err
		}
		err = cachesaver.SaveFile(name, cachesaver.Metadata{Version: 1, DateCreated: time.Now()}, streets)
		if err != nil {
			return err
		}
		slog.Info("Saved placeholder street snapshot", "file", name, "count", len(streets))
		return nil
	}

	meta, streets, err := cachesaver.LoadFile(name, slog.Default())
	if err != nil {
		return err
	}
	slog.Info("Snapshot", "country", meta.Country, "created", meta.DateCreated, "count", meta.Count)

	w := bufio.NewWriter(os.Stdout)
	if err := writeGeoJSONLines(w, streets); err != nil {
		return err
	}
	return w.Flush()
}

// writeGeoJSONLines writes one GeoJSON feature per placeholder street and line.
func writeGeoJSONLines(w io.Writer, streets []geomodel.PlaceholderStreet) error {
	for _, st := range streets {
		f := geojson.NewFeature(st.Geometry)
		f.ID = st.ID
		f.Properties["display_name"] = st.DisplayName
		f.Properties["region_code"] = st.RegionCode
		if st.SubregionCode != "" {
			f.Properties["subregion_code"] = st.SubregionCode
			f.Properties["number"] = st.Number
		}
		f.Properties["algorithm_version"] = st.AlgorithmVersion

		data, err := f.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}
