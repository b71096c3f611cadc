package streetstore

import (
	"context"
	"fmt"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS streets (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	geometry geometry(Geometry, 4326) NOT NULL
);
CREATE INDEX IF NOT EXISTS streets_geometry_idx ON streets USING GIST (geometry);

CREATE TABLE IF NOT EXISTS placeholder_streets (
	id                TEXT PRIMARY KEY,
	display_name      TEXT NOT NULL,
	region_code       TEXT NOT NULL,
	subregion_code    TEXT NOT NULL DEFAULT '',
	number            INTEGER NOT NULL DEFAULT 0,
	geometry          geometry(LineString, 4326) NOT NULL,
	algorithm_version TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS placeholder_streets_geometry_idx ON placeholder_streets USING GIST (geometry);
CREATE INDEX IF NOT EXISTS placeholder_streets_region_idx ON placeholder_streets (region_code);
`

// EnsureSchema creates the PostGIS extension, tables and indexes when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}
