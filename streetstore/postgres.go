package streetstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/communityaddr/geomodel"
)

// ErrInvalidRow is returned when a stored row does not decode into a valid street.
var ErrInvalidRow = errors.New("invalid street row")

// PostgresStore keeps named and placeholder streets in PostGIS.
type PostgresStore struct {
	db *sqlx.DB
}

// OpenPostgres connects to the database and checks the connection.
func OpenPostgres(ctx context.Context, dsn string, maxOpen, maxIdle int) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	return NewPostgresStore(db), nil
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type namedStreetRow struct {
	ID       string  `db:"id"`
	Name     string  `db:"name"`
	Geometry []byte  `db:"geometry"`
	Distance float64 `db:"distance"`
}

const nearestStreetQuery = `
SELECT
	id,
	name,
	ST_AsBinary(geometry) AS geometry,
	ST_Distance(geometry::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
FROM streets
WHERE name <> ''
ORDER BY geometry <-> ST_SetSRID(ST_MakePoint($1, $2), 4326), id
LIMIT 1`

// FindNearestNamedStreet returns the named street closest to p. ok is false when
// the table has no named streets.
func (s *PostgresStore) FindNearestNamedStreet(ctx context.Context, p orb.Point) (geomodel.NamedStreetMatch, bool, error) {
	var row namedStreetRow
	err := s.db.GetContext(ctx, &row, nearestStreetQuery, p.Lon(), p.Lat())
	if errors.Is(err, sql.ErrNoRows) {
		return geomodel.NamedStreetMatch{}, false, nil
	}
	if err != nil {
		return geomodel.NamedStreetMatch{}, false, fmt.Errorf("failed to query nearest street: %w", err)
	}

	street, err := row.street(p)
	if err != nil {
		return geomodel.NamedStreetMatch{}, false, err
	}
	if math.IsNaN(row.Distance) || row.Distance < 0 {
		return geomodel.NamedStreetMatch{}, false, fmt.Errorf("%w: street %s has distance %v", ErrInvalidRow, row.ID, row.Distance)
	}

	return geomodel.NamedStreetMatch{Street: street, DistanceMeters: row.Distance}, true, nil
}

func (r namedStreetRow) street(p orb.Point) (geomodel.NamedStreet, error) {
	geom, err := wkb.Unmarshal(r.Geometry)
	if err != nil {
		return geomodel.NamedStreet{}, fmt.Errorf("%w: street %s geometry: %s", ErrInvalidRow, r.ID, err.Error())
	}

	var line orb.LineString
	switch g := geom.(type) {
	case orb.LineString:
		line = g
	case orb.MultiLineString:
		line = closestLine(g, p)
	default:
		return geomodel.NamedStreet{}, fmt.Errorf("%w: street %s has %s geometry", ErrInvalidRow, r.ID, geom.GeoJSONType())
	}
	if len(line) == 0 {
		return geomodel.NamedStreet{}, fmt.Errorf("%w: street %s has empty geometry", ErrInvalidRow, r.ID)
	}

	return geomodel.NamedStreet{ID: r.ID, Name: r.Name, Geometry: line}, nil
}

func closestLine(mls orb.MultiLineString, p orb.Point) orb.LineString {
	var best orb.LineString
	bestDist := math.Inf(1)
	for _, ls := range mls {
		if len(ls) == 0 {
			continue
		}
		if d := planar.DistanceFrom(ls, p); d < bestDist {
			best, bestDist = ls, d
		}
	}
	return best
}

const upsertStreetQuery = `
INSERT INTO streets (id, name, geometry)
VALUES ($1, $2, ST_SetSRID(ST_GeomFromWKB($3), 4326))
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, geometry = EXCLUDED.geometry`

// UpsertNamedStreets inserts or replaces streets in one transaction.
func (s *PostgresStore) UpsertNamedStreets(ctx context.Context, streets []geomodel.NamedStreet) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, upsertStreetQuery)
	if err != nil {
		return fmt.Errorf("error preparing street upsert: %w", err)
	}
	defer stmt.Close()

	for _, street := range streets {
		data, err := wkb.Marshal(street.Geometry)
		if err != nil {
			return fmt.Errorf("error encoding street %s geometry: %w", street.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, street.ID, street.Name, data); err != nil {
			return fmt.Errorf("error upserting street %s: %w", street.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing streets: %w", err)
	}
	return nil
}

type placeholderRow struct {
	ID               string `db:"id"`
	DisplayName      string `db:"display_name"`
	RegionCode       string `db:"region_code"`
	SubregionCode    string `db:"subregion_code"`
	Number           int    `db:"number"`
	Geometry         []byte `db:"geometry"`
	AlgorithmVersion string `db:"algorithm_version"`
}

func (r placeholderRow) street() (geomodel.PlaceholderStreet, error) {
	if r.ID == "" || r.DisplayName == "" || r.RegionCode == "" {
		return geomodel.PlaceholderStreet{}, fmt.Errorf("%w: placeholder %q has empty fields", ErrInvalidRow, r.ID)
	}
	if r.Number < 0 {
		return geomodel.PlaceholderStreet{}, fmt.Errorf("%w: placeholder %s has number %d", ErrInvalidRow, r.ID, r.Number)
	}

	geom, err := wkb.Unmarshal(r.Geometry)
	if err != nil {
		return geomodel.PlaceholderStreet{}, fmt.Errorf("%w: placeholder %s geometry: %s", ErrInvalidRow, r.ID, err.Error())
	}
	line, ok := geom.(orb.LineString)
	if !ok {
		return geomodel.PlaceholderStreet{}, fmt.Errorf("%w: placeholder %s has %s geometry", ErrInvalidRow, r.ID, geom.GeoJSONType())
	}

	return geomodel.PlaceholderStreet{
		ID:               r.ID,
		DisplayName:      r.DisplayName,
		RegionCode:       r.RegionCode,
		SubregionCode:    r.SubregionCode,
		Number:           r.Number,
		Geometry:         line,
		AlgorithmVersion: r.AlgorithmVersion,
	}, nil
}

const (
	placeholderColumns = `id, display_name, region_code, subregion_code, number, ST_AsBinary(geometry) AS geometry, algorithm_version`

	selectPlaceholderQuery = `SELECT ` + placeholderColumns + ` FROM placeholder_streets WHERE id = $1`

	insertPlaceholderQuery = `
INSERT INTO placeholder_streets (id, display_name, region_code, subregion_code, number, geometry, algorithm_version)
VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_GeomFromWKB($6), 4326), $7)
ON CONFLICT (id) DO NOTHING`

	listPlaceholdersQuery = `SELECT ` + placeholderColumns + ` FROM placeholder_streets ORDER BY id`
)

// GetOrCreatePlaceholderStreet implements placeholder.Store. The insert is a no-op
// when another writer got there first, and the final read returns the winner.
func (s *PostgresStore) GetOrCreatePlaceholderStreet(ctx context.Context, candidate geomodel.PlaceholderStreet) (geomodel.PlaceholderStreet, error) {
	street, found, err := s.getPlaceholder(ctx, candidate.ID)
	if err != nil || found {
		return street, err
	}

	data, err := wkb.Marshal(candidate.Geometry)
	if err != nil {
		return geomodel.PlaceholderStreet{}, fmt.Errorf("error encoding placeholder %s geometry: %w", candidate.ID, err)
	}
	_, err = s.db.ExecContext(ctx, insertPlaceholderQuery,
		candidate.ID,
		candidate.DisplayName,
		candidate.RegionCode,
		candidate.SubregionCode,
		candidate.Number,
		data,
		candidate.AlgorithmVersion,
	)
	if err != nil {
		return geomodel.PlaceholderStreet{}, fmt.Errorf("failed to insert placeholder %s: %w", candidate.ID, err)
	}

	street, found, err = s.getPlaceholder(ctx, candidate.ID)
	if err != nil {
		return geomodel.PlaceholderStreet{}, err
	}
	if !found {
		return geomodel.PlaceholderStreet{}, fmt.Errorf("placeholder %s missing after insert", candidate.ID)
	}
	return street, nil
}

func (s *PostgresStore) getPlaceholder(ctx context.Context, id string) (geomodel.PlaceholderStreet, bool, error) {
	var row placeholderRow
	err := s.db.GetContext(ctx, &row, selectPlaceholderQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return geomodel.PlaceholderStreet{}, false, nil
	}
	if err != nil {
		return geomodel.PlaceholderStreet{}, false, fmt.Errorf("failed to query placeholder %s: %w", id, err)
	}

	street, err := row.street()
	if err != nil {
		return geomodel.PlaceholderStreet{}, false, err
	}
	return street, true, nil
}

// ListPlaceholderStreets returns all placeholder streets ordered by ID.
func (s *PostgresStore) ListPlaceholderStreets(ctx context.Context) ([]geomodel.PlaceholderStreet, error) {
	rows, err := s.db.QueryxContext(ctx, listPlaceholdersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list placeholders: %w", err)
	}
	defer rows.Close()

	out := []geomodel.PlaceholderStreet{}
	for rows.Next() {
		var row placeholderRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRow, err.Error())
		}
		street, err := row.street()
		if err != nil {
			return nil, err
		}
		out = append(out, street)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list placeholders: %w", err)
	}
	return out, nil
}
