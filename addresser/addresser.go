// Package addresser assembles community addresses from the nearest named street
// or a placeholder street, a house number and the region of the building.
package addresser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/royalcat/communityaddr/housenumber"
	"github.com/royalcat/communityaddr/placeholder"
	"github.com/royalcat/communityaddr/region"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StreetFinder looks up the named street closest to a coordinate. ok is false
// when there is no candidate at all.
type StreetFinder interface {
	FindNearestNamedStreet(ctx context.Context, p orb.Point) (match geomodel.NamedStreetMatch, ok bool, err error)
}

// Cache stores finished addresses. regionCode is empty for automatic classification.
type Cache interface {
	Get(ctx context.Context, version, regionCode string, p orb.Point) (geomodel.CommunityAddress, bool, error)
	Set(ctx context.Context, version, regionCode string, p orb.Point, addr geomodel.CommunityAddress) error
}

type Assembler struct {
	classifier   *region.Classifier
	streets      StreetFinder
	placeholders *placeholder.Synthesizer
	cache        Cache

	version           string
	maxStreetDistance float64
	spacing           int
	stepTimeout       time.Duration
	batchWorkers      int

	logger  *slog.Logger
	metrics *metrics
}

func New(classifier *region.Classifier, streets StreetFinder, store placeholder.Store, opts ...Option) (*Assembler, error) {
	options := loadOptions(opts...)

	if options.maxStreetDistance < 0 {
		return nil, fmt.Errorf("max street distance must not be negative")
	}
	if options.stepTimeout <= 0 {
		return nil, fmt.Errorf("step timeout must be positive")
	}

	placeholders, err := placeholder.NewSynthesizer(classifier, store, options.version)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	options.logger.Info("Initializing address assembler",
		"algorithm_version", options.version,
		"max_street_distance", options.maxStreetDistance,
		"regions", len(classifier.Country().Regions),
	)

	return &Assembler{
		classifier:        classifier,
		streets:           streets,
		placeholders:      placeholders,
		cache:             options.cache,
		version:           options.version,
		maxStreetDistance: options.maxStreetDistance,
		spacing:           options.spacing,
		stepTimeout:       options.stepTimeout,
		batchWorkers:      options.batchWorkers,
		logger:            options.logger,
		metrics:           m,
	}, nil
}

func (a *Assembler) Version() string {
	return a.version
}

// street is the street an address is anchored to, named or placeholder.
type street struct {
	id       string
	name     string
	source   geomodel.StreetSource
	geometry orb.LineString
}

// Assign computes the community address of the building at p. When regionCode is
// not empty it overrides classification and must name a configured region.
func (a *Assembler) Assign(ctx context.Context, p orb.Point, regionCode string) (geomodel.CommunityAddress, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "Assign", trace.WithAttributes(
		attribute.Float64("lon", p.Lon()),
		attribute.Float64("lat", p.Lat()),
		attribute.String("algorithm_version", a.version),
	))
	defer span.End()

	addr, err := a.assign(ctx, p, regionCode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.metrics.failures.Add(ctx, 1)
		return geomodel.CommunityAddress{}, err
	}

	a.metrics.assigned.Add(ctx, 1, metric.WithAttributes(attribute.String("street_source", string(addr.StreetSource))))
	a.metrics.duration.Record(ctx, time.Since(start).Seconds())
	return addr, nil
}

func (a *Assembler) assign(ctx context.Context, p orb.Point, regionCode string) (geomodel.CommunityAddress, error) {
	if err := validateCoordinate(p); err != nil {
		return geomodel.CommunityAddress{}, err
	}

	r, err := a.resolveRegion(p, regionCode)
	if err != nil {
		return geomodel.CommunityAddress{}, err
	}

	if a.cache != nil {
		addr, ok, err := a.cache.Get(ctx, a.version, regionCode, p)
		if err != nil {
			a.logger.WarnContext(ctx, "address cache read failed", "error", err.Error())
		} else if ok {
			return addr, nil
		}
	}

	st, err := a.searchNamedStreet(ctx, p)
	if err != nil {
		return geomodel.CommunityAddress{}, err
	}
	if st == nil {
		st, err = a.synthesizePlaceholder(ctx, p, r)
		if err != nil {
			return geomodel.CommunityAddress{}, err
		}
	}

	number := a.allocateNumber(p, st.geometry)

	addr := geomodel.CommunityAddress{
		HouseNumber:      number,
		StreetName:       st.name,
		StreetSource:     st.source,
		StreetID:         st.id,
		FullAddress:      Format(number, st.name, r.Name, a.classifier.Country().Name, a.version),
		AlgorithmVersion: a.version,
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, a.version, regionCode, p, addr); err != nil {
			a.logger.WarnContext(ctx, "address cache write failed", "error", err.Error())
		}
	}

	a.logger.DebugContext(ctx, "address assigned",
		"street_source", addr.StreetSource,
		"street_id", addr.StreetID,
		"region", r.Code,
	)
	return addr, nil
}

func (a *Assembler) resolveRegion(p orb.Point, code string) (region.Region, error) {
	if code != "" {
		return a.classifier.Region(code)
	}
	r, _ := a.classifier.Classify(p)
	return r, nil
}

// searchNamedStreet returns nil without error when no usable named street is close enough.
func (a *Assembler) searchNamedStreet(ctx context.Context, p orb.Point) (*street, error) {
	ctx, span := tracer.Start(ctx, "SearchNamedStreet")
	defer span.End()

	stepCtx, cancel := context.WithTimeout(ctx, a.stepTimeout)
	defer cancel()

	match, ok, err := a.streets.FindNearestNamedStreet(stepCtx, p)
	if err != nil {
		return nil, a.backendError(ctx, "street lookup", err)
	}
	if !ok || match.Street.Name == "" || match.DistanceMeters > a.maxStreetDistance {
		span.SetAttributes(attribute.Bool("matched", false))
		return nil, nil
	}

	span.SetAttributes(
		attribute.Bool("matched", true),
		attribute.String("street_id", match.Street.ID),
		attribute.Float64("distance_meters", match.DistanceMeters),
	)
	return &street{
		id:       match.Street.ID,
		name:     match.Street.Name,
		source:   geomodel.StreetSourceOSM,
		geometry: match.Street.Geometry,
	}, nil
}

func (a *Assembler) synthesizePlaceholder(ctx context.Context, p orb.Point, r region.Region) (*street, error) {
	ctx, span := tracer.Start(ctx, "SynthesizePlaceholder")
	defer span.End()

	stepCtx, cancel := context.WithTimeout(ctx, a.stepTimeout)
	defer cancel()

	ps, err := a.placeholders.GetOrCreate(stepCtx, p, r)
	if err != nil {
		return nil, a.backendError(ctx, "placeholder store", err)
	}
	a.metrics.placeholders.Add(ctx, 1)
	span.SetAttributes(attribute.String("street_id", ps.ID))

	return &street{
		id:       ps.ID,
		name:     ps.DisplayName,
		source:   geomodel.StreetSourcePlaceholder,
		geometry: ps.Geometry,
	}, nil
}

func (a *Assembler) allocateNumber(p orb.Point, line orb.LineString) int {
	pos, side := housenumber.Locate(p, line)
	if a.version == geomodel.AlgorithmV1 {
		return housenumber.Simple(pos, a.spacing)
	}
	return housenumber.SideAware(pos, side, a.spacing)
}

// backendError keeps caller cancellation distinct from backend failures.
func (a *Assembler) backendError(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", step, ctxErr)
	}
	a.logger.WarnContext(ctx, "address backend failed", "step", step, "error", err.Error())
	return fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, step, err)
}
