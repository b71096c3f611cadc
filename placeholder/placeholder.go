// Package placeholder synthesizes stable pseudo streets for buildings that have
// no named street nearby.
package placeholder

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/royalcat/communityaddr/region"
)

const (
	// CellSize is the placeholder cell edge in degrees, about 220m at the equator.
	CellSize = 0.002

	// numbered cells per axis of a region extent, numbers stay within 100..99500
	gridCells  = 141
	baseNumber = 100
	numberStep = 5
)

// Store persists placeholder streets. GetOrCreatePlaceholderStreet must insert the
// candidate only if no street with the same ID exists and return the stored row
// either way. Concurrent callers with the same ID must all observe one row.
type Store interface {
	GetOrCreatePlaceholderStreet(ctx context.Context, candidate geomodel.PlaceholderStreet) (geomodel.PlaceholderStreet, error)
}

// Grid returns the grid cell placeholder containing p. Cell indexes are written as
// 16-bit two's complement, so cells 65536 apart (131° of longitude) share an ID.
func Grid(p orb.Point, regionCode string) geomodel.PlaceholderStreet {
	gx := int(math.Floor(p.Lon() / CellSize))
	gy := int(math.Floor(p.Lat() / CellSize))
	cell := fmt.Sprintf("%04X%04X", uint16(gx), uint16(gy))

	center := orb.Point{(float64(gx) + 0.5) * CellSize, (float64(gy) + 0.5) * CellSize}

	return geomodel.PlaceholderStreet{
		ID:               regionCode + "-" + cell,
		DisplayName:      "Street " + cell,
		RegionCode:       regionCode,
		Geometry:         northSouthSegment(center, CellSize),
		AlgorithmVersion: geomodel.AlgorithmV1,
	}
}

// InSubregion returns the numbered placeholder of the cell containing p. The region
// extent is split into gridCells x gridCells cells, so every cell inside the extent
// gets its own number. Points outside the extent wrap around and may share a number
// with a cell inside it.
func InSubregion(p orb.Point, r region.Region, ext region.Extent, sub region.Subregion) geomodel.PlaceholderStreet {
	w := 2 * ext.HalfLon / (gridCells - 1)
	h := 2 * ext.HalfLat / (gridCells - 1)
	minLon := r.Center.Lon() - ext.HalfLon
	minLat := r.Center.Lat() - ext.HalfLat

	gx := int(math.Floor((p.Lon() - minLon) / w))
	gy := int(math.Floor((p.Lat() - minLat) / h))

	number := baseNumber + numberStep*(wrap(gx)*gridCells+wrap(gy))
	name := sub.Code + "-" + strconv.Itoa(number)

	center := orb.Point{
		minLon + (float64(gx)+0.5)*w,
		minLat + (float64(gy)+0.5)*h,
	}

	return geomodel.PlaceholderStreet{
		ID:               r.Code + "-" + name,
		DisplayName:      name,
		RegionCode:       r.Code,
		SubregionCode:    sub.Code,
		Number:           number,
		Geometry:         northSouthSegment(center, h),
		AlgorithmVersion: geomodel.AlgorithmV2,
	}
}

func wrap(v int) int {
	return ((v % gridCells) + gridCells) % gridCells
}

func northSouthSegment(center orb.Point, length float64) orb.LineString {
	return orb.LineString{
		{center.Lon(), center.Lat() - length/2},
		{center.Lon(), center.Lat() + length/2},
	}
}

// Synthesizer derives placeholder candidates and resolves them through a Store.
type Synthesizer struct {
	classifier *region.Classifier
	store      Store
	version    string
}

func NewSynthesizer(classifier *region.Classifier, store Store, version string) (*Synthesizer, error) {
	switch version {
	case geomodel.AlgorithmV1, geomodel.AlgorithmV2:
	default:
		return nil, fmt.Errorf("unsupported placeholder algorithm %q", version)
	}
	return &Synthesizer{classifier: classifier, store: store, version: version}, nil
}

// Candidate computes the placeholder street for p without touching the store.
// Unclassified points have no bounded extent and always use the grid.
func (s *Synthesizer) Candidate(p orb.Point, r region.Region) geomodel.PlaceholderStreet {
	if s.version == geomodel.AlgorithmV1 {
		return Grid(p, r.Code)
	}
	if r.Code == region.Unclassified.Code {
		st := Grid(p, r.Code)
		st.AlgorithmVersion = s.version
		return st
	}
	return InSubregion(p, r, s.classifier.Extent(r), s.classifier.Subregion(r, p))
}

// GetOrCreate returns the stored placeholder street for p, creating it on first use.
// When another street already owns the ID the stored one wins.
func (s *Synthesizer) GetOrCreate(ctx context.Context, p orb.Point, r region.Region) (geomodel.PlaceholderStreet, error) {
	candidate := s.Candidate(p, r)

	street, err := s.store.GetOrCreatePlaceholderStreet(ctx, candidate)
	if err != nil {
		return geomodel.PlaceholderStreet{}, fmt.Errorf("error storing placeholder street %s: %w", candidate.ID, err)
	}
	return street, nil
}
