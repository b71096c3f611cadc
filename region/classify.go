package region

import (
	"fmt"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// centralFraction is the share of the region radius treated as the Central subregion.
const centralFraction = 0.3

type Classifier struct {
	country Country

	// zero disables the cutoff
	maxDistanceFactor float64

	extents func() map[string]Extent
}

type options struct {
	maxDistanceFactor float64
}

type Option interface {
	apply(*options)
}

type maxDistanceFactor float64

func (f maxDistanceFactor) apply(o *options) {
	o.maxDistanceFactor = float64(f)
}

// WithMaxDistanceFactor makes coordinates farther than factor*radius from the nearest
// region center classify as Unclassified. Default: disabled.
func WithMaxDistanceFactor(factor float64) Option {
	return maxDistanceFactor(factor)
}

// NewClassifier validates the country table and returns a classifier over it.
func NewClassifier(country Country, opts ...Option) (*Classifier, error) {
	if err := country.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.maxDistanceFactor < 0 {
		return nil, fmt.Errorf("%w: negative max distance factor", ErrInvalidConfig)
	}

	c := &Classifier{
		country:           country,
		maxDistanceFactor: o.maxDistanceFactor,
	}
	c.extents = sync.OnceValue(c.measureExtents)
	return c, nil
}

func (c *Classifier) Country() Country {
	return c.country
}

// Region returns the configured region with the given code.
func (c *Classifier) Region(code string) (Region, error) {
	return c.country.Lookup(code)
}

// Classify returns the region whose center is nearest to p and the subregion of p
// inside it. The nearest region is returned however far away it is unless a max
// distance factor is configured.
func (c *Classifier) Classify(p orb.Point) (Region, Subregion) {
	nearest, dist := c.nearest(p)

	if c.maxDistanceFactor > 0 && dist > c.maxDistanceFactor*nearest.RadiusKm {
		return Unclassified, Central
	}

	return nearest, subregionAt(nearest, p, dist)
}

// Subregion classifies p relative to an explicitly chosen region.
func (c *Classifier) Subregion(r Region, p orb.Point) Subregion {
	if r.Code == Unclassified.Code {
		return Central
	}
	return subregionAt(r, p, distanceKm(r.Center, p))
}

func (c *Classifier) nearest(p orb.Point) (Region, float64) {
	best := c.country.Regions[0]
	bestDist := distanceKm(best.Center, p)
	for _, r := range c.country.Regions[1:] {
		if d := distanceKm(r.Center, p); d < bestDist {
			best, bestDist = r, d
		}
	}
	return best, bestDist
}

func subregionAt(r Region, p orb.Point, distKm float64) Subregion {
	if distKm/r.RadiusKm < centralFraction {
		return Central
	}
	return octantOf(bearing(r.Center, p))
}

// bearing is the planar angle of p seen from center, in degrees, 0 = east,
// counter-clockwise, in (-180, 180].
func bearing(center, p orb.Point) float64 {
	return math.Atan2(p.Lat()-center.Lat(), p.Lon()-center.Lon()) * 180 / math.Pi
}

func distanceKm(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b) / 1000
}
