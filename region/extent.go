package region

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// extentStep is the sampling step, in degrees, used to measure region extents.
	extentStep = 0.02
	// added to each measured half size to cover corners between samples
	extentMargin = 3 * extentStep
)

// Extent is the half size in degrees of the box around a region center that holds
// every point of the country bound classified into the region.
type Extent struct {
	HalfLon float64
	HalfLat float64
}

// Contains reports whether p lies inside the extent box around center.
func (e Extent) Contains(center, p orb.Point) bool {
	return math.Abs(p.Lon()-center.Lon()) <= e.HalfLon && math.Abs(p.Lat()-center.Lat()) <= e.HalfLat
}

// radiusExtent is the box spanning factor radii around the region center.
func radiusExtent(r Region, factor float64) Extent {
	halfLat := factor * r.RadiusKm / kmPerDegree
	cos := math.Cos(r.Center.Lat() * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	return Extent{HalfLon: halfLat / cos, HalfLat: halfLat}
}

// bound returns the configured bound or, when none is set, the box covering every
// region out to twice its radius.
func (c Country) bound() orb.Bound {
	if c.Bound != (orb.Bound{}) {
		return c.Bound
	}
	b := orb.Bound{Min: c.Regions[0].Center, Max: c.Regions[0].Center}
	for _, r := range c.Regions {
		e := radiusExtent(r, 2)
		b = b.Extend(orb.Point{r.Center.Lon() - e.HalfLon, r.Center.Lat() - e.HalfLat})
		b = b.Extend(orb.Point{r.Center.Lon() + e.HalfLon, r.Center.Lat() + e.HalfLat})
	}
	return b
}

// Extent returns the extent of r. Regions not in the table, including Unclassified,
// get the box of twice their radius.
func (c *Classifier) Extent(r Region) Extent {
	if e, ok := c.extents()[r.Code]; ok {
		return e
	}
	return radiusExtent(r, 2)
}

// measureExtents samples the country bound and records, per region, the farthest
// classified offset on each axis plus a small margin. Every region extent covers at
// least its radius.
func (c *Classifier) measureExtents() map[string]Extent {
	extents := make(map[string]Extent, len(c.country.Regions))
	for _, r := range c.country.Regions {
		extents[r.Code] = radiusExtent(r, 1)
	}

	b := c.country.bound()
	nx := int(math.Ceil((b.Max.Lon() - b.Min.Lon()) / extentStep))
	ny := int(math.Ceil((b.Max.Lat() - b.Min.Lat()) / extentStep))
	for i := 0; i <= nx; i++ {
		lon := math.Min(b.Min.Lon()+float64(i)*extentStep, b.Max.Lon())
		for j := 0; j <= ny; j++ {
			p := orb.Point{lon, math.Min(b.Min.Lat()+float64(j)*extentStep, b.Max.Lat())}

			r, dist := c.nearest(p)
			if c.maxDistanceFactor > 0 && dist > c.maxDistanceFactor*r.RadiusKm {
				continue
			}

			e := extents[r.Code]
			e.HalfLon = math.Max(e.HalfLon, math.Abs(p.Lon()-r.Center.Lon())+extentMargin)
			e.HalfLat = math.Max(e.HalfLat, math.Abs(p.Lat()-r.Center.Lat())+extentMargin)
			extents[r.Code] = e
		}
	}
	return extents
}
