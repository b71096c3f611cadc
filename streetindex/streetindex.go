// Package streetindex is an in-memory spatial index of named streets.
package streetindex

import (
	"context"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/tidwall/qtree"
)

// slightly under the real value so the search box always covers the radius
const metersPerDegree = 110000.0

type Index struct {
	mu      sync.RWMutex
	streets []geomodel.NamedStreet
	qt      qtree.QTree

	searchRadius float64
}

func New(opts ...Option) *Index {
	o := loadOptions(opts...)
	return &Index{searchRadius: o.searchRadius}
}

// Insert adds a street to the index. Streets without a name or with fewer than
// two points are ignored.
func (ix *Index) Insert(street geomodel.NamedStreet) bool {
	if street.Name == "" || len(street.Geometry) < 2 {
		return false
	}
	bound := street.Geometry.Bound()

	ix.mu.Lock()
	defer ix.mu.Unlock()

	id := len(ix.streets)
	ix.streets = append(ix.streets, street)
	ix.qt.Insert(bound.Min, bound.Max, id)
	return true
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.streets)
}

// FindNearestNamedStreet returns the closest street within the search radius.
// Equal distances are resolved by the smaller street ID.
func (ix *Index) FindNearestNamedStreet(ctx context.Context, p orb.Point) (geomodel.NamedStreetMatch, bool, error) {
	if err := ctx.Err(); err != nil {
		return geomodel.NamedStreetMatch{}, false, err
	}

	dLat := ix.searchRadius / metersPerDegree
	dLon := ix.searchRadius / (metersPerDegree * math.Max(math.Cos(p.Lat()*math.Pi/180), 0.01))
	lo := [2]float64{p.Lon() - dLon, p.Lat() - dLat}
	hi := [2]float64{p.Lon() + dLon, p.Lat() + dLat}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	best := -1
	bestDist := math.Inf(1)
	ix.qt.Search(lo, hi, func(_, _ [2]float64, data interface{}) bool {
		id := data.(int)
		d := DistanceMeters(p, ix.streets[id].Geometry)
		if d < bestDist || (d == bestDist && best >= 0 && ix.streets[id].ID < ix.streets[best].ID) {
			best, bestDist = id, d
		}
		return true
	})

	if best < 0 || bestDist > ix.searchRadius {
		return geomodel.NamedStreetMatch{}, false, nil
	}
	return geomodel.NamedStreetMatch{Street: ix.streets[best], DistanceMeters: bestDist}, true, nil
}

// DistanceMeters is the great circle distance from p to the closest point of line.
// The closest point is found in a local equirectangular projection around p.
func DistanceMeters(p orb.Point, line orb.LineString) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return geo.DistanceHaversine(p, line[0])
	}

	scale := math.Cos(p.Lat() * math.Pi / 180)
	best := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		c := closestOnSegment(p, line[i], line[i+1], scale)
		if d := geo.DistanceHaversine(p, c); d < best {
			best = d
		}
	}
	return best
}

func closestOnSegment(p, a, b orb.Point, scale float64) orb.Point {
	ax, ay := a.Lon()*scale, a.Lat()
	dx, dy := (b.Lon()-a.Lon())*scale, b.Lat()-a.Lat()

	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a
	}
	t := ((p.Lon()*scale-ax)*dx + (p.Lat()-ay)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return orb.Point{a.Lon() + t*(b.Lon()-a.Lon()), a.Lat() + t*(b.Lat()-a.Lat())}
}
