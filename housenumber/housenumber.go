// Package housenumber derives house numbers from the position of a building
// along its street.
package housenumber

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultSpacing is the gap between consecutive house numbers on one side.
const DefaultSpacing = 5

type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Locate projects p onto line and returns the normalized position of the
// projection along the line and the side of the line p lies on.
// Lines with less than two points or zero length give position 0.5 on the left.
func Locate(p orb.Point, line orb.LineString) (float64, Side) {
	if len(line) < 2 {
		return 0.5, Left
	}

	total := planar.Length(line)
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0.5, Left
	}

	_, idx := planar.DistanceFromWithIndex(line, p)
	if idx < 0 || idx >= len(line)-1 {
		idx = len(line) - 2
	}

	a, b := line[idx], line[idx+1]
	dx, dy := b[0]-a[0], b[1]-a[1]

	var t float64
	if segLen2 := dx*dx + dy*dy; segLen2 > 0 {
		t = ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / segLen2
		t = clamp(t, 0, 1)
	}
	proj := orb.Point{a[0] + t*dx, a[1] + t*dy}

	along := planar.Length(line[:idx+1]) + math.Sqrt(dx*dx+dy*dy)*t
	position := clamp(along/total, 0, 1)

	// z component of (segment direction) x (p - projection)
	cross := dx*(p[1]-proj[1]) - dy*(p[0]-proj[0])
	if cross < 0 {
		return position, Right
	}
	return position, Left
}

// Simple numbers buildings by percentile along the street, ignoring the side.
func Simple(position float64, spacing int) int {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	slot := int(math.Floor(clamp(position, 0, 1) * 100))
	return max(spacing, (slot+1)*spacing)
}

// SideAware gives odd multiples of spacing to the left side and even multiples
// to the right side.
func SideAware(position float64, side Side, spacing int) int {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	slot := int(math.Floor(clamp(position, 0, 1) * 100))
	if side == Right {
		return max(2*spacing, (2*slot+2)*spacing)
	}
	return max(spacing, (2*slot+1)*spacing)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
