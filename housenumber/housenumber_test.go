package housenumber_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/housenumber"
)

var eastward = orb.LineString{{32.58, 0.34}, {32.59, 0.34}}

func TestLocateSide(t *testing.T) {
	pos, side := housenumber.Locate(orb.Point{32.583, 0.3401}, eastward)
	if side != housenumber.Left {
		t.Fatalf("north of an eastward street must be left, got %s", side)
	}
	if math.Abs(pos-0.3) > 1e-9 {
		t.Fatalf("expected position 0.3, got %v", pos)
	}

	_, side = housenumber.Locate(orb.Point{32.583, 0.3399}, eastward)
	if side != housenumber.Right {
		t.Fatalf("south of an eastward street must be right, got %s", side)
	}

	_, side = housenumber.Locate(orb.Point{32.583, 0.34}, eastward)
	if side != housenumber.Left {
		t.Fatalf("points on the line default to left, got %s", side)
	}
}

func TestLocateClampsBeyondEnds(t *testing.T) {
	pos, _ := housenumber.Locate(orb.Point{32.57, 0.341}, eastward)
	if pos != 0 {
		t.Fatalf("expected 0 before the start, got %v", pos)
	}
	pos, _ = housenumber.Locate(orb.Point{32.60, 0.341}, eastward)
	if pos != 1 {
		t.Fatalf("expected 1 past the end, got %v", pos)
	}
}

func TestLocateMultiSegment(t *testing.T) {
	// L shaped street: 1 unit east then 1 unit north
	line := orb.LineString{{0, 0}, {1, 0}, {1, 1}}

	pos, side := housenumber.Locate(orb.Point{0.9, 0.5}, line)
	if math.Abs(pos-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %v", pos)
	}
	if side != housenumber.Left {
		t.Fatalf("west of a northward segment must be left, got %s", side)
	}
}

func TestLocateDegenerate(t *testing.T) {
	cases := []orb.LineString{
		nil,
		{{1, 1}},
		{{1, 1}, {1, 1}},
		{{1, 1}, {1, 1}, {1, 1}},
	}
	for _, line := range cases {
		pos, side := housenumber.Locate(orb.Point{2, 2}, line)
		if pos != 0.5 || side != housenumber.Left {
			t.Fatalf("%v: expected 0.5 left, got %v %s", line, pos, side)
		}
	}
}

func TestSimple(t *testing.T) {
	cases := []struct {
		pos  float64
		want int
	}{
		{0, 5},
		{0.004, 5},
		{0.01, 10},
		{0.305, 155},
		{0.999, 500},
		{1, 505},
	}
	for _, tc := range cases {
		if got := housenumber.Simple(tc.pos, 5); got != tc.want {
			t.Fatalf("Simple(%v) = %d, want %d", tc.pos, got, tc.want)
		}
	}
}

func TestSideAwareKampalaRoad(t *testing.T) {
	pos, side := housenumber.Locate(orb.Point{32.58305, 0.3401}, eastward)
	if got := housenumber.SideAware(pos, side, housenumber.DefaultSpacing); got != 305 {
		t.Fatalf("expected 305, got %d", got)
	}
}

func TestSideAwareParity(t *testing.T) {
	for s := 0; s <= 100; s++ {
		pos := float64(s) / 100
		for _, spacing := range []int{1, 2, 5, 10} {
			left := housenumber.SideAware(pos, housenumber.Left, spacing)
			right := housenumber.SideAware(pos, housenumber.Right, spacing)

			if left%spacing != 0 || (left/spacing)%2 != 1 {
				t.Fatalf("left %d is not an odd multiple of %d", left, spacing)
			}
			if right%spacing != 0 || (right/spacing)%2 != 0 {
				t.Fatalf("right %d is not an even multiple of %d", right, spacing)
			}
			if left < spacing || right < 2*spacing {
				t.Fatalf("numbers below the minimum: %d %d", left, right)
			}
		}
	}
}

func TestMonotonicLocality(t *testing.T) {
	prevLeft, prevRight := 0, 0
	for i := 0; i <= 1000; i++ {
		x := 32.58 + 0.01*float64(i)/1000
		posL, sideL := housenumber.Locate(orb.Point{x, 0.3401}, eastward)
		posR, sideR := housenumber.Locate(orb.Point{x, 0.3399}, eastward)

		left := housenumber.SideAware(posL, sideL, 5)
		right := housenumber.SideAware(posR, sideR, 5)
		if left < prevLeft || right < prevRight {
			t.Fatalf("numbers decreased at %v: %d<%d or %d<%d", x, left, prevLeft, right, prevRight)
		}
		prevLeft, prevRight = left, right
	}
}

func TestDefaultSpacingOnInvalid(t *testing.T) {
	if got := housenumber.Simple(0.5, 0); got != housenumber.Simple(0.5, housenumber.DefaultSpacing) {
		t.Fatalf("zero spacing must fall back to default, got %d", got)
	}
}

func FuzzLocate(f *testing.F) {
	f.Add(0.0, 0.0, 1.0, 0.0, 0.5, 0.1)
	f.Add(1.0, 1.0, 1.0, 1.0, 0.0, 0.0)
	f.Add(32.58, 0.34, 32.59, 0.35, 32.585, 0.3)

	f.Fuzz(func(t *testing.T, x1, y1, x2, y2, px, py float64) {
		for _, v := range []float64{x1, y1, x2, y2, px, py} {
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e6 {
				t.Skip()
			}
		}

		line := orb.LineString{{x1, y1}, {x2, y2}}
		pos, side := housenumber.Locate(orb.Point{px, py}, line)
		if pos < 0 || pos > 1 || math.IsNaN(pos) {
			t.Fatalf("position %v out of range", pos)
		}

		pos2, side2 := housenumber.Locate(orb.Point{px, py}, line)
		if pos != pos2 || side != side2 {
			t.Fatalf("locate is not deterministic")
		}

		n := housenumber.SideAware(pos, side, 5)
		if n < 5 || n%5 != 0 {
			t.Fatalf("invalid house number %d", n)
		}
	})
}

func BenchmarkLocate(b *testing.B) {
	line := orb.LineString{}
	for i := 0; i < 50; i++ {
		line = append(line, orb.Point{32.5 + float64(i)*0.001, 0.3 + float64(i%3)*0.0005})
	}
	p := orb.Point{32.52, 0.301}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pos, side := housenumber.Locate(p, line)
		housenumber.SideAware(pos, side, housenumber.DefaultSpacing)
	}
}
