package streetindex_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/fogleman/poissondisc"
	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/royalcat/communityaddr/streetindex"
)

func kampalaRoad() geomodel.NamedStreet {
	return geomodel.NamedStreet{
		ID:       "way/100",
		Name:     "Kampala Road",
		Geometry: orb.LineString{{32.5800, 0.3400}, {32.5900, 0.3400}},
	}
}

// north returns a point m meters north of p.
func north(p orb.Point, m float64) orb.Point {
	return orb.Point{p.Lon(), p.Lat() + m/111195}
}

func TestFindNearest(t *testing.T) {
	ix := streetindex.New()
	ix.Insert(kampalaRoad())
	ix.Insert(geomodel.NamedStreet{
		ID:       "way/200",
		Name:     "Jinja Road",
		Geometry: orb.LineString{{32.5800, 0.3420}, {32.5900, 0.3420}},
	})

	m, ok, err := ix.FindNearestNamedStreet(context.Background(), north(orb.Point{32.585, 0.34}, 50))
	if err != nil {
		t.Fatal(err)
	}
	if !ok || m.Street.ID != "way/100" {
		t.Fatalf("expected way/100, got %+v", m)
	}
	if math.Abs(m.DistanceMeters-50) > 0.5 {
		t.Fatalf("expected ~50m, got %v", m.DistanceMeters)
	}
}

func TestFindNearestOutsideRadius(t *testing.T) {
	ix := streetindex.New(streetindex.WithSearchRadius(100))
	ix.Insert(kampalaRoad())

	_, ok, err := ix.FindNearestNamedStreet(context.Background(), north(orb.Point{32.585, 0.34}, 150))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no street beyond the search radius")
	}
}

func TestFindNearestTieBreak(t *testing.T) {
	ix := streetindex.New()
	road := kampalaRoad()
	dup := road
	dup.ID = "way/050"
	ix.Insert(road)
	ix.Insert(dup)

	m, ok, _ := ix.FindNearestNamedStreet(context.Background(), orb.Point{32.585, 0.3401})
	if !ok || m.Street.ID != "way/050" {
		t.Fatalf("expected the smaller id, got %+v", m)
	}
}

func TestInsertSkipsUnnamed(t *testing.T) {
	ix := streetindex.New()
	if ix.Insert(geomodel.NamedStreet{ID: "way/1", Geometry: orb.LineString{{0, 0}, {1, 0}}}) {
		t.Fatal("unnamed street must not be indexed")
	}
	if ix.Insert(geomodel.NamedStreet{ID: "way/2", Name: "X", Geometry: orb.LineString{{0, 0}}}) {
		t.Fatal("single point street must not be indexed")
	}
	if ix.Len() != 0 {
		t.Fatalf("expected empty index, got %d", ix.Len())
	}
}

func TestFindNearestMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	ix := streetindex.New(streetindex.WithSearchRadius(1000))

	streets := []geomodel.NamedStreet{}
	for i, p := range poissondisc.Sample(32.5, 0.3, 32.6, 0.4, 0.004, 10, rnd) {
		st := geomodel.NamedStreet{
			ID:       "way/" + string(rune('a'+i%26)) + string(rune('a'+i/26%26)) + string(rune('a'+i/676%26)),
			Name:     "Street",
			Geometry: orb.LineString{{p.X, p.Y}, {p.X + 0.001, p.Y + 0.0005}},
		}
		streets = append(streets, st)
		ix.Insert(st)
	}

	queries := poissondisc.Sample(32.52, 0.32, 32.58, 0.38, 0.01, 10, rnd)
	for _, q := range queries {
		p := orb.Point{q.X, q.Y}

		best := math.Inf(1)
		for _, st := range streets {
			best = math.Min(best, streetindex.DistanceMeters(p, st.Geometry))
		}

		m, ok, err := ix.FindNearestNamedStreet(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		if best > 1000 {
			if ok {
				t.Fatalf("%v: expected no match, got %v", p, m.DistanceMeters)
			}
			continue
		}
		if !ok || m.DistanceMeters != best {
			t.Fatalf("%v: expected %v, got %v %v", p, best, m.DistanceMeters, ok)
		}
	}
}

func BenchmarkFindNearest(b *testing.B) {
	rnd := rand.New(rand.NewSource(1))
	ix := streetindex.New()
	for _, p := range poissondisc.Sample(32.0, 0.0, 33.0, 1.0, 0.003, 10, rnd) {
		ix.Insert(geomodel.NamedStreet{ID: "way", Name: "Street", Geometry: orb.LineString{{p.X, p.Y}, {p.X + 0.001, p.Y}}})
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.FindNearestNamedStreet(ctx, orb.Point{32.5, 0.5})
	}
}
