package placeholder_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/royalcat/communityaddr/placeholder"
	"github.com/royalcat/communityaddr/region"
	"github.com/royalcat/communityaddr/streetstore"
)

func kampala(t testing.TB) (*region.Classifier, region.Region) {
	t.Helper()
	c, err := region.NewClassifier(region.Uganda())
	if err != nil {
		t.Fatal(err)
	}
	r, err := c.Region("KAM")
	if err != nil {
		t.Fatal(err)
	}
	return c, r
}

func TestGrid(t *testing.T) {
	st := placeholder.Grid(orb.Point{32.5831, 0.3481}, "KAM")

	// floor(32.5831/0.002) = 16291 = 0x3FA3, floor(0.3481/0.002) = 174 = 0x00AE
	if st.ID != "KAM-3FA300AE" {
		t.Fatalf("unexpected id %s", st.ID)
	}
	if st.DisplayName != "Street 3FA300AE" {
		t.Fatalf("unexpected name %s", st.DisplayName)
	}
	if st.AlgorithmVersion != geomodel.AlgorithmV1 {
		t.Fatalf("unexpected version %s", st.AlgorithmVersion)
	}
	if st.Geometry[0].Lon() != st.Geometry[1].Lon() || st.Geometry[1].Lat() <= st.Geometry[0].Lat() {
		t.Fatalf("expected a south to north segment, got %v", st.Geometry)
	}
}

func TestGridNegativeCoordinates(t *testing.T) {
	st := placeholder.Grid(orb.Point{-0.001, -0.001}, "UNC")
	if st.ID != "UNC-FFFFFFFF" {
		t.Fatalf("expected two's complement cells, got %s", st.ID)
	}
}

func TestInSubregion(t *testing.T) {
	c, r := kampala(t)
	ext := region.Extent{HalfLon: 0.7, HalfLat: 0.7}

	p := orb.Point{r.Center.Lon() + 0.0031, r.Center.Lat() + 0.2001}
	sub := c.Subregion(r, p)
	st := placeholder.InSubregion(p, r, ext, sub)

	// cells are 0.01 wide, gx = 70, gy = 90
	want := 100 + 5*(70*141+90)
	if st.Number != want {
		t.Fatalf("expected %d, got %d", want, st.Number)
	}
	if st.SubregionCode != "N" || st.ID != "KAM-N-49900" || st.DisplayName != "N-49900" {
		t.Fatalf("unexpected street %+v", st)
	}
	if !strings.HasPrefix(st.ID, st.RegionCode+"-") {
		t.Fatalf("id %s must start with the region code", st.ID)
	}
	if length := st.Geometry[1].Lat() - st.Geometry[0].Lat(); math.Abs(length-0.01) > 1e-9 {
		t.Fatalf("expected a segment one cell long, got %v", st.Geometry)
	}
}

func TestInSubregionNumberRange(t *testing.T) {
	_, r := kampala(t)
	ext := region.Extent{HalfLon: 0.4, HalfLat: 0.3}

	for dx := -300; dx <= 300; dx += 7 {
		for dy := -300; dy <= 300; dy += 11 {
			p := orb.Point{
				r.Center.Lon() + float64(dx)*0.003,
				r.Center.Lat() + float64(dy)*0.003,
			}
			st := placeholder.InSubregion(p, r, ext, region.North)
			if st.Number < 100 || st.Number > 99500 || st.Number%5 != 0 {
				t.Fatalf("number %d out of range for offset %d,%d", st.Number, dx, dy)
			}
		}
	}
}

func TestInSubregionUniqueAcrossExtent(t *testing.T) {
	c, err := region.NewClassifier(region.Uganda())
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range c.Country().Regions {
		ext := c.Extent(r)
		w := 2 * ext.HalfLon / 140
		h := 2 * ext.HalfLat / 140

		seen := make(map[int][2]int, 141*141)
		for i := 0; i < 141; i++ {
			for j := 0; j < 141; j++ {
				p := orb.Point{
					r.Center.Lon() - ext.HalfLon + (float64(i)+0.5)*w,
					r.Center.Lat() - ext.HalfLat + (float64(j)+0.5)*h,
				}
				st := placeholder.InSubregion(p, r, ext, region.Central)
				if prev, ok := seen[st.Number]; ok {
					t.Fatalf("%s: cells %v and %v share number %d", r.Code, prev, [2]int{i, j}, st.Number)
				}
				seen[st.Number] = [2]int{i, j}
			}
		}
	}
}

func TestDistantCellsGetDistinctStreets(t *testing.T) {
	c, r := kampala(t)
	s, err := placeholder.NewSynthesizer(c, streetstore.NewMemoryStore(), geomodel.AlgorithmV2)
	if err != nil {
		t.Fatal(err)
	}

	// about 31 km apart, both in the west of Kampala
	p1 := orb.Point{r.Center.Lon() - 0.1001, r.Center.Lat() + 0.0001}
	p2 := orb.Point{p1.Lon() - 0.282, p1.Lat()}
	for _, p := range []orb.Point{p1, p2} {
		if got, _ := c.Classify(p); got.Code != "KAM" {
			t.Fatalf("%v classified as %s", p, got.Code)
		}
	}

	a := s.Candidate(p1, r)
	b := s.Candidate(p2, r)
	if a.ID == b.ID {
		t.Fatalf("points 31 km apart share street %s", a.ID)
	}
}

func TestUnclassifiedUsesGrid(t *testing.T) {
	c, err := region.NewClassifier(region.Uganda(), region.WithMaxDistanceFactor(2))
	if err != nil {
		t.Fatal(err)
	}
	s, err := placeholder.NewSynthesizer(c, streetstore.NewMemoryStore(), geomodel.AlgorithmV2)
	if err != nil {
		t.Fatal(err)
	}

	st := s.Candidate(orb.Point{-0.001, -0.001}, region.Unclassified)
	if st.ID != "UNC-FFFFFFFF" || st.AlgorithmVersion != geomodel.AlgorithmV2 {
		t.Fatalf("unexpected street %+v", st)
	}
}

func TestSameCellSameStreet(t *testing.T) {
	c, r := kampala(t)
	s, err := placeholder.NewSynthesizer(c, streetstore.NewMemoryStore(), geomodel.AlgorithmV2)
	if err != nil {
		t.Fatal(err)
	}

	base := orb.Point{r.Center.Lon() + 0.2001, r.Center.Lat() + 0.0001}
	a := s.Candidate(base, r)
	b := s.Candidate(orb.Point{base.Lon() + 0.0015, base.Lat() + 0.0015}, r)
	if a.ID != b.ID {
		t.Fatalf("points in one cell got %s and %s", a.ID, b.ID)
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	c, r := kampala(t)
	store := streetstore.NewMemoryStore()
	s, err := placeholder.NewSynthesizer(c, store, geomodel.AlgorithmV2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	p := orb.Point{32.61, 0.40}

	first, err := s.GetOrCreate(ctx, p, r)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.GetOrCreate(ctx, p, r)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID || !first.Geometry.Equal(second.Geometry) {
		t.Fatalf("expected the same street, got %+v and %+v", first, second)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one stored street, got %d", store.Len())
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	c, r := kampala(t)
	store := streetstore.NewMemoryStore()
	s, err := placeholder.NewSynthesizer(c, store, geomodel.AlgorithmV2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	p := orb.Point{32.61, 0.40}

	ids := make([]string, 50)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := s.GetOrCreate(ctx, p, r)
			if err != nil {
				t.Error(err)
				return
			}
			ids[i] = st.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent calls returned %s and %s", ids[0], id)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("expected one stored street, got %d", store.Len())
	}
}

type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) GetOrCreatePlaceholderStreet(context.Context, geomodel.PlaceholderStreet) (geomodel.PlaceholderStreet, error) {
	return geomodel.PlaceholderStreet{}, errStoreDown
}

func TestGetOrCreateStoreError(t *testing.T) {
	c, r := kampala(t)
	s, err := placeholder.NewSynthesizer(c, failingStore{}, geomodel.AlgorithmV1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetOrCreate(context.Background(), r.Center, r); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestUnsupportedVersion(t *testing.T) {
	c, _ := kampala(t)
	if _, err := placeholder.NewSynthesizer(c, failingStore{}, "v9"); err == nil {
		t.Fatal("expected error for unknown version")
	}
}
