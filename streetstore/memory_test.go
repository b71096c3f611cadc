package streetstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/royalcat/communityaddr/streetstore"
)

func street(id string, lon float64) geomodel.PlaceholderStreet {
	return geomodel.PlaceholderStreet{
		ID:               id,
		DisplayName:      id,
		RegionCode:       id[:3],
		Geometry:         orb.LineString{{lon, 0}, {lon, 0.002}},
		AlgorithmVersion: geomodel.AlgorithmV2,
	}
}

func TestMemoryStoreFirstWriterWins(t *testing.T) {
	s := streetstore.NewMemoryStore()
	ctx := context.Background()

	first, err := s.GetOrCreatePlaceholderStreet(ctx, street("KAM-N-100", 1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.GetOrCreatePlaceholderStreet(ctx, street("KAM-N-100", 2))
	if err != nil {
		t.Fatal(err)
	}

	if second.Geometry[0].Lon() != first.Geometry[0].Lon() {
		t.Fatalf("expected existing street, got %v", second.Geometry)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 street, got %d", s.Len())
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := streetstore.NewMemoryStore()
	ctx := context.Background()

	const workers = 32
	results := make([]geomodel.PlaceholderStreet, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.GetOrCreatePlaceholderStreet(ctx, street("JIN-E-505", float64(i)))
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r.Geometry[0].Lon() != results[0].Geometry[0].Lon() {
			t.Fatalf("racing writers observed different streets")
		}
	}
	if len(s.List()) != 1 {
		t.Fatalf("expected a single listed street, got %d", len(s.List()))
	}
}

func TestMemoryStoreOrder(t *testing.T) {
	s := streetstore.NewMemoryStore()
	ctx := context.Background()

	ids := []string{"KAM-S-200", "GUL-N-100", "KAM-E-150", "ARU-W-300"}
	for _, id := range ids {
		if _, err := s.GetOrCreatePlaceholderStreet(ctx, street(id, 0)); err != nil {
			t.Fatal(err)
		}
	}

	got := []string{}
	for _, st := range s.List() {
		got = append(got, st.ID)
	}
	want := []string{"ARU-W-300", "GUL-N-100", "KAM-E-150", "KAM-S-200"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	kam := []string{}
	s.RangePrefix("KAM-", func(st geomodel.PlaceholderStreet) bool {
		kam = append(kam, st.ID)
		return true
	})
	if fmt.Sprint(kam) != "[KAM-E-150 KAM-S-200]" {
		t.Fatalf("unexpected prefix range %v", kam)
	}
}

func TestMemoryStoreCanceled(t *testing.T) {
	s := streetstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.GetOrCreatePlaceholderStreet(ctx, street("KAM-N-100", 0)); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if _, ok := s.Get("KAM-N-100"); ok {
		t.Fatal("canceled call must not store")
	}
}
