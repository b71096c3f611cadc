package cachesaver_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/cachesaver"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/royalcat/communityaddr/placeholder"
	"github.com/royalcat/communityaddr/region"
)

func sampleStreets() []geomodel.PlaceholderStreet {
	kam, _ := region.Uganda().Lookup("KAM")
	ext := region.Extent{HalfLon: 0.7, HalfLat: 0.7}
	streets := []geomodel.PlaceholderStreet{}
	for i := 0; i < 500; i++ {
		p := orb.Point{kam.Center.Lon() + float64(i)*0.0031, kam.Center.Lat() - float64(i%17)*0.0027}
		streets = append(streets, placeholder.InSubregion(p, kam, ext, region.East))
	}
	streets = append(streets, placeholder.Grid(orb.Point{-0.5, -0.5}, "UNC"))
	return streets
}

func TestSnapshotRoundTrip(t *testing.T) {
	streets := sampleStreets()
	meta := cachesaver.Metadata{
		Version:     3,
		Country:     "Uganda",
		DateCreated: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	buf := &bytes.Buffer{}
	if err := cachesaver.Save(buf, meta, streets); err != nil {
		t.Fatal(err)
	}

	gotMeta, got, err := cachesaver.Load(buf, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	if gotMeta.Version != 3 || gotMeta.Country != "Uganda" || !gotMeta.DateCreated.Equal(meta.DateCreated) {
		t.Fatalf("unexpected metadata %+v", gotMeta)
	}
	if gotMeta.Count != uint64(len(streets)) || len(got) != len(streets) {
		t.Fatalf("expected %d streets, got %d", len(streets), len(got))
	}
	for i := range streets {
		if fmt.Sprintf("%+v", got[i]) != fmt.Sprintf("%+v", streets[i]) {
			t.Fatalf("street %d: expected %+v, got %+v", i, streets[i], got[i])
		}
	}
}

func TestSnapshotFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "placeholders.snap")
	streets := sampleStreets()[:3]

	if err := cachesaver.SaveFile(name, cachesaver.Metadata{Country: "Uganda"}, streets); err != nil {
		t.Fatal(err)
	}
	meta, got, err := cachesaver.LoadFile(name, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	if !meta.DateCreated.IsZero() || len(got) != 3 {
		t.Fatalf("unexpected snapshot %+v %d", meta, len(got))
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	_, _, err := cachesaver.Load(bytes.NewReader([]byte("definitely not a snapshot")), slog.New(slog.DiscardHandler))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSnapshotTruncated(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := cachesaver.Save(buf, cachesaver.Metadata{}, sampleStreets()); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:buf.Len()/2]

	if _, _, err := cachesaver.Load(bytes.NewReader(data), slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("expected error for truncated snapshot")
	}
}

func TestSnapshotUnknownLevel(t *testing.T) {
	data := append([]byte{}, cachesaver.MAGIC_BYTES...)
	data = append(data, 9, 0, 0, 0)

	if _, _, err := cachesaver.Load(bytes.NewReader(data), slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("expected error for unknown compatibility level")
	}
}

func BenchmarkSnapshotSave(b *testing.B) {
	streets := sampleStreets()
	buf := &bytes.Buffer{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := cachesaver.Save(buf, cachesaver.Metadata{}, streets); err != nil {
			b.Fatal(err)
		}
	}
}
