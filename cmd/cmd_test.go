package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/communityaddr/geomodel"
)

func TestParseBound(t *testing.T) {
	b, err := parseBound("32.5, 0.2,32.7,0.4")
	if err != nil {
		t.Fatal(err)
	}
	if b.Min != (orb.Point{32.5, 0.2}) || b.Max != (orb.Point{32.7, 0.4}) {
		t.Fatalf("unexpected bound %v", b)
	}

	for _, s := range []string{"", "1,2,3", "a,b,c,d", "32.7,0.2,32.5,0.4"} {
		if _, err := parseBound(s); err == nil {
			t.Fatalf("%q: expected error", s)
		}
	}
}

func TestWriteGeoJSONLines(t *testing.T) {
	streets := []geomodel.PlaceholderStreet{
		{
			ID:               "KAM-N-1305",
			DisplayName:      "N-1305",
			RegionCode:       "KAM",
			SubregionCode:    "N",
			Number:           1305,
			Geometry:         orb.LineString{{32.58, 0.55}, {32.58, 0.56}},
			AlgorithmVersion: geomodel.AlgorithmV2,
		},
		{
			ID:               "KAM-3FA300AE",
			DisplayName:      "Street 3FA300AE",
			RegionCode:       "KAM",
			Geometry:         orb.LineString{{32.58, 0.34}, {32.58, 0.342}},
			AlgorithmVersion: geomodel.AlgorithmV1,
		},
	}

	var buf bytes.Buffer
	if err := writeGeoJSONLines(&buf, streets); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	f, err := geojson.UnmarshalFeature([]byte(lines[0]))
	if err != nil {
		t.Fatal(err)
	}
	if f.ID != "KAM-N-1305" || f.Properties.MustString("subregion_code") != "N" {
		t.Fatalf("unexpected feature %+v", f)
	}

	f, err = geojson.UnmarshalFeature([]byte(lines[1]))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Properties["subregion_code"]; ok {
		t.Fatal("grid streets have no subregion")
	}
}
