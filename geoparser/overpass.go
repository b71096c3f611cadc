package geoparser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/serjvanilla/go-overpass"
)

const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

type OverpassClient interface {
	Query(query string) (overpass.Result, error)
}

func NewOverpassClient(endpoint string, timeout time.Duration) *overpass.Client {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &client
}

// streetsQuery selects named highways in a bounding box with node coordinates.
func streetsQuery(bound orb.Bound) string {
	return fmt.Sprintf(`
		[out:json][timeout:180];
		(
			way["highway"]["name"](%f,%f,%f,%f);
		);
		out body;
		>;
		out skel qt;
	`, bound.Min.Lat(), bound.Min.Lon(), bound.Max.Lat(), bound.Max.Lon())
}

// FetchOverpass loads named highways inside bound from an Overpass API server.
func (f *StreetGen) FetchOverpass(ctx context.Context, client OverpassClient, bound orb.Bound) error {
	type queryResult struct {
		result overpass.Result
		err    error
	}
	done := make(chan queryResult, 1)
	go func() {
		result, err := client.Query(streetsQuery(bound))
		done <- queryResult{result: result, err: err}
	}()

	var res queryResult
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return fmt.Errorf("overpass query failed: %w", res.err)
	}

	before := f.streets.Size()
	for _, way := range res.result.Ways {
		f.parseOverpassWay(way)
	}
	f.log.WithField("bound", bound).Infof("Fetched %d streets from overpass", f.streets.Size()-before)
	return nil
}

func (f *StreetGen) parseOverpassWay(way *overpass.Way) {
	if way == nil || !f.isStreet(way.Tags["highway"]) {
		return
	}
	name := f.localizedTag(way.Tags)
	if name == "" {
		return
	}

	ls := make(orb.LineString, 0, len(way.Nodes))
	for _, node := range way.Nodes {
		if node == nil || (node.Lat == 0 && node.Lon == 0) {
			continue
		}
		ls = append(ls, orb.Point{node.Lon, node.Lat})
	}
	if len(ls) < 2 {
		return
	}

	f.add(geomodel.NamedStreet{
		ID:       wayStreetID(way.ID),
		Name:     name,
		Geometry: ls,
	})
}
