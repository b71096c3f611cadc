package addrcache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/addrcache"
	"github.com/royalcat/communityaddr/geomodel"
)

func TestKey(t *testing.T) {
	got := addrcache.Key("v2", "KAM", orb.Point{32.58305, 0.3404492})
	if got != "caddr:v2:KAM:32.58305:0.3404492" {
		t.Fatalf("unexpected key %s", got)
	}
	got = addrcache.Key("v1", "", orb.Point{-1, -2})
	if got != "caddr:v1:auto:-1:-2" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestKeyDistinctNearbyPoints(t *testing.T) {
	a := addrcache.Key("v2", "KAM", orb.Point{32.58305, 0.34044921})
	b := addrcache.Key("v2", "KAM", orb.Point{32.58305, 0.34044924})
	if a == b {
		t.Fatalf("points 3e-8 apart share key %s", a)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("CA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CA_TEST_REDIS_ADDR is not set")
	}
	ctx := context.Background()

	c, err := addrcache.Open(ctx, addr, "", 0, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// unique region code keeps parallel runs apart
	region := uuid.NewString()
	p := orb.Point{32.58305, 0.3404}

	_, ok, err := c.Get(ctx, geomodel.AlgorithmV2, region, p)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected a miss")
	}

	want := geomodel.CommunityAddress{
		HouseNumber:      305,
		StreetName:       "Kampala Road",
		StreetSource:     geomodel.StreetSourceOSM,
		StreetID:         "way/4242",
		FullAddress:      "305 Kampala Road, Kampala, Uganda",
		AlgorithmVersion: geomodel.AlgorithmV2,
	}
	if err := c.Set(ctx, geomodel.AlgorithmV2, region, p, want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := c.Get(ctx, geomodel.AlgorithmV2, region, p)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	_, ok, _ = c.Get(ctx, geomodel.AlgorithmV1, region, p)
	if ok {
		t.Fatal("versions must not share entries")
	}
}
