package geoparser

import "runtime"

type Config struct {
	Threads               int
	PreferredLocalization string
	// SkipHighways lists highway=* values that are not addressable streets.
	SkipHighways []string
}

func ConfigDefault() Config {
	return Config{
		Threads:               runtime.GOMAXPROCS(-1),
		PreferredLocalization: "",
		SkipHighways: []string{
			"footway", "path", "cycleway", "steps", "bridleway", "corridor",
			"construction", "proposed", "platform", "elevator", "bus_stop",
			"motorway_link", "trunk_link",
		},
	}
}
