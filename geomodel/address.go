package geomodel

import (
	"github.com/paulmach/orb"
)

//go:generate go tool easyjson address.go

// StreetSource tells where the street of a community address comes from.
type StreetSource string

const (
	StreetSourceOSM         StreetSource = "osm"
	StreetSourcePlaceholder StreetSource = "placeholder"
)

// Algorithm versions. Every generated address records the version that produced it
// so that outputs stay reproducible after the default changes.
const (
	// grid cell placeholders, percentile numbering
	AlgorithmV1 = "v1"
	// subregion placeholders, odd/even numbering by street side
	AlgorithmV2 = "v2"
)

// Coordinate is a WGS84 (longitude, latitude) pair in degrees.
type Coordinate = orb.Point

// NamedStreet is a real street taken from the source geographic dataset.
type NamedStreet struct {
	ID       string
	Name     string
	Geometry orb.LineString
}

type NamedStreetMatch struct {
	Street         NamedStreet
	DistanceMeters float64
}

// PlaceholderStreet is a synthetic street used only to anchor house numbers
// where no named street is close enough. Its geometry is not a real road.
type PlaceholderStreet struct {
	ID            string
	DisplayName   string
	RegionCode    string
	SubregionCode string
	// Number is zero for grid cell streets.
	Number           int
	Geometry         orb.LineString
	AlgorithmVersion string
}

// CommunityAddress is the generated, unofficial address of a building.
// Field names are a wire contract shared with the map frontend.
//
//easyjson:json
type CommunityAddress struct {
	HouseNumber      int          `json:"house_number"`
	StreetName       string       `json:"street_name"`
	StreetSource     StreetSource `json:"street_source"`
	StreetID         string       `json:"street_id"`
	FullAddress      string       `json:"full_address"`
	AlgorithmVersion string       `json:"algorithm_version"`
}

//easyjson:json
type AddressList []CommunityAddress
