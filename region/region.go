// Package region holds the static region and subregion tables used as long-term
// addressing scopes, and classifies coordinates into them.
package region

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	ErrUnknownRegion = errors.New("unknown region code")
	ErrInvalidConfig = errors.New("invalid region configuration")
)

// Region is a fixed, non-administrative cluster around a population center.
type Region struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Center   orb.Point `json:"center"`
	RadiusKm float64   `json:"radius_km"`
}

// Country is a set of regions configured for one country.
type Country struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Regions []Region `json:"regions"`

	// Bound limits the area placeholder numbering is laid out for. When zero it
	// covers every region out to twice its radius.
	Bound orb.Bound `json:"bound"`
}

// Unclassified is returned for coordinates outside the optional max distance cutoff.
var Unclassified = Region{Code: "UNC", Name: "Unclassified"}

// Uganda is the built-in region table.
func Uganda() Country {
	return Country{
		Code:  "UG",
		Name:  "Uganda",
		Bound: orb.Bound{Min: orb.Point{29.5, -1.5}, Max: orb.Point{35.1, 4.3}},
		Regions: []Region{
			{Code: "KAM", Name: "Kampala", Center: orb.Point{32.5825, 0.3476}, RadiusKm: 35},
			{Code: "JIN", Name: "Jinja", Center: orb.Point{33.2041, 0.4244}, RadiusKm: 40},
			{Code: "MBA", Name: "Mbarara", Center: orb.Point{30.6545, -0.6072}, RadiusKm: 50},
			{Code: "GUL", Name: "Gulu", Center: orb.Point{32.2997, 2.7747}, RadiusKm: 55},
			{Code: "ARU", Name: "Arua", Center: orb.Point{30.9110, 3.0303}, RadiusKm: 50},
			{Code: "MBL", Name: "Mbale", Center: orb.Point{34.1750, 1.0821}, RadiusKm: 45},
			{Code: "LIR", Name: "Lira", Center: orb.Point{32.5400, 2.2347}, RadiusKm: 50},
			{Code: "FTP", Name: "Fort Portal", Center: orb.Point{30.2750, 0.6710}, RadiusKm: 45},
			{Code: "MSK", Name: "Masaka", Center: orb.Point{31.7350, -0.3136}, RadiusKm: 40},
			{Code: "SOR", Name: "Soroti", Center: orb.Point{33.6173, 1.7147}, RadiusKm: 45},
			{Code: "HMA", Name: "Hoima", Center: orb.Point{31.3522, 1.4331}, RadiusKm: 50},
			{Code: "KBL", Name: "Kabale", Center: orb.Point{29.9833, -1.2500}, RadiusKm: 40},
		},
	}
}

// Validate checks the table once at startup so lookups never fail per request.
func (c Country) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: country name is empty", ErrInvalidConfig)
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("%w: country %s has no regions", ErrInvalidConfig, c.Name)
	}

	if c.Bound != (orb.Bound{}) && (c.Bound.Min.Lon() >= c.Bound.Max.Lon() || c.Bound.Min.Lat() >= c.Bound.Max.Lat()) {
		return fmt.Errorf("%w: country %s bound %v is empty", ErrInvalidConfig, c.Name, c.Bound)
	}

	seen := make(map[string]struct{}, len(c.Regions))
	for _, r := range c.Regions {
		if !isRegionCode(r.Code) {
			return fmt.Errorf("%w: region code %q must be 3 uppercase letters", ErrInvalidConfig, r.Code)
		}
		if r.Code == Unclassified.Code {
			return fmt.Errorf("%w: region code %s is reserved", ErrInvalidConfig, r.Code)
		}
		if _, ok := seen[r.Code]; ok {
			return fmt.Errorf("%w: duplicate region code %s", ErrInvalidConfig, r.Code)
		}
		seen[r.Code] = struct{}{}

		if r.Name == "" {
			return fmt.Errorf("%w: region %s has no name", ErrInvalidConfig, r.Code)
		}
		if r.RadiusKm <= 0 {
			return fmt.Errorf("%w: region %s radius must be positive", ErrInvalidConfig, r.Code)
		}
		lon, lat := r.Center.Lon(), r.Center.Lat()
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return fmt.Errorf("%w: region %s center %v out of range", ErrInvalidConfig, r.Code, r.Center)
		}
	}
	return nil
}

// Lookup returns the region with the given code.
func (c Country) Lookup(code string) (Region, error) {
	for _, r := range c.Regions {
		if r.Code == code {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
}

func isRegionCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
