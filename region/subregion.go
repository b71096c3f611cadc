package region

// Subregion is one of nine directional parts of a region.
type Subregion struct {
	Code string
	Name string

	// offset of the subregion center from the region center, in half radii
	offsetX, offsetY float64
	radiusFactor     float64
}

var (
	Central   = Subregion{Code: "CEN", Name: "Central", radiusFactor: 0.25}
	North     = Subregion{Code: "N", Name: "North", offsetY: 0.65, radiusFactor: 0.28}
	Northeast = Subregion{Code: "NE", Name: "Northeast", offsetX: 0.5, offsetY: 0.5, radiusFactor: 0.25}
	East      = Subregion{Code: "E", Name: "East", offsetX: 0.65, radiusFactor: 0.28}
	Southeast = Subregion{Code: "SE", Name: "Southeast", offsetX: 0.5, offsetY: -0.5, radiusFactor: 0.25}
	South     = Subregion{Code: "S", Name: "South", offsetY: -0.65, radiusFactor: 0.28}
	Southwest = Subregion{Code: "SW", Name: "Southwest", offsetX: -0.5, offsetY: -0.5, radiusFactor: 0.25}
	West      = Subregion{Code: "W", Name: "West", offsetX: -0.65, radiusFactor: 0.28}
	Northwest = Subregion{Code: "NW", Name: "Northwest", offsetX: -0.5, offsetY: 0.5, radiusFactor: 0.25}
)

// Subregions lists all subregions, Central first.
func Subregions() []Subregion {
	return []Subregion{Central, North, Northeast, East, Southeast, South, Southwest, West, Northwest}
}

// octants in counter-clockwise order starting at due east
var octants = [8]Subregion{East, Northeast, North, Northwest, West, Southwest, South, Southeast}

// octantOf buckets a bearing in degrees (0 = east, counter-clockwise) into one of
// eight half-open 45° intervals [c-22.5, c+22.5).
func octantOf(bearing float64) Subregion {
	a := bearing + 22.5
	for a < 0 {
		a += 360
	}
	for a >= 360 {
		a -= 360
	}
	return octants[int(a/45)%8]
}
