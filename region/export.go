package region

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	circlePoints = 32
	kmPerDegree  = 111.0
	// circles are squashed in latitude to look round on web mercator maps of the tropics
	latSquash = 0.9
)

// Area is a drawable region or subregion shape.
type Area struct {
	Code       string
	Name       string
	Level      int
	ParentCode string
	Center     orb.Point
	Polygon    orb.Polygon
}

// Areas returns the country, region (level 1) and subregion (level 2) shapes.
// Subregion shapes are approximations for maps only; classification never uses them.
func (c Country) Areas() []Area {
	areas := make([]Area, 0, len(c.Regions)*10)
	for _, r := range c.Regions {
		areas = append(areas, Area{
			Code:       r.Code,
			Name:       r.Name,
			Level:      1,
			ParentCode: c.Code,
			Center:     r.Center,
			Polygon:    circlePolygon(r.Center, r.RadiusKm),
		})
	}

	for _, r := range c.Regions {
		offset := kmToDegrees(r.RadiusKm*0.5, r.Center.Lat())
		for _, sub := range Subregions() {
			center := orb.Point{
				round6(r.Center.Lon() + sub.offsetX*offset),
				round6(r.Center.Lat() + sub.offsetY*offset*latSquash),
			}
			areas = append(areas, Area{
				Code:       r.Code + "-" + sub.Code,
				Name:       sub.Name + " " + r.Name,
				Level:      2,
				ParentCode: r.Code,
				Center:     center,
				Polygon:    circlePolygon(center, r.RadiusKm*sub.radiusFactor),
			})
		}
	}
	return areas
}

// FeatureCollection renders areas of one level as GeoJSON.
func (c Country) FeatureCollection(level int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range c.Areas() {
		if a.Level != level {
			continue
		}
		f := geojson.NewFeature(a.Polygon)
		f.Properties["code"] = a.Code
		f.Properties["name"] = a.Name
		f.Properties["level"] = a.Level
		f.Properties["parent_code"] = a.ParentCode
		f.Properties["center_lon"] = a.Center.Lon()
		f.Properties["center_lat"] = a.Center.Lat()
		fc.Append(f)
	}
	return fc
}

// WriteShapefile writes areas of one level to <dir>/<country>_<suffix>.shp.
func (c Country) WriteShapefile(dir string, level int) (string, error) {
	suffix := "regions"
	if level == 2 {
		suffix = "subregions"
	}
	name := filepath.Join(dir, strings.ToLower(c.Name)+"_"+suffix+".shp")

	w, err := shp.Create(name, shp.POLYGON)
	if err != nil {
		return "", fmt.Errorf("error creating shapefile %s: %w", name, err)
	}
	err = c.writeShapes(w, level)
	w.Close()
	if err != nil {
		return "", fmt.Errorf("error writing shapefile %s: %w", name, err)
	}

	if err := renameDBF(name); err != nil {
		return "", err
	}
	return name, nil
}

func (c Country) writeShapes(w *shp.Writer, level int) error {
	err := w.SetFields([]shp.Field{
		shp.StringField("CODE", 16),
		shp.StringField("NAME", 64),
		shp.NumberField("LEVEL", 2),
		shp.StringField("PARENT", 16),
	})
	if err != nil {
		return err
	}

	for _, a := range c.Areas() {
		if a.Level != level {
			continue
		}
		points := make([]shp.Point, 0, len(a.Polygon[0]))
		for _, p := range a.Polygon[0] {
			points = append(points, shp.Point{X: p.Lon(), Y: p.Lat()})
		}
		polygon := shp.Polygon(*shp.NewPolyLine([][]shp.Point{points}))

		row := int(w.Write(&polygon))
		for field, value := range []any{a.Code, a.Name, a.Level, a.ParentCode} {
			if err := w.WriteAttribute(row, field, value); err != nil {
				return fmt.Errorf("error writing attribute %d of %s: %w", field, a.Code, err)
			}
		}
	}
	return nil
}

// renameDBF moves the attribute table go-shp writes as "<base>dbf" next to the
// shapes as "<base>.dbf".
func renameDBF(name string) error {
	base := strings.TrimSuffix(name, ".shp")
	err := os.Rename(base+"dbf", base+".dbf")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error renaming attribute table: %w", err)
	}
	return nil
}

func circlePolygon(center orb.Point, radiusKm float64) orb.Polygon {
	radius := kmToDegrees(radiusKm, center.Lat())

	ring := make(orb.Ring, 0, circlePoints+1)
	for i := 0; i < circlePoints; i++ {
		angle := 2 * math.Pi * float64(i) / circlePoints
		ring = append(ring, orb.Point{
			round6(center.Lon() + radius*math.Cos(angle)),
			round6(center.Lat() + radius*math.Sin(angle)*latSquash),
		})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

func kmToDegrees(km, lat float64) float64 {
	return km / (kmPerDegree * math.Cos(lat*math.Pi/180))
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
