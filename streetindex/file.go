package streetindex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/communityaddr/geomodel"
)

// Street files are GeoJSON feature collections of line strings with "id" and
// "name" properties, zstd compressed when the name ends with .zst.

func Write(w io.Writer, streets []geomodel.NamedStreet) error {
	fc := geojson.NewFeatureCollection()
	for _, st := range streets {
		f := geojson.NewFeature(st.Geometry)
		f.ID = st.ID
		f.Properties["id"] = st.ID
		f.Properties["name"] = st.Name
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("error encoding streets: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func WriteFile(name string, streets []geomodel.NamedStreet) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var enc *zstd.Encoder
	if strings.HasSuffix(name, ".zst") {
		enc, err = zstd.NewWriter(tmp)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("can`t create zstd writer: %w", err)
		}
		w = enc
	}

	bw := bufio.NewWriter(w)
	if err := Write(bw, streets); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

// Read decodes a street file. Features that are not line strings are skipped.
func Read(r io.Reader) ([]geomodel.NamedStreet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding streets: %w", err)
	}

	streets := make([]geomodel.NamedStreet, 0, len(fc.Features))
	for _, f := range fc.Features {
		ls, ok := f.Geometry.(orb.LineString)
		if !ok {
			continue
		}
		streets = append(streets, geomodel.NamedStreet{
			ID:       f.Properties.MustString("id", ""),
			Name:     f.Properties.MustString("name", ""),
			Geometry: ls,
		})
	}
	return streets, nil
}

func LoadFile(name string) ([]geomodel.NamedStreet, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("can`t open file error: %w", err)
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("can`t create zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	return Read(r)
}

// InsertAll adds streets and returns how many were accepted.
func (ix *Index) InsertAll(streets []geomodel.NamedStreet) int {
	n := 0
	for _, st := range streets {
		if ix.Insert(st) {
			n++
		}
	}
	return n
}
