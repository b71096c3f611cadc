package cachesaver

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/royalcat/communityaddr/geomodel"
	"google.golang.org/protobuf/encoding/protowire"
)

// field numbers of the placeholder street record
const (
	fieldID               protowire.Number = 1
	fieldDisplayName      protowire.Number = 2
	fieldRegionCode       protowire.Number = 3
	fieldSubregionCode    protowire.Number = 4
	fieldNumber           protowire.Number = 5
	fieldGeometry         protowire.Number = 6
	fieldAlgorithmVersion protowire.Number = 7
)

// field numbers of the metadata record
const (
	fieldMetaVersion     protowire.Number = 1
	fieldMetaCountry     protowire.Number = 2
	fieldMetaDateCreated protowire.Number = 3
	fieldMetaCount       protowire.Number = 4
)

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func marshalStreet(b []byte, st geomodel.PlaceholderStreet) ([]byte, error) {
	geom, err := wkb.Marshal(st.Geometry)
	if err != nil {
		return nil, fmt.Errorf("error encoding geometry of %s: %w", st.ID, err)
	}

	b = appendString(b, fieldID, st.ID)
	b = appendString(b, fieldDisplayName, st.DisplayName)
	b = appendString(b, fieldRegionCode, st.RegionCode)
	b = appendString(b, fieldSubregionCode, st.SubregionCode)
	b = appendVarint(b, fieldNumber, uint64(st.Number))
	b = protowire.AppendTag(b, fieldGeometry, protowire.BytesType)
	b = protowire.AppendBytes(b, geom)
	b = appendString(b, fieldAlgorithmVersion, st.AlgorithmVersion)
	return b, nil
}

func unmarshalStreet(b []byte) (geomodel.PlaceholderStreet, error) {
	var st geomodel.PlaceholderStreet
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldNumber && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			st.Number = int(v)
			return n, nil
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			switch num {
			case fieldID:
				st.ID = string(v)
			case fieldDisplayName:
				st.DisplayName = string(v)
			case fieldRegionCode:
				st.RegionCode = string(v)
			case fieldSubregionCode:
				st.SubregionCode = string(v)
			case fieldAlgorithmVersion:
				st.AlgorithmVersion = string(v)
			case fieldGeometry:
				geom, err := wkb.Unmarshal(v)
				if err != nil {
					return 0, fmt.Errorf("error decoding geometry: %w", err)
				}
				line, ok := geom.(orb.LineString)
				if !ok {
					return 0, fmt.Errorf("unexpected %s geometry", geom.GeoJSONType())
				}
				st.Geometry = line
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return st, err
	}
	if st.ID == "" {
		return st, fmt.Errorf("street record without id")
	}
	return st, nil
}

func marshalMetadata(b []byte, meta Metadata) []byte {
	b = appendVarint(b, fieldMetaVersion, uint64(meta.Version))
	b = appendString(b, fieldMetaCountry, meta.Country)
	if !meta.DateCreated.IsZero() {
		b = appendVarint(b, fieldMetaDateCreated, uint64(meta.DateCreated.Unix()))
	}
	b = appendVarint(b, fieldMetaCount, meta.Count)
	return b
}

func unmarshalMetadata(b []byte) (Metadata, error) {
	var meta Metadata
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case typ == protowire.VarintType && num != fieldMetaCountry:
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case fieldMetaVersion:
				meta.Version = uint32(v)
			case fieldMetaDateCreated:
				meta.DateCreated = time.Unix(int64(v), 0).UTC()
			case fieldMetaCount:
				meta.Count = v
			}
			return n, nil
		case typ == protowire.BytesType && num == fieldMetaCountry:
			v, n := protowire.ConsumeString(b)
			meta.Country = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return meta, err
}

// consumeFields walks the fields of one record. f returns the number of bytes it
// consumed or a negative protowire error code.
func consumeFields(b []byte, f func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := f(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}
