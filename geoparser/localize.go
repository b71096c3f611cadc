package geoparser

import (
	"github.com/paulmach/osm"
)

const nameKey = "name"

func (f *StreetGen) localizedName(tags osm.Tags) string {
	if f.preferredLocalization != "" {
		if localizedName := tags.Find(nameKey + ":" + f.preferredLocalization); localizedName != "" {
			return localizedName
		}
	}

	return tags.Find(nameKey)
}

// localizedTag is localizedName for overpass results, which carry plain tag maps.
func (f *StreetGen) localizedTag(tags map[string]string) string {
	if f.preferredLocalization != "" {
		if localizedName := tags[nameKey+":"+f.preferredLocalization]; localizedName != "" {
			return localizedName
		}
	}
	return tags[nameKey]
}
