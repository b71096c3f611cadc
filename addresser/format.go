package addresser

import (
	"strconv"

	"github.com/royalcat/communityaddr/geomodel"
)

const unofficialSuffix = " [Unofficial / Community Address]"

// Format renders "{house number} {street}, {region}, {country}". Version v1
// addresses carry an explicit unofficial marker.
func Format(houseNumber int, street, regionName, countryName, version string) string {
	s := strconv.Itoa(houseNumber) + " " + street + ", " + regionName + ", " + countryName
	if version == geomodel.AlgorithmV1 {
		s += unofficialSuffix
	}
	return s
}
