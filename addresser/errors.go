package addresser

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/royalcat/communityaddr/region"
)

var (
	// ErrBackendUnavailable marks failures of the street lookup or the placeholder
	// store, including step timeouts. The request can be retried.
	ErrBackendUnavailable = errors.New("address backend unavailable")

	ErrInvalidCoordinate = errors.New("invalid coordinate")

	ErrUnknownRegion = region.ErrUnknownRegion
)

func validateCoordinate(p orb.Point) error {
	lon, lat := p.Lon(), p.Lat()
	if math.IsNaN(lon) || math.IsNaN(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinate, p)
	}
	return nil
}
