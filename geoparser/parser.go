package geoparser

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/royalcat/communityaddr/geomodel"
)

func wayStreetID(id int64) string {
	return fmt.Sprintf("way/%d", id)
}

func (f *StreetGen) parseWay(way *osm.Way) {
	if !f.isStreet(way.Tags.Find("highway")) {
		return
	}
	name := f.localizedName(way.Tags)
	if name == "" {
		return
	}

	ls := f.makeLineString(way.Nodes)
	if len(ls) < 2 {
		f.log.WithField("way", way.ID).Debug("street has less than two resolved nodes")
		return
	}

	f.add(geomodel.NamedStreet{
		ID:       wayStreetID(int64(way.ID)),
		Name:     name,
		Geometry: ls,
	})
}

func (f *StreetGen) makeLineString(nodes osm.WayNodes) orb.LineString {
	ls := make(orb.LineString, 0, len(nodes))
	for _, node := range nodes {
		if node.Lat != 0 || node.Lon != 0 {
			ls = append(ls, orb.Point{node.Lon, node.Lat})
			continue
		}
		if f.osmdb == nil {
			continue
		}

		p, err := f.osmdb.GetNode(node.ID)
		if err != nil {
			f.log.WithError(err).WithField("node", node.ID).Error("failed to get node")
			continue
		}
		if p.Lat == 0 && p.Lon == 0 {
			f.log.WithField("node", node.ID).Error("node has no coordinates")
			continue
		}

		ls = append(ls, orb.Point{p.Lon, p.Lat})
	}
	return ls
}
