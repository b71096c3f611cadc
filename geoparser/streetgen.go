// Package geoparser extracts named streets from OpenStreetMap data.
package geoparser

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/royalcat/communityaddr/geomodel"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// NodeDB resolves way node coordinates that the PBF stream does not carry.
type NodeDB interface {
	GetNode(id osm.NodeID) (*osm.Node, error)
}

type StreetGen struct {
	osmdb                 NodeDB
	threads               int
	preferredLocalization string
	skipHighways          map[string]struct{}

	streets *xsync.MapOf[string, geomodel.NamedStreet]

	log *logrus.Logger
}

// NewStreetGen creates a street extractor. osmdb may be nil when every way
// node already has coordinates.
func NewStreetGen(osmdb NodeDB, cfg Config) *StreetGen {
	skip := make(map[string]struct{}, len(cfg.SkipHighways))
	for _, h := range cfg.SkipHighways {
		skip[h] = struct{}{}
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = 1
	}

	return &StreetGen{
		osmdb:                 osmdb,
		threads:               threads,
		preferredLocalization: cfg.PreferredLocalization,
		skipHighways:          skip,

		streets: xsync.NewMapOf[string, geomodel.NamedStreet](),

		log: logrus.StandardLogger(),
	}
}

func (f *StreetGen) ParseOSMFile(ctx context.Context, name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	return f.ParseOSM(ctx, file, stat.Size(), name)
}

// ParseOSM scans a PBF stream for named highways. size is only used for progress.
func (f *StreetGen) ParseOSM(ctx context.Context, r io.Reader, size int64, name string) error {
	scanner := osmpbf.New(ctx, r, f.threads)
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	before := f.streets.Size()

	pool := pool.New().WithMaxGoroutines(f.threads)
	err := scanWithProgress(scanner, size, "extracting streets from "+name, func(object osm.Object) bool {
		way, ok := object.(*osm.Way)
		if !ok {
			return true
		}
		pool.Go(func() {
			f.parseWay(way)
		})
		return true
	})
	pool.Wait()
	if err != nil {
		return fmt.Errorf("error scanning %s: %w", name, err)
	}

	f.log.WithField("input", name).Infof("Extracted %d streets", f.streets.Size()-before)
	return nil
}

func scanWithProgress(scanner *osmpbf.Scanner, size int64, name string, it func(osm.Object) bool) error {
	bar := pb.Start64(size)
	bar.Set("prefix", name)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Second * 5)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}{{with string . "suffix"}} {{.}}{{end}}` + "\n")
	}

	for scanner.Scan() {
		bar.SetCurrent(scanner.FullyScannedBytes())
		if !it(scanner.Object()) {
			break
		}
	}
	bar.Finish()

	return scanner.Err()
}

func (f *StreetGen) isStreet(highway string) bool {
	if highway == "" {
		return false
	}
	_, skip := f.skipHighways[highway]
	return !skip
}

// add keeps the first street stored under an ID, so overlapping extracts do not
// produce duplicates.
func (f *StreetGen) add(street geomodel.NamedStreet) {
	f.streets.LoadOrStore(street.ID, street)
}

func (f *StreetGen) Len() int {
	return f.streets.Size()
}

// Streets returns the extracted streets ordered by ID.
func (f *StreetGen) Streets() []geomodel.NamedStreet {
	out := make([]geomodel.NamedStreet, 0, f.streets.Size())
	f.streets.Range(func(_ string, street geomodel.NamedStreet) bool {
		out = append(out, street)
		return true
	})
	slices.SortFunc(out, func(a, b geomodel.NamedStreet) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
