// Package cachesaver persists placeholder streets in a compact snapshot file so a
// process local store survives restarts.
package cachesaver

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/royalcat/communityaddr/geomodel"
	"google.golang.org/protobuf/encoding/protowire"
)

var MAGIC_BYTES = []byte("CADDRSNP")

const COMPATIBILITY_LEVEL uint32 = 1

type Metadata struct {
	Version     uint32
	Country     string
	DateCreated time.Time
	// Count is the number of street records that follow.
	Count uint64
}

// Save writes the magic bytes, the compatibility level and a zstd stream of length
// prefixed records: metadata first, then one record per street.
func Save(w io.Writer, meta Metadata, streets []geomodel.PlaceholderStreet) error {
	_, err := w.Write(MAGIC_BYTES)
	if err != nil {
		return err
	}

	err = binary.Write(w, binary.LittleEndian, COMPATIBILITY_LEVEL)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("can`t create zstd writer: %w", err)
	}

	meta.Count = uint64(len(streets))
	if err := writeRecord(enc, marshalMetadata(nil, meta)); err != nil {
		enc.Close()
		return fmt.Errorf("error writing metadata: %w", err)
	}

	var buf []byte
	for _, st := range streets {
		buf, err = marshalStreet(buf[:0], st)
		if err != nil {
			enc.Close()
			return err
		}
		if err := writeRecord(enc, buf); err != nil {
			enc.Close()
			return fmt.Errorf("error writing street %s: %w", st.ID, err)
		}
	}

	return enc.Close()
}

func writeRecord(w io.Writer, record []byte) error {
	prefix := protowire.AppendVarint(nil, uint64(len(record)))
	if _, err := w.Write(prefix); err != nil {
		return err
	}
	_, err := w.Write(record)
	return err
}

// SaveFile writes the snapshot next to name and renames it into place.
func SaveFile(name string, meta Metadata, streets []geomodel.PlaceholderStreet) error {
	tmp := name + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("error creating snapshot file: %w", err)
	}

	if err := Save(file, meta, streets); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("error saving snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, name)
}
