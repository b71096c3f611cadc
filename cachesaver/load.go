package cachesaver

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/royalcat/communityaddr/geomodel"
)

// maxRecordSize guards against corrupt length prefixes.
const maxRecordSize = 1 << 20

func Load(reader io.Reader, log *slog.Logger) (Metadata, []geomodel.PlaceholderStreet, error) {
	magic := make([]byte, len(MAGIC_BYTES))
	_, err := io.ReadFull(reader, magic)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("error reading magic bytes: %w", err)
	}
	if !bytes.Equal(magic, MAGIC_BYTES) {
		return Metadata{}, nil, fmt.Errorf("not a placeholder snapshot")
	}

	var compatibilityLevel uint32
	err = binary.Read(reader, binary.LittleEndian, &compatibilityLevel)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("error reading compatibility level: %w", err)
	}

	switch compatibilityLevel {
	case COMPATIBILITY_LEVEL:
		log.Info("Loading v1 snapshot format")
		meta, streets, err := loadV1(reader)
		if err != nil {
			return Metadata{}, nil, fmt.Errorf("error loading v1 snapshot: %w", err)
		}
		log.Info("Loaded snapshot",
			"version", meta.Version,
			"country", meta.Country,
			"date_created", meta.DateCreated,
			"streets", len(streets),
		)
		return meta, streets, nil
	}

	return Metadata{}, nil, fmt.Errorf("unsupported compatibility level: %d", compatibilityLevel)
}

func loadV1(reader io.Reader) (Metadata, []geomodel.PlaceholderStreet, error) {
	dec, err := zstd.NewReader(reader)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("can`t create zstd reader: %w", err)
	}
	defer dec.Close()
	r := bufio.NewReader(dec)

	record, err := readRecord(r, nil)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("error reading metadata: %w", err)
	}
	meta, err := unmarshalMetadata(record)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("error decoding metadata: %w", err)
	}

	streets := make([]geomodel.PlaceholderStreet, 0, min(meta.Count, 1<<16))
	for {
		record, err = readRecord(r, record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Metadata{}, nil, err
		}
		st, err := unmarshalStreet(record)
		if err != nil {
			return Metadata{}, nil, fmt.Errorf("error decoding street %d: %w", len(streets), err)
		}
		streets = append(streets, st)
	}

	if uint64(len(streets)) != meta.Count {
		return Metadata{}, nil, fmt.Errorf("snapshot is truncated: %d of %d streets", len(streets), meta.Count)
	}
	return meta, streets, nil
}

// readRecord returns io.EOF only at a clean record boundary.
func readRecord(r *bufio.Reader, buf []byte) ([]byte, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if size > maxRecordSize {
		return nil, fmt.Errorf("record of %d bytes is too large", size)
	}
	if uint64(cap(buf)) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("error reading record: %w", io.ErrUnexpectedEOF)
	}
	return buf, nil
}

func LoadFile(name string, log *slog.Logger) (Metadata, []geomodel.PlaceholderStreet, error) {
	file, err := os.Open(name)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("can`t open file error: %w", err)
	}
	defer file.Close()

	return Load(bufio.NewReader(file), log)
}
