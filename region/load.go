package region

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// LoadCountry reads a country table from a JSON file, zstd compressed when the
// name ends with .zst, and validates it.
func LoadCountry(name string) (Country, error) {
	reader, err := openReader(name)
	if err != nil {
		return Country{}, fmt.Errorf("error opening region file: %w", err)
	}
	defer reader.Close()

	return ReadCountry(reader)
}

func ReadCountry(r io.Reader) (Country, error) {
	var country Country
	if err := json.NewDecoder(r).Decode(&country); err != nil {
		return Country{}, fmt.Errorf("%w: decoding country: %s", ErrInvalidConfig, err.Error())
	}
	if err := country.Validate(); err != nil {
		return Country{}, err
	}
	return country, nil
}

func openReader(name string) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("can`t open file error: %w", err)
	}

	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("can`t create zstd reader: %w", err)
		}

		return &zstdFile{Decoder: dec, file: file}, nil
	}

	return file, nil
}

type zstdFile struct {
	*zstd.Decoder
	file *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}
