package server

import (
	"fmt"
	"slices"
	"strconv"
)

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}

// unmarshalPointsListFast parses a JSON array of two-number arrays without
// reflection. It appends to result.
func unmarshalPointsListFast(data []byte, result *[][2]float64) error {
	i := 0
	n := len(data)

	*result = slices.Grow(*result, n/16) // n/16 is a heuristic

	skipSpace := func() {
		for i < n && isSpace(data[i]) {
			i++
		}
	}

	skipSpace()
	if i >= n || data[i] != '[' {
		return fmt.Errorf("invalid format: expected '['")
	}
	i++

	skipSpace()
	if i < n && data[i] == ']' {
		i++
		skipSpace()
		if i != n {
			return fmt.Errorf("invalid format: unexpected data after list")
		}
		return nil
	}

	for {
		skipSpace()
		if i >= n || data[i] != '[' {
			return fmt.Errorf("invalid format: expected '[' for point")
		}
		i++

		var point [2]float64
		for j := 0; j < 2; j++ {
			skipSpace()

			start := i
			for i < n && isNumberByte(data[i]) {
				i++
			}
			if start == i {
				return fmt.Errorf("invalid format: expected number at %d", start)
			}
			num, err := strconv.ParseFloat(string(data[start:i]), 64)
			if err != nil {
				return fmt.Errorf("invalid number: %w", err)
			}
			point[j] = num

			skipSpace()
			if j == 0 {
				if i >= n || data[i] != ',' {
					return fmt.Errorf("invalid format: expected ',' between coordinates")
				}
				i++
			}
		}

		if i >= n || data[i] != ']' {
			return fmt.Errorf("invalid format: expected ']' at end of point")
		}
		i++
		*result = append(*result, point)

		skipSpace()
		if i >= n {
			return fmt.Errorf("invalid format: unterminated list")
		}
		if data[i] == ',' {
			i++
			continue
		}
		if data[i] != ']' {
			return fmt.Errorf("invalid format: expected ',' or ']' after point")
		}
		i++
		break
	}

	skipSpace()
	if i != n {
		return fmt.Errorf("invalid format: unexpected data after list")
	}
	return nil
}
