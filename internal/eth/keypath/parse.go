package keypath

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parse converts the usual notation, e.g. "m/44'/60'/0'/0/0", into the list
// of child indices with the hardened flag applied.
func Parse(path string) ([]uint32, error) {
	if path == "" || path[0] != 'm' {
		return nil, errors.Errorf("invalid keypath %q", path)
	}
	rest := strings.TrimPrefix(path, "m")
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return []uint32{}, nil
	}

	parts := strings.Split(rest, "/")
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardenedPart := strings.HasSuffix(part, "'")
		part = strings.TrimSuffix(part, "'")

		index, err := strconv.ParseUint(part, 10, 32)
		if err != nil || index >= uint64(Hardened) {
			return nil, errors.Errorf("invalid keypath component %q", part)
		}
		if hardenedPart {
			index += uint64(Hardened)
		}
		indices = append(indices, uint32(index))
	}
	return indices, nil
}
