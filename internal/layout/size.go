package layout

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// ParseSize parses a human entered volume size such as "1048576", "500k",
// "20m" or "1g". The k, m and g multipliers are decimal powers of 1000;
// binary sizes need an explicit IEC suffix ("64MiB", "1gi").
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, types.NewGeometryError("parse size", "no size specified")
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, &types.Error{Kind: types.KindGeometry, Op: "parse size", Offset: -1, Detail: "invalid size " + s, Err: err}
	}
	if n == 0 {
		return 0, types.NewGeometryError("parse size", "size must be greater than zero")
	}
	return n, nil
}
