package util

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// sizeUnits are offered as suggestions for a mistyped unit.
var sizeUnits = []string{"KB", "MB", "GB", "TB", "KiB", "MiB", "GiB", "TiB", "B"}

// ParseSize parses a size string (e.g., "4.5GB", "100MiB", "2048") into bytes.
// SI units (KB, MB) are powers of 1000 and IEC units (KiB, MiB) powers of 1024.
func ParseSize(sizeStr string) (int64, error) {
	n, err := humanize.ParseBytes(sizeStr)
	if err != nil {
		unit := strings.TrimLeft(strings.TrimSpace(sizeStr), "0123456789., ")
		if hint := Suggest(unit, sizeUnits); unit != "" && hint != "" {
			return 0, fmt.Errorf("invalid size %q, did you mean unit %q? Use format like '100MB', '4.5GiB'", sizeStr, hint)
		}
		return 0, fmt.Errorf("invalid size %q. Use format like '100MB', '4.5GiB'", sizeStr)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", sizeStr)
	}
	return int64(n), nil
}

// FormatSize renders a byte count with binary units, e.g. "1.5 MiB".
func FormatSize(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}
