package progress

import (
	"fmt"
	"math"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}
var log1024 = math.Log(1024.0)

// HumanReadable formats a byte count with 1024-based units, rounded down
func HumanReadable(bytes uint64) string {
	base := 1024.0
	f := float64(bytes)
	if f < base {
		return fmt.Sprintf("%d %s", bytes, units[0])
	}
	exp := int(math.Log(f) / log1024)
	if exp >= len(units) {
		exp = len(units) - 1
	}
	// guard against Log rounding just below an exact power
	if math.Pow(base, float64(exp+1)) <= f && exp+1 < len(units) {
		exp++
	}
	roundedSize := int64(f / math.Pow(base, float64(exp)))
	return fmt.Sprintf("%d %s", roundedSize, units[exp])
}
