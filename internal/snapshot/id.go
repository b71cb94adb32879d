package snapshot

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IDLayout is the time layout of a snapshot id without its suffix.
const IDLayout = "20060102T150405"

// Latest selects the most recent snapshot.
const Latest = "latest"

var idPattern = regexp.MustCompile(`^\d{8}T\d{6}(-[1-9]\d*)?$`)

// ValidID reports whether id has the shape of a snapshot id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// NewID formats t as a snapshot id with the given collision suffix.
// A suffix of zero produces no suffix.
func NewID(t time.Time, suffix int) string {
	id := t.UTC().Format(IDLayout)
	if suffix > 0 {
		id += "-" + strconv.Itoa(suffix)
	}
	return id
}

// splitID separates the timestamp from the numeric suffix.
func splitID(id string) (string, int) {
	stamp, suffix, ok := strings.Cut(id, "-")
	if !ok {
		return id, 0
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return id, 0
	}
	return stamp, n
}

// CompareIDs orders snapshot ids chronologically, comparing collision
// suffixes numerically so that "-10" sorts after "-2".
func CompareIDs(a, b string) int {
	sa, na := splitID(a)
	sb, nb := splitID(b)
	if c := strings.Compare(sa, sb); c != 0 {
		return c
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}
