package reports

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"flowcli/internal/errors"
)

// Window is a fixed bucket width together with the text it was parsed from
type Window struct {
	Spec  string
	Width time.Duration
}

// String returns the window as written by the user
func (w Window) String() string {
	return w.Spec
}

var aliasPattern = regexp.MustCompile(`^(\d*)(min|[HDTSW])$`)

var aliasUnits = map[string]time.Duration{
	"S":   time.Second,
	"T":   time.Minute,
	"min": time.Minute,
	"H":   time.Hour,
	"D":   24 * time.Hour,
	"W":   7 * 24 * time.Hour,
}

// ParseWindow accepts Go durations ("4h", "90m") and the offset aliases
// "4H", "D", "2D", "30min", "15T", "10S" and "W".
func ParseWindow(spec string) (Window, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return Window{}, errors.NewValidationError("window must not be empty")
	}

	width, err := time.ParseDuration(s)
	if err != nil {
		m := aliasPattern.FindStringSubmatch(s)
		if m == nil {
			return Window{}, errors.NewValidationError(fmt.Sprintf("unknown window %q", spec))
		}
		unit := aliasUnits[m[2]]
		n := int64(1)
		if m[1] != "" {
			n, err = strconv.ParseInt(m[1], 10, 64)
			if err != nil || n > math.MaxInt64/int64(unit) {
				return Window{}, errors.NewValidationError(fmt.Sprintf("window %q is too large", spec))
			}
		}
		width = time.Duration(n) * unit
	}

	if width <= 0 {
		return Window{}, errors.NewValidationError(fmt.Sprintf("window %q must be positive", spec))
	}
	return Window{Spec: s, Width: width}, nil
}

// MustParseWindow is like ParseWindow but panics on error
func MustParseWindow(spec string) Window {
	w, err := ParseWindow(spec)
	if err != nil {
		panic(err)
	}
	return w
}

// bucketOrigin is midnight UTC of the day containing ts
func bucketOrigin(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// bucketIndex is the number of whole widths between origin and ts
func bucketIndex(origin, ts time.Time, width time.Duration) int64 {
	return int64(ts.Sub(origin) / width)
}
