package call

import (
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is used for call dates written on contacts.
const DefaultTimezone = "Europe/Paris"

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04:05"
	isoLayout  = "2006-01-02T15:04:05.000Z07:00"
)

// FormatDuration renders seconds as MM:SS, or HH:MM:SS from one hour up.
// Negative values render as zero.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes%60, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds%60)
}

// Elapsed returns whole seconds from start to end, never negative. A zero
// start yields zero.
func Elapsed(start, end time.Time) int {
	if start.IsZero() {
		return 0
	}
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// SecondsFromClient converts a client-measured duration, rejecting negative
// and non-finite values.
func SecondsFromClient(v *float64) (int, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return 0, false
	}
	return int(math.Floor(*v)), true
}

// LocalTimeOf returns the DD/MM/YYYY date and HH:MM:SS time of instant in loc.
func LocalTimeOf(instant time.Time, loc *time.Location) (date, clock string) {
	if loc == nil {
		loc = time.UTC
	}
	local := instant.In(loc)
	return local.Format(dateLayout), local.Format(timeLayout)
}

// FormatISO renders an instant as an ISO-8601 UTC timestamp with milliseconds.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// naiveLayouts are ISO-8601 forms without a zone. They are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseISO parses an ISO-8601 timestamp. A value without a zone offset is
// taken to be UTC.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if naive, nerr := time.ParseInLocation(layout, s, time.UTC); nerr == nil {
			return naive, nil
		}
	}
	return time.Time{}, err
}

// LoadLocation resolves a zone name, falling back to DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}
