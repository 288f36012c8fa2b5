package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical text form of a calendar date.
const DateLayout = "2006-01-02"

// FormatDate renders t as YYYY-MM-DD. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate reads a calendar date from either the canonical form or an RFC3339
// timestamp as returned by the catalog. The result is midnight UTC of the
// date as written, whatever the local time zone.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse date: empty value")
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// DisplayDate renders a stored date value for list cells, leaving values it
// cannot parse untouched.
func DisplayDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return FormatDate(t)
}

// FormatDuration renders a count of seconds as m:ss. It accepts integer and
// float kinds, Seconds and numeric strings; anything else renders as 0:00.
func FormatDuration(v any) string {
	var total float64
	switch d := v.(type) {
	case Seconds:
		n, ok := d.Value()
		if !ok {
			return "0:00"
		}
		total = n
	case int:
		total = float64(d)
	case int64:
		total = float64(d)
	case int32:
		total = float64(d)
	case uint:
		total = float64(d)
	case uint64:
		total = float64(d)
	case float64:
		total = d
	case float32:
		total = float64(d)
	case string:
		n, ok := parseSeconds(d)
		if !ok {
			return "0:00"
		}
		total = n
	default:
		return "0:00"
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return "0:00"
	}

	secs := int64(math.Round(total))
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func parseSeconds(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
