// Package timeval normalizes time-of-day values so that equality checks do not
// depend on which representation a client or storage layer used.
package timeval

import (
	"strings"
	"time"
)

// Layout is the canonical representation of a time-of-day value
const Layout = "15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04:05.999999999",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04PM",
}

// Codec converts time-of-day inputs to their canonical form.
// When loc is set, absolute timestamps are converted into it before the
// wall-clock time is taken; otherwise the timestamp's own offset is kept.
type Codec struct {
	loc *time.Location
}

// New creates a codec. A nil location keeps timestamp offsets as written.
func New(loc *time.Location) *Codec {
	return &Codec{loc: loc}
}

// Default keeps timestamp offsets as written
var Default = New(nil)

// Normalize returns the canonical HH:MM:SS form of value.
// nil, empty and unparseable inputs all normalize to nil.
func (c *Codec) Normalize(value *string) *string {
	if value == nil {
		return nil
	}
	t, ok := c.parse(*value)
	if !ok {
		return nil
	}
	s := t.Format(Layout)
	return &s
}

// Valid reports whether raw is empty or a parseable time-of-day value.
// Callers use it to reject malformed input before it reaches Normalize.
func (c *Codec) Valid(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}
	_, ok := c.parse(raw)
	return ok
}

// Equal reports whether a and b denote the same wall-clock time
func (c *Codec) Equal(a, b *string) bool {
	na, nb := c.Normalize(a), c.Normalize(b)
	if na == nil || nb == nil {
		return na == nil && nb == nil
	}
	return *na == *nb
}

func (c *Codec) parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if c.loc != nil && hasZone(layout) {
				t = t.In(c.loc)
			}
			return t, true
		}
	}

	upper := strings.ToUpper(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func hasZone(layout string) bool {
	return strings.Contains(layout, "Z07") || strings.HasSuffix(layout, "-07")
}

// Normalize uses the default codec
func Normalize(value *string) *string {
	return Default.Normalize(value)
}

// SecondsOfDay returns the seconds since midnight of a canonical value
func SecondsOfDay(canonical *string) (int, bool) {
	if canonical == nil {
		return 0, false
	}
	t, err := time.Parse(Layout, *canonical)
	if err != nil {
		return 0, false
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), true
}
