package counter

import "time"

// DateLayout is the day-key format. It matches JavaScript's
// Date.prototype.toDateString so data exported by the web version loads as is.
const DateLayout = "Mon Jan 02 2006"

// isoLayout is accepted on input only.
const isoLayout = "2006-01-02"

// DateKey returns the day key for t in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a day key in either the canonical or ISO layout.
func ParseDateKey(key string, loc *time.Location) (time.Time, bool) {
	for _, layout := range []string{DateLayout, isoLayout} {
		if t, err := time.ParseInLocation(layout, key, loc); err == nil {
			return midday(t), true
		}
	}
	return time.Time{}, false
}

// midday pins t to noon so AddDate never lands on the wrong side of a DST shift.
func midday(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, t.Location())
}

// normalizeDailyCounts rewrites parseable keys into DateLayout, merging
// duplicates and dropping non-positive entries. Unparseable keys are kept.
func normalizeDailyCounts(in map[string]int64, loc *time.Location) map[string]int64 {
	out := make(map[string]int64, len(in))
	for key, n := range in {
		if n <= 0 {
			continue
		}
		if t, ok := ParseDateKey(key, loc); ok {
			out[DateKey(t)] += n
			continue
		}
		out[key] += n
	}
	return out
}
