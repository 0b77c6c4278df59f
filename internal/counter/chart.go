package counter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

type Period string

const (
	PeriodDaily    Period = "daily"
	PeriodWeekly   Period = "weekly"
	PeriodMonthly  Period = "monthly"
	PeriodYearly   Period = "yearly"
	PeriodLifetime Period = "lifetime"
)

// Periods lists every chart period in display order.
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodLifetime}

const (
	dailyBuckets    = 7
	weeklyBuckets   = 4
	monthlyBuckets  = 6
	yearlyBuckets   = 3
	lifetimeBuckets = 12
)

// Bucket is one bar of a chart. Start and End are inclusive ISO dates.
type Bucket struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
	Total int64  `json:"total"`
}

// ParsePeriod resolves a period name. Inexact input such as "mon" or "wk"
// is fuzzy-matched against the known names.
func ParsePeriod(s string) (Period, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	names := make([]string, len(Periods))
	for i, p := range Periods {
		if string(p) == name {
			return p, nil
		}
		names[i] = string(p)
	}
	if name != "" {
		if matches := fuzzy.Find(name, names); len(matches) > 0 {
			return Periods[matches[0].Index], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// ChartBuckets aggregates daily counts into buckets for period, oldest
// first, with the newest bucket containing ref.
func (c *Counter) ChartBuckets(period Period, ref time.Time) ([]Bucket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref = midday(ref)
	switch period {
	case PeriodDaily:
		return c.dailyBuckets(ref), nil
	case PeriodWeekly:
		return c.weeklyBuckets(ref), nil
	case PeriodMonthly:
		return c.monthlyBuckets(ref), nil
	case PeriodYearly:
		return c.yearlyBuckets(ref), nil
	case PeriodLifetime:
		return c.lifetimeBuckets(ref.Location()), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
}

// sumRange totals the inclusive day range [from, to].
func (c *Counter) sumRange(from, to time.Time) int64 {
	var total int64
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		total += c.state.DailyCounts[DateKey(d)]
	}
	return total
}

func bucket(label string, from, to time.Time, total int64) Bucket {
	return Bucket{
		Label: label,
		Start: from.Format(isoLayout),
		End:   to.Format(isoLayout),
		Total: total,
	}
}

func (c *Counter) dailyBuckets(ref time.Time) []Bucket {
	out := make([]Bucket, 0, dailyBuckets)
	for i := dailyBuckets - 1; i >= 0; i-- {
		d := ref.AddDate(0, 0, -i)
		out = append(out, bucket(d.Format("Mon"), d, d, c.state.DailyCounts[DateKey(d)]))
	}
	return out
}

func (c *Counter) weeklyBuckets(ref time.Time) []Bucket {
	offset := (int(ref.Weekday()) - int(c.weekStart) + 7) % 7
	out := make([]Bucket, 0, weeklyBuckets)
	for i := weeklyBuckets - 1; i >= 0; i-- {
		start := ref.AddDate(0, 0, -(offset + 7*i))
		end := start.AddDate(0, 0, 6)
		label := "Week " + strconv.Itoa(weeklyBuckets-i)
		out = append(out, bucket(label, start, end, c.sumRange(start, end)))
	}
	return out
}

func (c *Counter) monthlyBuckets(ref time.Time) []Bucket {
	first := time.Date(ref.Year(), ref.Month(), 1, 12, 0, 0, 0, ref.Location())
	out := make([]Bucket, 0, monthlyBuckets)
	for i := monthlyBuckets - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		out = append(out, bucket(start.Format("Jan"), start, end, c.sumRange(start, end)))
	}
	return out
}

func (c *Counter) yearlyBuckets(ref time.Time) []Bucket {
	out := make([]Bucket, 0, yearlyBuckets)
	for i := yearlyBuckets - 1; i >= 0; i-- {
		year := ref.Year() - i
		start := time.Date(year, time.January, 1, 12, 0, 0, 0, ref.Location())
		end := time.Date(year, time.December, 31, 12, 0, 0, 0, ref.Location())
		out = append(out, bucket(strconv.Itoa(year), start, end, c.sumRange(start, end)))
	}
	return out
}

// lifetimeBuckets groups every recorded day by calendar month and keeps the
// most recent months. Keys that are not dates are skipped.
func (c *Counter) lifetimeBuckets(loc *time.Location) []Bucket {
	type month struct {
		year int
		mon  time.Month
	}
	totals := make(map[month]int64)
	for key, n := range c.state.DailyCounts {
		d, ok := ParseDateKey(key, loc)
		if !ok {
			continue
		}
		totals[month{d.Year(), d.Month()}] += n
	}

	months := make([]month, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].mon < months[j].mon
	})
	if len(months) > lifetimeBuckets {
		months = months[len(months)-lifetimeBuckets:]
	}

	out := make([]Bucket, 0, len(months))
	for _, m := range months {
		start := time.Date(m.year, m.mon, 1, 12, 0, 0, 0, loc)
		end := start.AddDate(0, 1, -1)
		out = append(out, bucket(start.Format("Jan 06"), start, end, totals[m]))
	}
	return out
}
