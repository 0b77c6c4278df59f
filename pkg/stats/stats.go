package stats

import "time"

type DayData struct {
	Date  time.Time
	Count int64
}

// Average returns the mean count per day over days.
func Average(days []DayData) float64 {
	if len(days) == 0 {
		return 0
	}
	var total int64
	for _, d := range days {
		total += d.Count
	}
	return float64(total) / float64(len(days))
}

// Total sums the counts of days.
func Total(days []DayData) int64 {
	var total int64
	for _, d := range days {
		total += d.Count
	}
	return total
}

// FindPeak returns the index and value of the largest count. The first
// occurrence wins on ties.
func FindPeak(counts []int64) (index int, count int64) {
	for i, c := range counts {
		if c > count {
			index = i
			count = c
		}
	}
	return
}

// FormatCompact renders counts as 999, 1.5K, 2M.
func FormatCompact(count int64) string {
	if count < 0 {
		return "-" + FormatCompact(-count)
	}
	if count >= 1000000 {
		return formatScaled(count, 1000000) + "M"
	}
	if count >= 1000 {
		return formatScaled(count, 1000) + "K"
	}
	return formatInt(count)
}

// FormatAbsolute formats a number with comma separators for readability.
func FormatAbsolute(n int64) string {
	if n < 0 {
		return "-" + FormatAbsolute(-n)
	}
	s := formatInt(n)
	result := make([]byte, 0, len(s)+len(s)/3)
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, s[i])
	}
	return string(result)
}

// formatScaled divides by unit keeping one truncated decimal digit.
func formatScaled(count, unit int64) string {
	whole := count / unit
	rem := count % unit
	if rem == 0 {
		return formatInt(whole)
	}
	return formatInt(whole) + "." + string(byte('0'+rem*10/unit))
}

func formatInt(i int64) string {
	if i == 0 {
		return "0"
	}
	var result []byte
	for i > 0 {
		result = append([]byte{byte('0' + i%10)}, result...)
		i /= 10
	}
	return string(result)
}
