package menubar

import (
	"fmt"

	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/aayushbajaj/japcount/pkg/stats"
)

const titleIcon = "📿"

// Title is the menu bar text: today's count, with a check once the goal is met.
func Title(s counter.Summary) string {
	title := fmt.Sprintf("%s %s", titleIcon, stats.FormatCompact(s.Today))
	if s.Today >= s.Goal {
		title += " ✓"
	}
	return title
}

func summaryLines(s counter.Summary) []string {
	return []string{
		fmt.Sprintf("Today: %s / %s (%d%%)", stats.FormatAbsolute(s.Today), stats.FormatAbsolute(s.Goal), s.Percent),
		fmt.Sprintf("Streak: %s", pluralDays(s.Streak)),
		fmt.Sprintf("Lifetime: %s", stats.FormatAbsolute(s.Lifetime)),
		fmt.Sprintf("Milestones: %d/%d", s.Unlocked, s.MilestoneSize),
	}
}

func bucketLines(buckets []counter.Bucket) []string {
	lines := make([]string, len(buckets))
	for i, b := range buckets {
		lines[i] = fmt.Sprintf("%s: %s", b.Label, stats.FormatAbsolute(b.Total))
	}
	return lines
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func milestoneMessage(milestones []int64) string {
	if len(milestones) == 0 {
		return ""
	}
	return fmt.Sprintf("Milestone reached: %s", stats.FormatAbsolute(milestones[len(milestones)-1]))
}
