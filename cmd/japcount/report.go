package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/aayushbajaj/japcount/pkg/stats"
	"github.com/charmbracelet/glamour"
)

func runReport(out io.Writer, c *counter.Counter) error {
	now := time.Now()
	weekly, err := c.ChartBuckets(counter.PeriodWeekly, now)
	if err != nil {
		return err
	}
	md := buildReport(now, c.Summary(), weekly, c.Achievements())

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}

// buildReport lays out the summary, the last four weeks and milestone
// progress as markdown.
func buildReport(now time.Time, s counter.Summary, weeks []counter.Bucket, achievements []counter.AchievementStatus) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 📿 Naam Jap Report\n\n_%s_\n\n", now.Format("Monday, 2 January 2006"))

	b.WriteString("## Today\n\n")
	fmt.Fprintf(&b, "**%s** of **%s** (%d%%)", stats.FormatAbsolute(s.Today), stats.FormatAbsolute(s.Goal), s.Percent)
	if s.Today >= s.Goal {
		b.WriteString(" - goal reached 🎉")
	}
	b.WriteString("\n\n")

	b.WriteString("## Overview\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Lifetime | %s |\n", stats.FormatAbsolute(s.Lifetime))
	fmt.Fprintf(&b, "| Streak | %d days |\n", s.Streak)
	fmt.Fprintf(&b, "| Last 7 days | %s |\n", stats.FormatAbsolute(s.WeekTotal))
	fmt.Fprintf(&b, "| Daily average | %s |\n", stats.FormatAbsolute(int64(s.WeekAverage)))
	b.WriteString("\n")

	if len(weeks) > 0 {
		b.WriteString("## Last 4 Weeks\n\n")
		b.WriteString("| Week | From | To | Total |\n|---|---|---|---:|\n")
		for _, w := range weeks {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", w.Label, w.Start, w.End, stats.FormatAbsolute(w.Total))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Milestones (%d/%d)\n\n", s.Unlocked, s.MilestoneSize)
	var next *counter.AchievementStatus
	for i, a := range achievements {
		mark := " "
		if a.Unlocked {
			mark = "x"
		} else if next == nil && a.Milestone > s.Lifetime {
			next = &achievements[i]
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, stats.FormatAbsolute(a.Milestone))
	}
	if next != nil {
		fmt.Fprintf(&b, "\nNext milestone: **%s** (%s to go)\n",
			stats.FormatAbsolute(next.Milestone), stats.FormatAbsolute(next.Milestone-s.Lifetime))
	}

	return b.String()
}
