package menubar

import (
	"testing"

	"github.com/aayushbajaj/japcount/internal/counter"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		summary  counter.Summary
		expected string
	}{
		{"zero", counter.Summary{Today: 0, Goal: 2400}, "📿 0"},
		{"below goal", counter.Summary{Today: 1080, Goal: 2400}, "📿 1.0K"},
		{"goal met", counter.Summary{Today: 2400, Goal: 2400}, "📿 2.4K ✓"},
		{"past goal", counter.Summary{Today: 150, Goal: 108}, "📿 150 ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.summary); got != tt.expected {
				t.Errorf("Title() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSummaryLines(t *testing.T) {
	lines := summaryLines(counter.Summary{
		Today:         1200,
		Goal:          2400,
		Percent:       50,
		Streak:        1,
		Lifetime:      123456,
		Unlocked:      3,
		MilestoneSize: 9,
	})

	expected := []string{
		"Today: 1,200 / 2,400 (50%)",
		"Streak: 1 day",
		"Lifetime: 123,456",
		"Milestones: 3/9",
	}
	if len(lines) != len(expected) {
		t.Fatalf("got %d lines, want %d", len(lines), len(expected))
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], expected[i])
		}
	}
}

func TestBucketLines(t *testing.T) {
	lines := bucketLines([]counter.Bucket{
		{Label: "Sep", Total: 0},
		{Label: "Oct", Total: 2400},
	})
	if len(lines) != 2 || lines[0] != "Sep: 0" || lines[1] != "Oct: 2,400" {
		t.Errorf("bucketLines() = %q", lines)
	}
	if got := bucketLines(nil); len(got) != 0 {
		t.Errorf("bucketLines(nil) = %q, want empty", got)
	}
}

func TestMilestoneMessage(t *testing.T) {
	if got := milestoneMessage(nil); got != "" {
		t.Errorf("milestoneMessage(nil) = %q, want empty", got)
	}
	if got := milestoneMessage([]int64{100}); got != "Milestone reached: 100" {
		t.Errorf("milestoneMessage([100]) = %q", got)
	}
	if got := milestoneMessage([]int64{5000, 10000}); got != "Milestone reached: 10,000" {
		t.Errorf("milestoneMessage([5000 10000]) = %q", got)
	}
}

func TestPluralDays(t *testing.T) {
	for n, want := range map[int]string{0: "0 days", 1: "1 day", 7: "7 days"} {
		if got := pluralDays(n); got != want {
			t.Errorf("pluralDays(%d) = %q, want %q", n, got, want)
		}
	}
}
