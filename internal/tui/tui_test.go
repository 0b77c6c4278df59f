package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/aayushbajaj/japcount/internal/storage"
	tea "github.com/charmbracelet/bubbletea"
)

var fixedNow = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, *counter.Counter) {
	t.Helper()
	c := counter.New(storage.NewMemoryKV(), counter.WithClock(func() time.Time { return fixedNow }))
	m := New(c)
	m.now = func() time.Time { return fixedNow }
	return m, c
}

// load runs Init's command and applies the result.
func load(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(m.Init()())
	return updated.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewLoading(t *testing.T) {
	m, _ := newTestModel(t)
	if m.View() != "Loading..." {
		t.Errorf("Expected loading view before stats arrive, got %q", m.View())
	}
}

func TestTapIncrementsCounter(t *testing.T) {
	m, c := newTestModel(t)
	m = load(t, m)

	_, cmd := m.Update(keyMsg(" "))
	if cmd == nil {
		t.Fatal("Expected a tap command")
	}
	msg := cmd()
	tapped, ok := msg.(tappedMsg)
	if !ok {
		t.Fatalf("Expected tappedMsg, got %T", msg)
	}
	if tapped.result.LifetimeCount != 1 {
		t.Errorf("Expected lifetime 1, got %d", tapped.result.LifetimeCount)
	}
	if c.TodayCount() != 1 {
		t.Errorf("Expected today count 1, got %d", c.TodayCount())
	}
}

func TestMilestoneShowsToast(t *testing.T) {
	m, c := newTestModel(t)
	for i := 0; i < 99; i++ {
		c.Increment()
	}
	m = load(t, m)

	updated, _ := m.Update(m.tap())
	m = updated.(Model)
	if !strings.Contains(m.toast, "100") {
		t.Errorf("Expected milestone toast for 100, got %q", m.toast)
	}

	// A stale expiry does not clear a newer toast
	updated, _ = m.Update(toastExpiredMsg{id: m.toastID - 1})
	m = updated.(Model)
	if m.toast == "" {
		t.Error("Expected toast to survive a stale expiry")
	}

	updated, _ = m.Update(toastExpiredMsg{id: m.toastID})
	m = updated.(Model)
	if m.toast != "" {
		t.Errorf("Expected toast to clear, got %q", m.toast)
	}
}

func TestTabSwitchesScreens(t *testing.T) {
	m, _ := newTestModel(t)
	m = load(t, m)

	updated, _ := m.Update(keyMsg("tab"))
	m = updated.(Model)
	if m.screen != screenDashboard {
		t.Fatal("Expected dashboard screen after tab")
	}

	// Space does not tap on the dashboard
	if _, cmd := m.Update(keyMsg(" ")); cmd != nil {
		t.Error("Expected no command for space on dashboard")
	}

	updated, _ = m.Update(keyMsg("tab"))
	m = updated.(Model)
	if m.screen != screenCounter {
		t.Error("Expected counter screen after second tab")
	}
}

func TestPeriodCycling(t *testing.T) {
	m, _ := newTestModel(t)
	m = load(t, m)
	updated, _ := m.Update(keyMsg("tab"))
	m = updated.(Model)

	updated, cmd := m.Update(keyMsg("h"))
	m = updated.(Model)
	if counter.Periods[m.period] != counter.PeriodLifetime {
		t.Errorf("Expected left from daily to wrap to lifetime, got %s", counter.Periods[m.period])
	}

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	updated, cmd = m.Update(keyMsg("l"))
	m = updated.(Model)
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if counter.Periods[m.period] != counter.PeriodDaily {
		t.Errorf("Expected right to wrap back to daily, got %s", counter.Periods[m.period])
	}
	if len(m.buckets) != 7 {
		t.Errorf("Expected 7 daily buckets, got %d", len(m.buckets))
	}
}

func TestGoalEditing(t *testing.T) {
	m, c := newTestModel(t)
	m = load(t, m)

	updated, _ := m.Update(keyMsg("g"))
	m = updated.(Model)
	if !m.editingGoal {
		t.Fatal("Expected goal editing mode")
	}

	for _, r := range "1080" {
		updated, _ = m.Update(keyMsg(string(r)))
		m = updated.(Model)
	}
	updated, _ = m.Update(keyMsg("enter"))
	m = updated.(Model)

	if m.editingGoal {
		t.Error("Expected goal editing to end on enter")
	}
	if c.DailyGoal() != 1080 {
		t.Errorf("Expected goal 1080, got %d", c.DailyGoal())
	}
}

func TestGoalEditingRejectsInvalid(t *testing.T) {
	m, c := newTestModel(t)
	m = load(t, m)

	updated, _ := m.Update(keyMsg("g"))
	m = updated.(Model)
	updated, _ = m.Update(keyMsg("0"))
	m = updated.(Model)
	updated, _ = m.Update(keyMsg("enter"))
	m = updated.(Model)

	if c.DailyGoal() != counter.DefaultGoal {
		t.Errorf("Expected goal to stay %d, got %d", counter.DefaultGoal, c.DailyGoal())
	}
	if !strings.Contains(m.warning, "goal unchanged") {
		t.Errorf("Expected a warning, got %q", m.warning)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "esc"} {
		m, _ := newTestModel(t)
		_, cmd := m.Update(keyMsg(key))
		if cmd == nil {
			t.Fatalf("Expected quit command for %q", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("Expected tea.QuitMsg for %q", key)
		}
	}
}

func TestRenderBuckets(t *testing.T) {
	if got := RenderBuckets(nil); got != "No data" {
		t.Errorf("RenderBuckets(nil) = %q", got)
	}

	empty := []counter.Bucket{{Label: "Mon"}, {Label: "Tue"}}
	if got := RenderBuckets(empty); got != "No activity in this period" {
		t.Errorf("RenderBuckets(empty) = %q", got)
	}

	buckets := []counter.Bucket{
		{Label: "Mon", Total: 1},
		{Label: "Tue", Total: 2400},
	}
	got := RenderBuckets(buckets)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "█") {
		t.Error("Expected a minimum one-cell bar for a non-zero bucket")
	}
	if !strings.Contains(lines[1], "2.4K") {
		t.Errorf("Expected compact total on the peak line, got %q", lines[1])
	}
}

func TestRenderAchievements(t *testing.T) {
	got := renderAchievements([]counter.AchievementStatus{
		{Milestone: 100, Unlocked: true},
		{Milestone: 500, Unlocked: false},
	})
	if !strings.Contains(got, "🏆 100") || !strings.Contains(got, "🔒 500") {
		t.Errorf("renderAchievements() = %q", got)
	}
}
