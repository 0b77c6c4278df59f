package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/aayushbajaj/japcount/pkg/stats"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	statLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	countStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Padding(0, 2)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	graphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	toastStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("86")).
			Padding(0, 2).
			MarginTop(1)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

const (
	toastDuration = 5 * time.Second
	maxBarWidth   = 40
)

type screen int

const (
	screenCounter screen = iota
	screenDashboard
)

type Model struct {
	counter *counter.Counter
	now     func() time.Time

	screen       screen
	period       int
	summary      *counter.Summary
	buckets      []counter.Bucket
	achievements []counter.AchievementStatus

	bar         progress.Model
	goalInput   textinput.Model
	editingGoal bool

	toast   string
	toastID int
	warning string

	width  int
	height int
	err    error
}

type statsMsg struct {
	summary      counter.Summary
	buckets      []counter.Bucket
	achievements []counter.AchievementStatus
	err          error
}

type tappedMsg struct {
	result counter.IncrementResult
	err    error
}

type toastExpiredMsg struct {
	id int
}

func New(c *counter.Counter) Model {
	input := textinput.New()
	input.Placeholder = strconv.Itoa(counter.DefaultGoal)
	input.CharLimit = 7
	input.Width = 10

	return Model{
		counter:   c,
		now:       time.Now,
		bar:       progress.New(progress.WithGradient("#FF8C00", "#FFD700")),
		goalInput: input,
	}
}

func (m Model) Init() tea.Cmd {
	return m.fetchStats
}

func (m Model) fetchStats() tea.Msg {
	buckets, err := m.counter.ChartBuckets(counter.Periods[m.period], m.now())
	if err != nil {
		return statsMsg{err: err}
	}
	return statsMsg{
		summary:      m.counter.Summary(),
		buckets:      buckets,
		achievements: m.counter.Achievements(),
	}
}

func (m Model) tap() tea.Msg {
	res, err := m.counter.Increment()
	return tappedMsg{result: res, err: err}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editingGoal {
			return m.updateGoalInput(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "enter", "+":
			if m.screen == screenCounter {
				return m, m.tap
			}
		case "tab":
			if m.screen == screenCounter {
				m.screen = screenDashboard
			} else {
				m.screen = screenCounter
			}
			return m, m.fetchStats
		case "left", "h":
			if m.screen == screenDashboard {
				m.period = (m.period + len(counter.Periods) - 1) % len(counter.Periods)
				return m, m.fetchStats
			}
		case "right", "l":
			if m.screen == screenDashboard {
				m.period = (m.period + 1) % len(counter.Periods)
				return m, m.fetchStats
			}
		case "g":
			m.editingGoal = true
			m.goalInput.SetValue("")
			return m, m.goalInput.Focus()
		case "r":
			return m, m.fetchStats
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(msg.Width-8, maxBarWidth)

	case statsMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.summary = &msg.summary
			m.buckets = msg.buckets
			m.achievements = msg.achievements
		}

	case tappedMsg:
		m.warning = ""
		if msg.err != nil {
			m.warning = "not saved: " + msg.err.Error()
		}
		var cmds []tea.Cmd
		if n := len(msg.result.NewAchievements); n > 0 {
			m.toastID++
			m.toast = "Milestone reached: " + stats.FormatAbsolute(msg.result.NewAchievements[n-1])
			id := m.toastID
			cmds = append(cmds, tea.Tick(toastDuration, func(time.Time) tea.Msg {
				return toastExpiredMsg{id: id}
			}))
		}
		cmds = append(cmds, m.fetchStats)
		return m, tea.Batch(cmds...)

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
	}

	return m, nil
}

func (m Model) updateGoalInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingGoal = false
		m.goalInput.Blur()
		return m, nil
	case "enter":
		m.editingGoal = false
		m.goalInput.Blur()
		goal, err := strconv.ParseInt(strings.TrimSpace(m.goalInput.Value()), 10, 64)
		if err != nil {
			err = counter.ErrInvalidGoal
		} else {
			err = m.counter.SetDailyGoal(goal)
		}
		m.warning = ""
		var perr *counter.PersistError
		if errors.Is(err, counter.ErrInvalidGoal) {
			m.warning = "goal unchanged: " + err.Error()
		} else if errors.As(err, &perr) {
			m.warning = "not saved: " + err.Error()
		}
		return m, m.fetchStats
	}

	var cmd tea.Cmd
	m.goalInput, cmd = m.goalInput.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	if m.summary == nil {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("📿 Naam Jap Counter"))
	b.WriteString("\n")

	if m.screen == screenCounter {
		b.WriteString(m.counterView())
	} else {
		b.WriteString(m.dashboardView())
	}

	if m.editingGoal {
		b.WriteString("\n\n")
		b.WriteString(statLabelStyle.Render("New daily goal: "))
		b.WriteString(m.goalInput.View())
	}
	if m.toast != "" {
		b.WriteString("\n")
		b.WriteString(toastStyle.Render("🏆 " + m.toast))
	}
	if m.warning != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(m.warning))
	}

	b.WriteString("\n")
	if m.screen == screenCounter {
		b.WriteString(helpStyle.Render("space/enter: tap • tab: dashboard • g: goal • q: quit"))
	} else {
		b.WriteString(helpStyle.Render("←/→: period • tab: counter • g: goal • r: refresh • q: quit"))
	}

	return b.String()
}

func (m Model) counterView() string {
	s := m.summary
	var b strings.Builder

	b.WriteString(countStyle.Render(stats.FormatAbsolute(s.Lifetime)))
	b.WriteString("\n\n")

	today := fmt.Sprintf(
		"%s %s / %s  (%d%%)\n%s",
		statLabelStyle.Render("Today:"),
		statValueStyle.Render(stats.FormatAbsolute(s.Today)),
		stats.FormatAbsolute(s.Goal),
		s.Percent,
		m.bar.ViewAs(s.Progress),
	)
	b.WriteString(boxStyle.Render(today))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf(
		"%s %s   %s %s",
		statLabelStyle.Render("Streak:"),
		statValueStyle.Render(fmt.Sprintf("%d days", s.Streak)),
		statLabelStyle.Render("Milestones:"),
		statValueStyle.Render(fmt.Sprintf("%d/%d", s.Unlocked, s.MilestoneSize)),
	))
	return b.String()
}

func (m Model) dashboardView() string {
	s := m.summary
	var b strings.Builder

	summary := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s\n%s %s",
		statLabelStyle.Render("Lifetime:"),
		statValueStyle.Render(stats.FormatAbsolute(s.Lifetime)),
		statLabelStyle.Render("Today:"),
		statValueStyle.Render(stats.FormatAbsolute(s.Today)),
		statLabelStyle.Render("This Week:"),
		statValueStyle.Render(stats.FormatAbsolute(s.WeekTotal)),
		statLabelStyle.Render("Daily Avg:"),
		statValueStyle.Render(stats.FormatCompact(int64(s.WeekAverage))),
	)
	b.WriteString(boxStyle.Render(summary))
	b.WriteString("\n\n")

	tabs := make([]string, len(counter.Periods))
	for i, p := range counter.Periods {
		if i == m.period {
			tabs[i] = activeTabStyle.Render(string(p))
		} else {
			tabs[i] = tabStyle.Render(string(p))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")
	b.WriteString(RenderBuckets(m.buckets))
	b.WriteString("\n\n")
	b.WriteString(renderAchievements(m.achievements))
	return b.String()
}

// RenderBuckets draws one horizontal bar per bucket, scaled to the largest.
func RenderBuckets(buckets []counter.Bucket) string {
	if len(buckets) == 0 {
		return "No data"
	}

	counts := make([]int64, len(buckets))
	labelWidth := 0
	for i, bk := range buckets {
		counts[i] = bk.Total
		labelWidth = max(labelWidth, lipgloss.Width(bk.Label))
	}
	_, maxCount := stats.FindPeak(counts)
	if maxCount == 0 {
		return "No activity in this period"
	}

	var graph strings.Builder
	for i, bk := range buckets {
		width := int(float64(bk.Total) / float64(maxCount) * maxBarWidth)
		if bk.Total > 0 && width == 0 {
			width = 1
		}
		graph.WriteString(statLabelStyle.Render(fmt.Sprintf("%-*s ", labelWidth, bk.Label)))
		graph.WriteString(graphStyle.Render(strings.Repeat("█", width)))
		graph.WriteString(" ")
		graph.WriteString(stats.FormatCompact(bk.Total))
		if i < len(buckets)-1 {
			graph.WriteString("\n")
		}
	}
	return graph.String()
}

func renderAchievements(list []counter.AchievementStatus) string {
	badges := make([]string, len(list))
	for i, a := range list {
		icon := "🔒"
		style := statLabelStyle
		if a.Unlocked {
			icon = "🏆"
			style = statValueStyle
		}
		badges[i] = style.Render(icon + " " + stats.FormatCompact(a.Milestone))
	}
	return strings.Join(badges, "  ")
}
