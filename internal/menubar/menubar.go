//go:build darwin

package menubar

import (
	"os"
	"strings"
	"time"

	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/caseymrm/menuet"
	"go.uber.org/zap"
)

const refreshInterval = 5 * time.Second

type App struct {
	counter *counter.Counter
	log     *zap.Logger
	onQuit  func()
}

func New(c *counter.Counter, log *zap.Logger, onQuit func()) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{counter: c, log: log, onQuit: onQuit}
}

// Run starts the refresh loop and blocks in the macOS event loop.
func (a *App) Run() {
	go a.updateLoop()

	menuet.App().Label = "com.japcount.menubar"
	menuet.App().Children = a.menuItems

	menuet.App().RunApplication()
}

func (a *App) updateLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		a.updateTitle()
		<-ticker.C
	}
}

func (a *App) updateTitle() {
	a.counter.Reload()
	menuet.App().SetMenuState(&menuet.MenuState{
		Title: Title(a.counter.Summary()),
	})
}

func (a *App) menuItems() []menuet.MenuItem {
	a.counter.Reload()
	items := []menuet.MenuItem{
		{
			Text:    "Tap (+1)",
			Clicked: a.tap,
		},
		{
			Type: menuet.Separator,
		},
	}
	for _, line := range summaryLines(a.counter.Summary()) {
		items = append(items, menuet.MenuItem{Text: line})
	}

	items = append(items,
		menuet.MenuItem{
			Type: menuet.Separator,
		},
		menuet.MenuItem{
			Text:     "Charts",
			Children: a.chartMenuItems,
		},
		menuet.MenuItem{
			Type: menuet.Separator,
		},
		menuet.MenuItem{
			Text:    "Quit",
			Clicked: a.quit,
		},
	)
	return items
}

func (a *App) chartMenuItems() []menuet.MenuItem {
	var items []menuet.MenuItem
	for _, p := range counter.Periods {
		period := p
		items = append(items, menuet.MenuItem{
			Text: strings.ToUpper(string(period)[:1]) + string(period)[1:],
			Children: func() []menuet.MenuItem {
				return a.bucketItems(period)
			},
		})
	}
	return items
}

func (a *App) bucketItems(period counter.Period) []menuet.MenuItem {
	buckets, err := a.counter.ChartBuckets(period, time.Now())
	if err != nil {
		a.log.Warn("Failed to build chart", zap.String("period", string(period)), zap.Error(err))
		return []menuet.MenuItem{{Text: "Unavailable"}}
	}
	lines := bucketLines(buckets)
	if len(lines) == 0 {
		return []menuet.MenuItem{{Text: "No data"}}
	}
	items := make([]menuet.MenuItem, len(lines))
	for i, line := range lines {
		items[i] = menuet.MenuItem{Text: line}
	}
	return items
}

func (a *App) tap() {
	res, err := a.counter.Increment()
	if err != nil {
		a.log.Error("Tap not saved", zap.Error(err))
	}
	a.updateTitle()

	if msg := milestoneMessage(res.NewAchievements); msg != "" {
		menuet.App().Notification(menuet.Notification{
			Title:   "Naam Jap",
			Message: msg,
		})
	}
}

func (a *App) quit() {
	if a.onQuit != nil {
		a.onQuit()
	}
	os.Exit(0)
}
