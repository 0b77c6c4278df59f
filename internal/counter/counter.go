// Package counter holds the tally state (lifetime count, per-day counts,
// daily goal, unlocked milestones and preferences) and every view derived
// from it. State is mirrored to a key-value store on each mutation.
package counter

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/aayushbajaj/japcount/pkg/stats"
	"go.uber.org/zap"
)

const (
	DefaultNamespace = "ramNameJap_"
	DefaultGoal      = 2400
	DefaultVolume    = 0.7

	// streakWindow bounds how far back StreakLength looks.
	streakWindow = 365
)

// Field names appended to the namespace to form storage keys.
const (
	fieldCount        = "currentCount"
	fieldGoal         = "dailyGoal"
	fieldDaily        = "dailyData"
	fieldAchievements = "achievements"
	fieldSound        = "soundEnabled"
	fieldVolume       = "volume"
)

var allFields = []string{fieldCount, fieldGoal, fieldDaily, fieldAchievements, fieldSound, fieldVolume}

// KV is the storage port. Get reports ok=false for absent keys.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

type Preferences struct {
	SoundEnabled bool    `json:"soundEnabled"`
	Volume       float64 `json:"volume"`
}

// State is a copy of the counter's data.
type State struct {
	LifetimeCount int64            `json:"lifetimeCount"`
	DailyGoal     int64            `json:"dailyGoal"`
	DailyCounts   map[string]int64 `json:"dailyCounts"`
	Achievements  []int64          `json:"achievements"`
	Preferences   Preferences      `json:"preferences"`
}

// IncrementResult describes the outcome of one tap.
type IncrementResult struct {
	LifetimeCount   int64   `json:"lifetimeCount"`
	TodayCount      int64   `json:"todayCount"`
	NewAchievements []int64 `json:"newAchievements,omitempty"`
}

// Summary collects the headline numbers shown by every front-end.
type Summary struct {
	Today         int64   `json:"today"`
	Lifetime      int64   `json:"lifetime"`
	Goal          int64   `json:"goal"`
	Progress      float64 `json:"progress"`
	Percent       int     `json:"percent"`
	Streak        int     `json:"streak"`
	WeekTotal     int64   `json:"weekTotal"`
	WeekAverage   float64 `json:"weekAverage"`
	Unlocked      int     `json:"unlocked"`
	MilestoneSize int     `json:"milestones"`
}

// Counter is safe for concurrent use; every operation runs under one lock.
type Counter struct {
	mu sync.Mutex

	kv          KV
	log         *zap.Logger
	now         func() time.Time
	namespace   string
	weekStart   time.Weekday
	defaultGoal int64

	state State
	// dirty is set while a failed write leaves state ahead of the store.
	dirty bool
}

type Option func(*Counter)

func WithLogger(log *zap.Logger) Option {
	return func(c *Counter) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock replaces time.Now. The returned time's location decides day boundaries.
func WithClock(now func() time.Time) Option {
	return func(c *Counter) {
		if now != nil {
			c.now = now
		}
	}
}

func WithNamespace(ns string) Option {
	return func(c *Counter) { c.namespace = ns }
}

func WithWeekStart(d time.Weekday) Option {
	return func(c *Counter) { c.weekStart = d }
}

// WithDefaultGoal sets the goal used when none is stored and after ResetAll.
func WithDefaultGoal(goal int64) Option {
	return func(c *Counter) {
		if goal > 0 {
			c.defaultGoal = goal
		}
	}
}

// New builds a Counter and loads its state from kv. Missing or malformed
// fields fall back to their defaults; loading never fails.
func New(kv KV, opts ...Option) *Counter {
	c := &Counter{
		kv:          kv,
		log:         zap.NewNop(),
		now:         time.Now,
		namespace:   DefaultNamespace,
		weekStart:   time.Sunday,
		defaultGoal: DefaultGoal,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.load()
	return c
}

func (c *Counter) defaults() State {
	return State{
		DailyGoal:    c.defaultGoal,
		DailyCounts:  make(map[string]int64),
		Achievements: []int64{},
		Preferences:  Preferences{SoundEnabled: true, Volume: DefaultVolume},
	}
}

func (c *Counter) key(field string) string {
	return c.namespace + field
}

// read decodes one field into dst. It returns false when the field is absent
// or unusable, leaving dst untouched.
func (c *Counter) read(field string, dst any) bool {
	raw, ok, err := c.kv.Get(c.key(field))
	if err != nil {
		c.log.Warn("Failed to read field, using default", zap.String("field", field), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.log.Warn("Malformed field, using default", zap.String("field", field), zap.Error(err))
		return false
	}
	return true
}

func (c *Counter) load() {
	loc := c.now().Location()
	c.state = c.defaults()

	var count int64
	if c.read(fieldCount, &count) && count >= 0 {
		c.state.LifetimeCount = count
	}

	var goal int64
	if c.read(fieldGoal, &goal) && goal > 0 {
		c.state.DailyGoal = goal
	}

	var daily map[string]int64
	if c.read(fieldDaily, &daily) && daily != nil {
		c.state.DailyCounts = normalizeDailyCounts(daily, loc)
	}

	var achievements []int64
	if c.read(fieldAchievements, &achievements) {
		c.state.Achievements = sanitizeAchievements(achievements)
	}

	var sound bool
	if c.read(fieldSound, &sound) {
		c.state.Preferences.SoundEnabled = sound
	}

	var volume float64
	if c.read(fieldVolume, &volume) && volume >= 0 && volume <= 1 {
		c.state.Preferences.Volume = volume
	}

	c.log.Debug("Counter state loaded",
		zap.Int64("lifetime", c.state.LifetimeCount),
		zap.Int64("goal", c.state.DailyGoal),
		zap.Int("days", len(c.state.DailyCounts)),
		zap.Int("achievements", len(c.state.Achievements)))
}

// syncLocked reloads state from the store so that writes made by another
// process sharing it are not overwritten. Unsaved local changes win until a
// write succeeds.
func (c *Counter) syncLocked() {
	if c.dirty {
		return
	}
	c.load()
}

// Reload picks up changes other processes have written to the store.
func (c *Counter) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()
}

func (c *Counter) fieldValue(field string) any {
	switch field {
	case fieldCount:
		return c.state.LifetimeCount
	case fieldGoal:
		return c.state.DailyGoal
	case fieldDaily:
		return c.state.DailyCounts
	case fieldAchievements:
		return c.state.Achievements
	case fieldSound:
		return c.state.Preferences.SoundEnabled
	case fieldVolume:
		return c.state.Preferences.Volume
	}
	return nil
}

// persist writes the named fields. Every field is attempted even if an
// earlier one fails.
func (c *Counter) persist(fields ...string) error {
	var failed []string
	var errs []error
	for _, field := range fields {
		data, err := json.Marshal(c.fieldValue(field))
		if err == nil {
			err = c.kv.Set(c.key(field), string(data))
		}
		if err != nil {
			failed = append(failed, c.key(field))
			errs = append(errs, err)
		}
	}
	c.dirty = len(failed) > 0
	if len(failed) == 0 {
		return nil
	}
	perr := &PersistError{Keys: failed, Err: errors.Join(errs...)}
	c.log.Error("Failed to persist counter state", zap.Strings("keys", failed), zap.Error(perr.Err))
	return perr
}

// Increment records one tap for today. The returned error, if any, is a
// *PersistError; the in-memory count has been updated regardless.
func (c *Counter) Increment() (IncrementResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	today := DateKey(c.now())
	c.state.LifetimeCount++
	c.state.DailyCounts[today]++

	fields := []string{fieldCount, fieldDaily}
	earned := c.checkAchievementsLocked()
	if len(earned) > 0 {
		fields = append(fields, fieldAchievements)
		c.log.Info("Milestone reached", zap.Int64s("milestones", earned))
	}

	err := c.persist(fields...)
	return IncrementResult{
		LifetimeCount:   c.state.LifetimeCount,
		TodayCount:      c.state.DailyCounts[today],
		NewAchievements: earned,
	}, err
}

func (c *Counter) LifetimeCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.LifetimeCount
}

func (c *Counter) DailyGoal() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.DailyGoal
}

func (c *Counter) Preferences() Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Preferences
}

func (c *Counter) TodayCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.todayLocked()
}

func (c *Counter) todayLocked() int64 {
	return c.state.DailyCounts[DateKey(c.now())]
}

// GoalProgress returns today's count as a fraction of the goal, capped at 1.
func (c *Counter) GoalProgress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

func (c *Counter) progressLocked() float64 {
	p := float64(c.todayLocked()) / float64(c.state.DailyGoal)
	return math.Min(p, 1.0)
}

// GoalPercent is GoalProgress as a whole percentage, rounded down so 100
// only shows once the goal is met.
func (c *Counter) GoalPercent() int {
	return int(math.Floor(c.GoalProgress() * 100))
}

// StreakLength counts consecutive days with taps ending today. An empty
// today does not break the streak; the first empty day before it does.
func (c *Counter) StreakLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streakLocked()
}

func (c *Counter) streakLocked() int {
	today := midday(c.now())
	streak := 0
	for i := 0; i < streakWindow; i++ {
		if c.state.DailyCounts[DateKey(today.AddDate(0, 0, -i))] > 0 {
			streak++
		} else if i > 0 {
			break
		}
	}
	return streak
}

// SetDailyGoal replaces the goal. Non-positive values are rejected and the
// current goal is kept.
func (c *Counter) SetDailyGoal(goal int64) error {
	if goal <= 0 {
		return ErrInvalidGoal
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	c.state.DailyGoal = goal
	return c.persist(fieldGoal)
}

func (c *Counter) SetSoundEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	c.state.Preferences.SoundEnabled = enabled
	return c.persist(fieldSound)
}

func (c *Counter) SetVolume(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return ErrInvalidVolume
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	c.state.Preferences.Volume = v
	return c.persist(fieldVolume)
}

// ResetAll deletes every stored field and restores defaults. It is
// irreversible; confirmation is the caller's job. In-memory state is reset
// even when some deletes fail.
func (c *Counter) ResetAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = c.defaults()

	var failed []string
	var errs []error
	for _, field := range allFields {
		if err := c.kv.Delete(c.key(field)); err != nil {
			failed = append(failed, c.key(field))
			errs = append(errs, err)
		}
	}
	c.log.Info("Counter reset")
	c.dirty = len(failed) > 0
	if len(failed) > 0 {
		perr := &PersistError{Keys: failed, Err: errors.Join(errs...)}
		c.log.Error("Failed to clear stored state", zap.Strings("keys", failed), zap.Error(perr.Err))
		return perr
	}
	return nil
}

// State returns a deep copy of the current state.
func (c *Counter) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyStateLocked()
}

func (c *Counter) copyStateLocked() State {
	s := c.state
	s.DailyCounts = make(map[string]int64, len(c.state.DailyCounts))
	for k, v := range c.state.DailyCounts {
		s.DailyCounts[k] = v
	}
	s.Achievements = append([]int64{}, c.state.Achievements...)
	return s
}

// Summary gathers today, lifetime, goal, streak and last-7-days figures.
func (c *Counter) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := midday(c.now())
	week := make([]stats.DayData, 7)
	for i := range week {
		d := today.AddDate(0, 0, i-6)
		week[i] = stats.DayData{Date: d, Count: c.state.DailyCounts[DateKey(d)]}
	}

	progress := c.progressLocked()
	return Summary{
		Today:         c.todayLocked(),
		Lifetime:      c.state.LifetimeCount,
		Goal:          c.state.DailyGoal,
		Progress:      progress,
		Percent:       int(math.Floor(progress * 100)),
		Streak:        c.streakLocked(),
		WeekTotal:     stats.Total(week),
		WeekAverage:   stats.Average(week),
		Unlocked:      len(c.state.Achievements),
		MilestoneSize: len(Milestones),
	}
}
