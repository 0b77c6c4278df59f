package counter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aayushbajaj/japcount/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) advanceDays(n int) { f.t = f.t.AddDate(0, 0, n) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)}
}

func newTestCounter(t *testing.T, kv KV, clock *fakeClock, opts ...Option) *Counter {
	t.Helper()
	opts = append([]Option{WithClock(clock.Now), WithLogger(zaptest.NewLogger(t))}, opts...)
	return New(kv, opts...)
}

func sumDaily(s State) int64 {
	var total int64
	for _, n := range s.DailyCounts {
		total += n
	}
	return total
}

func TestNewFreshDefaults(t *testing.T) {
	c := newTestCounter(t, storage.NewMemoryKV(), newClock())

	s := c.State()
	assert.Equal(t, int64(0), s.LifetimeCount)
	assert.Equal(t, int64(DefaultGoal), s.DailyGoal)
	assert.Empty(t, s.DailyCounts)
	assert.Empty(t, s.Achievements)
	assert.True(t, s.Preferences.SoundEnabled)
	assert.Equal(t, DefaultVolume, s.Preferences.Volume)
	assert.Equal(t, int64(0), c.TodayCount())
	assert.Equal(t, 0.0, c.GoalProgress())
	assert.Equal(t, 0, c.StreakLength())
}

func TestLoadMalformedFieldsFallBack(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.Set("ramNameJap_currentCount", "not json")
	kv.Set("ramNameJap_dailyGoal", "-3")
	kv.Set("ramNameJap_dailyData", `{"Thu Oct 16 2026": 5, "2026-10-15": 7, "bad": -1}`)
	kv.Set("ramNameJap_achievements", "[100, 100, 42, 500]")
	kv.Set("ramNameJap_soundEnabled", "false")
	kv.Set("ramNameJap_volume", "3.5")

	c := newTestCounter(t, kv, newClock())
	s := c.State()

	assert.Equal(t, int64(0), s.LifetimeCount, "malformed count falls back to 0")
	assert.Equal(t, int64(DefaultGoal), s.DailyGoal, "non-positive goal falls back")
	assert.Equal(t, map[string]int64{"Fri Oct 16 2026": 5, "Thu Oct 15 2026": 7}, s.DailyCounts)
	assert.Equal(t, []int64{100, 500}, s.Achievements)
	assert.False(t, s.Preferences.SoundEnabled)
	assert.Equal(t, DefaultVolume, s.Preferences.Volume, "out-of-range volume falls back")
}

func TestLoadCustomNamespaceAndGoal(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.Set("ramNameJap_currentCount", "99")

	c := newTestCounter(t, kv, newClock(), WithNamespace("jap_"), WithDefaultGoal(108))
	assert.Equal(t, int64(0), c.LifetimeCount(), "other namespaces are ignored")
	assert.Equal(t, int64(108), c.DailyGoal())

	_, err := c.Increment()
	require.NoError(t, err)
	v, ok, _ := kv.Get("jap_currentCount")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestIncrementSameDay(t *testing.T) {
	kv := storage.NewMemoryKV()
	c := newTestCounter(t, kv, newClock())

	for i := 1; i <= 25; i++ {
		res, err := c.Increment()
		require.NoError(t, err)
		assert.Equal(t, int64(i), res.LifetimeCount)
		assert.Equal(t, int64(i), res.TodayCount)
	}

	assert.Equal(t, int64(25), c.TodayCount())
	s := c.State()
	assert.Equal(t, int64(25), s.LifetimeCount)
	assert.Equal(t, int64(25), sumDaily(s))

	// Persisted under the web app's keys
	raw, ok, _ := kv.Get("ramNameJap_dailyData")
	require.True(t, ok)
	var daily map[string]int64
	require.NoError(t, json.Unmarshal([]byte(raw), &daily))
	assert.Equal(t, map[string]int64{"Fri Oct 16 2026": 25}, daily)
}

func TestIncrementAcrossDays(t *testing.T) {
	clock := newClock()
	c := newTestCounter(t, storage.NewMemoryKV(), clock)

	var n int64
	for day := 0; day < 5; day++ {
		for i := 0; i <= day; i++ {
			_, err := c.Increment()
			require.NoError(t, err)
			n++
		}
		assert.Equal(t, int64(day+1), c.TodayCount())
		clock.advanceDays(1)
		assert.Equal(t, int64(0), c.TodayCount(), "new day starts at zero")
		assert.Equal(t, n, c.LifetimeCount(), "day boundary leaves lifetime untouched")
	}

	s := c.State()
	assert.Equal(t, n, s.LifetimeCount)
	assert.Equal(t, n, sumDaily(s))
}

func TestIncrementWriteFailureKeepsMutation(t *testing.T) {
	kv := storage.NewMemoryKV()
	c := newTestCounter(t, kv, newClock())

	boom := errors.New("quota exceeded")
	kv.FailWrites = boom

	res, err := c.Increment()
	require.Error(t, err)
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, perr.Keys, "ramNameJap_currentCount")

	assert.Equal(t, int64(1), res.LifetimeCount)
	assert.Equal(t, int64(1), c.LifetimeCount())
	assert.Equal(t, int64(1), c.TodayCount())

	kv.FailWrites = nil
	_, err = c.Increment()
	require.NoError(t, err)
	raw, _, _ := kv.Get("ramNameJap_currentCount")
	assert.Equal(t, "2", raw)
}

func TestCountersSharingOneDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	openStore := func() *storage.Store {
		store, err := storage.Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	}

	clock := newClock()
	longRunning := newTestCounter(t, openStore(), clock)
	oneShot := newTestCounter(t, openStore(), clock)

	for i := 0; i < 5; i++ {
		_, err := oneShot.Increment()
		require.NoError(t, err)
	}
	res, err := longRunning.Increment()
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.LifetimeCount)
	assert.Equal(t, int64(6), res.TodayCount)

	reopened := newTestCounter(t, openStore(), clock)
	assert.Equal(t, int64(6), reopened.LifetimeCount())
	assert.Equal(t, int64(6), reopened.TodayCount())

	require.NoError(t, oneShot.SetDailyGoal(108))
	require.NoError(t, longRunning.SetVolume(0.3))
	assert.Equal(t, int64(108), longRunning.DailyGoal(), "goal set elsewhere survives a local write")

	require.NoError(t, oneShot.SetSoundEnabled(false))
	longRunning.Reload()
	assert.Equal(t, Preferences{SoundEnabled: false, Volume: 0.3}, longRunning.Preferences())
}

func TestReloadKeepsUnsavedChanges(t *testing.T) {
	kv := storage.NewMemoryKV()
	c := newTestCounter(t, kv, newClock())

	kv.FailWrites = errors.New("locked")
	_, err := c.Increment()
	require.Error(t, err)

	c.Reload()
	assert.Equal(t, int64(1), c.LifetimeCount())

	kv.FailWrites = nil
	_, err = c.Increment()
	require.NoError(t, err)
	kv.Set("ramNameJap_currentCount", "40")
	c.Reload()
	assert.Equal(t, int64(40), c.LifetimeCount(), "store wins once in sync")
}

func TestGoalProgress(t *testing.T) {
	c := newTestCounter(t, storage.NewMemoryKV(), newClock())
	require.NoError(t, c.SetDailyGoal(10))

	prev := 0.0
	for i := 1; i <= 15; i++ {
		c.Increment()
		p := c.GoalProgress()
		assert.GreaterOrEqual(t, p, prev, "progress never decreases within a day")
		prev = p
		if i < 10 {
			assert.InDelta(t, float64(i)/10, p, 1e-9)
		} else {
			assert.Equal(t, 1.0, p)
			assert.Equal(t, 100, c.GoalPercent())
		}
	}
}

func TestGoalPercentRoundsDown(t *testing.T) {
	c := newTestCounter(t, storage.NewMemoryKV(), newClock())
	require.NoError(t, c.SetDailyGoal(1000))
	for i := 0; i < 999; i++ {
		c.Increment()
	}
	assert.Equal(t, 99, c.GoalPercent())
}

func TestSetDailyGoal(t *testing.T) {
	kv := storage.NewMemoryKV()
	c := newTestCounter(t, kv, newClock())

	require.NoError(t, c.SetDailyGoal(1080))
	assert.Equal(t, int64(1080), c.DailyGoal())

	for _, bad := range []int64{0, -1, -2400} {
		assert.ErrorIs(t, c.SetDailyGoal(bad), ErrInvalidGoal)
		assert.Equal(t, int64(1080), c.DailyGoal(), "prior goal retained")
	}

	reloaded := newTestCounter(t, kv, newClock())
	assert.Equal(t, int64(1080), reloaded.DailyGoal())
}

func TestPreferences(t *testing.T) {
	kv := storage.NewMemoryKV()
	c := newTestCounter(t, kv, newClock())

	require.NoError(t, c.SetSoundEnabled(false))
	require.NoError(t, c.SetVolume(0.25))
	assert.ErrorIs(t, c.SetVolume(1.5), ErrInvalidVolume)
	assert.ErrorIs(t, c.SetVolume(-0.1), ErrInvalidVolume)

	reloaded := newTestCounter(t, kv, newClock())
	assert.Equal(t, Preferences{SoundEnabled: false, Volume: 0.25}, reloaded.Preferences())
}

func TestStreakLength(t *testing.T) {
	tests := []struct {
		name     string
		daysAgo  []int // days (relative to today) with taps
		expected int
	}{
		{"empty", nil, 0},
		{"today only", []int{0}, 1},
		{"three days ending today", []int{0, 1, 2}, 3},
		{"empty today keeps yesterday's run", []int{1, 2, 3}, 3},
		{"gap breaks streak", []int{0, 1, 3, 4}, 2},
		{"two empty days", []int{2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			kv := storage.NewMemoryKV()
			daily := map[string]int64{}
			for _, ago := range tt.daysAgo {
				daily[DateKey(clock.Now().AddDate(0, 0, -ago))] = 3
			}
			data, _ := json.Marshal(daily)
			kv.Set("ramNameJap_dailyData", string(data))

			c := newTestCounter(t, kv, clock)
			assert.Equal(t, tt.expected, c.StreakLength())
		})
	}
}

func TestStreakCappedAtOneYear(t *testing.T) {
	clock := newClock()
	kv := storage.NewMemoryKV()
	daily := map[string]int64{}
	for i := 0; i < 400; i++ {
		daily[DateKey(clock.Now().AddDate(0, 0, -i))] = 1
	}
	data, _ := json.Marshal(daily)
	kv.Set("ramNameJap_dailyData", string(data))

	c := newTestCounter(t, kv, clock)
	assert.Equal(t, 365, c.StreakLength())
}

func TestResetAll(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.Set("unrelated", "keep")
	c := newTestCounter(t, kv, newClock())

	for i := 0; i < 150; i++ {
		c.Increment()
	}
	c.SetDailyGoal(500)
	c.SetSoundEnabled(false)
	c.SetVolume(0.1)

	require.NoError(t, c.ResetAll())

	assert.Equal(t, int64(0), c.LifetimeCount())
	assert.Equal(t, int64(0), c.TodayCount())
	assert.Equal(t, int64(DefaultGoal), c.DailyGoal())
	assert.Equal(t, 0, c.StreakLength())
	assert.Equal(t, Preferences{SoundEnabled: true, Volume: DefaultVolume}, c.Preferences())
	for _, a := range c.Achievements() {
		assert.False(t, a.Unlocked)
	}

	keys, _ := kv.Keys("ramNameJap_")
	assert.Empty(t, keys)
	v, ok, _ := kv.Get("unrelated")
	assert.True(t, ok)
	assert.Equal(t, "keep", v)

	reloaded := newTestCounter(t, kv, newClock())
	assert.Equal(t, int64(0), reloaded.LifetimeCount())
	assert.Equal(t, int64(DefaultGoal), reloaded.DailyGoal())
}

func TestResetAllWriteFailure(t *testing.T) {
	kv := storage.NewMemoryKV()
	c := newTestCounter(t, kv, newClock())
	c.Increment()

	kv.FailWrites = errors.New("locked")
	err := c.ResetAll()
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Len(t, perr.Keys, len(allFields))
	assert.Equal(t, int64(0), c.LifetimeCount(), "in-memory reset still applies")
}

func TestSummary(t *testing.T) {
	clock := newClock()
	c := newTestCounter(t, storage.NewMemoryKV(), clock)
	require.NoError(t, c.SetDailyGoal(4))

	clock.advanceDays(-1)
	for i := 0; i < 3; i++ {
		c.Increment()
	}
	clock.advanceDays(1)
	for i := 0; i < 4; i++ {
		c.Increment()
	}

	s := c.Summary()
	assert.Equal(t, int64(4), s.Today)
	assert.Equal(t, int64(7), s.Lifetime)
	assert.Equal(t, int64(4), s.Goal)
	assert.Equal(t, 1.0, s.Progress)
	assert.Equal(t, 100, s.Percent)
	assert.Equal(t, 2, s.Streak)
	assert.Equal(t, int64(7), s.WeekTotal)
	assert.InDelta(t, 1.0, s.WeekAverage, 1e-9)
	assert.Equal(t, 0, s.Unlocked)
	assert.Equal(t, len(Milestones), s.MilestoneSize)
}

func TestStateIsACopy(t *testing.T) {
	c := newTestCounter(t, storage.NewMemoryKV(), newClock())
	c.Increment()

	s := c.State()
	s.DailyCounts["Fri Oct 16 2026"] = 1000
	s.Achievements = append(s.Achievements, 100)

	assert.Equal(t, int64(1), c.TodayCount())
	assert.Empty(t, c.State().Achievements)
}
