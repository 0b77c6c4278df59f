package counter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Snapshot is the export file format. Field names match the web version's
// export so files move between the two.
type Snapshot struct {
	ID           string           `json:"exportId,omitempty" yaml:"exportId,omitempty"`
	CurrentCount int64            `json:"currentCount" yaml:"currentCount"`
	DailyGoal    int64            `json:"dailyGoal" yaml:"dailyGoal"`
	DailyData    map[string]int64 `json:"dailyData" yaml:"dailyData"`
	Achievements []int64          `json:"achievements" yaml:"achievements"`
	SoundEnabled *bool            `json:"soundEnabled,omitempty" yaml:"soundEnabled,omitempty"`
	Volume       *float64         `json:"volume,omitempty" yaml:"volume,omitempty"`
	ExportDate   string           `json:"exportDate" yaml:"exportDate"`
}

// ExportSnapshot captures the full state with an export timestamp.
func (c *Counter) ExportSnapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.copyStateLocked()
	sound := s.Preferences.SoundEnabled
	volume := s.Preferences.Volume
	return Snapshot{
		ID:           uuid.NewString(),
		CurrentCount: s.LifetimeCount,
		DailyGoal:    s.DailyGoal,
		DailyData:    s.DailyCounts,
		Achievements: s.Achievements,
		SoundEnabled: &sound,
		Volume:       &volume,
		ExportDate:   c.now().UTC().Format(time.RFC3339),
	}
}

func (s Snapshot) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (s Snapshot) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodeSnapshot parses a JSON or YAML export.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return s, fmt.Errorf("%w: empty input", ErrInvalidSnapshot)
	}
	var err error
	if trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &s)
	} else {
		err = yaml.Unmarshal(trimmed, &s)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return s, nil
}

// Import replaces the whole state with s and persists it. A zero goal, a
// missing preference or missing daily data takes the default.
func (c *Counter) Import(s Snapshot) error {
	if err := s.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.defaults()
	next.LifetimeCount = s.CurrentCount
	if s.DailyGoal > 0 {
		next.DailyGoal = s.DailyGoal
	}
	if s.DailyData != nil {
		next.DailyCounts = normalizeDailyCounts(s.DailyData, c.now().Location())
	}
	next.Achievements = sanitizeAchievements(s.Achievements)
	if s.SoundEnabled != nil {
		next.Preferences.SoundEnabled = *s.SoundEnabled
	}
	if s.Volume != nil {
		next.Preferences.Volume = *s.Volume
	}
	c.state = next

	c.log.Info("Snapshot imported",
		zap.String("export_id", s.ID),
		zap.Int64("lifetime", next.LifetimeCount),
		zap.Int("days", len(next.DailyCounts)))
	return c.persist(allFields...)
}

func (s Snapshot) validate() error {
	if s.CurrentCount < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidSnapshot, s.CurrentCount)
	}
	if s.DailyGoal < 0 {
		return fmt.Errorf("%w: negative daily goal %d", ErrInvalidSnapshot, s.DailyGoal)
	}
	for key, n := range s.DailyData {
		if n < 0 {
			return fmt.Errorf("%w: negative count %d for %q", ErrInvalidSnapshot, n, key)
		}
	}
	if s.Volume != nil && (math.IsNaN(*s.Volume) || *s.Volume < 0 || *s.Volume > 1) {
		return fmt.Errorf("%w: volume %v out of range", ErrInvalidSnapshot, *s.Volume)
	}
	return nil
}
