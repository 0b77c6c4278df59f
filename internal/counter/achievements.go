package counter

import "slices"

// Milestones are the lifetime counts that unlock an achievement, ascending.
var Milestones = []int64{100, 500, 1000, 2400, 5000, 10000, 25000, 50000, 100000}

type AchievementStatus struct {
	Milestone int64 `json:"milestone"`
	Unlocked  bool  `json:"unlocked"`
}

// CheckAchievements unlocks any milestone equal to the lifetime count that
// is not yet unlocked and returns the newly unlocked ones. Only exact
// equality counts, so a count that jumps past a milestone never unlocks it.
func (c *Counter) CheckAchievements() ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()

	earned := c.checkAchievementsLocked()
	if len(earned) == 0 {
		return nil, nil
	}
	return earned, c.persist(fieldAchievements)
}

func (c *Counter) checkAchievementsLocked() []int64 {
	var earned []int64
	for _, m := range Milestones {
		if c.state.LifetimeCount == m && !slices.Contains(c.state.Achievements, m) {
			c.state.Achievements = append(c.state.Achievements, m)
			earned = append(earned, m)
		}
	}
	return earned
}

// Achievements lists every milestone with its unlocked flag, in milestone order.
func (c *Counter) Achievements() []AchievementStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]AchievementStatus, len(Milestones))
	for i, m := range Milestones {
		out[i] = AchievementStatus{Milestone: m, Unlocked: slices.Contains(c.state.Achievements, m)}
	}
	return out
}

// sanitizeAchievements drops unknown milestones and duplicates, keeping
// unlock order.
func sanitizeAchievements(in []int64) []int64 {
	out := make([]int64, 0, len(in))
	for _, m := range in {
		if slices.Contains(Milestones, m) && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
