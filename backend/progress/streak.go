package progress

import (
	"sort"
	"time"
)

// StreakWindow is how many of the most recent distinct log dates are examined.
const StreakWindow = 365

// CurrentStreak counts consecutive logged days ending today or yesterday.
// Not having logged today yet does not break the streak; a gap before that does.
func CurrentStreak(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	seen := make(map[time.Time]struct{}, len(dates))
	distinct := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := DateOf(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		distinct = append(distinct, day)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].After(distinct[j]) })
	if len(distinct) > StreakWindow {
		distinct = distinct[:StreakWindow]
	}

	present := make(map[time.Time]struct{}, len(distinct))
	for _, d := range distinct {
		present[d] = struct{}{}
	}

	cursor := DateOf(today)
	if _, ok := present[cursor]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
		if _, ok := present[cursor]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := present[cursor]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
