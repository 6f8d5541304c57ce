package progress

import (
	"skilltracker/backend/models"
)

// RollupDay overwrites stat from the logs dated on stat.StatDate.
// Logs from other days are ignored, so passing a wider slice is harmless.
// A goal counts as completed that day when its CompletedByLogID is one of
// those logs, whatever the wall-clock time of completion was.
func RollupDay(stat models.DailyStat, logs []models.ProgressLog, goals []models.Goal) models.DailyStat {
	day := DateOf(stat.StatDate)
	stat.StatDate = day

	var hours float64
	count := 0
	milestones := 0
	skills := make(map[uint]struct{})
	logIDs := make(map[uint]struct{})
	for _, l := range logs {
		if !DateOf(l.LogDate).Equal(day) {
			continue
		}
		count++
		hours += l.HoursLogged
		skills[l.SkillID] = struct{}{}
		milestones += len(l.MilestoneCompletions)
		logIDs[l.ID] = struct{}{}
	}

	completedGoals := 0
	for _, g := range goals {
		if g.Status != models.GoalStatusCompleted || g.CompletedByLogID == nil {
			continue
		}
		if _, ok := logIDs[*g.CompletedByLogID]; ok {
			completedGoals++
		}
	}

	stat.TotalHoursLogged = round2(hours)
	stat.SkillsPracticed = len(skills)
	stat.LogsCount = count
	stat.MilestonesCompleted = milestones
	stat.GoalsCompleted = completedGoals
	return stat
}

