package progress

import (
	"time"

	"skilltracker/backend/models"
)

// RecalculateGoal derives LoggedHours and ProgressPercentage from the goal's
// milestones and logs. Milestones win over hours whenever the goal has any.
// Reaching 100% marks the goal completed; the status never goes back.
func RecalculateGoal(goal models.Goal, logs []models.ProgressLog, now time.Time) models.Goal {
	var hours float64
	for _, l := range logs {
		hours += l.HoursLogged
	}
	goal.LoggedHours = round2(hours)

	switch {
	case len(goal.Milestones) > 0:
		goal.ProgressPercentage = round2(float64(goal.CompletedMilestones()) / float64(len(goal.Milestones)) * 100)
	case goal.TargetHours != nil && *goal.TargetHours > 0:
		goal.ProgressPercentage = percentOf(goal.LoggedHours, *goal.TargetHours)
	}

	if goal.ProgressPercentage >= 100 && goal.Status != models.GoalStatusCompleted {
		goal.Status = models.GoalStatusCompleted
		at := now.UTC()
		goal.CompletedAt = &at
	}
	return goal
}

// RecalculateSkill derives TotalHoursLogged and MasteryPercentage. Unlike goals,
// target hours take precedence over the completed-goal ratio.
func RecalculateSkill(skill models.Skill, goals []models.Goal, logs []models.ProgressLog) models.Skill {
	var hours float64
	for _, l := range logs {
		hours += l.HoursLogged
	}
	skill.TotalHoursLogged = round2(hours)

	switch {
	case skill.TargetHours != nil && *skill.TargetHours > 0:
		skill.MasteryPercentage = percentOf(skill.TotalHoursLogged, *skill.TargetHours)
	case len(goals) > 0:
		completed := 0
		for _, g := range goals {
			if g.Status == models.GoalStatusCompleted {
				completed++
			}
		}
		skill.MasteryPercentage = round2(float64(completed) / float64(len(goals)) * 100)
	}
	return skill
}
