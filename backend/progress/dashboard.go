package progress

import (
	"time"

	"skilltracker/backend/models"
)

type DashboardStats struct {
	TotalSkills        int     `json:"total_skills"`
	ActiveSkills       int     `json:"active_skills"`
	CompletedGoals     int     `json:"completed_goals"`
	TotalGoals         int     `json:"total_goals"`
	TotalHoursThisWeek float64 `json:"total_hours_this_week"`
	TotalHoursAllTime  float64 `json:"total_hours_all_time"`
	CurrentStreak      int     `json:"current_streak"`
	OverallProgress    float64 `json:"overall_progress"`
}

// WeekStart returns the Sunday that starts the calendar week containing today.
func WeekStart(today time.Time) time.Time {
	day := DateOf(today)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// BuildDashboard folds one user's skills, goals and logs into a snapshot.
// "This week" is Sunday through Saturday.
func BuildDashboard(skills []models.Skill, goals []models.Goal, logs []models.ProgressLog, today time.Time) DashboardStats {
	stats := DashboardStats{
		TotalSkills: len(skills),
		TotalGoals:  len(goals),
	}

	var mastery float64
	for _, s := range skills {
		if s.Status == models.SkillStatusInProgress {
			stats.ActiveSkills++
		}
		mastery += s.MasteryPercentage
	}
	if len(skills) > 0 {
		stats.OverallProgress = round2(mastery / float64(len(skills)))
	}

	for _, g := range goals {
		if g.Status == models.GoalStatusCompleted {
			stats.CompletedGoals++
		}
	}

	weekStart := WeekStart(today)
	weekEnd := weekStart.AddDate(0, 0, 6)
	var week, all float64
	dates := make([]time.Time, 0, len(logs))
	for _, l := range logs {
		d := DateOf(l.LogDate)
		all += l.HoursLogged
		if !d.Before(weekStart) && !d.After(weekEnd) {
			week += l.HoursLogged
		}
		dates = append(dates, d)
	}
	stats.TotalHoursThisWeek = round2(week)
	stats.TotalHoursAllTime = round2(all)
	stats.CurrentStreak = CurrentStreak(dates, today)
	return stats
}
