package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"skilltracker/backend/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func gormModel(id uint) gorm.Model { return gorm.Model{ID: id} }

// 2024-03-13 is a Wednesday.
var wednesday = day(2024, time.March, 13)

func TestCurrentStreak(t *testing.T) {
	today := wednesday
	cases := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"no logs", nil, 0},
		{"only today", []time.Time{today}, 1},
		{"today and yesterday", []time.Time{today, today.AddDate(0, 0, -1)}, 2},
		{"gap two days ago", []time.Time{today, today.AddDate(0, 0, -1), today.AddDate(0, 0, -3)}, 2},
		{"only two days ago", []time.Time{today.AddDate(0, 0, -2)}, 0},
		{"yesterday only keeps streak", []time.Time{today.AddDate(0, 0, -1), today.AddDate(0, 0, -2)}, 2},
		{"duplicates and times", []time.Time{today.Add(9 * time.Hour), today.Add(18 * time.Hour), today.AddDate(0, 0, -1).Add(time.Hour)}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CurrentStreak(tc.dates, today))
		})
	}
}

func TestCurrentStreakWindow(t *testing.T) {
	today := wednesday
	dates := make([]time.Time, 0, 400)
	for i := 0; i < 400; i++ {
		dates = append(dates, today.AddDate(0, 0, -i))
	}
	assert.Equal(t, StreakWindow, CurrentStreak(dates, today))
}

func TestRecalculateGoalMilestonesWinOverHours(t *testing.T) {
	now := wednesday.Add(10 * time.Hour)
	goal := models.Goal{
		TargetHours: ptr(2.0),
		Status:      models.GoalStatusPending,
		Milestones: []models.Milestone{
			{IsCompleted: true}, {}, {}, {},
		},
	}
	logs := []models.ProgressLog{{HoursLogged: 5}}

	got := RecalculateGoal(goal, logs, now)
	assert.Equal(t, 5.0, got.LoggedHours)
	assert.Equal(t, 25.0, got.ProgressPercentage)
	assert.Equal(t, models.GoalStatusPending, got.Status)
	assert.Nil(t, got.CompletedAt)

	for i := range goal.Milestones {
		goal.Milestones[i].IsCompleted = true
	}
	got = RecalculateGoal(goal, logs, now)
	assert.Equal(t, 100.0, got.ProgressPercentage)
	assert.Equal(t, models.GoalStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, now, *got.CompletedAt)
}

func TestRecalculateGoalHours(t *testing.T) {
	now := wednesday
	goal := models.Goal{TargetHours: ptr(8.0), Status: models.GoalStatusInProgress}

	got := RecalculateGoal(goal, []models.ProgressLog{{HoursLogged: 2}, {HoursLogged: 1}}, now)
	assert.Equal(t, 3.0, got.LoggedHours)
	assert.Equal(t, 37.5, got.ProgressPercentage)

	got = RecalculateGoal(goal, []models.ProgressLog{{HoursLogged: 12}}, now)
	assert.Equal(t, 100.0, got.ProgressPercentage)
	assert.Equal(t, models.GoalStatusCompleted, got.Status)
}

func TestRecalculateGoalUnchangedWithoutTarget(t *testing.T) {
	goal := models.Goal{ProgressPercentage: 40, Status: models.GoalStatusInProgress}
	got := RecalculateGoal(goal, []models.ProgressLog{{HoursLogged: 3}}, wednesday)
	assert.Equal(t, 40.0, got.ProgressPercentage)
	assert.Equal(t, 3.0, got.LoggedHours)
}

func TestRecalculateGoalNeverRevertsCompletion(t *testing.T) {
	completedAt := wednesday.AddDate(0, 0, -2)
	goal := models.Goal{
		TargetHours:        ptr(10.0),
		ProgressPercentage: 100,
		Status:             models.GoalStatusCompleted,
		CompletedAt:        &completedAt,
	}
	got := RecalculateGoal(goal, []models.ProgressLog{{HoursLogged: 4}}, wednesday)
	assert.Equal(t, 40.0, got.ProgressPercentage)
	assert.Equal(t, models.GoalStatusCompleted, got.Status)
	assert.Equal(t, completedAt, *got.CompletedAt)
}

func TestRecalculateSkillHoursWinOverGoals(t *testing.T) {
	skill := models.Skill{TargetHours: ptr(10.0)}
	goals := []models.Goal{{Status: models.GoalStatusCompleted}, {Status: models.GoalStatusCompleted}}
	logs := []models.ProgressLog{
		{HoursLogged: 4, LogDate: wednesday.AddDate(0, 0, -1)},
		{HoursLogged: 6, LogDate: wednesday},
	}
	got := RecalculateSkill(skill, goals, logs)
	assert.Equal(t, 10.0, got.TotalHoursLogged)
	assert.Equal(t, 100.0, got.MasteryPercentage)

	got = RecalculateSkill(skill, goals, logs[:1])
	assert.Equal(t, 40.0, got.MasteryPercentage)

	got = RecalculateSkill(skill, goals, append(logs, models.ProgressLog{HoursLogged: 5}))
	assert.Equal(t, 100.0, got.MasteryPercentage, "capped")
}

func TestRecalculateSkillGoalRatio(t *testing.T) {
	goals := []models.Goal{
		{Status: models.GoalStatusCompleted},
		{Status: models.GoalStatusPending},
		{Status: models.GoalStatusInProgress},
		{Status: models.GoalStatusPending},
	}
	got := RecalculateSkill(models.Skill{}, goals, nil)
	assert.Equal(t, 25.0, got.MasteryPercentage)

	got = RecalculateSkill(models.Skill{MasteryPercentage: 12, TargetHours: ptr(0.0)}, nil, nil)
	assert.Equal(t, 12.0, got.MasteryPercentage, "nothing to derive from")
}

func TestRollupDay(t *testing.T) {
	goalID := uint(7)
	logs := []models.ProgressLog{
		{Model: gormModel(1), SkillID: 1, HoursLogged: 1.5, LogDate: wednesday, GoalID: &goalID,
			MilestoneCompletions: []models.MilestoneCompletion{{MilestoneID: 1}, {MilestoneID: 2}}},
		{Model: gormModel(2), SkillID: 1, HoursLogged: 0.5, LogDate: wednesday},
		{Model: gormModel(3), SkillID: 2, HoursLogged: 2, LogDate: wednesday},
		{Model: gormModel(4), SkillID: 3, HoursLogged: 9, LogDate: wednesday.AddDate(0, 0, -1)},
	}
	// completion time is irrelevant, the completing log decides the day
	completedAt := wednesday.AddDate(0, 0, 3)
	goals := []models.Goal{
		{Model: gormModel(7), Status: models.GoalStatusCompleted, CompletedAt: &completedAt, CompletedByLogID: ptr(uint(1))},
		{Model: gormModel(8), Status: models.GoalStatusCompleted, CompletedAt: &completedAt, CompletedByLogID: ptr(uint(4))},
		{Model: gormModel(9), Status: models.GoalStatusCompleted, CompletedAt: &completedAt},
	}

	stat := RollupDay(models.DailyStat{UserID: 1, StatDate: wednesday, TotalHoursLogged: 99}, logs, goals)
	assert.Equal(t, 4.0, stat.TotalHoursLogged)
	assert.Equal(t, 2, stat.SkillsPracticed)
	assert.Equal(t, 3, stat.LogsCount)
	assert.Equal(t, 2, stat.MilestonesCompleted)
	assert.Equal(t, 1, stat.GoalsCompleted)

	again := RollupDay(stat, logs, goals)
	assert.Equal(t, stat, again, "idempotent")

	empty := RollupDay(stat, nil, nil)
	assert.Zero(t, empty.TotalHoursLogged)
	assert.Zero(t, empty.SkillsPracticed)
	assert.Zero(t, empty.LogsCount)
	assert.Zero(t, empty.MilestonesCompleted)
	assert.Zero(t, empty.GoalsCompleted)
}

func TestBuildDashboard(t *testing.T) {
	empty := BuildDashboard(nil, nil, nil, wednesday)
	assert.Equal(t, DashboardStats{}, empty)

	skills := []models.Skill{
		{Status: models.SkillStatusInProgress, MasteryPercentage: 50},
		{Status: models.SkillStatusPaused, MasteryPercentage: 25},
		{Status: models.SkillStatusInProgress, MasteryPercentage: 0},
	}
	goals := []models.Goal{{Status: models.GoalStatusCompleted}, {Status: models.GoalStatusPending}}
	logs := []models.ProgressLog{
		{HoursLogged: 1, LogDate: wednesday},
		{HoursLogged: 2, LogDate: wednesday.AddDate(0, 0, -1)},
		{HoursLogged: 1.5, LogDate: day(2024, time.March, 10)}, // Sunday, same week
		{HoursLogged: 4, LogDate: day(2024, time.March, 9)},    // Saturday, previous week
	}
	stats := BuildDashboard(skills, goals, logs, wednesday)
	assert.Equal(t, 3, stats.TotalSkills)
	assert.Equal(t, 2, stats.ActiveSkills)
	assert.Equal(t, 1, stats.CompletedGoals)
	assert.Equal(t, 2, stats.TotalGoals)
	assert.Equal(t, 4.5, stats.TotalHoursThisWeek)
	assert.Equal(t, 8.5, stats.TotalHoursAllTime)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 25.0, stats.OverallProgress)
}

func TestWeekStartIsSunday(t *testing.T) {
	assert.Equal(t, day(2024, time.March, 10), WeekStart(wednesday))
	assert.Equal(t, day(2024, time.March, 10), WeekStart(day(2024, time.March, 10)))
	assert.Equal(t, day(2024, time.March, 10), WeekStart(day(2024, time.March, 16)))
}

func TestWeeklyActivitySingleWeek(t *testing.T) {
	logs := []models.ProgressLog{
		{HoursLogged: 2.5, LogDate: wednesday},
		{HoursLogged: 3, LogDate: day(2024, time.March, 10)}, // Sunday before: previous Monday-week
	}
	buckets := WeeklyActivity(logs, wednesday, 1)
	require.Len(t, buckets, 1)
	assert.Equal(t, 2.5, buckets[0].HoursLogged)
	assert.Equal(t, day(2024, time.March, 11), buckets[0].WeekStart)
	assert.Equal(t, day(2024, time.March, 17), buckets[0].WeekEnd)
	assert.Equal(t, "Mar 11 - Mar 17", buckets[0].WeekLabel)
}

func TestWeeklyActivityWindow(t *testing.T) {
	logs := []models.ProgressLog{
		{HoursLogged: 1, LogDate: day(2024, time.March, 10)},
		{HoursLogged: 2, LogDate: day(2024, time.March, 4)},
		{HoursLogged: 7, LogDate: day(2023, time.January, 1)},
	}
	buckets := WeeklyActivity(logs, wednesday, 0)
	require.Len(t, buckets, DefaultWeeks)
	assert.Equal(t, 1, buckets[0].WeekNumber)
	assert.Equal(t, DefaultWeeks, buckets[len(buckets)-1].WeekNumber)
	assert.Equal(t, 3.0, buckets[len(buckets)-2].HoursLogged)
	assert.Zero(t, buckets[len(buckets)-1].HoursLogged)
	for i := 1; i < len(buckets); i++ {
		assert.True(t, buckets[i].WeekStart.After(buckets[i-1].WeekStart))
		assert.Equal(t, time.Monday, buckets[i].WeekStart.Weekday())
	}

	assert.Len(t, WeeklyActivity(nil, wednesday, 500), MaxWeeks)
}

func TestWeekLabelAcrossYears(t *testing.T) {
	start := MondayOf(day(2025, time.January, 1))
	assert.Equal(t, day(2024, time.December, 30), start)
	assert.Equal(t, "Dec 30 - Jan 5, 2025", WeekLabel(start, start.AddDate(0, 0, 6)))
}

func TestMondayOfSunday(t *testing.T) {
	assert.Equal(t, day(2024, time.March, 11), MondayOf(day(2024, time.March, 17)))
}
