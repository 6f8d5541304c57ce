package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"skilltracker/backend/models"
	"skilltracker/backend/utils"
)

func TestCreateLogRunsCascade(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{TargetHours: ptr(10.0)})
	goal := f.goal(t, uid, skill.ID, models.CreateGoalRequest{
		Milestones: []models.CreateMilestoneRequest{{Title: "G"}, {Title: "C"}},
	})

	log, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID:               skill.ID,
		GoalID:                &goal.ID,
		HoursLogged:           2,
		LogDate:               "2024-03-13",
		QualityRating:         ptr(4),
		CompletedMilestoneIDs: []uint{goal.Milestones[0].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Guitar", log.SkillName)
	assert.Equal(t, "Open chords", log.GoalTitle)
	assert.Equal(t, []uint{goal.Milestones[0].ID}, log.CompletedMilestoneIDs)

	g := f.reloadGoal(t, goal.ID)
	assert.Equal(t, 2.0, g.LoggedHours)
	assert.Equal(t, 50.0, g.ProgressPercentage)
	assert.Equal(t, models.GoalStatusPending, g.Status)

	s := f.reloadSkill(t, skill.ID)
	assert.Equal(t, 2.0, s.TotalHoursLogged)
	assert.Equal(t, 20.0, s.MasteryPercentage)

	st := f.dailyStat(t, uid, "2024-03-13")
	assert.Equal(t, 2.0, st.TotalHoursLogged)
	assert.Equal(t, 1, st.SkillsPracticed)
	assert.Equal(t, 1, st.LogsCount)
	assert.Equal(t, 1, st.MilestonesCompleted)
	assert.Equal(t, 0, st.GoalsCompleted)
}

func TestCreateLogCompletesGoalByHours(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{})
	goal := f.goal(t, uid, skill.ID, models.CreateGoalRequest{TargetHours: ptr(2.0)})

	_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID: skill.ID, GoalID: &goal.ID, HoursLogged: 2.5, LogDate: "2024-03-13",
	})
	require.NoError(t, err)

	g := f.reloadGoal(t, goal.ID)
	assert.Equal(t, 100.0, g.ProgressPercentage)
	assert.Equal(t, models.GoalStatusCompleted, g.Status)
	require.NotNil(t, g.CompletedAt)
	assert.True(t, g.CompletedAt.Equal(refNow))

	// no target hours on the skill, so mastery follows completed goals
	assert.Equal(t, 100.0, f.reloadSkill(t, skill.ID).MasteryPercentage)
	assert.Equal(t, 1, f.dailyStat(t, uid, "2024-03-13").GoalsCompleted)
}

func TestBackdatedLogCountsGoalOnLogDate(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{})
	goal := f.goal(t, uid, skill.ID, models.CreateGoalRequest{TargetHours: ptr(2.0)})

	log, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID: skill.ID, GoalID: &goal.ID, HoursLogged: 2, LogDate: "2024-03-10",
	})
	require.NoError(t, err)

	g := f.reloadGoal(t, goal.ID)
	assert.Equal(t, models.GoalStatusCompleted, g.Status)
	require.NotNil(t, g.CompletedByLogID)
	assert.Equal(t, log.ID, *g.CompletedByLogID)
	assert.Equal(t, 1, f.dailyStat(t, uid, "2024-03-10").GoalsCompleted)

	var rows int64
	require.NoError(t, f.db.Model(&models.DailyStat{}).Where("user_id = ?", uid).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	// a later log on an already completed goal does not claim the completion
	_, err = f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID: skill.ID, GoalID: &goal.ID, HoursLogged: 1, LogDate: "2024-03-12",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.dailyStat(t, uid, "2024-03-12").GoalsCompleted)

	require.NoError(t, f.logs.Delete(f.ctx, uid, log.ID))
	assert.Equal(t, 0, f.dailyStat(t, uid, "2024-03-10").GoalsCompleted)
	assert.Equal(t, models.GoalStatusCompleted, f.reloadGoal(t, goal.ID).Status)
}

func TestLogsOnSameDayShareOneStatRow(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{})

	for _, h := range []float64{1, 0.5, 2} {
		_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
			SkillID: skill.ID, HoursLogged: h, LogDate: "2024-03-11",
		})
		require.NoError(t, err)
	}

	var stats []models.DailyStat
	require.NoError(t, f.db.Where("user_id = ?", uid).Find(&stats).Error)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].LogsCount)
	assert.Equal(t, 3.5, stats[0].TotalHoursLogged)
}

func TestCreateLogRollsBackWholeCascade(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{TargetHours: ptr(10.0)})
	goal := f.goal(t, uid, skill.ID, models.CreateGoalRequest{
		Milestones: []models.CreateMilestoneRequest{{Title: "G"}},
	})

	boom := errors.New("boom")
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").
		Register("test:fail_daily_stat", func(db *gorm.DB) {
			if db.Statement.Schema != nil && db.Statement.Schema.Table == "daily_stats" {
				_ = db.AddError(boom)
			}
		}))

	_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID:               skill.ID,
		GoalID:                &goal.ID,
		HoursLogged:           3,
		LogDate:               "2024-03-13",
		CompletedMilestoneIDs: []uint{goal.Milestones[0].ID},
	})
	require.ErrorIs(t, err, boom)

	var logs, completions, stats int64
	require.NoError(t, f.db.Model(&models.ProgressLog{}).Count(&logs).Error)
	require.NoError(t, f.db.Model(&models.MilestoneCompletion{}).Count(&completions).Error)
	require.NoError(t, f.db.Model(&models.DailyStat{}).Count(&stats).Error)
	assert.Zero(t, logs)
	assert.Zero(t, completions)
	assert.Zero(t, stats)

	g := f.reloadGoal(t, goal.ID)
	assert.Zero(t, g.LoggedHours)
	assert.Zero(t, g.ProgressPercentage)
	assert.Equal(t, models.GoalStatusPending, g.Status)
	assert.Nil(t, g.CompletedAt)
	assert.Nil(t, g.CompletedByLogID)
	assert.False(t, g.Milestones[0].IsCompleted)

	s := f.reloadSkill(t, skill.ID)
	assert.Zero(t, s.TotalHoursLogged)
	assert.Zero(t, s.MasteryPercentage)
}

func TestDeleteLogRoundTrip(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{TargetHours: ptr(20.0)})
	goal := f.goal(t, uid, skill.ID, models.CreateGoalRequest{TargetHours: ptr(10.0)})

	first, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID: skill.ID, GoalID: &goal.ID, HoursLogged: 1, LogDate: "2024-03-12",
	})
	require.NoError(t, err)
	before := f.reloadGoal(t, goal.ID)
	beforeSkill := f.reloadSkill(t, skill.ID)

	second, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID: skill.ID, GoalID: &goal.ID, HoursLogged: 3, LogDate: "2024-03-13",
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, f.reloadGoal(t, goal.ID).ProgressPercentage)

	require.NoError(t, f.logs.Delete(f.ctx, uid, second.ID))

	after := f.reloadGoal(t, goal.ID)
	assert.Equal(t, before.LoggedHours, after.LoggedHours)
	assert.Equal(t, before.ProgressPercentage, after.ProgressPercentage)
	assert.Equal(t, before.Status, after.Status)
	afterSkill := f.reloadSkill(t, skill.ID)
	assert.Equal(t, beforeSkill.TotalHoursLogged, afterSkill.TotalHoursLogged)
	assert.Equal(t, beforeSkill.MasteryPercentage, afterSkill.MasteryPercentage)

	st := f.dailyStat(t, uid, "2024-03-13")
	assert.Zero(t, st.TotalHoursLogged)
	assert.Zero(t, st.LogsCount)
	assert.Zero(t, st.SkillsPracticed)

	_, err = f.logs.Get(f.ctx, uid, second.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = f.logs.Get(f.ctx, uid, first.ID)
	assert.NoError(t, err)
}

func TestDeleteLogKeepsMilestonesAndCompletion(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{})
	goal := f.goal(t, uid, skill.ID, models.CreateGoalRequest{
		Milestones: []models.CreateMilestoneRequest{{Title: "Only one"}},
	})

	log, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID: skill.ID, GoalID: &goal.ID, HoursLogged: 1, LogDate: "2024-03-13",
		CompletedMilestoneIDs: []uint{goal.Milestones[0].ID},
	})
	require.NoError(t, err)
	require.Equal(t, models.GoalStatusCompleted, f.reloadGoal(t, goal.ID).Status)

	require.NoError(t, f.logs.Delete(f.ctx, uid, log.ID))

	g := f.reloadGoal(t, goal.ID)
	assert.Equal(t, models.GoalStatusCompleted, g.Status)
	assert.Equal(t, 100.0, g.ProgressPercentage)
	assert.Zero(t, g.LoggedHours)
	require.Len(t, g.Milestones, 1)
	assert.True(t, g.Milestones[0].IsCompleted)

	var completions int64
	require.NoError(t, f.db.Model(&models.MilestoneCompletion{}).Count(&completions).Error)
	assert.Zero(t, completions)
	assert.Zero(t, f.dailyStat(t, uid, "2024-03-13").MilestonesCompleted)
}

func TestCreateLogSkipsAlreadyCompletedMilestones(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{})
	goal := f.goal(t, uid, skill.ID, models.CreateGoalRequest{
		Milestones: []models.CreateMilestoneRequest{{Title: "A"}, {Title: "B"}},
	})
	m := goal.Milestones[0].ID

	_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID: skill.ID, GoalID: &goal.ID, HoursLogged: 1, LogDate: "2024-03-12", CompletedMilestoneIDs: []uint{m},
	})
	require.NoError(t, err)
	second, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{
		SkillID: skill.ID, GoalID: &goal.ID, HoursLogged: 1, LogDate: "2024-03-13", CompletedMilestoneIDs: []uint{m, m},
	})
	require.NoError(t, err)
	assert.Empty(t, second.CompletedMilestoneIDs)

	var completions int64
	require.NoError(t, f.db.Model(&models.MilestoneCompletion{}).Count(&completions).Error)
	assert.Equal(t, int64(1), completions)
	assert.Equal(t, 1, f.dailyStat(t, uid, "2024-03-12").MilestonesCompleted)
	assert.Zero(t, f.dailyStat(t, uid, "2024-03-13").MilestonesCompleted)
	assert.Equal(t, 50.0, f.reloadGoal(t, goal.ID).ProgressPercentage)
}

func TestCreateLogValidation(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{})

	tests := []struct {
		name  string
		req   models.CreateProgressLogRequest
		field string
	}{
		{"zero hours", models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 0, LogDate: "2024-03-13"}, "hours_logged"},
		{"more than a day", models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 24.5, LogDate: "2024-03-13"}, "hours_logged"},
		{"rating too high", models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 1, LogDate: "2024-03-13", QualityRating: ptr(6)}, "quality_rating"},
		{"rating too low", models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 1, LogDate: "2024-03-13", QualityRating: ptr(0)}, "quality_rating"},
		{"bad date", models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 1, LogDate: "13/03/2024"}, "log_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.logs.Create(f.ctx, uid, tt.req)
			assertValidation(t, err, tt.field)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.ProgressLog{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 24, LogDate: "2024-03-13"})
	assert.NoError(t, err)
}

func TestCreateLogRejectsForeignReferences(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada@example.com")
	bob := f.user(t, "bob@example.com")

	adaSkill := f.skill(t, ada, models.CreateSkillRequest{Name: "Guitar"})
	adaOther := f.skill(t, ada, models.CreateSkillRequest{Name: "Piano"})
	otherGoal := f.goal(t, ada, adaOther.ID, models.CreateGoalRequest{
		Milestones: []models.CreateMilestoneRequest{{Title: "Scales"}},
	})
	bobSkill := f.skill(t, bob, models.CreateSkillRequest{Name: "Chess"})
	bobGoal := f.goal(t, bob, bobSkill.ID, models.CreateGoalRequest{})

	tests := []struct {
		name string
		req  models.CreateProgressLogRequest
	}{
		{"someone else's skill", models.CreateProgressLogRequest{SkillID: bobSkill.ID}},
		{"someone else's goal", models.CreateProgressLogRequest{SkillID: adaSkill.ID, GoalID: &bobGoal.ID}},
		{"goal of another skill", models.CreateProgressLogRequest{SkillID: adaSkill.ID, GoalID: &otherGoal.ID}},
		{"milestone of another skill", models.CreateProgressLogRequest{SkillID: adaSkill.ID, CompletedMilestoneIDs: []uint{otherGoal.Milestones[0].ID}}},
		{"unknown milestone", models.CreateProgressLogRequest{SkillID: adaSkill.ID, CompletedMilestoneIDs: []uint{9999}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.HoursLogged = 1
			tt.req.LogDate = "2024-03-13"
			_, err := f.logs.Create(f.ctx, ada, tt.req)
			assert.ErrorIs(t, err, utils.ErrInvalidOperation)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.ProgressLog{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.False(t, f.reloadGoal(t, otherGoal.ID).Milestones[0].IsCompleted)
}

func TestLogsAreIsolatedPerUser(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada@example.com")
	bob := f.user(t, "bob@example.com")
	skill := f.skill(t, ada, models.CreateSkillRequest{})
	log, err := f.logs.Create(f.ctx, ada, models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 1, LogDate: "2024-03-13"})
	require.NoError(t, err)

	_, err = f.logs.Get(f.ctx, bob, log.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.ErrorIs(t, f.logs.Delete(f.ctx, bob, log.ID), utils.ErrNotFound)

	list, total, err := f.logs.List(f.ctx, bob, models.ProgressLogFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestListLogsOrderAndFilters(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	guitar := f.skill(t, uid, models.CreateSkillRequest{Name: "Guitar"})
	piano := f.skill(t, uid, models.CreateSkillRequest{Name: "Piano"})

	for _, d := range []string{"2024-03-10", "2024-03-12", "2024-03-11"} {
		_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{SkillID: guitar.ID, HoursLogged: 1, LogDate: d})
		require.NoError(t, err)
	}
	_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{SkillID: piano.ID, HoursLogged: 1, LogDate: "2024-03-13"})
	require.NoError(t, err)

	list, total, err := f.logs.List(f.ctx, uid, models.ProgressLogFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-13", list[0].LogDate)
	assert.Equal(t, "2024-03-12", list[1].LogDate)

	list, total, err = f.logs.List(f.ctx, uid, models.ProgressLogFilter{SkillID: &guitar.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"2024-03-12", "2024-03-11", "2024-03-10"},
		[]string{list[0].LogDate, list[1].LogDate, list[2].LogDate})
}

func TestDashboardAndWeekly(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{TargetHours: ptr(100.0)})

	// Sunday 10th opens the dashboard week; Saturday 9th belongs to the previous one.
	for d, h := range map[string]float64{"2024-03-09": 1, "2024-03-10": 2, "2024-03-12": 1.5, "2024-03-13": 0.5} {
		_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: h, LogDate: d})
		require.NoError(t, err)
	}

	stats, err := f.logs.Dashboard(f.ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSkills)
	assert.Equal(t, 1, stats.ActiveSkills)
	assert.Equal(t, 4.0, stats.TotalHoursThisWeek)
	assert.Equal(t, 5.0, stats.TotalHoursAllTime)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 5.0, stats.OverallProgress)

	weeks, err := f.logs.Weekly(f.ctx, uid, 2)
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	// Mon 4th - Sun 10th, then Mon 11th - Sun 17th
	assert.Equal(t, "Mar 4 - Mar 10", weeks[0].WeekLabel)
	assert.Equal(t, 3.0, weeks[0].HoursLogged)
	assert.Equal(t, 2.0, weeks[1].HoursLogged)

	weeks, err = f.logs.Weekly(f.ctx, uid, 0)
	require.NoError(t, err)
	assert.Len(t, weeks, 12)
}

func TestDailyStatsRange(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	skill := f.skill(t, uid, models.CreateSkillRequest{})
	for _, d := range []string{"2024-03-01", "2024-03-05", "2024-03-05", "2024-03-09"} {
		_, err := f.logs.Create(f.ctx, uid, models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 1, LogDate: d})
		require.NoError(t, err)
	}

	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	stats, err := f.logs.DailyStats(f.ctx, uid, from, to)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2024-03-05", stats[0].Date)
	assert.Equal(t, 2, stats[0].LogsCount)
	assert.Equal(t, 2.0, stats[0].TotalHoursLogged)
	assert.Equal(t, "2024-03-09", stats[1].Date)

	_, err = f.logs.DailyStats(f.ctx, uid, to, from)
	assertValidation(t, err, "to")
}

func TestParseLogDate(t *testing.T) {
	d, err := ParseLogDate("2024-03-13")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)))

	d, err = ParseLogDate("2024-03-13T23:30:00-02:00")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)))

	_, err = ParseLogDate("yesterday")
	assert.Error(t, err)
}
