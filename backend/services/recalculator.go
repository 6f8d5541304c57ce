package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skilltracker/backend/models"
	"skilltracker/backend/progress"
)

// Recalculator persists the derived goal, skill and daily-stat fields.
// Every method expects to run inside the caller's transaction.
type Recalculator struct {
	clock progress.Clock
}

func NewRecalculator(clock progress.Clock) *Recalculator {
	if clock == nil {
		clock = progress.SystemClock
	}
	return &Recalculator{clock: clock}
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// Goal recomputes one goal and then its owning skill.
func (r *Recalculator) Goal(tx *gorm.DB, goalID uint) error {
	skillID, err := r.goal(tx, goalID, 0)
	if err != nil {
		return err
	}
	return r.Skill(tx, skillID)
}

// Goals recomputes each goal of one skill, then the skill once. byLog is the
// log that triggered the cascade (0 for none); a goal it completes is stamped
// with it so the daily rollup can attribute the completion to the log's date.
func (r *Recalculator) Goals(tx *gorm.DB, skillID, byLog uint, goalIDs []uint) error {
	for _, id := range goalIDs {
		if _, err := r.goal(tx, id, byLog); err != nil {
			return err
		}
	}
	return r.Skill(tx, skillID)
}

func (r *Recalculator) goal(tx *gorm.DB, goalID, byLog uint) (uint, error) {
	var goal models.Goal
	if err := tx.Clauses(forUpdate()).First(&goal, goalID).Error; err != nil {
		return 0, fmt.Errorf("load goal %d: %w", goalID, err)
	}
	if err := tx.Where("goal_id = ?", goalID).Order("sort_order, id").Find(&goal.Milestones).Error; err != nil {
		return 0, fmt.Errorf("load milestones of goal %d: %w", goalID, err)
	}
	var logs []models.ProgressLog
	if err := tx.Where("goal_id = ?", goalID).Find(&logs).Error; err != nil {
		return 0, fmt.Errorf("load logs of goal %d: %w", goalID, err)
	}

	updated := progress.RecalculateGoal(goal, logs, r.clock.Now())
	fields := map[string]interface{}{
		"logged_hours":        updated.LoggedHours,
		"progress_percentage": updated.ProgressPercentage,
		"status":              updated.Status,
		"completed_at":        updated.CompletedAt,
	}
	if byLog != 0 && goal.Status != models.GoalStatusCompleted && updated.Status == models.GoalStatusCompleted {
		fields["completed_by_log_id"] = byLog
	}
	if err := tx.Model(&models.Goal{}).Where("id = ?", goalID).Updates(fields).Error; err != nil {
		return 0, fmt.Errorf("save goal %d: %w", goalID, err)
	}
	return goal.SkillID, nil
}

// Skill recomputes hours and mastery of one skill from its goals and logs.
func (r *Recalculator) Skill(tx *gorm.DB, skillID uint) error {
	var skill models.Skill
	if err := tx.Clauses(forUpdate()).First(&skill, skillID).Error; err != nil {
		return fmt.Errorf("load skill %d: %w", skillID, err)
	}
	var goals []models.Goal
	if err := tx.Where("skill_id = ?", skillID).Find(&goals).Error; err != nil {
		return fmt.Errorf("load goals of skill %d: %w", skillID, err)
	}
	var logs []models.ProgressLog
	if err := tx.Where("skill_id = ?", skillID).Find(&logs).Error; err != nil {
		return fmt.Errorf("load logs of skill %d: %w", skillID, err)
	}

	updated := progress.RecalculateSkill(skill, goals, logs)
	err := tx.Model(&models.Skill{}).Where("id = ?", skillID).Updates(map[string]interface{}{
		"total_hours_logged": updated.TotalHoursLogged,
		"mastery_percentage": updated.MasteryPercentage,
	}).Error
	if err != nil {
		return fmt.Errorf("save skill %d: %w", skillID, err)
	}
	return nil
}

// Day rebuilds the (user, date) DailyStat row from that day's logs.
// The row is inserted with ON CONFLICT DO NOTHING before it is locked, so two
// transactions racing on a new date both end up updating the same row.
func (r *Recalculator) Day(tx *gorm.DB, userID uint, date time.Time) error {
	day := progress.DateOf(date)
	label := day.Format(models.DateLayout)

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "stat_date"}},
		DoNothing: true,
	}).Create(&models.DailyStat{UserID: userID, StatDate: day}).Error; err != nil {
		return fmt.Errorf("insert daily stat %s: %w", label, err)
	}
	var stat models.DailyStat
	if err := tx.Clauses(forUpdate()).
		Where("user_id = ? AND stat_date = ?", userID, day).
		First(&stat).Error; err != nil {
		return fmt.Errorf("load daily stat %s: %w", label, err)
	}

	var logs []models.ProgressLog
	if err := tx.Preload("MilestoneCompletions").
		Where("user_id = ? AND log_date = ?", userID, day).
		Find(&logs).Error; err != nil {
		return fmt.Errorf("load logs for %s: %w", label, err)
	}

	var goals []models.Goal
	logIDs := make([]uint, 0, len(logs))
	for _, l := range logs {
		logIDs = append(logIDs, l.ID)
	}
	if len(logIDs) > 0 {
		if err := tx.Where("completed_by_log_id IN ?", logIDs).Find(&goals).Error; err != nil {
			return fmt.Errorf("load goals for %s: %w", label, err)
		}
	}

	stat = progress.RollupDay(stat, logs, goals)
	if err := tx.Save(&stat).Error; err != nil {
		return fmt.Errorf("save daily stat %s: %w", label, err)
	}
	return nil
}
