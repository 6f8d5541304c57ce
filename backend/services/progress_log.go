package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/utils"
)

type ProgressLogService struct {
	db     *gorm.DB
	log    *utils.Logger
	clock  progress.Clock
	recalc *Recalculator
}

func NewProgressLogService(db *gorm.DB, log *utils.Logger, clock progress.Clock) *ProgressLogService {
	if clock == nil {
		clock = progress.SystemClock
	}
	return &ProgressLogService{
		db:     db,
		log:    log.With("service", "ProgressLogService"),
		clock:  clock,
		recalc: NewRecalculator(clock),
	}
}

// ParseLogDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps only the UTC date.
func ParseLogDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return progress.DateOf(t), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// List pages through the user's logs, newest log date first.
func (s *ProgressLogService) List(ctx context.Context, userID uint, filter models.ProgressLogFilter) ([]models.ProgressLogDTO, int64, error) {
	page, pageSize := NormalizePage(filter.Page, filter.PageSize)
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.ProgressLog{}).Where("user_id = ?", userID)
		if filter.SkillID != nil {
			q = q.Where("skill_id = ?", *filter.SkillID)
		}
		if filter.GoalID != nil {
			q = q.Where("goal_id = ?", *filter.GoalID)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}
	var logs []models.ProgressLog
	if err := base().Preload("Skill").Preload("Goal").Preload("MilestoneCompletions").
		Scopes(orderLogs).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}
	out := make([]models.ProgressLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, models.NewProgressLogDTO(l))
	}
	return out, total, nil
}

// All returns every log of the user, newest first, for exports.
func (s *ProgressLogService) All(ctx context.Context, userID uint) ([]models.ProgressLogDTO, error) {
	var logs []models.ProgressLog
	if err := s.db.WithContext(ctx).Preload("Skill").Preload("Goal").Preload("MilestoneCompletions").
		Where("user_id = ?", userID).Scopes(orderLogs).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	out := make([]models.ProgressLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, models.NewProgressLogDTO(l))
	}
	return out, nil
}

func (s *ProgressLogService) Get(ctx context.Context, userID, logID uint) (models.ProgressLogDTO, error) {
	var l models.ProgressLog
	err := s.db.WithContext(ctx).Preload("Skill").Preload("Goal").Preload("MilestoneCompletions").
		Where("id = ? AND user_id = ?", logID, userID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ProgressLogDTO{}, utils.NotFoundError("progress log")
	}
	if err != nil {
		return models.ProgressLogDTO{}, err
	}
	return models.NewProgressLogDTO(l), nil
}

// Create stores a log and runs the whole cascade in one transaction:
// milestone completions, goal progress, skill progress, the daily stat.
func (s *ProgressLogService) Create(ctx context.Context, userID uint, req models.CreateProgressLogRequest) (models.ProgressLogDTO, error) {
	if err := utils.Validate(req); err != nil {
		return models.ProgressLogDTO{}, err
	}
	logDate, err := ParseLogDate(req.LogDate)
	if err != nil {
		return models.ProgressLogDTO{}, utils.NewValidationError("log_date", "must be a date in YYYY-MM-DD format")
	}
	milestoneIDs := dedupe(req.CompletedMilestoneIDs)

	entry := models.ProgressLog{
		UserID:        userID,
		SkillID:       req.SkillID,
		GoalID:        req.GoalID,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		HoursLogged:   req.HoursLogged,
		LogDate:       logDate,
		QualityRating: req.QualityRating,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := ownedSkill(tx, userID, req.SkillID)
		if errors.Is(err, utils.ErrNotFound) {
			return utils.InvalidOperation("skill %d is not one of your skills", req.SkillID)
		}
		if err != nil {
			return err
		}

		touched := map[uint]struct{}{}
		if req.GoalID != nil {
			goal, err := ownedGoal(tx, userID, *req.GoalID)
			if errors.Is(err, utils.ErrNotFound) {
				return utils.InvalidOperation("goal %d is not one of your goals", *req.GoalID)
			}
			if err != nil {
				return err
			}
			if goal.SkillID != skill.ID {
				return utils.InvalidOperation("goal %d does not belong to skill %d", goal.ID, skill.ID)
			}
			touched[goal.ID] = struct{}{}
		}

		milestones, err := s.milestonesForSkill(tx, userID, skill.ID, milestoneIDs)
		if err != nil {
			return err
		}

		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("create log: %w", err)
		}

		now := s.clock.Now()
		for _, m := range milestones {
			touched[m.GoalID] = struct{}{}
			if m.IsCompleted {
				continue
			}
			if err := tx.Model(&m).Updates(map[string]interface{}{
				"is_completed": true,
				"completed_at": now,
			}).Error; err != nil {
				return fmt.Errorf("complete milestone %d: %w", m.ID, err)
			}
			completion := models.MilestoneCompletion{ProgressLogID: entry.ID, MilestoneID: m.ID, CompletedAt: now}
			if err := tx.Create(&completion).Error; err != nil {
				return fmt.Errorf("record milestone completion: %w", err)
			}
		}

		if err := s.recalc.Goals(tx, skill.ID, entry.ID, sortedKeys(touched)); err != nil {
			return err
		}
		return s.recalc.Day(tx, userID, logDate)
	})
	if err != nil {
		return models.ProgressLogDTO{}, err
	}

	s.log.Info("Progress logged", "user_id", userID, "skill_id", entry.SkillID, "hours", entry.HoursLogged)
	return s.Get(ctx, userID, entry.ID)
}

// milestonesForSkill loads the requested milestones and rejects any that are
// not the user's or that sit under a goal of another skill.
func (s *ProgressLogService) milestonesForSkill(tx *gorm.DB, userID, skillID uint, ids []uint) ([]models.Milestone, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var milestones []models.Milestone
	if err := tx.Clauses(forUpdate()).Where("id IN ? AND user_id = ?", ids, userID).Find(&milestones).Error; err != nil {
		return nil, err
	}
	if len(milestones) != len(ids) {
		return nil, utils.InvalidOperation("some milestones are not yours")
	}

	goalIDs := make([]uint, 0, len(milestones))
	for _, m := range milestones {
		goalIDs = append(goalIDs, m.GoalID)
	}
	var inSkill int64
	if err := tx.Model(&models.Goal{}).
		Where("id IN ? AND skill_id = ?", dedupe(goalIDs), skillID).
		Count(&inSkill).Error; err != nil {
		return nil, err
	}
	if int(inSkill) != len(dedupe(goalIDs)) {
		return nil, utils.InvalidOperation("milestones must belong to goals of skill %d", skillID)
	}
	return milestones, nil
}

// Delete removes a log and reverses its contribution to goal, skill and daily
// stat. Milestones it completed stay completed.
func (s *ProgressLogService) Delete(ctx context.Context, userID, logID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.ProgressLog
		err := tx.Clauses(forUpdate()).Where("id = ? AND user_id = ?", logID, userID).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundError("progress log")
		}
		if err != nil {
			return err
		}

		if err := tx.Where("progress_log_id = ?", entry.ID).Delete(&models.MilestoneCompletion{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return fmt.Errorf("delete log: %w", err)
		}

		var goals []uint
		if entry.GoalID != nil {
			goals = append(goals, *entry.GoalID)
		}
		if err := s.recalc.Goals(tx, entry.SkillID, 0, goals); err != nil {
			return err
		}
		return s.recalc.Day(tx, userID, entry.LogDate)
	})
	if err != nil {
		return err
	}
	s.log.Info("Progress log deleted", "user_id", userID, "log_id", logID)
	return nil
}

func (s *ProgressLogService) Dashboard(ctx context.Context, userID uint) (progress.DashboardStats, error) {
	return dashboardFor(s.db.WithContext(ctx), userID, progress.Today(s.clock))
}

// Weekly returns the Monday–Sunday activity buckets ending with the current week.
func (s *ProgressLogService) Weekly(ctx context.Context, userID uint, weeks int) ([]progress.WeekBucket, error) {
	today := progress.Today(s.clock)
	var logs []models.ProgressLog
	if err := s.db.WithContext(ctx).Select("id", "log_date", "hours_logged").
		Where("user_id = ? AND log_date >= ?", userID, progress.WindowStart(today, weeks)).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load weekly logs: %w", err)
	}
	return progress.WeeklyActivity(logs, today, weeks), nil
}

// DailyStats returns the stored rollups between from and to, inclusive.
func (s *ProgressLogService) DailyStats(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyStatDTO, error) {
	from, to = progress.DateOf(from), progress.DateOf(to)
	if to.Before(from) {
		return nil, utils.NewValidationError("to", "must not be before from")
	}
	var stats []models.DailyStat
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND stat_date BETWEEN ? AND ?", userID, from, to).
		Order("stat_date").
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("load daily stats: %w", err)
	}
	out := make([]models.DailyStatDTO, 0, len(stats))
	for _, st := range stats {
		out = append(out, models.NewDailyStatDTO(st))
	}
	return out, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortedKeys(m map[uint]struct{}) []uint {
	out := make([]uint, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
