package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/utils"
)

type GoalService struct {
	db     *gorm.DB
	log    *utils.Logger
	clock  progress.Clock
	recalc *Recalculator
}

func NewGoalService(db *gorm.DB, log *utils.Logger, clock progress.Clock) *GoalService {
	if clock == nil {
		clock = progress.SystemClock
	}
	return &GoalService{
		db:     db,
		log:    log.With("service", "GoalService"),
		clock:  clock,
		recalc: NewRecalculator(clock),
	}
}

// ListBySkill returns the goals of one of the user's skills in display order.
func (s *GoalService) ListBySkill(ctx context.Context, userID, skillID uint) ([]models.GoalDTO, error) {
	skill, err := ownedSkill(s.db.WithContext(ctx), userID, skillID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, skill)
}

// ListForDetails also admits public skills of other users. viewerID may be 0.
func (s *GoalService) ListForDetails(ctx context.Context, viewerID, skillID uint) ([]models.GoalDTO, error) {
	var skill models.Skill
	err := s.db.WithContext(ctx).First(&skill, skillID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && skill.UserID != viewerID && !skill.IsPublic()) {
		return nil, utils.NotFoundError("skill")
	}
	if err != nil {
		return nil, err
	}
	return s.list(ctx, skill)
}

func (s *GoalService) list(ctx context.Context, skill models.Skill) ([]models.GoalDTO, error) {
	var goals []models.Goal
	if err := s.db.WithContext(ctx).
		Preload("Milestones", orderMilestones).
		Where("skill_id = ?", skill.ID).
		Order("sort_order, id").
		Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]models.GoalDTO, 0, len(goals))
	for _, g := range goals {
		g.Skill = &skill
		out = append(out, models.NewGoalDTO(g))
	}
	return out, nil
}

func (s *GoalService) Get(ctx context.Context, userID, skillID, goalID uint) (models.GoalDTO, error) {
	goal, err := s.load(s.db.WithContext(ctx), userID, goalID)
	if err != nil {
		return models.GoalDTO{}, err
	}
	if skillID != 0 && goal.SkillID != skillID {
		return models.GoalDTO{}, utils.NotFoundError("goal")
	}
	return models.NewGoalDTO(goal), nil
}

// Create appends a goal (and its milestones) to the end of the skill's goal list.
func (s *GoalService) Create(ctx context.Context, userID, skillID uint, req models.CreateGoalRequest) (models.GoalDTO, error) {
	if err := utils.Validate(req); err != nil {
		return models.GoalDTO{}, err
	}

	var goal models.Goal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedSkill(tx.Clauses(forUpdate()), userID, skillID); err != nil {
			return err
		}
		maxOrder := -1
		if err := tx.Model(&models.Goal{}).Where("skill_id = ?", skillID).
			Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		var err error
		goal, err = createGoal(tx, userID, skillID, maxOrder+1, req, false)
		if err != nil {
			return err
		}
		return s.recalc.Goal(tx, goal.ID)
	})
	if err != nil {
		return models.GoalDTO{}, err
	}
	return s.Get(ctx, userID, skillID, goal.ID)
}

// Update applies the fields present in req and recomputes the owning skill.
// A manual switch to completed also pins the goal at 100%.
func (s *GoalService) Update(ctx context.Context, userID, skillID, goalID uint, req models.UpdateGoalRequest) (models.GoalDTO, error) {
	if err := utils.Validate(req); err != nil {
		return models.GoalDTO{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		goal, err := ownedGoal(tx.Clauses(forUpdate()), userID, goalID)
		if err != nil {
			return err
		}
		if skillID != 0 && goal.SkillID != skillID {
			return utils.NotFoundError("goal")
		}

		now := s.clock.Now()
		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["title"] = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			updates["description"] = strings.TrimSpace(*req.Description)
		}
		if req.TargetHours != nil {
			updates["target_hours"] = *req.TargetHours
		}
		if req.TargetDate != nil {
			updates["target_date"] = *req.TargetDate
		}
		if req.SortOrder != nil {
			updates["sort_order"] = *req.SortOrder
		}
		if req.Status != nil {
			updates["status"] = *req.Status
			switch {
			case *req.Status == models.GoalStatusInProgress && goal.StartedAt == nil:
				updates["started_at"] = now
			case *req.Status == models.GoalStatusCompleted && goal.CompletedAt == nil:
				updates["completed_at"] = now
				updates["progress_percentage"] = 100.0
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&goal).Updates(updates).Error; err != nil {
				return fmt.Errorf("update goal: %w", err)
			}
		}
		return s.recalc.Skill(tx, goal.SkillID)
	})
	if err != nil {
		return models.GoalDTO{}, err
	}
	return s.Get(ctx, userID, skillID, goalID)
}

// Delete removes the goal and its milestones. Its logs stay on the skill
// without a goal.
func (s *GoalService) Delete(ctx context.Context, userID, skillID, goalID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		goal, err := ownedGoal(tx.Clauses(forUpdate()), userID, goalID)
		if err != nil {
			return err
		}
		if skillID != 0 && goal.SkillID != skillID {
			return utils.NotFoundError("goal")
		}

		milestoneIDs := tx.Model(&models.Milestone{}).Select("id").Where("goal_id = ?", goalID)
		if err := tx.Where("milestone_id IN (?)", milestoneIDs).Delete(&models.MilestoneCompletion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", goalID).Delete(&models.Milestone{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProgressLog{}).Where("goal_id = ?", goalID).Update("goal_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&goal).Error; err != nil {
			return err
		}
		return s.recalc.Skill(tx, goal.SkillID)
	})
}

// AddMilestone appends a milestone and recomputes the goal, which now has one
// more open milestone.
func (s *GoalService) AddMilestone(ctx context.Context, userID, goalID uint, req models.CreateMilestoneRequest) (models.GoalDTO, error) {
	if err := utils.Validate(req); err != nil {
		return models.GoalDTO{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedGoal(tx.Clauses(forUpdate()), userID, goalID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Milestone{}).Where("goal_id = ?", goalID).Count(&count).Error; err != nil {
			return err
		}
		m := models.Milestone{
			GoalID:      goalID,
			UserID:      userID,
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			Category:    req.Category,
			SortOrder:   int(count),
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("create milestone: %w", err)
		}
		return s.recalc.Goal(tx, goalID)
	})
	if err != nil {
		return models.GoalDTO{}, err
	}
	return s.Get(ctx, userID, 0, goalID)
}

func (s *GoalService) load(db *gorm.DB, userID, goalID uint) (models.Goal, error) {
	var goal models.Goal
	err := db.Preload("Skill").Preload("Milestones", orderMilestones).
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Goal{}, utils.NotFoundError("goal")
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("load goal %d: %w", goalID, err)
	}
	return goal, nil
}

func ownedGoal(db *gorm.DB, userID, goalID uint) (models.Goal, error) {
	var goal models.Goal
	err := db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Goal{}, utils.NotFoundError("goal")
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("load goal %d: %w", goalID, err)
	}
	return goal, nil
}

// createGoal inserts a pending goal with its milestones in request order.
func createGoal(tx *gorm.DB, userID, skillID uint, sortOrder int, req models.CreateGoalRequest, aiGenerated bool) (models.Goal, error) {
	goal := models.Goal{
		SkillID:       skillID,
		UserID:        userID,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		TargetHours:   req.TargetHours,
		TargetDate:    req.TargetDate,
		Status:        models.GoalStatusPending,
		SortOrder:     sortOrder,
		IsAiGenerated: aiGenerated,
	}
	for i, m := range req.Milestones {
		goal.Milestones = append(goal.Milestones, models.Milestone{
			UserID:        userID,
			Title:         strings.TrimSpace(m.Title),
			Description:   strings.TrimSpace(m.Description),
			Category:      m.Category,
			SortOrder:     i,
			IsAiGenerated: aiGenerated,
		})
	}
	if err := tx.Create(&goal).Error; err != nil {
		return models.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return goal, nil
}
