package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"skilltracker/backend/ai"
	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/utils"
)

// AiPlanService drafts learning plans with a Generator and turns accepted
// plans into skills. gen may be nil when no AI key is configured.
type AiPlanService struct {
	db     *gorm.DB
	log    *utils.Logger
	clock  progress.Clock
	gen    ai.Generator
	recalc *Recalculator
	skills *SkillService
}

func NewAiPlanService(db *gorm.DB, log *utils.Logger, clock progress.Clock, gen ai.Generator) *AiPlanService {
	if clock == nil {
		clock = progress.SystemClock
	}
	return &AiPlanService{
		db:     db,
		log:    log.With("service", "AiPlanService"),
		clock:  clock,
		gen:    gen,
		recalc: NewRecalculator(clock),
		skills: NewSkillService(db, log, clock),
	}
}

func (s *AiPlanService) generate(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", utils.AIUnavailable(errors.New("not configured"))
	}
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.log.Error("AI request failed", "error", err)
		return "", utils.AIUnavailable(err)
	}
	return text, nil
}

// Generate asks one clarifying question while the description is vague,
// otherwise drafts a full plan. Every attempt is recorded.
func (s *AiPlanService) Generate(ctx context.Context, userID uint, req ai.PlanRequest) (ai.PlanResponse, error) {
	if err := utils.Validate(req); err != nil {
		return ai.PlanResponse{}, err
	}

	if ai.NeedsClarification(req) {
		question, err := s.generate(ctx, ai.ClarificationPrompt(req))
		if err != nil {
			return ai.PlanResponse{}, err
		}
		if question = strings.TrimSpace(question); question != "" {
			if err := s.record(ctx, userID, req, nil); err != nil {
				return ai.PlanResponse{}, err
			}
			return ai.PlanResponse{NeedsClarification: true, ClarificationQuestion: question}, nil
		}
	}

	text, err := s.generate(ctx, ai.PlanPrompt(req))
	if err != nil {
		return ai.PlanResponse{}, err
	}
	plan, err := ai.ParsePlan(text)
	if err != nil {
		s.log.Warn("Unparseable plan from AI", "error", err)
		return ai.PlanResponse{}, utils.AIUnavailable(err)
	}
	if err := s.record(ctx, userID, req, &plan); err != nil {
		return ai.PlanResponse{}, err
	}
	return ai.PlanResponse{Plan: &plan}, nil
}

func (s *AiPlanService) record(ctx context.Context, userID uint, req ai.PlanRequest, plan *ai.SkillPlan) error {
	row := models.AiGeneratedPlan{
		UserID:              userID,
		GoalDescription:     req.GoalDescription,
		TargetDate:          req.TargetDate,
		DedicationFrequency: req.Frequency,
		DedicationHours:     req.HoursPerPeriod,
		PreferredTimeSlot:   req.PreferredTimeSlot,
		Status:              models.AiPlanStatusPending,
	}
	if len(req.Clarifications) > 0 {
		raw, err := json.Marshal(req.Clarifications)
		if err != nil {
			return err
		}
		row.Clarifications = datatypes.JSON(raw)
	}
	if plan != nil {
		raw, err := json.Marshal(plan)
		if err != nil {
			return err
		}
		row.Response = datatypes.JSON(raw)
		row.Status = models.AiPlanStatusCompleted
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save ai plan: %w", err)
	}
	return nil
}

// Refine rewrites one goal of a draft plan following a free-text instruction.
func (s *AiPlanService) Refine(ctx context.Context, req ai.RefineGoalRequest) (ai.GoalPlan, error) {
	if err := utils.Validate(req); err != nil {
		return ai.GoalPlan{}, err
	}
	prompt, err := ai.RefinePrompt(req.Instruction, req.Goal)
	if err != nil {
		return ai.GoalPlan{}, err
	}
	text, err := s.generate(ctx, prompt)
	if err != nil {
		return ai.GoalPlan{}, err
	}
	goal, err := ai.ParseGoal(text)
	if err != nil {
		return ai.GoalPlan{}, utils.AIUnavailable(err)
	}
	if goal.WeekNumber == 0 {
		goal.WeekNumber = req.Goal.WeekNumber
	}
	return goal, nil
}

// Apply creates the skill, its goals and their milestones from an accepted
// plan, in plan order, in one transaction.
func (s *AiPlanService) Apply(ctx context.Context, userID uint, req ai.ApplyPlanRequest) (models.SkillDTO, error) {
	if err := utils.Validate(req.Plan); err != nil {
		return models.SkillDTO{}, err
	}
	now := s.clock.Now()
	skill := models.Skill{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Plan.SkillName),
		Description: strings.TrimSpace(req.Plan.Description),
		BigGoal:     strings.TrimSpace(req.Plan.BigGoal),
		TargetDate:  req.TargetDate,
		Visibility:  models.VisibilityPrivate,
		Status:      models.SkillStatusInProgress,
		StartedAt:   &now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if name := strings.TrimSpace(req.Plan.Category); name != "" {
			var category models.Category
			err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&category).Error
			switch {
			case err == nil:
				skill.CategoryID = &category.ID
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		if err := tx.Create(&skill).Error; err != nil {
			return fmt.Errorf("create skill: %w", err)
		}
		for i, g := range req.Plan.Goals {
			goalReq := models.CreateGoalRequest{Title: g.Title, Description: g.Description}
			for _, m := range g.Milestones {
				goalReq.Milestones = append(goalReq.Milestones, models.CreateMilestoneRequest{Title: m})
			}
			if _, err := createGoal(tx, userID, skill.ID, i, goalReq, true); err != nil {
				return err
			}
		}
		return s.recalc.Skill(tx, skill.ID)
	})
	if err != nil {
		return models.SkillDTO{}, err
	}

	s.log.Info("AI plan applied", "user_id", userID, "skill_id", skill.ID, "goals", len(req.Plan.Goals))
	return s.skills.Get(ctx, userID, skill.ID)
}
