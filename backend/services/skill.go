package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/utils"
)

type SkillService struct {
	db     *gorm.DB
	log    *utils.Logger
	clock  progress.Clock
	recalc *Recalculator
}

func NewSkillService(db *gorm.DB, log *utils.Logger, clock progress.Clock) *SkillService {
	if clock == nil {
		clock = progress.SystemClock
	}
	return &SkillService{
		db:     db,
		log:    log.With("service", "SkillService"),
		clock:  clock,
		recalc: NewRecalculator(clock),
	}
}

type SkillFilter struct {
	Visibility string
	Status     string
}

func orderGoals(db *gorm.DB) *gorm.DB      { return db.Order("sort_order, id") }
func orderMilestones(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }
func orderLogs(db *gorm.DB) *gorm.DB       { return db.Order("log_date DESC, created_at DESC") }

func (s *SkillService) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

// List returns the user's skills, most recently updated first.
func (s *SkillService) List(ctx context.Context, userID uint, filter SkillFilter) ([]models.SkillDTO, error) {
	owner, err := s.owner(ctx, userID)
	if err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Preload("Category").Preload("Goals").Where("user_id = ?", userID)
	if filter.Visibility != "" {
		query = query.Where("visibility = ?", filter.Visibility)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var skills []models.Skill
	if err := query.Order("updated_at DESC").Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	out := make([]models.SkillDTO, 0, len(skills))
	for _, sk := range skills {
		out = append(out, skillDTO(sk, owner))
	}
	return out, nil
}

// Get returns one of the user's own skills.
func (s *SkillService) Get(ctx context.Context, userID, skillID uint) (models.SkillDTO, error) {
	skill, err := s.load(s.db.WithContext(ctx), skillID)
	if err != nil {
		return models.SkillDTO{}, err
	}
	if skill.UserID != userID {
		return models.SkillDTO{}, utils.NotFoundError("skill")
	}
	return s.withOwner(ctx, skill)
}

// GetDetails is Get that also admits public skills of other users. viewerID may be 0.
func (s *SkillService) GetDetails(ctx context.Context, viewerID, skillID uint) (models.SkillDTO, error) {
	skill, err := s.load(s.db.WithContext(ctx), skillID)
	if err != nil {
		return models.SkillDTO{}, err
	}
	if skill.UserID != viewerID && !skill.IsPublic() {
		return models.SkillDTO{}, utils.NotFoundError("skill")
	}
	return s.withOwner(ctx, skill)
}

func (s *SkillService) GetPublicBySlug(ctx context.Context, slug string) (models.SkillDTO, error) {
	var skill models.Skill
	err := s.db.WithContext(ctx).
		Where("public_slug = ? AND visibility = ?", strings.TrimSpace(slug), models.VisibilityPublic).
		First(&skill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SkillDTO{}, utils.NotFoundError("skill")
	}
	if err != nil {
		return models.SkillDTO{}, err
	}
	full, err := s.load(s.db.WithContext(ctx), skill.ID)
	if err != nil {
		return models.SkillDTO{}, err
	}
	return s.withOwner(ctx, full)
}

// Explore pages through every public skill whose name contains query.
func (s *SkillService) Explore(ctx context.Context, query string, page, pageSize int) ([]models.SkillDTO, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	base := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&models.Skill{}).Where("visibility = ?", models.VisibilityPublic)
		if q := strings.TrimSpace(query); q != "" {
			db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		}
		return db
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var skills []models.Skill
	if err := base().Preload("Category").Preload("Goals").
		Order("mastery_percentage DESC, updated_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&skills).Error; err != nil {
		return nil, 0, err
	}

	owners := map[uint]models.User{}
	out := make([]models.SkillDTO, 0, len(skills))
	for _, sk := range skills {
		owner, ok := owners[sk.UserID]
		if !ok {
			if err := s.db.WithContext(ctx).First(&owner, sk.UserID).Error; err != nil {
				return nil, 0, err
			}
			owners[sk.UserID] = owner
		}
		out = append(out, skillDTO(sk, owner))
	}
	return out, total, nil
}

// Create stores the skill with its optional schedule and nested goals.
func (s *SkillService) Create(ctx context.Context, userID uint, req models.CreateSkillRequest) (models.SkillDTO, error) {
	if err := utils.Validate(req); err != nil {
		return models.SkillDTO{}, err
	}
	now := s.clock.Now()
	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	skill := models.Skill{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		BigGoal:     strings.TrimSpace(req.BigGoal),
		TargetHours: req.TargetHours,
		TargetDate:  req.TargetDate,
		Visibility:  visibility,
		Icon:        req.Icon,
		Color:       req.Color,
		Status:      models.SkillStatusInProgress,
		StartedAt:   &now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, req.CategoryID); err != nil {
			return err
		}
		if visibility == models.VisibilityPublic {
			slug, err := uniqueSlug(tx, skill.Name)
			if err != nil {
				return err
			}
			skill.PublicSlug = &slug
		}
		if err := tx.Create(&skill).Error; err != nil {
			return fmt.Errorf("create skill: %w", err)
		}
		if req.Schedule != nil {
			if err := createSchedule(tx, skill.ID, *req.Schedule); err != nil {
				return err
			}
		}
		for i, g := range req.Goals {
			if _, err := createGoal(tx, userID, skill.ID, i, g, false); err != nil {
				return err
			}
		}
		if len(req.Goals) > 0 {
			return s.recalc.Skill(tx, skill.ID)
		}
		return nil
	})
	if err != nil {
		return models.SkillDTO{}, err
	}

	s.log.Info("Skill created", "user_id", userID, "skill_id", skill.ID)
	return s.Get(ctx, userID, skill.ID)
}

// Update applies the fields present in req. Switching to public assigns a slug
// once; switching to completed stamps CompletedAt once.
func (s *SkillService) Update(ctx context.Context, userID, skillID uint, req models.UpdateSkillRequest) (models.SkillDTO, error) {
	if err := utils.Validate(req); err != nil {
		return models.SkillDTO{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := ownedSkill(tx.Clauses(forUpdate()), userID, skillID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		recompute := false
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			updates["description"] = strings.TrimSpace(*req.Description)
		}
		if req.BigGoal != nil {
			updates["big_goal"] = strings.TrimSpace(*req.BigGoal)
		}
		if req.CategoryID != nil {
			if err := checkCategory(tx, req.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *req.CategoryID
		}
		if req.TargetHours != nil {
			updates["target_hours"] = *req.TargetHours
			recompute = true
		}
		if req.TargetDate != nil {
			updates["target_date"] = *req.TargetDate
		}
		if req.Icon != nil {
			updates["icon"] = *req.Icon
		}
		if req.Color != nil {
			updates["color"] = *req.Color
		}
		if req.Visibility != nil {
			updates["visibility"] = *req.Visibility
			if *req.Visibility == models.VisibilityPublic && skill.PublicSlug == nil {
				name := skill.Name
				if req.Name != nil {
					name = *req.Name
				}
				slug, err := uniqueSlug(tx, name)
				if err != nil {
					return err
				}
				updates["public_slug"] = slug
			}
		}
		if req.Status != nil {
			updates["status"] = *req.Status
			if *req.Status == models.SkillStatusCompleted && skill.CompletedAt == nil {
				updates["completed_at"] = s.clock.Now()
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&skill).Updates(updates).Error; err != nil {
				return fmt.Errorf("update skill: %w", err)
			}
		}
		if recompute {
			return s.recalc.Skill(tx, skillID)
		}
		return nil
	})
	if err != nil {
		return models.SkillDTO{}, err
	}
	return s.Get(ctx, userID, skillID)
}

// Delete removes the skill with its goals, milestones, schedule and logs, then
// rebuilds the daily stats of every date that lost a log.
func (s *SkillService) Delete(ctx context.Context, userID, skillID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := ownedSkill(tx.Clauses(forUpdate()), userID, skillID)
		if err != nil {
			return err
		}

		var logs []models.ProgressLog
		if err := tx.Where("skill_id = ?", skillID).Find(&logs).Error; err != nil {
			return err
		}
		dates := map[time.Time]struct{}{}
		logIDs := make([]uint, 0, len(logs))
		for _, l := range logs {
			dates[progress.DateOf(l.LogDate)] = struct{}{}
			logIDs = append(logIDs, l.ID)
		}

		goalIDs := tx.Model(&models.Goal{}).Select("id").Where("skill_id = ?", skillID)
		if len(logIDs) > 0 {
			if err := tx.Where("progress_log_id IN ?", logIDs).Delete(&models.MilestoneCompletion{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", logIDs).Delete(&models.ProgressLog{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("goal_id IN (?)", goalIDs).Delete(&models.Milestone{}).Error; err != nil {
			return err
		}
		if err := tx.Where("skill_id = ?", skillID).Delete(&models.Goal{}).Error; err != nil {
			return err
		}
		scheduleIDs := tx.Model(&models.SkillSchedule{}).Select("id").Where("skill_id = ?", skillID)
		if err := tx.Where("skill_schedule_id IN (?)", scheduleIDs).Delete(&models.ScheduleDay{}).Error; err != nil {
			return err
		}
		if err := tx.Where("skill_id = ?", skillID).Delete(&models.SkillSchedule{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&skill).Error; err != nil {
			return err
		}

		for d := range dates {
			if err := s.recalc.Day(tx, userID, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("Skill deleted", "user_id", userID, "skill_id", skillID)
	return nil
}

func (s *SkillService) load(db *gorm.DB, skillID uint) (models.Skill, error) {
	var skill models.Skill
	err := db.Preload("Category").
		Preload("Goals", orderGoals).
		Preload("Goals.Milestones", orderMilestones).
		Preload("ProgressLogs", orderLogs).
		Preload("ProgressLogs.MilestoneCompletions").
		Preload("ProgressLogs.Goal").
		Preload("Schedule.Days").
		First(&skill, skillID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Skill{}, utils.NotFoundError("skill")
	}
	if err != nil {
		return models.Skill{}, fmt.Errorf("load skill %d: %w", skillID, err)
	}
	return skill, nil
}

func (s *SkillService) owner(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, utils.NotFoundError("user")
	}
	return user, err
}

func (s *SkillService) withOwner(ctx context.Context, skill models.Skill) (models.SkillDTO, error) {
	owner, err := s.owner(ctx, skill.UserID)
	if err != nil {
		return models.SkillDTO{}, err
	}
	dto := skillDTO(skill, owner)
	dto.Logs = make([]models.ProgressLogDTO, 0, len(skill.ProgressLogs))
	for _, l := range skill.ProgressLogs {
		l.Skill = &models.Skill{Name: skill.Name}
		dto.Logs = append(dto.Logs, models.NewProgressLogDTO(l))
	}
	return dto, nil
}

// ownedSkill loads a skill only if it belongs to userID; anything else is "not found".
func ownedSkill(db *gorm.DB, userID, skillID uint) (models.Skill, error) {
	var skill models.Skill
	err := db.Where("id = ? AND user_id = ?", skillID, userID).First(&skill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Skill{}, utils.NotFoundError("skill")
	}
	if err != nil {
		return models.Skill{}, fmt.Errorf("load skill %d: %w", skillID, err)
	}
	return skill, nil
}

func checkCategory(tx *gorm.DB, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return utils.NewValidationError("category_id", "unknown category")
	}
	return nil
}

func createSchedule(tx *gorm.DB, skillID uint, req models.ScheduleRequest) error {
	schedule := models.SkillSchedule{
		SkillID:           skillID,
		Frequency:         req.Frequency,
		HoursPerPeriod:    req.HoursPerPeriod,
		PreferredTimeSlot: req.PreferredTimeSlot,
	}
	if schedule.Frequency == "" {
		schedule.Frequency = "weekly"
	}
	if schedule.PreferredTimeSlot == "" {
		schedule.PreferredTimeSlot = "any"
	}
	for _, d := range req.Days {
		schedule.Days = append(schedule.Days, models.ScheduleDay{
			DayOfWeek: d.DayOfWeek,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			Label:     strings.TrimSpace(d.Label),
		})
	}
	if err := tx.Create(&schedule).Error; err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func skillDTO(skill models.Skill, owner models.User) models.SkillDTO {
	dto := models.SkillDTO{
		ID:                skill.ID,
		UserID:            skill.UserID,
		OwnerName:         owner.FullName(),
		Name:              skill.Name,
		Description:       skill.Description,
		BigGoal:           skill.BigGoal,
		MasteryPercentage: skill.MasteryPercentage,
		TotalHoursLogged:  skill.TotalHoursLogged,
		TargetHours:       skill.TargetHours,
		Visibility:        skill.Visibility,
		PublicSlug:        skill.PublicSlug,
		TargetDate:        skill.TargetDate,
		Status:            skill.Status,
		Icon:              skill.Icon,
		Color:             skill.Color,
		GoalsCount:        len(skill.Goals),
		LogsCount:         len(skill.ProgressLogs),
	}
	if skill.Category != nil {
		c := models.NewCategoryDTO(*skill.Category)
		dto.Category = &c
	}
	for _, g := range skill.Goals {
		if g.Status == models.GoalStatusCompleted {
			dto.CompletedGoalsCount++
		}
	}
	return dto
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)

// slugify lowercases s, turns spaces and underscores into hyphens and drops
// everything outside [a-z0-9-].
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	return slugInvalid.ReplaceAllString(s, "")
}

func uniqueSlug(tx *gorm.DB, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "skill"
	}
	for attempt := 0; attempt < 5; attempt++ {
		slug := fmt.Sprintf("%s-%d", base, 1000+rand.Intn(9000))
		var count int64
		if err := tx.Unscoped().Model(&models.Skill{}).Where("public_slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
	}
	return "", fmt.Errorf("could not allocate a public slug for %q", name)
}

// NormalizePage clamps paging input: page starts at 1, page size defaults to 10 and is capped at 100.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// dashboardFor loads everything BuildDashboard needs for one user.
func dashboardFor(db *gorm.DB, userID uint, today time.Time) (progress.DashboardStats, error) {
	var skills []models.Skill
	if err := db.Where("user_id = ?", userID).Find(&skills).Error; err != nil {
		return progress.DashboardStats{}, err
	}
	var goals []models.Goal
	if err := db.Where("user_id = ?", userID).Find(&goals).Error; err != nil {
		return progress.DashboardStats{}, err
	}
	var logs []models.ProgressLog
	if err := db.Select("id", "log_date", "hours_logged").Where("user_id = ?", userID).Find(&logs).Error; err != nil {
		return progress.DashboardStats{}, err
	}
	return progress.BuildDashboard(skills, goals, logs, today), nil
}
