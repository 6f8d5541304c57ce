package models

import "time"

// ---- auth ----

type RegisterRequest struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	RememberMe bool   `json:"remember_me"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User         UserDTO   `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserDTO struct {
	ID              uint   `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	FullName        string `json:"full_name"`
	Initials        string `json:"initials"`
	JobTitle        string `json:"job_title,omitempty"`
	Bio             string `json:"bio,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	ThemePreference string `json:"theme_preference"`
}

func NewUserDTO(u User) UserDTO {
	return UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		Initials:        u.Initials(),
		JobTitle:        u.JobTitle,
		Bio:             u.Bio,
		AvatarURL:       u.AvatarURL,
		ThemePreference: u.ThemePreference,
	}
}

// ---- profile ----

type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	JobTitle        *string `json:"job_title" validate:"omitempty,max=150"`
	Bio             *string `json:"bio"`
	ThemePreference *string `json:"theme_preference" validate:"omitempty,oneof=light dark system"`
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required,eqfield=NewPassword"`
}

type SharingSettingsDTO struct {
	IsProfilePublic bool    `json:"is_profile_public"`
	PublicUsername  *string `json:"public_username" validate:"omitempty,min=3,max=50"`
	ShowSkills      bool    `json:"show_skills"`
	ShowProgress    bool    `json:"show_progress"`
	ShowGoals       bool    `json:"show_goals"`
	ShowStatistics  bool    `json:"show_statistics"`
}

func NewSharingSettingsDTO(s UserSharingSettings) SharingSettingsDTO {
	return SharingSettingsDTO{
		IsProfilePublic: s.IsProfilePublic,
		PublicUsername:  s.PublicUsername,
		ShowSkills:      s.ShowSkills,
		ShowProgress:    s.ShowProgress,
		ShowGoals:       s.ShowGoals,
		ShowStatistics:  s.ShowStatistics,
	}
}

// ---- skills ----

type CategoryDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	IsSystem    bool   `json:"is_system"`
}

func NewCategoryDTO(c Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
		IsSystem:    c.IsSystem,
	}
}

type SkillDTO struct {
	ID                  uint             `json:"id"`
	UserID              uint             `json:"user_id"`
	OwnerName           string           `json:"owner_name"`
	Name                string           `json:"name"`
	Description         string           `json:"description,omitempty"`
	BigGoal             string           `json:"big_goal,omitempty"`
	MasteryPercentage   float64          `json:"mastery_percentage"`
	TotalHoursLogged    float64          `json:"total_hours_logged"`
	TargetHours         *float64         `json:"target_hours"`
	Visibility          string           `json:"visibility"`
	PublicSlug          *string          `json:"public_slug,omitempty"`
	TargetDate          *time.Time       `json:"target_date,omitempty"`
	Status              string           `json:"status"`
	Icon                string           `json:"icon,omitempty"`
	Color               string           `json:"color,omitempty"`
	Category            *CategoryDTO     `json:"category,omitempty"`
	GoalsCount          int              `json:"goals_count"`
	CompletedGoalsCount int              `json:"completed_goals_count"`
	LogsCount           int              `json:"logs_count"`
	Logs                []ProgressLogDTO `json:"logs,omitempty"`
}

type ScheduleDayRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Label     string `json:"label" validate:"max=100"`
}

type ScheduleRequest struct {
	Frequency         string               `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
	HoursPerPeriod    float64              `json:"hours_per_period" validate:"gte=0"`
	PreferredTimeSlot string               `json:"preferred_time_slot" validate:"omitempty,oneof=any morning afternoon evening night"`
	Days              []ScheduleDayRequest `json:"days" validate:"dive"`
}

type CreateSkillRequest struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Description string              `json:"description"`
	BigGoal     string              `json:"big_goal"`
	CategoryID  *uint               `json:"category_id"`
	TargetHours *float64            `json:"target_hours" validate:"omitempty,gte=0"`
	TargetDate  *time.Time          `json:"target_date"`
	Visibility  string              `json:"visibility" validate:"omitempty,oneof=private public"`
	Icon        string              `json:"icon" validate:"max=50"`
	Color       string              `json:"color" validate:"max=20"`
	Schedule    *ScheduleRequest    `json:"schedule"`
	Goals       []CreateGoalRequest `json:"goals" validate:"dive"`
}

type UpdateSkillRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description"`
	BigGoal     *string    `json:"big_goal"`
	CategoryID  *uint      `json:"category_id"`
	TargetHours *float64   `json:"target_hours" validate:"omitempty,gte=0"`
	TargetDate  *time.Time `json:"target_date"`
	Visibility  *string    `json:"visibility" validate:"omitempty,oneof=private public"`
	Status      *string    `json:"status" validate:"omitempty,oneof=not_started in_progress completed paused"`
	Icon        *string    `json:"icon" validate:"omitempty,max=50"`
	Color       *string    `json:"color" validate:"omitempty,max=20"`
}

// ---- goals ----

type MilestoneDTO struct {
	ID            uint       `json:"id"`
	GoalID        uint       `json:"goal_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category,omitempty"`
	IsCompleted   bool       `json:"is_completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	IsAiGenerated bool       `json:"is_ai_generated"`
}

func NewMilestoneDTO(m Milestone) MilestoneDTO {
	return MilestoneDTO{
		ID:            m.ID,
		GoalID:        m.GoalID,
		Title:         m.Title,
		Description:   m.Description,
		Category:      m.Category,
		IsCompleted:   m.IsCompleted,
		CompletedAt:   m.CompletedAt,
		IsAiGenerated: m.IsAiGenerated,
	}
}

type GoalDTO struct {
	ID                       uint           `json:"id"`
	SkillID                  uint           `json:"skill_id"`
	SkillName                string         `json:"skill_name"`
	Title                    string         `json:"title"`
	Description              string         `json:"description,omitempty"`
	ProgressPercentage       float64        `json:"progress_percentage"`
	TargetHours              *float64       `json:"target_hours"`
	LoggedHours              float64        `json:"logged_hours"`
	TargetDate               *time.Time     `json:"target_date,omitempty"`
	Status                   string         `json:"status"`
	CompletedAt              *time.Time     `json:"completed_at,omitempty"`
	SortOrder                int            `json:"sort_order"`
	IsAiGenerated            bool           `json:"is_ai_generated"`
	MilestonesCount          int            `json:"milestones_count"`
	CompletedMilestonesCount int            `json:"completed_milestones_count"`
	Milestones               []MilestoneDTO `json:"milestones"`
}

func NewGoalDTO(g Goal) GoalDTO {
	dto := GoalDTO{
		ID:                       g.ID,
		SkillID:                  g.SkillID,
		Title:                    g.Title,
		Description:              g.Description,
		ProgressPercentage:       g.ProgressPercentage,
		TargetHours:              g.TargetHours,
		LoggedHours:              g.LoggedHours,
		TargetDate:               g.TargetDate,
		Status:                   g.Status,
		CompletedAt:              g.CompletedAt,
		SortOrder:                g.SortOrder,
		IsAiGenerated:            g.IsAiGenerated,
		MilestonesCount:          len(g.Milestones),
		CompletedMilestonesCount: g.CompletedMilestones(),
		Milestones:               make([]MilestoneDTO, 0, len(g.Milestones)),
	}
	if g.Skill != nil {
		dto.SkillName = g.Skill.Name
	}
	for _, m := range g.Milestones {
		dto.Milestones = append(dto.Milestones, NewMilestoneDTO(m))
	}
	return dto
}

type CreateMilestoneRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"max=100"`
}

type CreateGoalRequest struct {
	Title       string                   `json:"title" validate:"required,max=300"`
	Description string                   `json:"description"`
	TargetHours *float64                 `json:"target_hours" validate:"omitempty,gte=0"`
	TargetDate  *time.Time               `json:"target_date"`
	Milestones  []CreateMilestoneRequest `json:"milestones" validate:"dive"`
}

type UpdateGoalRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string    `json:"description"`
	TargetHours *float64   `json:"target_hours" validate:"omitempty,gte=0"`
	TargetDate  *time.Time `json:"target_date"`
	Status      *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	SortOrder   *int       `json:"sort_order" validate:"omitempty,gte=0"`
}

// ---- progress logs ----

type ProgressLogDTO struct {
	ID                    uint      `json:"id"`
	SkillID               uint      `json:"skill_id"`
	SkillName             string    `json:"skill_name"`
	GoalID                *uint     `json:"goal_id"`
	GoalTitle             string    `json:"goal_title,omitempty"`
	Title                 string    `json:"title,omitempty"`
	Description           string    `json:"description,omitempty"`
	HoursLogged           float64   `json:"hours_logged"`
	LogDate               string    `json:"log_date"`
	QualityRating         *int      `json:"quality_rating"`
	CreatedAt             time.Time `json:"created_at"`
	CompletedMilestoneIDs []uint    `json:"completed_milestone_ids"`
}

const DateLayout = "2006-01-02"

func NewProgressLogDTO(l ProgressLog) ProgressLogDTO {
	dto := ProgressLogDTO{
		ID:                    l.ID,
		SkillID:               l.SkillID,
		GoalID:                l.GoalID,
		Title:                 l.Title,
		Description:           l.Description,
		HoursLogged:           l.HoursLogged,
		LogDate:               l.LogDate.UTC().Format(DateLayout),
		QualityRating:         l.QualityRating,
		CreatedAt:             l.CreatedAt,
		CompletedMilestoneIDs: l.CompletedMilestoneIDs(),
	}
	if l.Skill != nil {
		dto.SkillName = l.Skill.Name
	}
	if l.Goal != nil {
		dto.GoalTitle = l.Goal.Title
	}
	return dto
}

type CreateProgressLogRequest struct {
	SkillID               uint    `json:"skill_id" validate:"required"`
	GoalID                *uint   `json:"goal_id"`
	Title                 string  `json:"title" validate:"max=300"`
	Description           string  `json:"description"`
	HoursLogged           float64 `json:"hours_logged" validate:"gt=0,lte=24"`
	LogDate               string  `json:"log_date" validate:"required"`
	QualityRating         *int    `json:"quality_rating" validate:"omitempty,min=1,max=5"`
	CompletedMilestoneIDs []uint  `json:"completed_milestone_ids"`
}

type ProgressLogFilter struct {
	Page     int
	PageSize int
	SkillID  *uint
	GoalID   *uint
}

type DailyStatDTO struct {
	Date                string  `json:"date"`
	TotalHoursLogged    float64 `json:"total_hours_logged"`
	SkillsPracticed     int     `json:"skills_practiced"`
	GoalsCompleted      int     `json:"goals_completed"`
	MilestonesCompleted int     `json:"milestones_completed"`
	LogsCount           int     `json:"logs_count"`
}

func NewDailyStatDTO(s DailyStat) DailyStatDTO {
	return DailyStatDTO{
		Date:                s.StatDate.UTC().Format(DateLayout),
		TotalHoursLogged:    s.TotalHoursLogged,
		SkillsPracticed:     s.SkillsPracticed,
		GoalsCompleted:      s.GoalsCompleted,
		MilestonesCompleted: s.MilestonesCompleted,
		LogsCount:           s.LogsCount,
	}
}

// ---- public profile ----

type PublicProfileDTO struct {
	PublicUsername string      `json:"public_username"`
	FullName       string      `json:"full_name"`
	JobTitle       string      `json:"job_title,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	Skills         []SkillDTO  `json:"skills,omitempty"`
	Goals          []GoalDTO   `json:"goals,omitempty"`
	Statistics     interface{} `json:"statistics,omitempty"`
}
