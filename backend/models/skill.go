package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SkillStatusNotStarted = "not_started"
	SkillStatusInProgress = "in_progress"
	SkillStatusCompleted  = "completed"
	SkillStatusPaused     = "paused"

	GoalStatusPending    = "pending"
	GoalStatusInProgress = "in_progress"
	GoalStatusCompleted  = "completed"

	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Category groups skills (Programming, Languages, Music, ...).
type Category struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;size:100;not null"`
	Description string
	Icon        string `gorm:"size:50"`
	Color       string `gorm:"size:20"`
	IsSystem    bool
}

// SystemCategories are seeded on migrate. The AI plan prompt offers the same names.
var SystemCategories = []Category{
	{Name: "Programming", Icon: "code", Color: "#3b82f6", IsSystem: true},
	{Name: "Languages", Icon: "translate", Color: "#10b981", IsSystem: true},
	{Name: "Music", Icon: "music", Color: "#8b5cf6", IsSystem: true},
	{Name: "Art & Design", Icon: "palette", Color: "#ec4899", IsSystem: true},
	{Name: "Business", Icon: "briefcase", Color: "#f59e0b", IsSystem: true},
	{Name: "Health & Fitness", Icon: "heart", Color: "#ef4444", IsSystem: true},
	{Name: "Personal Development", Icon: "user", Color: "#14b8a6", IsSystem: true},
	{Name: "Academic", Icon: "book", Color: "#6366f1", IsSystem: true},
	{Name: "Other", Icon: "star", Color: "#6b7280", IsSystem: true},
}

type Skill struct {
	gorm.Model
	UserID            uint `gorm:"index;not null"`
	CategoryID        *uint
	Category          *Category
	Name              string `gorm:"size:200;not null"`
	Description       string
	BigGoal           string
	MasteryPercentage float64
	TotalHoursLogged  float64
	TargetHours       *float64
	Visibility        string  `gorm:"size:20;default:private"`
	PublicSlug        *string `gorm:"uniqueIndex;size:100"`
	TargetDate        *time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	Status            string `gorm:"size:30;default:not_started"`
	Icon              string `gorm:"size:50"`
	Color             string `gorm:"size:20"`
	Goals             []Goal
	ProgressLogs      []ProgressLog
	Schedule          *SkillSchedule
}

func (s Skill) IsPublic() bool {
	return s.Visibility == VisibilityPublic
}

type Goal struct {
	gorm.Model
	SkillID            uint `gorm:"index;not null"`
	UserID             uint `gorm:"index;not null"`
	Skill              *Skill
	Title              string `gorm:"size:300;not null"`
	Description        string
	ProgressPercentage float64
	TargetHours        *float64
	LoggedHours        float64
	TargetDate         *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CompletedByLogID   *uint  `gorm:"index"` // лог, после которого цель выполнена
	Status             string `gorm:"size:30;default:pending"`
	Priority           int
	SortOrder          int
	IsAiGenerated      bool
	Milestones         []Milestone
	ProgressLogs       []ProgressLog
}

func (g Goal) CompletedMilestones() int {
	n := 0
	for _, m := range g.Milestones {
		if m.IsCompleted {
			n++
		}
	}
	return n
}

type Milestone struct {
	gorm.Model
	GoalID        uint   `gorm:"index;not null"`
	UserID        uint   `gorm:"index;not null"`
	Title         string `gorm:"size:300;not null"`
	Description   string
	Category      string `gorm:"size:100"`
	IsCompleted   bool
	CompletedAt   *time.Time
	SortOrder     int
	IsAiGenerated bool
}

type SkillSchedule struct {
	gorm.Model
	SkillID           uint    `gorm:"uniqueIndex;not null"`
	Frequency         string  `gorm:"size:20;default:weekly"`
	HoursPerPeriod    float64 `gorm:"default:5"`
	PreferredTimeSlot string  `gorm:"size:20;default:any"`
	Days              []ScheduleDay
}

type ScheduleDay struct {
	gorm.Model
	SkillScheduleID uint   `gorm:"index;not null"`
	DayOfWeek       string `gorm:"size:20;not null"`
	StartTime       string `gorm:"size:5"` // HH:MM
	EndTime         string `gorm:"size:5"`
	Label           string `gorm:"size:100"`
}
