package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressLog is a dated time entry against a skill and, optionally, one of its goals.
// LogDate is always a UTC midnight.
type ProgressLog struct {
	gorm.Model
	UserID               uint  `gorm:"index;not null"`
	SkillID              uint  `gorm:"index;not null"`
	GoalID               *uint `gorm:"index"`
	Skill                *Skill
	Goal                 *Goal
	Title                string `gorm:"size:300"`
	Description          string
	HoursLogged          float64   `gorm:"not null"`
	LogDate              time.Time `gorm:"index;not null"`
	QualityRating        *int
	MilestoneCompletions []MilestoneCompletion
}

func (l ProgressLog) CompletedMilestoneIDs() []uint {
	ids := make([]uint, 0, len(l.MilestoneCompletions))
	for _, mc := range l.MilestoneCompletions {
		ids = append(ids, mc.MilestoneID)
	}
	return ids
}

// MilestoneCompletion records which log completed which milestone.
type MilestoneCompletion struct {
	gorm.Model
	ProgressLogID uint `gorm:"index;not null"`
	MilestoneID   uint `gorm:"index;not null"`
	CompletedAt   time.Time
}

// DailyStat is owned by the daily rollup; one row per user and date.
type DailyStat struct {
	gorm.Model
	UserID              uint      `gorm:"uniqueIndex:idx_daily_stats_user_date;not null"`
	StatDate            time.Time `gorm:"uniqueIndex:idx_daily_stats_user_date;not null"`
	TotalHoursLogged    float64
	SkillsPracticed     int
	GoalsCompleted      int
	MilestonesCompleted int
	LogsCount           int
}

const (
	AiPlanStatusPending   = "pending"
	AiPlanStatusCompleted = "completed"
)

// AiGeneratedPlan keeps every plan-generation attempt.
type AiGeneratedPlan struct {
	gorm.Model
	UserID              uint `gorm:"index;not null"`
	SkillID             *uint
	GoalDescription     string `gorm:"not null"`
	TargetDate          *time.Time
	DedicationFrequency string `gorm:"size:20"`
	DedicationHours     *float64
	PreferredTimeSlot   string `gorm:"size:50"`
	Clarifications      datatypes.JSON
	Response            datatypes.JSON
	Status              string `gorm:"size:20;default:pending"`
}
