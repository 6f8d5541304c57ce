package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"skilltracker/backend/ai"
	"skilltracker/backend/config"
	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/utils"
)

// Wednesday
var refNow = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	cfg    *config.Config
	clock  progress.Clock
	auth   *AuthService
	users  *UserService
	skills *SkillService
	goals  *GoalService
	logs   *ProgressLogService
	plans  *AiPlanService
	gen    *fakeGenerator
}

type fakeGenerator struct {
	replies []string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		DBDriver:        "sqlite",
		DBPath:          ":memory:",
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
	db, err := utils.InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	clock := progress.FixedClock(refNow)
	log := utils.NopLogger()
	gen := &fakeGenerator{}
	return &fixture{
		ctx:    context.Background(),
		db:     db,
		cfg:    cfg,
		clock:  clock,
		auth:   NewAuthService(db, log, cfg, clock),
		users:  NewUserService(db, log, clock),
		skills: NewSkillService(db, log, clock),
		goals:  NewGoalService(db, log, clock),
		logs:   NewProgressLogService(db, log, clock),
		plans:  NewAiPlanService(db, log, clock, gen),
		gen:    gen,
	}
}

func (f *fixture) user(t *testing.T, email string) uint {
	t.Helper()
	u, err := f.auth.Register(f.ctx, models.RegisterRequest{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           email,
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) skill(t *testing.T, userID uint, req models.CreateSkillRequest) models.SkillDTO {
	t.Helper()
	if req.Name == "" {
		req.Name = "Guitar"
	}
	s, err := f.skills.Create(f.ctx, userID, req)
	require.NoError(t, err)
	return s
}

func (f *fixture) goal(t *testing.T, userID, skillID uint, req models.CreateGoalRequest) models.GoalDTO {
	t.Helper()
	if req.Title == "" {
		req.Title = "Open chords"
	}
	g, err := f.goals.Create(f.ctx, userID, skillID, req)
	require.NoError(t, err)
	return g
}

func (f *fixture) reloadGoal(t *testing.T, id uint) models.Goal {
	t.Helper()
	var g models.Goal
	require.NoError(t, f.db.Preload("Milestones").First(&g, id).Error)
	return g
}

func (f *fixture) reloadSkill(t *testing.T, id uint) models.Skill {
	t.Helper()
	var s models.Skill
	require.NoError(t, f.db.First(&s, id).Error)
	return s
}

func (f *fixture) dailyStat(t *testing.T, userID uint, date string) models.DailyStat {
	t.Helper()
	d, err := time.Parse(models.DateLayout, date)
	require.NoError(t, err)
	var st models.DailyStat
	require.NoError(t, f.db.Where("user_id = ? AND stat_date = ?", userID, d).First(&st).Error)
	return st
}

func ptr[T any](v T) *T { return &v }

func assertValidation(t *testing.T, err error, fields ...string) {
	t.Helper()
	var verr *utils.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	for _, f := range fields {
		assert.Contains(t, verr.Fields, f)
	}
}

var _ ai.Generator = (*fakeGenerator)(nil)
