package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skilltracker/backend/ai"
	"skilltracker/backend/models"
	"skilltracker/backend/utils"
)

const planReply = "```json\n" + `{
  "skillName": "Guitar",
  "description": "Acoustic basics",
  "bigGoal": "Play three songs at a party",
  "category": "music",
  "goals": [
    {"title": "Week 1: Chords", "description": "Open chords", "weekNumber": 1, "milestones": ["G", "C", "D"]},
    {"title": "Week 2: Strumming", "weekNumber": 2, "milestones": ["Down strokes", "Up strokes"]}
  ]
}` + "\n```"

func TestGeneratePlanAsksForClarificationFirst(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	f.gen.replies = []string{"  What kind of music do you like?  "}

	resp, err := f.plans.Generate(f.ctx, uid, ai.PlanRequest{GoalDescription: "Learn guitar"})
	require.NoError(t, err)
	assert.True(t, resp.NeedsClarification)
	assert.Equal(t, "What kind of music do you like?", resp.ClarificationQuestion)
	assert.Nil(t, resp.Plan)

	var rows []models.AiGeneratedPlan
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AiPlanStatusPending, rows[0].Status)
	assert.Empty(t, rows[0].Response)
}

func TestGeneratePlanReturnsPlan(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	f.gen.replies = []string{planReply}

	req := ai.PlanRequest{
		GoalDescription: "Learn guitar",
		Clarifications: []ai.Clarification{
			{Question: "Level?", Answer: "Beginner"},
			{Question: "Style?", Answer: "Folk"},
		},
	}
	resp, err := f.plans.Generate(f.ctx, uid, req)
	require.NoError(t, err)
	assert.False(t, resp.NeedsClarification)
	require.NotNil(t, resp.Plan)
	assert.Equal(t, "Guitar", resp.Plan.SkillName)
	require.Len(t, f.gen.prompts, 1)
	assert.Contains(t, f.gen.prompts[0], "A: Folk")

	var row models.AiGeneratedPlan
	require.NoError(t, f.db.First(&row).Error)
	assert.Equal(t, models.AiPlanStatusCompleted, row.Status)
	var stored ai.SkillPlan
	require.NoError(t, json.Unmarshal(row.Response, &stored))
	assert.Equal(t, "Guitar", stored.SkillName)
	var clarifications []ai.Clarification
	require.NoError(t, json.Unmarshal(row.Clarifications, &clarifications))
	assert.Len(t, clarifications, 2)
}

func TestGeneratePlanFailuresAreAIUnavailable(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	specific := ai.PlanRequest{GoalDescription: "Run a half marathon in under two hours"}

	f.gen.err = errors.New("connection refused")
	_, err := f.plans.Generate(f.ctx, uid, specific)
	assert.ErrorIs(t, err, utils.ErrAIUnavailable)

	f.gen.err = nil
	f.gen.replies = []string{"Sorry, I cannot help with that."}
	_, err = f.plans.Generate(f.ctx, uid, specific)
	assert.ErrorIs(t, err, utils.ErrAIUnavailable)

	unconfigured := NewAiPlanService(f.db, utils.NopLogger(), f.clock, nil)
	_, err = unconfigured.Generate(f.ctx, uid, specific)
	assert.ErrorIs(t, err, utils.ErrAIUnavailable)

	_, err = f.plans.Generate(f.ctx, uid, ai.PlanRequest{})
	assertValidation(t, err, "goal_description")

	var count int64
	require.NoError(t, f.db.Model(&models.AiGeneratedPlan{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRefineGoal(t *testing.T) {
	f := newFixture(t)
	f.gen.replies = []string{`{"title": "Week 1: Easy chords", "milestones": ["Em", "Am"]}`}

	goal, err := f.plans.Refine(f.ctx, ai.RefineGoalRequest{
		Instruction: "make it easier",
		Goal:        ai.GoalPlan{Title: "Week 1: Chords", WeekNumber: 1, Milestones: []string{"F", "Bm"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 1: Easy chords", goal.Title)
	assert.Equal(t, 1, goal.WeekNumber)
	assert.Equal(t, []string{"Em", "Am"}, goal.Milestones)

	_, err = f.plans.Refine(f.ctx, ai.RefineGoalRequest{Goal: ai.GoalPlan{Title: "x"}})
	assertValidation(t, err, "instruction")
}

func TestApplyPlan(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	plan, err := ai.ParsePlan(planReply)
	require.NoError(t, err)

	skill, err := f.plans.Apply(f.ctx, uid, ai.ApplyPlanRequest{Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, "Guitar", skill.Name)
	assert.Equal(t, models.SkillStatusInProgress, skill.Status)
	assert.Equal(t, models.VisibilityPrivate, skill.Visibility)
	require.NotNil(t, skill.Category)
	assert.Equal(t, "Music", skill.Category.Name)
	assert.Zero(t, skill.MasteryPercentage)

	goals, err := f.goals.ListBySkill(f.ctx, uid, skill.ID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Week 1: Chords", goals[0].Title)
	assert.Equal(t, "Week 2: Strumming", goals[1].Title)
	for i, g := range goals {
		assert.Equal(t, models.GoalStatusPending, g.Status)
		assert.True(t, g.IsAiGenerated)
		assert.Equal(t, i, g.SortOrder)
	}
	require.Len(t, goals[0].Milestones, 3)
	assert.Equal(t, "D", goals[0].Milestones[2].Title)
	assert.True(t, goals[0].Milestones[0].IsAiGenerated)
}

func TestApplyPlanUnknownCategory(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")

	skill, err := f.plans.Apply(f.ctx, uid, ai.ApplyPlanRequest{Plan: ai.SkillPlan{SkillName: "Juggling", Category: "Circus"}})
	require.NoError(t, err)
	assert.Nil(t, skill.Category)
	assert.Zero(t, skill.GoalsCount)

	_, err = f.plans.Apply(f.ctx, uid, ai.ApplyPlanRequest{Plan: ai.SkillPlan{Goals: []ai.GoalPlan{{Title: "x"}}}})
	assertValidation(t, err, "skillName")
}
