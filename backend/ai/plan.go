package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoJSON means the model answered without a JSON object in its text.
var ErrNoJSON = errors.New("no JSON object in model response")

type Clarification struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

type PlanRequest struct {
	GoalDescription   string          `json:"goal_description" validate:"required,max=1000"`
	TargetDate        *time.Time      `json:"target_date"`
	Frequency         string          `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
	HoursPerPeriod    *float64        `json:"hours_per_period" validate:"omitempty,gt=0"`
	PreferredTimeSlot string          `json:"preferred_time_slot"`
	Clarifications    []Clarification `json:"clarifications" validate:"max=5,dive"`
}

// SkillPlan is the shape the model is asked to produce. The camelCase tags
// match the prompt.
type SkillPlan struct {
	SkillName   string     `json:"skillName" validate:"required,max=200"`
	Description string     `json:"description"`
	BigGoal     string     `json:"bigGoal"`
	Category    string     `json:"category"`
	Goals       []GoalPlan `json:"goals" validate:"dive"`
}

type GoalPlan struct {
	Title       string   `json:"title" validate:"required,max=300"`
	Description string   `json:"description"`
	WeekNumber  int      `json:"weekNumber"`
	Milestones  []string `json:"milestones" validate:"dive,required,max=300"`
}

// PlanResponse is either a clarification question or a finished plan.
type PlanResponse struct {
	NeedsClarification    bool       `json:"needs_clarification"`
	ClarificationQuestion string     `json:"clarification_question,omitempty"`
	Plan                  *SkillPlan `json:"plan,omitempty"`
}

type RefineGoalRequest struct {
	Instruction string   `json:"instruction" validate:"required,max=1000"`
	Goal        GoalPlan `json:"goal"`
}

type ApplyPlanRequest struct {
	Plan       SkillPlan  `json:"plan"`
	TargetDate *time.Time `json:"target_date"`
}

var vagueTerms = []string{"learn", "get better at", "improve", "master", "understand"}

// MaxClarifications is how many questions are asked before a plan is forced.
const MaxClarifications = 2

// NeedsClarification reports whether the description is too vague to plan
// from: fewer than five words, or a vague verb with no clarifications yet.
func NeedsClarification(req PlanRequest) bool {
	if len(req.Clarifications) >= MaxClarifications {
		return false
	}
	goal := strings.ToLower(req.GoalDescription)
	if len(strings.Fields(goal)) < 5 {
		return true
	}
	if len(req.Clarifications) > 0 {
		return false
	}
	for _, term := range vagueTerms {
		if strings.Contains(goal, term) {
			return true
		}
	}
	return false
}

// ExtractJSON cuts the text between the first '{' and the last '}'.
// Models like to wrap JSON in markdown fences or prose.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

func ParsePlan(text string) (SkillPlan, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return SkillPlan{}, err
	}
	var plan SkillPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return SkillPlan{}, fmt.Errorf("parse plan: %w", err)
	}
	if strings.TrimSpace(plan.SkillName) == "" {
		return SkillPlan{}, fmt.Errorf("parse plan: missing skill name")
	}
	return plan, nil
}

func ParseGoal(text string) (GoalPlan, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return GoalPlan{}, err
	}
	var goal GoalPlan
	if err := json.Unmarshal([]byte(raw), &goal); err != nil {
		return GoalPlan{}, fmt.Errorf("parse goal: %w", err)
	}
	if strings.TrimSpace(goal.Title) == "" {
		return GoalPlan{}, fmt.Errorf("parse goal: missing title")
	}
	return goal, nil
}
