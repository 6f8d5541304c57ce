package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"skilltracker/backend/models"
)

func describe(req PlanRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: %s\n", req.GoalDescription)
	if req.TargetDate != nil {
		fmt.Fprintf(&sb, "Target date: %s\n", req.TargetDate.Format("January 2, 2006"))
	}
	if req.Frequency != "" {
		fmt.Fprintf(&sb, "Frequency: %s\n", req.Frequency)
	}
	if req.HoursPerPeriod != nil {
		fmt.Fprintf(&sb, "Hours per period: %g\n", *req.HoursPerPeriod)
	}
	for _, c := range req.Clarifications {
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", c.Question, c.Answer)
	}
	return sb.String()
}

func ClarificationPrompt(req PlanRequest) string {
	target := "Not specified"
	if req.TargetDate != nil {
		target = req.TargetDate.Format("January 2, 2006")
	}
	commitment := "Not specified"
	if req.HoursPerPeriod != nil {
		commitment = fmt.Sprintf("%g hours %s", *req.HoursPerPeriod, req.Frequency)
	}
	slot := req.PreferredTimeSlot
	if slot == "" {
		slot = "Any time"
	}
	return fmt.Sprintf(`You are helping create a personalized learning plan. The user wants to: "%s"

Target date: %s
Time commitment: %s
Preferred time: %s

This seems a bit vague. Ask ONE specific clarifying question to better understand their goal.
The question should help determine their current skill level, the sub-topics they care about,
how they plan to apply the skill, and any concrete project or outcome they want.

Respond with ONLY the question, nothing else. Keep it conversational and friendly.`,
		req.GoalDescription, target, commitment, slot)
}

func PlanPrompt(req PlanRequest) string {
	names := make([]string, 0, len(models.SystemCategories))
	for _, c := range models.SystemCategories {
		names = append(names, c.Name)
	}
	return fmt.Sprintf(`You are an expert learning coach. Create a structured learning plan based on the following:

%s
Generate a JSON response with this exact structure:
{
  "skillName": "A clear, concise name for this skill",
  "description": "A 1-2 sentence description of the skill",
  "bigGoal": "The main objective they want to achieve",
  "category": "One of: %s",
  "goals": [
    {
      "title": "Week 1: Goal title",
      "description": "Brief description of this goal",
      "weekNumber": 1,
      "milestones": ["Specific actionable milestone 1", "Specific actionable milestone 2", "Specific actionable milestone 3"]
    }
  ]
}

Create 4-8 weekly goals with 3-5 milestones each. Make milestones specific and actionable.
Respond with ONLY the JSON, no additional text.`,
		describe(req), strings.Join(names, ", "))
}

func RefinePrompt(instruction string, goal GoalPlan) (string, error) {
	current, err := json.Marshal(goal)
	if err != nil {
		return "", fmt.Errorf("marshal goal: %w", err)
	}
	return fmt.Sprintf(`You are an expert learning coach. The user wants to modify a specific goal in their learning plan.

Current Goal JSON:
%s

User Instruction: "%s"

Task: Update the goal title, description, and milestones based on the user's instruction. Keep the structure consistent.
Respond with ONLY the updated Goal JSON object.`, current, instruction), nil
}
