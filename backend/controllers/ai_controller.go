package controllers

import (
	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/ai"
	"skilltracker/backend/config"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

type AIController struct {
	Service *services.AiPlanService
	Cfg     *config.Config
}

func NewAIController(service *services.AiPlanService, cfg *config.Config) *AIController {
	return &AIController{Service: service, Cfg: cfg}
}

// GeneratePlan godoc
// @Summary Generate a learning plan
// @Description Either asks one clarifying question or returns a full skill plan. Nothing is saved as a skill until the plan is applied.
// @Tags ai
// @Accept json
// @Produce json
// @Param request body ai.PlanRequest true "Goal description and answers so far"
// @Success 200 {object} utils.SuccessResponse{data=ai.PlanResponse}
// @Failure 422 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/generate-plan [post]
func (ac *AIController) GeneratePlan(c *fiber.Ctx) error {
	var req ai.PlanRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	resp, err := ac.Service.Generate(c.UserContext(), utils.UserID(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, resp)
}

// RefineGoal godoc
// @Summary Rewrite one goal of a plan
// @Tags ai
// @Accept json
// @Produce json
// @Param request body ai.RefineGoalRequest true "Goal and instruction"
// @Success 200 {object} utils.SuccessResponse{data=ai.GoalPlan}
// @Failure 422 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/refine-goal [post]
func (ac *AIController) RefineGoal(c *fiber.Ctx) error {
	var req ai.RefineGoalRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	goal, err := ac.Service.Refine(c.UserContext(), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, goal)
}

// ApplyPlan сохраняет план как новый навык с целями и вехами
// @Summary Save a plan as a skill
// @Tags ai
// @Accept json
// @Produce json
// @Param request body ai.ApplyPlanRequest true "Plan to save"
// @Success 201 {object} utils.SuccessResponse{data=models.SkillDTO}
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/apply-plan [post]
func (ac *AIController) ApplyPlan(c *fiber.Ctx) error {
	var req ai.ApplyPlanRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	skill, err := ac.Service.Apply(c.UserContext(), utils.UserID(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, skill)
}
