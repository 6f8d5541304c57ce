package controllers

import (
	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/config"
	"skilltracker/backend/models"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

type GoalsController struct {
	Service *services.GoalService
	Cfg     *config.Config
}

func NewGoalsController(service *services.GoalService, cfg *config.Config) *GoalsController {
	return &GoalsController{Service: service, Cfg: cfg}
}

func skillAndGoalIDs(c *fiber.Ctx) (uint, uint, error) {
	skillID, err := paramID(c, "skillId")
	if err != nil {
		return 0, 0, err
	}
	goalID, err := paramID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	return skillID, goalID, nil
}

// GetGoals godoc
// @Summary List goals of a skill
// @Tags goals
// @Produce json
// @Param skillId path int true "Skill ID"
// @Success 200 {object} utils.SuccessResponse{data=[]models.GoalDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{skillId}/goals [get]
func (gc *GoalsController) GetGoals(c *fiber.Ctx) error {
	skillID, err := paramID(c, "skillId")
	if err != nil {
		return utils.HandleError(c, err)
	}
	goals, err := gc.Service.ListBySkill(c.UserContext(), utils.UserID(c), skillID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, goals)
}

// GetGoal godoc
// @Summary Get a goal
// @Tags goals
// @Produce json
// @Param skillId path int true "Skill ID"
// @Param id path int true "Goal ID"
// @Success 200 {object} utils.SuccessResponse{data=models.GoalDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{skillId}/goals/{id} [get]
func (gc *GoalsController) GetGoal(c *fiber.Ctx) error {
	skillID, goalID, err := skillAndGoalIDs(c)
	if err != nil {
		return utils.HandleError(c, err)
	}
	goal, err := gc.Service.Get(c.UserContext(), utils.UserID(c), skillID, goalID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, goal)
}

// CreateGoal godoc
// @Summary Add a goal to a skill
// @Tags goals
// @Accept json
// @Produce json
// @Param skillId path int true "Skill ID"
// @Param request body models.CreateGoalRequest true "Goal"
// @Success 201 {object} utils.SuccessResponse{data=models.GoalDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{skillId}/goals [post]
func (gc *GoalsController) CreateGoal(c *fiber.Ctx) error {
	skillID, err := paramID(c, "skillId")
	if err != nil {
		return utils.HandleError(c, err)
	}
	var req models.CreateGoalRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	goal, err := gc.Service.Create(c.UserContext(), utils.UserID(c), skillID, req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, goal)
}

// UpdateGoal godoc
// @Summary Update a goal
// @Tags goals
// @Accept json
// @Produce json
// @Param skillId path int true "Skill ID"
// @Param id path int true "Goal ID"
// @Param request body models.UpdateGoalRequest true "Fields to change"
// @Success 200 {object} utils.SuccessResponse{data=models.GoalDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{skillId}/goals/{id} [put]
func (gc *GoalsController) UpdateGoal(c *fiber.Ctx) error {
	skillID, goalID, err := skillAndGoalIDs(c)
	if err != nil {
		return utils.HandleError(c, err)
	}
	var req models.UpdateGoalRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	goal, err := gc.Service.Update(c.UserContext(), utils.UserID(c), skillID, goalID, req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, goal)
}

// DeleteGoal godoc
// @Summary Delete a goal
// @Description Logs that referenced the goal stay with the skill
// @Tags goals
// @Param skillId path int true "Skill ID"
// @Param id path int true "Goal ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{skillId}/goals/{id} [delete]
func (gc *GoalsController) DeleteGoal(c *fiber.Ctx) error {
	skillID, goalID, err := skillAndGoalIDs(c)
	if err != nil {
		return utils.HandleError(c, err)
	}
	if err := gc.Service.Delete(c.UserContext(), utils.UserID(c), skillID, goalID); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

// AddMilestone добавляет веху к цели
// @Summary Add a milestone
// @Tags goals
// @Accept json
// @Produce json
// @Param id path int true "Goal ID"
// @Param request body models.CreateMilestoneRequest true "Milestone"
// @Success 201 {object} utils.SuccessResponse{data=models.GoalDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /goals/{id}/milestones [post]
func (gc *GoalsController) AddMilestone(c *fiber.Ctx) error {
	goalID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	var req models.CreateMilestoneRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	goal, err := gc.Service.AddMilestone(c.UserContext(), utils.UserID(c), goalID, req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, goal)
}
