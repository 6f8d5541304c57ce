package controllers

import (
	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/config"
	"skilltracker/backend/models"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

type SkillsController struct {
	Service *services.SkillService
	Goals   *services.GoalService
	Cfg     *config.Config
}

func NewSkillsController(service *services.SkillService, goals *services.GoalService, cfg *config.Config) *SkillsController {
	return &SkillsController{Service: service, Goals: goals, Cfg: cfg}
}

// SkillDetails is a skill together with its goals and milestones.
type SkillDetails struct {
	Skill models.SkillDTO  `json:"skill"`
	Goals []models.GoalDTO `json:"goals"`
}

// GetCategories godoc
// @Summary List skill categories
// @Tags skills
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]models.CategoryDTO}
// @Router /skills/categories [get]
func (sc *SkillsController) GetCategories(c *fiber.Ctx) error {
	categories, err := sc.Service.Categories(c.UserContext())
	if err != nil {
		return utils.HandleError(c, err)
	}
	out := make([]models.CategoryDTO, 0, len(categories))
	for _, cat := range categories {
		out = append(out, models.NewCategoryDTO(cat))
	}
	return utils.Success(c, fiber.StatusOK, out)
}

// GetSkills godoc
// @Summary List own skills
// @Tags skills
// @Produce json
// @Param visibility query string false "private or public"
// @Param status query string false "not_started, in_progress, completed or paused"
// @Success 200 {object} utils.SuccessResponse{data=[]models.SkillDTO}
// @Security ApiKeyAuth
// @Router /skills [get]
func (sc *SkillsController) GetSkills(c *fiber.Ctx) error {
	skills, err := sc.Service.List(c.UserContext(), utils.UserID(c), services.SkillFilter{
		Visibility: c.Query("visibility"),
		Status:     c.Query("status"),
	})
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, skills)
}

// GetSkill godoc
// @Summary Get own skill
// @Tags skills
// @Produce json
// @Param id path int true "Skill ID"
// @Success 200 {object} utils.SuccessResponse{data=models.SkillDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{id} [get]
func (sc *SkillsController) GetSkill(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	skill, err := sc.Service.Get(c.UserContext(), utils.UserID(c), id)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, skill)
}

// GetSkillDetails возвращает навык с целями; чужой навык доступен только если он публичный
// @Summary Skill details
// @Tags skills
// @Produce json
// @Param id path int true "Skill ID"
// @Success 200 {object} utils.SuccessResponse{data=SkillDetails}
// @Failure 404 {object} utils.ErrorResponse
// @Router /skills/{id}/details [get]
func (sc *SkillsController) GetSkillDetails(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	viewer := utils.UserID(c)

	skill, err := sc.Service.GetDetails(c.UserContext(), viewer, id)
	if err != nil {
		return utils.HandleError(c, err)
	}
	goals, err := sc.Goals.ListForDetails(c.UserContext(), viewer, id)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, SkillDetails{Skill: skill, Goals: goals})
}

// GetPublicSkill godoc
// @Summary Public skill by slug
// @Tags skills
// @Produce json
// @Param slug path string true "Public slug"
// @Success 200 {object} utils.SuccessResponse{data=models.SkillDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Router /skills/public/{slug} [get]
func (sc *SkillsController) GetPublicSkill(c *fiber.Ctx) error {
	skill, err := sc.Service.GetPublicBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, skill)
}

// CreateSkill godoc
// @Summary Create a skill
// @Description Creates a skill with an optional practice schedule and nested goals
// @Tags skills
// @Accept json
// @Produce json
// @Param request body models.CreateSkillRequest true "Skill"
// @Success 201 {object} utils.SuccessResponse{data=models.SkillDTO}
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills [post]
func (sc *SkillsController) CreateSkill(c *fiber.Ctx) error {
	var req models.CreateSkillRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	skill, err := sc.Service.Create(c.UserContext(), utils.UserID(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, skill)
}

// UpdateSkill godoc
// @Summary Update a skill
// @Tags skills
// @Accept json
// @Produce json
// @Param id path int true "Skill ID"
// @Param request body models.UpdateSkillRequest true "Fields to change"
// @Success 200 {object} utils.SuccessResponse{data=models.SkillDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{id} [put]
func (sc *SkillsController) UpdateSkill(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	var req models.UpdateSkillRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	skill, err := sc.Service.Update(c.UserContext(), utils.UserID(c), id, req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, skill)
}

// DeleteSkill godoc
// @Summary Delete a skill
// @Description Removes the skill with its goals and logs, daily statistics are rebuilt
// @Tags skills
// @Param id path int true "Skill ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{id} [delete]
func (sc *SkillsController) DeleteSkill(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	if err := sc.Service.Delete(c.UserContext(), utils.UserID(c), id); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}
