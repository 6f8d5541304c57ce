package controllers

import (
	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/config"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

type OverviewController struct {
	Skills *services.SkillService
	Cfg    *config.Config
}

func NewOverviewController(skills *services.SkillService, cfg *config.Config) *OverviewController {
	return &OverviewController{Skills: skills, Cfg: cfg}
}

// SearchSkills возвращает публичные навыки по строке поиска
// @Summary Explore public skills
// @Tags overview
// @Produce json
// @Param search query string false "Part of the skill name"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} utils.PaginatedResponse{data=[]models.SkillDTO}
// @Router /overview/skills [get]
func (oc *OverviewController) SearchSkills(c *fiber.Ctx) error {
	page, pageSize := services.NormalizePage(c.QueryInt("page", 1), c.QueryInt("page_size", 10))

	skills, total, err := oc.Skills.Explore(c.UserContext(), c.Query("search"), page, pageSize)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Paginate(c, skills, total, page, pageSize)
}
