package controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/config"
	"skilltracker/backend/export"
	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

type ProgressController struct {
	Service *services.ProgressLogService
	Cfg     *config.Config
}

func NewProgressController(service *services.ProgressLogService, cfg *config.Config) *ProgressController {
	return &ProgressController{Service: service, Cfg: cfg}
}

// GetLogs godoc
// @Summary List progress logs
// @Description Returns the user's logs, newest log date first
// @Tags progress
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param skill_id query int false "Only logs of this skill"
// @Param goal_id query int false "Only logs of this goal"
// @Success 200 {object} utils.PaginatedResponse{data=[]models.ProgressLogDTO}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetLogs(c *fiber.Ctx) error {
	skillID, err := queryUint(c, "skill_id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	goalID, err := queryUint(c, "goal_id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	filter := models.ProgressLogFilter{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
		SkillID:  skillID,
		GoalID:   goalID,
	}

	logs, total, err := pc.Service.List(c.UserContext(), utils.UserID(c), filter)
	if err != nil {
		return utils.HandleError(c, err)
	}
	page, pageSize := services.NormalizePage(filter.Page, filter.PageSize)
	return utils.Paginate(c, logs, total, page, pageSize)
}

// GetLog godoc
// @Summary Get a progress log
// @Tags progress
// @Produce json
// @Param id path int true "Log ID"
// @Success 200 {object} utils.SuccessResponse{data=models.ProgressLogDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/{id} [get]
func (pc *ProgressController) GetLog(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	log, err := pc.Service.Get(c.UserContext(), utils.UserID(c), id)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, log)
}

// CreateLog godoc
// @Summary Log practice time
// @Description Records hours for a skill (and optionally a goal), completes the listed milestones and recalculates progress
// @Tags progress
// @Accept json
// @Produce json
// @Param request body models.CreateProgressLogRequest true "Progress log"
// @Success 201 {object} utils.SuccessResponse{data=models.ProgressLogDTO}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [post]
func (pc *ProgressController) CreateLog(c *fiber.Ctx) error {
	var req models.CreateProgressLogRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	log, err := pc.Service.Create(c.UserContext(), utils.UserID(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, log)
}

// DeleteLog godoc
// @Summary Delete a progress log
// @Description Hours are taken back, completed milestones stay completed
// @Tags progress
// @Param id path int true "Log ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/{id} [delete]
func (pc *ProgressController) DeleteLog(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	if err := pc.Service.Delete(c.UserContext(), utils.UserID(c), id); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

// GetStats godoc
// @Summary Dashboard statistics
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=progress.DashboardStats}
// @Security ApiKeyAuth
// @Router /progress/stats [get]
func (pc *ProgressController) GetStats(c *fiber.Ctx) error {
	stats, err := pc.Service.Dashboard(c.UserContext(), utils.UserID(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, stats)
}

// GetWeekly godoc
// @Summary Weekly activity
// @Description Hours per Monday to Sunday week, oldest week first. weeks is clamped to 1..52, so weeks=60 returns 52 buckets
// @Tags progress
// @Produce json
// @Param weeks query int false "Number of weeks, at most 52" default(12) minimum(1) maximum(52)
// @Success 200 {object} utils.SuccessResponse{data=[]progress.WeekBucket}
// @Security ApiKeyAuth
// @Router /progress/weekly [get]
func (pc *ProgressController) GetWeekly(c *fiber.Ctx) error {
	weeks, err := pc.Service.Weekly(c.UserContext(), utils.UserID(c), c.QueryInt("weeks", progress.DefaultWeeks))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, weeks)
}

// Export выгружает все записи и недельную активность в xlsx
// @Summary Export progress as a spreadsheet
// @Tags progress
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Security ApiKeyAuth
// @Router /progress/export [get]
func (pc *ProgressController) Export(c *fiber.Ctx) error {
	userID := utils.UserID(c)
	logs, err := pc.Service.All(c.UserContext(), userID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	weeks, err := pc.Service.Weekly(c.UserContext(), userID, progress.DefaultWeeks)
	if err != nil {
		return utils.HandleError(c, err)
	}

	var buf bytes.Buffer
	if err := export.WriteProgressWorkbook(&buf, logs, weeks); err != nil {
		return utils.HandleError(c, err)
	}
	filename := fmt.Sprintf("progress-%s.xlsx", time.Now().UTC().Format(models.DateLayout))
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
