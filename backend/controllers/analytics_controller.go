package controllers

import (
	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/config"
	"skilltracker/backend/progress"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

type AnalyticsController struct {
	Service *services.ProgressLogService
	Cfg     *config.Config
}

func NewAnalyticsController(service *services.ProgressLogService, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{Service: service, Cfg: cfg}
}

// GetDailyStats возвращает дневную статистику пользователя за период
// @Summary Daily statistics
// @Description Stored per-day rollups between from and to (inclusive). Defaults to the last 30 days.
// @Tags progress
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} utils.SuccessResponse{data=[]models.DailyStatDTO}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/daily [get]
func (ac *AnalyticsController) GetDailyStats(c *fiber.Ctx) error {
	// Последние 30 дней по умолчанию
	today := progress.Today(progress.SystemClock)
	from, err := queryDate(c, "from", today.AddDate(0, 0, -29))
	if err != nil {
		return utils.HandleError(c, err)
	}
	to, err := queryDate(c, "to", today)
	if err != nil {
		return utils.HandleError(c, err)
	}

	stats, err := ac.Service.DailyStats(c.UserContext(), utils.UserID(c), from, to)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, stats)
}
