package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"skilltracker/backend/ai"
	"skilltracker/backend/config"
	"skilltracker/backend/controllers"
	"skilltracker/backend/middleware"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

// SetupRoutes wires services and controllers onto app. gen may be nil when
// no AI provider is configured; the AI endpoints then answer 502.
func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *utils.Logger, gen ai.Generator) {
	authService := services.NewAuthService(db, logger, cfg, nil)
	userService := services.NewUserService(db, logger, nil)
	skillService := services.NewSkillService(db, logger, nil)
	goalService := services.NewGoalService(db, logger, nil)
	logService := services.NewProgressLogService(db, logger, nil)
	planService := services.NewAiPlanService(db, logger, nil, gen)

	app.Get("/health", func(c *fiber.Ctx) error {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"status": "ok"})
	})

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	optionalAuth := middleware.OptionalAuth(cfg)

	// Auth routes
	authController := controllers.NewAuthController(authService, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	app.Post("/api/auth/refresh", authController.Refresh)
	app.Post("/api/auth/logout", authMiddleware, authController.Logout)
	app.Post("/api/auth/logout-all", authMiddleware, authController.LogoutAll)
	app.Get("/api/auth/me", authMiddleware, authController.Me)

	// User routes
	userController := controllers.NewUserController(userService, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)
	app.Put("/api/user/password", authMiddleware, userController.ChangePassword)
	app.Get("/api/user/sharing", authMiddleware, userController.GetSharing)
	app.Put("/api/user/sharing", authMiddleware, userController.UpdateSharing)
	app.Get("/api/public/users/:username", userController.PublicProfile)

	// Skills routes; static segments go before /:id
	skillsController := controllers.NewSkillsController(skillService, goalService, cfg)
	skills := app.Group("/api/skills")
	skills.Get("/categories", skillsController.GetCategories)
	skills.Get("/public/:slug", skillsController.GetPublicSkill)
	skills.Get("/", authMiddleware, skillsController.GetSkills)
	skills.Post("/", authMiddleware, skillsController.CreateSkill)
	skills.Get("/:id/details", optionalAuth, skillsController.GetSkillDetails)
	skills.Get("/:id", authMiddleware, skillsController.GetSkill)
	skills.Put("/:id", authMiddleware, skillsController.UpdateSkill)
	skills.Delete("/:id", authMiddleware, skillsController.DeleteSkill)

	// Goals routes
	goalsController := controllers.NewGoalsController(goalService, cfg)
	skills.Get("/:skillId/goals", authMiddleware, goalsController.GetGoals)
	skills.Post("/:skillId/goals", authMiddleware, goalsController.CreateGoal)
	skills.Get("/:skillId/goals/:id", authMiddleware, goalsController.GetGoal)
	skills.Put("/:skillId/goals/:id", authMiddleware, goalsController.UpdateGoal)
	skills.Delete("/:skillId/goals/:id", authMiddleware, goalsController.DeleteGoal)
	app.Post("/api/goals/:id/milestones", authMiddleware, goalsController.AddMilestone)

	// Progress routes
	progressController := controllers.NewProgressController(logService, cfg)
	analyticsController := controllers.NewAnalyticsController(logService, cfg)
	progress := app.Group("/api/progress")
	progress.Get("/", authMiddleware, progressController.GetLogs)
	progress.Post("/", authMiddleware, progressController.CreateLog)
	progress.Get("/stats", authMiddleware, progressController.GetStats)
	progress.Get("/weekly", authMiddleware, progressController.GetWeekly)
	progress.Get("/daily", authMiddleware, analyticsController.GetDailyStats)
	progress.Get("/export", authMiddleware, progressController.Export)
	progress.Get("/:id", authMiddleware, progressController.GetLog)
	progress.Delete("/:id", authMiddleware, progressController.DeleteLog)

	// Overview routes
	overviewController := controllers.NewOverviewController(skillService, cfg)
	app.Get("/api/overview/skills", overviewController.SearchSkills)

	// AI routes
	aiController := controllers.NewAIController(planService, cfg)
	app.Post("/api/ai/generate-plan", authMiddleware, aiController.GeneratePlan)
	app.Post("/api/ai/refine-goal", authMiddleware, aiController.RefineGoal)
	app.Post("/api/ai/apply-plan", authMiddleware, aiController.ApplyPlan)
}
