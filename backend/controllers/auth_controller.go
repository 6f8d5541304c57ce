package controllers

import (
	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/config"
	"skilltracker/backend/models"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

type AuthController struct {
	Service *services.AuthService
	Cfg     *config.Config
}

func NewAuthController(service *services.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{Service: service, Cfg: cfg}
}

// [+] Register godoc
// @Summary Register a new user
// @Description Creates a new user account with default sharing settings
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "User registration data"
// @Success 201 {object} utils.SuccessResponse{data=models.UserDTO}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	user, err := ac.Service.Register(c.UserContext(), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, models.NewUserDTO(user))
}

// [+] Login godoc
// @Summary User login
// @Description Authenticate by email and password, returns an access token and a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} utils.SuccessResponse{data=models.AuthResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	resp, err := ac.Service.Login(c.UserContext(), req, clientInfo(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, resp)
}

// Refresh godoc
// @Summary Rotate refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} utils.SuccessResponse{data=models.AuthResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/refresh [post]
func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	var req models.RefreshTokenRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	resp, err := ac.Service.Refresh(c.UserContext(), req.RefreshToken, clientInfo(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, resp)
}

// Logout godoc
// @Summary Close the current session
// @Tags auth
// @Accept json
// @Param request body models.RefreshTokenRequest true "Refresh token of the session"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/logout [post]
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	var req models.RefreshTokenRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}
	if err := ac.Service.Logout(c.UserContext(), utils.UserID(c), req.RefreshToken); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

// LogoutAll godoc
// @Summary Close every session of the user
// @Tags auth
// @Success 204
// @Security ApiKeyAuth
// @Router /auth/logout-all [post]
func (ac *AuthController) LogoutAll(c *fiber.Ctx) error {
	if err := ac.Service.LogoutAll(c.UserContext(), utils.UserID(c)); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=models.UserDTO}
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user, err := ac.Service.Me(c.UserContext(), utils.UserID(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, models.NewUserDTO(user))
}
