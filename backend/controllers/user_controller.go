package controllers

import (
	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/config"
	"skilltracker/backend/models"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

type UserController struct {
	Service *services.UserService
	Cfg     *config.Config
}

func NewUserController(service *services.UserService, cfg *config.Config) *UserController {
	return &UserController{Service: service, Cfg: cfg}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=models.UserDTO}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user, err := uc.Service.GetProfile(c.UserContext(), utils.UserID(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, models.NewUserDTO(user))
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Only the fields present in the body are changed
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} utils.SuccessResponse{data=models.UserDTO}
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	user, err := uc.Service.UpdateProfile(c.UserContext(), utils.UserID(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, models.NewUserDTO(user))
}

// ChangePassword godoc
// @Summary Change password
// @Description Checks the current password and closes every session of the user
// @Tags users
// @Accept json
// @Param request body models.ChangePasswordRequest true "Passwords"
// @Success 204
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/password [put]
func (uc *UserController) ChangePassword(c *fiber.Ctx) error {
	var req models.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}
	if err := uc.Service.ChangePassword(c.UserContext(), utils.UserID(c), req); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

// GetSharing godoc
// @Summary Get sharing settings
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=models.SharingSettingsDTO}
// @Security ApiKeyAuth
// @Router /user/sharing [get]
func (uc *UserController) GetSharing(c *fiber.Ctx) error {
	settings, err := uc.Service.GetSharingSettings(c.UserContext(), utils.UserID(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, models.NewSharingSettingsDTO(settings))
}

// UpdateSharing godoc
// @Summary Update sharing settings
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.SharingSettingsDTO true "Sharing settings"
// @Success 200 {object} utils.SuccessResponse{data=models.SharingSettingsDTO}
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/sharing [put]
func (uc *UserController) UpdateSharing(c *fiber.Ctx) error {
	var req models.SharingSettingsDTO
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	settings, err := uc.Service.UpdateSharingSettings(c.UserContext(), utils.UserID(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, models.NewSharingSettingsDTO(settings))
}

// PublicProfile отдает публичный профиль по имени пользователя
// @Summary Public profile
// @Tags users
// @Produce json
// @Param username path string true "Public username"
// @Success 200 {object} utils.SuccessResponse{data=models.PublicProfileDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Router /public/users/{username} [get]
func (uc *UserController) PublicProfile(c *fiber.Ctx) error {
	profile, err := uc.Service.PublicProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, profile)
}
