package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/utils"
)

var publicUsernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type UserService struct {
	db    *gorm.DB
	log   *utils.Logger
	clock progress.Clock
}

func NewUserService(db *gorm.DB, log *utils.Logger, clock progress.Clock) *UserService {
	if clock == nil {
		clock = progress.SystemClock
	}
	return &UserService{db: db, log: log.With("service", "UserService"), clock: clock}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, utils.NotFoundError("user")
	}
	return user, err
}

// UpdateProfile applies only the fields present in req.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateProfileRequest) (models.User, error) {
	if err := utils.Validate(req); err != nil {
		return models.User{}, err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.JobTitle != nil {
		updates["job_title"] = strings.TrimSpace(*req.JobTitle)
	}
	if req.Bio != nil {
		updates["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.ThemePreference != nil {
		updates["theme_preference"] = *req.ThemePreference
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// ChangePassword verifies the current password, stores the new hash and
// closes every session so other devices have to log in again.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, req models.ChangePasswordRequest) error {
	if err := utils.Validate(req); err != nil {
		return err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return utils.NewValidationError("current_password", "is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&models.UserSession{}).Error
	})
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.log.Info("Password changed", "user_id", userID)
	return nil
}

func (s *UserService) GetSharingSettings(ctx context.Context, userID uint) (models.UserSharingSettings, error) {
	return s.sharingSettings(s.db.WithContext(ctx), userID)
}

func (s *UserService) sharingSettings(db *gorm.DB, userID uint) (models.UserSharingSettings, error) {
	settings := models.DefaultSharingSettings(userID)
	err := db.Where("user_id = ?", userID).Attrs(settings).FirstOrCreate(&settings).Error
	if err != nil {
		return models.UserSharingSettings{}, fmt.Errorf("load sharing settings: %w", err)
	}
	return settings, nil
}

func (s *UserService) UpdateSharingSettings(ctx context.Context, userID uint, req models.SharingSettingsDTO) (models.UserSharingSettings, error) {
	if err := utils.Validate(req); err != nil {
		return models.UserSharingSettings{}, err
	}

	var username *string
	if req.PublicUsername != nil {
		u := strings.ToLower(strings.TrimSpace(*req.PublicUsername))
		if !publicUsernamePattern.MatchString(u) {
			return models.UserSharingSettings{}, utils.NewValidationError("public_username", "may only contain lowercase letters, digits and hyphens")
		}
		username = &u
	}
	if req.IsProfilePublic && username == nil {
		return models.UserSharingSettings{}, utils.NewValidationError("public_username", "is required for a public profile")
	}

	var settings models.UserSharingSettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		settings, err = s.sharingSettings(tx, userID)
		if err != nil {
			return err
		}
		if username != nil {
			var taken int64
			if err := tx.Model(&models.UserSharingSettings{}).
				Where("public_username = ? AND user_id <> ?", *username, userID).
				Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return fmt.Errorf("public username %w", utils.ErrConflict)
			}
		}
		return tx.Model(&settings).Updates(map[string]interface{}{
			"is_profile_public": req.IsProfilePublic,
			"public_username":   username,
			"show_skills":       req.ShowSkills,
			"show_progress":     req.ShowProgress,
			"show_goals":        req.ShowGoals,
			"show_statistics":   req.ShowStatistics,
		}).Error
	})
	if err != nil {
		return models.UserSharingSettings{}, err
	}
	return s.GetSharingSettings(ctx, userID)
}

// PublicProfile returns what the owner of username chose to share.
// Private or unknown profiles are both reported as not found.
func (s *UserService) PublicProfile(ctx context.Context, username string) (models.PublicProfileDTO, error) {
	db := s.db.WithContext(ctx)
	var settings models.UserSharingSettings
	err := db.Where("public_username = ? AND is_profile_public = ?", strings.ToLower(strings.TrimSpace(username)), true).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PublicProfileDTO{}, utils.NotFoundError("profile")
	}
	if err != nil {
		return models.PublicProfileDTO{}, err
	}
	user, err := s.GetProfile(ctx, settings.UserID)
	if err != nil {
		return models.PublicProfileDTO{}, err
	}

	out := models.PublicProfileDTO{
		PublicUsername: *settings.PublicUsername,
		FullName:       user.FullName(),
		JobTitle:       user.JobTitle,
		Bio:            user.Bio,
	}

	if settings.ShowSkills {
		var skills []models.Skill
		if err := db.Preload("Category").Preload("Goals", orderGoals).Preload("Goals.Milestones", orderMilestones).
			Where("user_id = ? AND visibility = ?", user.ID, models.VisibilityPublic).
			Order("updated_at DESC").Find(&skills).Error; err != nil {
			return models.PublicProfileDTO{}, err
		}
		out.Skills = make([]models.SkillDTO, 0, len(skills))
		for _, sk := range skills {
			dto := skillDTO(sk, user)
			if !settings.ShowProgress {
				dto.MasteryPercentage = 0
				dto.TotalHoursLogged = 0
			}
			out.Skills = append(out.Skills, dto)
			if settings.ShowGoals {
				for _, g := range sk.Goals {
					g.Skill = &models.Skill{Name: sk.Name}
					out.Goals = append(out.Goals, models.NewGoalDTO(g))
				}
			}
		}
	}

	if settings.ShowStatistics {
		stats, err := dashboardFor(db, user.ID, progress.Today(s.clock))
		if err != nil {
			return models.PublicProfileDTO{}, err
		}
		out.Statistics = stats
	}
	return out, nil
}
