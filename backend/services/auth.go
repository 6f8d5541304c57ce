package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"skilltracker/backend/config"
	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/utils"
)

// ClientInfo describes where a login or refresh came from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// shortSessionTTL applies when the user did not ask to be remembered.
const shortSessionTTL = 24 * time.Hour

type AuthService struct {
	db    *gorm.DB
	log   *utils.Logger
	cfg   *config.Config
	clock progress.Clock
}

func NewAuthService(db *gorm.DB, log *utils.Logger, cfg *config.Config, clock progress.Clock) *AuthService {
	if clock == nil {
		clock = progress.SystemClock
	}
	return &AuthService{db: db, log: log.With("service", "AuthService"), cfg: cfg, clock: clock}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account together with its default sharing settings.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	if err := utils.Validate(req); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("email %w", utils.ErrConflict)
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		settings := models.DefaultSharingSettings(user.ID)
		username, err := uniqueUsername(tx, user.FirstName, user.LastName)
		if err != nil {
			return err
		}
		settings.PublicUsername = &username
		if err := tx.Create(&settings).Error; err != nil {
			return fmt.Errorf("create sharing settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	s.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and opens a refresh-token session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, client ClientInfo) (models.AuthResponse, error) {
	if err := utils.Validate(req); err != nil {
		return models.AuthResponse{}, err
	}

	invalid := fmt.Errorf("invalid email or password: %w", utils.ErrUnauthorized)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ? AND is_active = ?", normalizeEmail(req.Email), true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AuthResponse{}, invalid
	}
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.log.Warn("Failed login attempt", "user_id", user.ID, "ip", client.IP)
		return models.AuthResponse{}, invalid
	}

	now := s.clock.Now()
	ttl := s.cfg.RefreshTokenTTL
	if !req.RememberMe && ttl > shortSessionTTL {
		ttl = shortSessionTTL
	}
	session := models.UserSession{
		UserID:       user.ID,
		RefreshToken: utils.NewRefreshToken(),
		DeviceType:   ParseDeviceType(client.UserAgent),
		UserAgent:    truncate(client.UserAgent, 500),
		IPAddress:    client.IP,
		LastActiveAt: now,
		ExpiresAt:    now.Add(ttl),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("last_login_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("User logged in", "user_id", user.ID, "device", session.DeviceType)
	return s.issue(user, session.RefreshToken, now)
}

// Refresh rotates the refresh token of a live session and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (models.AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return models.AuthResponse{}, utils.NewValidationError("refresh_token", "is required")
	}

	now := s.clock.Now()
	var session models.UserSession
	var user models.User
	newToken := utils.NewRefreshToken()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(forUpdate()).
			Where("refresh_token = ? AND expires_at > ?", refreshToken, now).
			First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invalid or expired refresh token: %w", utils.ErrUnauthorized)
		}
		if err != nil {
			return err
		}
		if err := tx.Where("id = ? AND is_active = ?", session.UserID, true).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invalid or expired refresh token: %w", utils.ErrUnauthorized)
			}
			return err
		}

		updates := map[string]interface{}{
			"refresh_token":  newToken,
			"last_active_at": now,
			"expires_at":     now.Add(s.cfg.RefreshTokenTTL),
		}
		if client.IP != "" {
			updates["ip_address"] = client.IP
		}
		return tx.Model(&session).Updates(updates).Error
	})
	if err != nil {
		return models.AuthResponse{}, err
	}

	return s.issue(user, newToken, now)
}

// Logout closes the session identified by refreshToken.
func (s *AuthService) Logout(ctx context.Context, userID uint, refreshToken string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND refresh_token = ?", userID, strings.TrimSpace(refreshToken)).
		Delete(&models.UserSession{})
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NotFoundError("session")
	}
	return nil
}

// LogoutAll closes every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserSession{}).Error; err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	s.log.Info("All sessions revoked", "user_id", userID)
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, utils.NotFoundError("user")
	}
	return user, err
}

// PurgeExpiredSessions hard-deletes sessions past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("expires_at <= ?", s.clock.Now()).
		Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}

func (s *AuthService) issue(user models.User, refreshToken string, now time.Time) (models.AuthResponse, error) {
	access, expiresAt, err := utils.GenerateJWTToken(user.ID, s.cfg, now)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{
		User:         models.NewUserDTO(user),
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseDeviceType classifies a User-Agent as mobile, tablet, desktop or unknown.
func ParseDeviceType(userAgent string) string {
	switch {
	case userAgent == "":
		return "unknown"
	case strings.Contains(userAgent, "iPad"), strings.Contains(userAgent, "Tablet"):
		return "tablet"
	case strings.Contains(userAgent, "Mobile"), strings.Contains(userAgent, "iPhone"), strings.Contains(userAgent, "Android"):
		return "mobile"
	default:
		return "desktop"
	}
}

func generateUsername(firstName, lastName string) string {
	base := strings.Trim(slugify(firstName+"-"+lastName), "-")
	if base == "" {
		base = "user"
	}
	return fmt.Sprintf("%s-%d", base, 100+rand.Intn(900))
}

func uniqueUsername(tx *gorm.DB, firstName, lastName string) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		username := generateUsername(firstName, lastName)
		var taken int64
		if err := tx.Unscoped().Model(&models.UserSharingSettings{}).
			Where("public_username = ?", username).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return username, nil
		}
	}
	return "", fmt.Errorf("could not allocate a public username")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
