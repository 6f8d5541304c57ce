package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skilltracker/backend/models"
	"skilltracker/backend/progress"
	"skilltracker/backend/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "Ada@Example.com")

	_, err := f.auth.Register(f.ctx, models.RegisterRequest{
		FirstName: "A", LastName: "L", Email: "ada@example.com", Password: "password123", ConfirmPassword: "password123",
	})
	assert.ErrorIs(t, err, utils.ErrConflict)

	_, err = f.auth.Register(f.ctx, models.RegisterRequest{
		FirstName: "A", LastName: "L", Email: "x@example.com", Password: "password123", ConfirmPassword: "nope",
	})
	assertValidation(t, err, "confirm_password")

	settings, err := f.users.GetSharingSettings(f.ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, settings.PublicUsername)
	assert.Regexp(t, `^ada-lovelace-\d{3}$`, *settings.PublicUsername)
	assert.False(t, settings.IsProfilePublic)

	_, err = f.auth.Login(f.ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong-password"}, ClientInfo{})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
	_, err = f.auth.Login(f.ctx, models.LoginRequest{Email: "nobody@example.com", Password: "password123"}, ClientInfo{})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	resp, err := f.auth.Login(f.ctx, models.LoginRequest{Email: "ADA@example.com", Password: "password123"},
		ClientInfo{IP: "10.0.0.1", UserAgent: "Mozilla/5.0 (iPhone) Mobile"})
	require.NoError(t, err)
	assert.Equal(t, uid, resp.User.ID)
	assert.Len(t, resp.RefreshToken, 64)
	assert.True(t, resp.ExpiresAt.Equal(refNow.Add(f.cfg.AccessTokenTTL)))

	assert.NotEmpty(t, resp.AccessToken)

	var session models.UserSession
	require.NoError(t, f.db.Where("user_id = ?", uid).First(&session).Error)
	assert.Equal(t, "mobile", session.DeviceType)
	assert.True(t, session.ExpiresAt.Equal(refNow.Add(24*time.Hour)))

	me, err := f.auth.Me(f.ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, me.LastLoginAt)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	login, err := f.auth.Login(f.ctx, models.LoginRequest{Email: "ada@example.com", Password: "password123", RememberMe: true}, ClientInfo{})
	require.NoError(t, err)

	refreshed, err := f.auth.Refresh(f.ctx, login.RefreshToken, ClientInfo{IP: "10.0.0.2"})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = f.auth.Refresh(f.ctx, login.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	require.NoError(t, f.auth.Logout(f.ctx, uid, refreshed.RefreshToken))
	assert.ErrorIs(t, f.auth.Logout(f.ctx, uid, refreshed.RefreshToken), utils.ErrNotFound)
}

func TestPurgeExpiredSessions(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")
	require.NoError(t, f.db.Create(&models.UserSession{UserID: uid, RefreshToken: "old", ExpiresAt: refNow.Add(-time.Minute)}).Error)
	require.NoError(t, f.db.Create(&models.UserSession{UserID: uid, RefreshToken: "live", ExpiresAt: refNow.Add(time.Hour)}).Error)

	n, err := f.auth.PurgeExpiredSessions(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left []models.UserSession
	require.NoError(t, f.db.Unscoped().Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "live", left[0].RefreshToken)

	require.NoError(t, f.auth.LogoutAll(f.ctx, uid))
	var live int64
	require.NoError(t, f.db.Model(&models.UserSession{}).Count(&live).Error)
	assert.Zero(t, live)
}

func TestParseDeviceType(t *testing.T) {
	assert.Equal(t, "unknown", ParseDeviceType(""))
	assert.Equal(t, "tablet", ParseDeviceType("Mozilla/5.0 (iPad; CPU OS 17_0)"))
	assert.Equal(t, "mobile", ParseDeviceType("Mozilla/5.0 (Linux; Android 14)"))
	assert.Equal(t, "desktop", ParseDeviceType("Mozilla/5.0 (X11; Linux x86_64)"))
}

func TestProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada@example.com")

	user, err := f.users.UpdateProfile(f.ctx, uid, models.UpdateProfileRequest{
		JobTitle:        ptr(" Analyst "),
		ThemePreference: ptr("dark"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Analyst", user.JobTitle)
	assert.Equal(t, "dark", user.ThemePreference)
	assert.Equal(t, "Ada", user.FirstName)

	_, err = f.users.UpdateProfile(f.ctx, uid, models.UpdateProfileRequest{ThemePreference: ptr("neon")})
	assertValidation(t, err, "theme_preference")

	_, err = f.auth.Login(f.ctx, models.LoginRequest{Email: "ada@example.com", Password: "password123"}, ClientInfo{})
	require.NoError(t, err)

	err = f.users.ChangePassword(f.ctx, uid, models.ChangePasswordRequest{
		CurrentPassword: "not-it", NewPassword: "new-password", ConfirmNewPassword: "new-password",
	})
	assertValidation(t, err, "current_password")

	require.NoError(t, f.users.ChangePassword(f.ctx, uid, models.ChangePasswordRequest{
		CurrentPassword: "password123", NewPassword: "new-password", ConfirmNewPassword: "new-password",
	}))
	var sessions int64
	require.NoError(t, f.db.Model(&models.UserSession{}).Where("user_id = ?", uid).Count(&sessions).Error)
	assert.Zero(t, sessions)

	_, err = f.auth.Login(f.ctx, models.LoginRequest{Email: "ada@example.com", Password: "new-password"}, ClientInfo{})
	assert.NoError(t, err)
}

func TestSharingSettingsAndPublicProfile(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada@example.com")
	bob := f.user(t, "bob@example.com")

	skill := f.skill(t, ada, models.CreateSkillRequest{Name: "Guitar", Visibility: models.VisibilityPublic, TargetHours: ptr(10.0)})
	f.skill(t, ada, models.CreateSkillRequest{Name: "Diary"})
	f.goal(t, ada, skill.ID, models.CreateGoalRequest{Title: "Chords"})
	_, err := f.logs.Create(f.ctx, ada, models.CreateProgressLogRequest{SkillID: skill.ID, HoursLogged: 2, LogDate: "2024-03-13"})
	require.NoError(t, err)

	_, err = f.users.PublicProfile(f.ctx, "ada-public")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.users.UpdateSharingSettings(f.ctx, ada, models.SharingSettingsDTO{IsProfilePublic: true})
	assertValidation(t, err, "public_username")
	_, err = f.users.UpdateSharingSettings(f.ctx, ada, models.SharingSettingsDTO{PublicUsername: ptr("ada_public")})
	assertValidation(t, err, "public_username")

	_, err = f.users.UpdateSharingSettings(f.ctx, ada, models.SharingSettingsDTO{
		IsProfilePublic: true, PublicUsername: ptr("Ada-Public"), ShowSkills: true, ShowGoals: true, ShowStatistics: true,
	})
	require.NoError(t, err)

	_, err = f.users.UpdateSharingSettings(f.ctx, bob, models.SharingSettingsDTO{PublicUsername: ptr("ada-public")})
	assert.ErrorIs(t, err, utils.ErrConflict)

	profile, err := f.users.PublicProfile(f.ctx, "ADA-public")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.FullName)
	require.Len(t, profile.Skills, 1)
	assert.Equal(t, "Guitar", profile.Skills[0].Name)
	// progress is hidden
	assert.Zero(t, profile.Skills[0].MasteryPercentage)
	require.Len(t, profile.Goals, 1)
	assert.Equal(t, "Guitar", profile.Goals[0].SkillName)
	stats, ok := profile.Statistics.(progress.DashboardStats)
	require.True(t, ok)
	assert.Equal(t, 2.0, stats.TotalHoursAllTime)

	_, err = f.users.UpdateSharingSettings(f.ctx, ada, models.SharingSettingsDTO{
		IsProfilePublic: true, PublicUsername: ptr("ada-public"),
	})
	require.NoError(t, err)
	profile, err = f.users.PublicProfile(f.ctx, "ada-public")
	require.NoError(t, err)
	assert.Empty(t, profile.Skills)
	assert.Nil(t, profile.Statistics)
}
