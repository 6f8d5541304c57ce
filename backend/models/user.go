package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email           string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string `gorm:"not null"`
	FirstName       string `gorm:"size:100;not null"`
	LastName        string `gorm:"size:100;not null"`
	JobTitle        string `gorm:"size:150"`
	Bio             string
	AvatarURL       string
	IsActive        bool
	ThemePreference string `gorm:"size:20;default:light"`
	LastLoginAt     *time.Time
	SharingSettings *UserSharingSettings
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) Initials() string {
	var b strings.Builder
	for _, part := range []string{u.FirstName, u.LastName} {
		if r := []rune(strings.TrimSpace(part)); len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	return strings.ToUpper(b.String())
}

// UserSession is a refresh-token backed login session.
type UserSession struct {
	gorm.Model
	UserID       uint   `gorm:"index;not null"`
	RefreshToken string `gorm:"uniqueIndex;size:64;not null"`
	DeviceType   string `gorm:"size:20;default:unknown"`
	UserAgent    string `gorm:"size:500"`
	IPAddress    string `gorm:"size:64"`
	LastActiveAt time.Time
	ExpiresAt    time.Time `gorm:"index"`
}

type UserSharingSettings struct {
	gorm.Model
	UserID          uint `gorm:"uniqueIndex;not null"`
	IsProfilePublic bool
	PublicUsername  *string `gorm:"uniqueIndex;size:50"`
	ShowSkills      bool
	ShowProgress    bool
	ShowGoals       bool
	ShowStatistics  bool
}

// DefaultSharingSettings are created together with every new account.
func DefaultSharingSettings(userID uint) UserSharingSettings {
	return UserSharingSettings{
		UserID:         userID,
		ShowSkills:     true,
		ShowProgress:   true,
		ShowStatistics: true,
	}
}
