package models

import "gorm.io/gorm"

// User represents an account on the site. PasswordHash is empty for
// accounts created through Google sign-in; GoogleSub is empty for
// email/password accounts.
type User struct {
	gorm.Model
	Nickname     string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255"`
	GoogleSub    string `gorm:"size:255;index"`
	Role         string `gorm:"size:50;not null;default:'user';index"`
}
