package models

import (
	"errors"

	goval "github.com/go-passwd/validator"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents a registered account. Accounts are never deleted in-system;
// revoking access flips IsActive off.
type User struct {
	Model
	Username       string `json:"username" gorm:"unique;not null" binding:"required,min=2" conform:"trim"`
	Email          string `json:"email" gorm:"unique;not null" binding:"required,email" conform:"trim,lower"`
	Password       string `json:"password,omitempty" gorm:"-"`
	HashedPassword string `json:"-"`
	FirstName      string `json:"first_name,omitempty" conform:"trim"`
	LastName       string `json:"last_name,omitempty" conform:"trim"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
	IsSocial       bool   `json:"-"`

	ProfilePictures []ProfilePicture `json:"profile_pictures,omitempty" gorm:"foreignKey:UserID"`
}

// UserSummary is the public shape embedded in conversations and messages.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type SignupRequest struct {
	Username  string `json:"username" binding:"required,min=2" conform:"trim"`
	Email     string `json:"email" binding:"required,email" conform:"trim,lower"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" conform:"trim"`
	LastName  string `json:"last_name" conform:"trim"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User         UserSummary `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

// Blacklist holds access tokens invalidated by logout.
type Blacklist struct {
	Model
	Token string `json:"token" gorm:"index"`
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(72, errors.New("password cant be more than 72 characters")))
	return passwordValidator.Validate(password)
}

// TrimWhitespace normalizes string fields tagged with conform.
func TrimWhitespace(data interface{}) error {
	return conform.Strings(data)
}

// VerifyPassword compares the supplied plaintext against the stored hash.
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}
