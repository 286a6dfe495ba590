package db

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/techagentng/converse/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	IsEmailExist(email string) error
	IsUsernameExist(username string) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id uint) (*models.User, error)
	FindUserWithPictures(id uint) (*models.User, error)
	GetActiveUsers() ([]models.User, error)
	DeactivateUser(userID uint) error
	AddToBlackList(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
}

type userRepo struct {
	DB *gorm.DB
}

func NewUserRepo(db *GormDB) UserRepository {
	return &userRepo{db.DB}
}

func (u *userRepo) CreateUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}

	result := u.DB.Create(user)
	if result.Error != nil {
		return nil, result.Error
	}
	return user, nil
}

func (u *userRepo) IsEmailExist(email string) error {
	var count int64
	err := u.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return errors.New("email already in use")
	}
	return nil
}

func (u *userRepo) IsUsernameExist(username string) error {
	var count int64
	err := u.DB.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return errors.New("username already in use")
	}
	return nil
}

func (u *userRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := u.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	return &user, nil
}

func (u *userRepo) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	err := u.DB.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserWithPictures loads a user together with all their profile pictures.
func (u *userRepo) FindUserWithPictures(id uint) (*models.User, error) {
	var user models.User
	err := u.DB.Preload("ProfilePictures").Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetActiveUsers lists active accounts, each with its default picture (if any)
// preloaded for the summary view.
func (u *userRepo) GetActiveUsers() ([]models.User, error) {
	var users []models.User
	err := u.DB.
		Preload("ProfilePictures", "is_default = ?", true).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userRepo) DeactivateUser(userID uint) error {
	result := u.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (u *userRepo) AddToBlackList(blacklist *models.Blacklist) error {
	result := u.DB.Create(blacklist)
	return result.Error
}

func (u *userRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	u.DB.Model(&models.Blacklist{}).Where("token = ?", strings.TrimSpace(token)).Count(&count)
	return count > 0
}
