package db

import (
	"github.com/pkg/errors"
	"github.com/techagentng/converse/models"
	"gorm.io/gorm"
)

type PictureRepository interface {
	CreatePictures(userID uint, pictures []models.ProfilePicture) ([]models.ProfilePicture, error)
	FindUserPicture(userID, pictureID uint) (*models.ProfilePicture, error)
	GetUserPictures(userID uint) ([]models.ProfilePicture, error)
	CountUserPictures(userID uint) (int64, error)
	SetDefaultPicture(userID, pictureID uint) (*models.ProfilePicture, error)
	DeletePicture(picture *models.ProfilePicture) (promoted *models.ProfilePicture, err error)
}

type pictureRepo struct {
	DB *gorm.DB
}

func NewPictureRepo(db *GormDB) PictureRepository {
	return &pictureRepo{db.DB}
}

// CreatePictures inserts the batch and, when these are the user's first-ever
// pictures, promotes the first file of the batch to default. Insert and
// promotion commit together.
func (p *pictureRepo) CreatePictures(userID uint, pictures []models.ProfilePicture) ([]models.ProfilePicture, error) {
	if len(pictures) == 0 {
		return nil, errors.New("no pictures to create")
	}

	err := p.DB.Transaction(func(tx *gorm.DB) error {
		for i := range pictures {
			pictures[i].UserID = userID
			pictures[i].IsDefault = false
			if err := tx.Create(&pictures[i]).Error; err != nil {
				return err
			}
		}

		var total int64
		if err := tx.Model(&models.ProfilePicture{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			return err
		}

		// First-ever upload: the first file of the batch becomes the default.
		if total == int64(len(pictures)) {
			if err := tx.Model(&pictures[0]).Update("is_default", true).Error; err != nil {
				return err
			}
			pictures[0].IsDefault = true
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "gorm create pictures error")
	}
	return pictures, nil
}

func (p *pictureRepo) FindUserPicture(userID, pictureID uint) (*models.ProfilePicture, error) {
	var picture models.ProfilePicture
	err := p.DB.Where("id = ? AND user_id = ?", pictureID, userID).First(&picture).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "gorm find picture error")
	}
	return &picture, nil
}

func (p *pictureRepo) GetUserPictures(userID uint) ([]models.ProfilePicture, error) {
	var pictures []models.ProfilePicture
	err := p.DB.Where("user_id = ?", userID).Order("id ASC").Find(&pictures).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm list pictures error")
	}
	return pictures, nil
}

func (p *pictureRepo) CountUserPictures(userID uint) (int64, error) {
	var count int64
	err := p.DB.Model(&models.ProfilePicture{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "gorm count pictures error")
	}
	return count, nil
}

// SetDefaultPicture clears every default flag for the user and sets the
// target, as one transaction: no committed state ever holds zero or two
// defaults while the user has pictures.
func (p *pictureRepo) SetDefaultPicture(userID, pictureID uint) (*models.ProfilePicture, error) {
	var picture models.ProfilePicture
	err := p.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", pictureID, userID).First(&picture).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProfilePicture{}).
			Where("user_id = ?", userID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&picture).Update("is_default", true).Error; err != nil {
			return err
		}
		picture.IsDefault = true
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "gorm set default picture error")
	}
	return &picture, nil
}

// DeletePicture removes the record and, when the default was deleted and
// other pictures remain, promotes the lowest-id remainder so the user keeps
// exactly one default. Returns the promoted picture, if any.
func (p *pictureRepo) DeletePicture(picture *models.ProfilePicture) (*models.ProfilePicture, error) {
	var promoted *models.ProfilePicture
	err := p.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(picture).Error; err != nil {
			return err
		}

		if !picture.IsDefault {
			return nil
		}

		var next models.ProfilePicture
		err := tx.Where("user_id = ?", picture.UserID).Order("id ASC").First(&next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Model(&next).Update("is_default", true).Error; err != nil {
			return err
		}
		next.IsDefault = true
		promoted = &next
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "gorm delete picture error")
	}
	return promoted, nil
}
