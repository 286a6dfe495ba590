package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/techagentng/converse/config"
	"github.com/techagentng/converse/db"
	apiError "github.com/techagentng/converse/errors"
	"github.com/techagentng/converse/models"
	"github.com/techagentng/converse/services/storage"
	"gorm.io/gorm"
)

const thumbnailWidth = 200

type PictureService interface {
	UploadPictures(ctx context.Context, userID uint, files []*multipart.FileHeader) ([]models.ProfilePicture, *apiError.Error)
	SetDefaultPicture(userID, pictureID uint) (*models.ProfilePicture, *apiError.Error)
	DeletePicture(ctx context.Context, userID, pictureID uint) *apiError.Error
	GetUserPictures(userID uint) ([]models.ProfilePicture, *apiError.Error)
}

type pictureService struct {
	Config      *config.Config
	pictureRepo db.PictureRepository
	store       storage.BlobStore
}

func NewPictureService(pictureRepo db.PictureRepository, store storage.BlobStore, conf *config.Config) PictureService {
	return &pictureService{
		Config:      conf,
		pictureRepo: pictureRepo,
		store:       store,
	}
}

// validatePictureFile checks type and size before any blob is written. Only
// jpeg and png are accepted.
func (p *pictureService) validatePictureFile(file *multipart.FileHeader) error {
	if file.Size > p.Config.MaxUploadSize {
		return fmt.Errorf("file size exceeds limit of %d bytes", p.Config.MaxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	mimeType := file.Header.Get("Content-Type")
	switch {
	case ext == ".jpg" || ext == ".jpeg" || ext == ".png":
	default:
		return fmt.Errorf("only JPEG and PNG images are allowed")
	}
	switch mimeType {
	case "image/jpeg", "image/png":
	default:
		return fmt.Errorf("invalid file type: %s", mimeType)
	}
	return nil
}

// UploadPictures stores each file (full size plus thumbnail), then records the
// batch. The repository promotes the first file to default when this was the
// user's first-ever upload.
func (p *pictureService) UploadPictures(ctx context.Context, userID uint, files []*multipart.FileHeader) ([]models.ProfilePicture, *apiError.Error) {
	if len(files) == 0 {
		return nil, apiError.InvalidOperation("no files uploaded")
	}

	for _, file := range files {
		if err := p.validatePictureFile(file); err != nil {
			return nil, apiError.InvalidOperation(err.Error())
		}
	}

	pictures := make([]models.ProfilePicture, 0, len(files))
	var saved []string
	for _, file := range files {
		picture, err := p.savePicture(ctx, file)
		if err != nil {
			// Roll back every blob already written for this batch,
			// thumbnails included.
			for _, name := range saved {
				p.store.Delete(ctx, name)
			}
			log.Printf("error saving picture %s for user %d: %v", file.Filename, userID, err)
			return nil, apiError.ErrInternalServerError
		}
		saved = append(saved, picture.Filename)
		if picture.ThumbnailURL != "" {
			saved = append(saved, "thumb-"+picture.Filename)
		}
		pictures = append(pictures, *picture)
	}

	created, err := p.pictureRepo.CreatePictures(userID, pictures)
	if err != nil {
		for _, name := range saved {
			p.store.Delete(ctx, name)
		}
		log.Printf("error recording pictures for user %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}

	return created, nil
}

func (p *pictureService) savePicture(ctx context.Context, file *multipart.FileHeader) (*models.ProfilePicture, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %v", err)
	}
	defer src.Close()

	img, format, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	ext := ".jpg"
	if format == "png" {
		ext = ".png"
	}
	filename := fmt.Sprintf("profile-%s%s", uuid.New().String(), ext)

	var buf bytes.Buffer
	if err := encodeImage(&buf, img, format); err != nil {
		return nil, err
	}
	url, err := p.store.Save(ctx, &buf, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %v", filename, err)
	}

	thumbnailURL, err := p.saveThumbnail(ctx, img, format, filename)
	if err != nil {
		// A missing thumbnail should not fail the upload.
		log.Printf("error generating thumbnail for %s: %v", filename, err)
	}

	return &models.ProfilePicture{
		Filename:     filename,
		URL:          url,
		ThumbnailURL: thumbnailURL,
	}, nil
}

func (p *pictureService) saveThumbnail(ctx context.Context, img image.Image, format, filename string) (string, error) {
	thumb := resize.Resize(thumbnailWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := encodeImage(&buf, thumb, format); err != nil {
		return "", err
	}

	return p.store.Save(ctx, &buf, "thumb-"+filename)
}

func encodeImage(buf *bytes.Buffer, img image.Image, format string) error {
	f := imaging.JPEG
	if format == "png" {
		f = imaging.PNG
	}
	if err := imaging.Encode(buf, img, f); err != nil {
		return fmt.Errorf("failed to encode image: %v", err)
	}
	return nil
}

func (p *pictureService) SetDefaultPicture(userID, pictureID uint) (*models.ProfilePicture, *apiError.Error) {
	picture, err := p.pictureRepo.SetDefaultPicture(userID, pictureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.NotFound("profile picture not found")
		}
		log.Printf("error setting default picture %d for user %d: %v", pictureID, userID, err)
		return nil, apiError.ErrInternalServerError
	}
	return picture, nil
}

// DeletePicture removes the record (promoting a deterministic replacement
// default when needed) and then deletes the blobs best-effort: a storage
// failure is logged, never surfaced.
func (p *pictureService) DeletePicture(ctx context.Context, userID, pictureID uint) *apiError.Error {
	picture, err := p.pictureRepo.FindUserPicture(userID, pictureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError.NotFound("profile picture not found")
		}
		log.Printf("error finding picture %d for user %d: %v", pictureID, userID, err)
		return apiError.ErrInternalServerError
	}

	if _, err := p.pictureRepo.DeletePicture(picture); err != nil {
		log.Printf("error deleting picture %d for user %d: %v", pictureID, userID, err)
		return apiError.ErrInternalServerError
	}

	if !p.store.Delete(ctx, picture.Filename) {
		log.Printf("could not remove blob %s, record deleted anyway", picture.Filename)
	}
	if picture.ThumbnailURL != "" {
		p.store.Delete(ctx, "thumb-"+picture.Filename)
	}

	return nil
}

func (p *pictureService) GetUserPictures(userID uint) ([]models.ProfilePicture, *apiError.Error) {
	pictures, err := p.pictureRepo.GetUserPictures(userID)
	if err != nil {
		log.Printf("error listing pictures for user %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}
	return pictures, nil
}
