package db

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/converse/models"
	"gorm.io/gorm"
)

func pictureBatch(n int) []models.ProfilePicture {
	pictures := make([]models.ProfilePicture, n)
	for i := range pictures {
		pictures[i] = models.ProfilePicture{
			Filename: fmt.Sprintf("pic-%d.jpg", i+1),
			URL:      fmt.Sprintf("/uploads/pic-%d.jpg", i+1),
		}
	}
	return pictures
}

func defaultCount(pictures []models.ProfilePicture) int {
	count := 0
	for _, p := range pictures {
		if p.IsDefault {
			count++
		}
	}
	return count
}

func TestCreatePicturesFirstBatchPromotesFirstFile(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewPictureRepo(gdb)
	ada := seedUser(t, gdb, "ada", "ada@example.com")

	created, err := repo.CreatePictures(ada.ID, pictureBatch(3))
	require.NoError(t, err)
	require.Len(t, created, 3)

	assert.True(t, created[0].IsDefault)
	assert.False(t, created[1].IsDefault)
	assert.False(t, created[2].IsDefault)

	stored, err := repo.GetUserPictures(ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, defaultCount(stored))
}

func TestCreatePicturesLaterBatchKeepsDefault(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewPictureRepo(gdb)
	ada := seedUser(t, gdb, "ada", "ada@example.com")

	first, err := repo.CreatePictures(ada.ID, pictureBatch(1))
	require.NoError(t, err)

	second, err := repo.CreatePictures(ada.ID, pictureBatch(2))
	require.NoError(t, err)
	assert.Equal(t, 0, defaultCount(second))

	stored, err := repo.GetUserPictures(ada.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, 1, defaultCount(stored))
	assert.True(t, stored[0].IsDefault)
	assert.Equal(t, first[0].ID, stored[0].ID)
}

func TestSetDefaultPictureMovesFlag(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewPictureRepo(gdb)
	ada := seedUser(t, gdb, "ada", "ada@example.com")

	created, err := repo.CreatePictures(ada.ID, pictureBatch(3))
	require.NoError(t, err)

	updated, err := repo.SetDefaultPicture(ada.ID, created[2].ID)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	stored, err := repo.GetUserPictures(ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, defaultCount(stored))
	assert.True(t, stored[2].IsDefault)
}

func TestSetDefaultPictureNotOwned(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewPictureRepo(gdb)
	ada := seedUser(t, gdb, "ada", "ada@example.com")
	lin := seedUser(t, gdb, "lin", "lin@example.com")

	created, err := repo.CreatePictures(ada.ID, pictureBatch(1))
	require.NoError(t, err)

	_, err = repo.SetDefaultPicture(lin.ID, created[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteDefaultPromotesLowestID(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewPictureRepo(gdb)
	ada := seedUser(t, gdb, "ada", "ada@example.com")

	created, err := repo.CreatePictures(ada.ID, pictureBatch(3))
	require.NoError(t, err)

	promoted, err := repo.DeletePicture(&created[0])
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, created[1].ID, promoted.ID)

	stored, err := repo.GetUserPictures(ada.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 1, defaultCount(stored))
	assert.True(t, stored[0].IsDefault)
}

func TestDeleteNonDefaultLeavesDefaultAlone(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewPictureRepo(gdb)
	ada := seedUser(t, gdb, "ada", "ada@example.com")

	created, err := repo.CreatePictures(ada.ID, pictureBatch(3))
	require.NoError(t, err)

	promoted, err := repo.DeletePicture(&created[1])
	require.NoError(t, err)
	assert.Nil(t, promoted)

	stored, err := repo.GetUserPictures(ada.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.True(t, stored[0].IsDefault)
}

func TestDeleteLastPicture(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewPictureRepo(gdb)
	ada := seedUser(t, gdb, "ada", "ada@example.com")

	created, err := repo.CreatePictures(ada.ID, pictureBatch(1))
	require.NoError(t, err)

	promoted, err := repo.DeletePicture(&created[0])
	require.NoError(t, err)
	assert.Nil(t, promoted)

	count, err := repo.CountUserPictures(ada.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
