package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/converse/db"
	"github.com/techagentng/converse/models"
)

// fakeBlobStore keeps blobs in memory so tests can observe saves and deletes.
type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Save(_ context.Context, r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[filename] = data
	return "/blobs/" + filename, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, filename string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[filename]
	delete(f.blobs, filename)
	return ok
}

// flakyBlobStore fails every Save after the first n, to exercise batch
// rollback.
type flakyBlobStore struct {
	*fakeBlobStore
	remaining int
}

func (f *flakyBlobStore) Save(ctx context.Context, r io.Reader, filename string) (string, error) {
	if f.remaining <= 0 {
		return "", fmt.Errorf("storage unavailable")
	}
	f.remaining--
	return f.fakeBlobStore.Save(ctx, r, filename)
}

func (f *fakeBlobStore) has(filename string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[filename]
	return ok
}

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

// pngFileHeader builds a real multipart file header around a tiny png.
func pngFileHeader(t *testing.T, name string) *multipart.FileHeader {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return fileHeader(t, name, "image/png", img.Bytes())
}

func fileHeader(t *testing.T, name, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="pictures"; filename="%s"`, name)},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["pictures"][0]
}

type pictureTestEnv struct {
	service PictureService
	repo    db.PictureRepository
	blobs   *fakeBlobStore
	ada     *models.User
	lin     *models.User
}

func newPictureTestEnv(t *testing.T) *pictureTestEnv {
	t.Helper()

	store := openTestStore(t)
	repo := db.NewPictureRepo(store)
	blobs := newFakeBlobStore()

	return &pictureTestEnv{
		service: NewPictureService(repo, blobs, testConfig()),
		repo:    repo,
		blobs:   blobs,
		ada:     seedAccount(t, store, "ada", "ada@example.com"),
		lin:     seedAccount(t, store, "lin", "lin@example.com"),
	}
}

func TestUploadPicturesFirstBatchDefault(t *testing.T) {
	env := newPictureTestEnv(t)

	files := []*multipart.FileHeader{
		pngFileHeader(t, "one.png"),
		pngFileHeader(t, "two.png"),
		pngFileHeader(t, "three.png"),
	}

	created, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID, files)
	require.Nil(t, apiErr)
	require.Len(t, created, 3)

	// The first file of the first-ever batch becomes the default.
	assert.True(t, created[0].IsDefault)
	assert.False(t, created[1].IsDefault)
	assert.False(t, created[2].IsDefault)

	// Full-size blob plus thumbnail per picture.
	assert.Equal(t, 6, env.blobs.count())
	for _, picture := range created {
		assert.True(t, env.blobs.has(picture.Filename))
		assert.True(t, env.blobs.has("thumb-"+picture.Filename))
		assert.NotEmpty(t, picture.URL)
		assert.NotEmpty(t, picture.ThumbnailURL)
	}
}

func TestUploadPicturesSecondBatchNoDefault(t *testing.T) {
	env := newPictureTestEnv(t)

	first, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID,
		[]*multipart.FileHeader{pngFileHeader(t, "one.png")})
	require.Nil(t, apiErr)
	require.True(t, first[0].IsDefault)

	second, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID,
		[]*multipart.FileHeader{pngFileHeader(t, "two.png")})
	require.Nil(t, apiErr)
	assert.False(t, second[0].IsDefault)
}

func TestUploadPicturesRejectsUnsupportedType(t *testing.T) {
	env := newPictureTestEnv(t)

	files := []*multipart.FileHeader{
		pngFileHeader(t, "ok.png"),
		fileHeader(t, "nope.gif", "image/gif", []byte("GIF89a")),
	}

	_, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID, files)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	// Nothing was recorded or stored.
	pictures, listErr := env.service.GetUserPictures(env.ada.ID)
	require.Nil(t, listErr)
	assert.Empty(t, pictures)
	assert.Equal(t, 0, env.blobs.count())
}

func TestUploadPicturesRollsBackBlobsOnMidBatchFailure(t *testing.T) {
	env := newPictureTestEnv(t)

	// The first file lands its full-size blob and thumbnail, then storage
	// goes away for the second file.
	flaky := &flakyBlobStore{fakeBlobStore: env.blobs, remaining: 2}
	service := NewPictureService(env.repo, flaky, testConfig())

	files := []*multipart.FileHeader{
		pngFileHeader(t, "one.png"),
		pngFileHeader(t, "two.png"),
	}

	_, apiErr := service.UploadPictures(context.Background(), env.ada.ID, files)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)

	// Nothing survives the rollback, thumbnails included.
	assert.Equal(t, 0, env.blobs.count())

	pictures, listErr := env.service.GetUserPictures(env.ada.ID)
	require.Nil(t, listErr)
	assert.Empty(t, pictures)
}

func TestUploadPicturesRejectsOversizedFile(t *testing.T) {
	env := newPictureTestEnv(t)

	big := make([]byte, testConfig().MaxUploadSize+1)
	files := []*multipart.FileHeader{fileHeader(t, "big.png", "image/png", big)}

	_, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID, files)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestSetDefaultPicture(t *testing.T) {
	env := newPictureTestEnv(t)

	created, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID,
		[]*multipart.FileHeader{
			pngFileHeader(t, "one.png"),
			pngFileHeader(t, "two.png"),
		})
	require.Nil(t, apiErr)

	updated, apiErr := env.service.SetDefaultPicture(env.ada.ID, created[1].ID)
	require.Nil(t, apiErr)
	assert.True(t, updated.IsDefault)

	pictures, apiErr := env.service.GetUserPictures(env.ada.ID)
	require.Nil(t, apiErr)
	require.Len(t, pictures, 2)
	assert.False(t, pictures[0].IsDefault)
	assert.True(t, pictures[1].IsDefault)
}

func TestSetDefaultPictureNotOwned(t *testing.T) {
	env := newPictureTestEnv(t)

	created, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID,
		[]*multipart.FileHeader{pngFileHeader(t, "one.png")})
	require.Nil(t, apiErr)

	_, apiErr = env.service.SetDefaultPicture(env.lin.ID, created[0].ID)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestDeleteDefaultPicturePromotesReplacement(t *testing.T) {
	env := newPictureTestEnv(t)

	created, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID,
		[]*multipart.FileHeader{
			pngFileHeader(t, "one.png"),
			pngFileHeader(t, "two.png"),
		})
	require.Nil(t, apiErr)

	apiErr = env.service.DeletePicture(context.Background(), env.ada.ID, created[0].ID)
	require.Nil(t, apiErr)

	// Blobs for the deleted picture are gone.
	assert.False(t, env.blobs.has(created[0].Filename))
	assert.False(t, env.blobs.has("thumb-"+created[0].Filename))

	pictures, apiErr := env.service.GetUserPictures(env.ada.ID)
	require.Nil(t, apiErr)
	require.Len(t, pictures, 1)
	assert.True(t, pictures[0].IsDefault)
	assert.Equal(t, created[1].ID, pictures[0].ID)
}

func TestDeletePictureNotOwned(t *testing.T) {
	env := newPictureTestEnv(t)

	created, apiErr := env.service.UploadPictures(context.Background(), env.ada.ID,
		[]*multipart.FileHeader{pngFileHeader(t, "one.png")})
	require.Nil(t, apiErr)

	apiErr = env.service.DeletePicture(context.Background(), env.lin.ID, created[0].ID)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
