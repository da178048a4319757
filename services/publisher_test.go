package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/greenshan/portfolio-backend/errs"
	"github.com/greenshan/portfolio-backend/media"
	"github.com/greenshan/portfolio-backend/models"
	"github.com/greenshan/portfolio-backend/storage"
)

// memStore is an in-memory BlobStore for exercising the publisher without a
// filesystem or S3.
type memStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	failPuts bool
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Put(ctx context.Context, key string, r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts {
		return fmt.Errorf("simulated blob failure for %s", key)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.blobs[key] = data
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memStore) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			delete(m.blobs, key)
		}
	}
	return nil
}

func (m *memStore) RenamePrefix(ctx context.Context, oldPrefix, newPrefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, data := range m.blobs {
		if strings.HasPrefix(key, oldPrefix) {
			m.blobs[newPrefix+strings.TrimPrefix(key, oldPrefix)] = data
			delete(m.blobs, key)
		}
	}
	return nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Project{}, &models.ProjectMedia{}))
	return db
}

func newTestPublisher(t *testing.T, store storage.BlobStore, slugMutable bool) (*Publisher, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewPublisher(db, store, media.DefaultLimits, slugMutable), db
}

func addOp(filename string, size int64, content []byte) MediaOp {
	return MediaOp{
		Kind:     MediaOpAdd,
		Filename: filename,
		Size:     size,
		Content:  bytes.NewReader(content),
	}
}

func pngUpload(t *testing.T, filename string) *Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &Upload{
		Filename: filename,
		Size:     int64(buf.Len()),
		Content:  bytes.NewReader(buf.Bytes()),
	}
}

func projectCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Project{}).Count(&count).Error)
	return count
}

func mediaRowCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.ProjectMedia{}).Count(&count).Error)
	return count
}

func TestSaveProjectRequiresTitle(t *testing.T) {
	pub, _ := newTestPublisher(t, newMemStore(), false)

	_, err := pub.SaveProject(context.Background(), ProjectInput{Title: "   "}, nil)
	require.Error(t, err)

	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestSaveProjectRejectsUnknownCategory(t *testing.T) {
	pub, _ := newTestPublisher(t, newMemStore(), false)

	_, err := pub.SaveProject(context.Background(), ProjectInput{
		Title:    "Some Project",
		Category: models.ProjectCategory("interpretive-dance"),
	}, nil)
	require.Error(t, err)
}

func TestCreateAllocatesSlugFromTitle(t *testing.T) {
	pub, db := newTestPublisher(t, newMemStore(), false)

	id, err := pub.SaveProject(context.Background(), ProjectInput{Title: "Summer Campaign 2024"}, nil)
	require.NoError(t, err)

	var project models.Project
	require.NoError(t, db.First(&project, "id = ?", id).Error)
	assert.Equal(t, "summer-campaign-2024", project.Slug)
}

func TestCreateDuplicateTitleGetsSuffixedSlug(t *testing.T) {
	pub, db := newTestPublisher(t, newMemStore(), false)
	ctx := context.Background()

	_, err := pub.SaveProject(ctx, ProjectInput{Title: "Summer Campaign 2024"}, nil)
	require.NoError(t, err)

	id, err := pub.SaveProject(ctx, ProjectInput{Title: "Summer Campaign 2024"}, nil)
	require.NoError(t, err)

	var second models.Project
	require.NoError(t, db.First(&second, "id = ?", id).Error)
	assert.Equal(t, "summer-campaign-2024-1", second.Slug)
}

func TestCreateExplicitSlugCollision(t *testing.T) {
	pub, _ := newTestPublisher(t, newMemStore(), false)
	ctx := context.Background()

	_, err := pub.SaveProject(ctx, ProjectInput{Title: "First", Slug: "taken"}, nil)
	require.NoError(t, err)

	_, err = pub.SaveProject(ctx, ProjectInput{Title: "Second", Slug: "taken"}, nil)
	require.Error(t, err)
	assert.True(t, errs.IsSlugCollision(err))
}

func TestCreateMediaLimitExceededPersistsNothing(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, false)

	ops := make([]MediaOp, 0, media.DefaultLimits.MaxPerProject+1)
	for i := 0; i <= media.DefaultLimits.MaxPerProject; i++ {
		ops = append(ops, addOp(fmt.Sprintf("clip-%d.mp4", i), 1000, []byte("data")))
	}

	_, err := pub.SaveProject(context.Background(), ProjectInput{Title: "Too Much Media"}, ops)
	require.Error(t, err)
	assert.True(t, errs.IsMediaLimitExceeded(err))

	assert.Zero(t, projectCount(t, db))
	assert.Zero(t, mediaRowCount(t, db))
	assert.Zero(t, store.count())
}

func TestValidationFailuresAreCollected(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, false)

	ops := []MediaOp{
		addOp("fine.jpg", 1000, []byte("data")),
		addOp("huge.mp4", media.DefaultLimits.MaxFileBytes+1, []byte("data")),
		{
			Kind:     MediaOpAdd,
			Filename: "report.pdf",
			Size:     1000,
			Content:  bytes.NewReader([]byte("data")),
			Declared: models.MediaImage,
		},
	}

	_, err := pub.SaveProject(context.Background(), ProjectInput{Title: "Mixed Bag"}, ops)
	require.Error(t, err)

	var validation *errs.ValidationErrors
	require.ErrorAs(t, err, &validation)
	assert.Len(t, validation.Errors, 2)
	assert.True(t, errs.IsFileTooLarge(err))
	assert.True(t, errs.IsExtensionMismatch(err))

	assert.Zero(t, projectCount(t, db))
	assert.Zero(t, mediaRowCount(t, db))
	assert.Zero(t, store.count())
}

func TestCreateWithMediaAndCoverPersistsRowsAndBlobs(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, false)

	ops := []MediaOp{
		addOp("clip.mp4", 2048, []byte("video-bytes")),
		addOp("photo.jpg", 1024, []byte("image-bytes")),
	}

	id, err := pub.SaveProject(context.Background(), ProjectInput{
		Title: "Launch Film",
		Cover: pngUpload(t, "hero.png"),
	}, ops)
	require.NoError(t, err)

	var project models.Project
	require.NoError(t, db.First(&project, "id = ?", id).Error)
	require.NotNil(t, project.CoverPath)
	assert.Equal(t, storage.CoverKey("launch-film", "hero.png"), *project.CoverPath)

	var rows []models.ProjectMedia
	require.NoError(t, db.Find(&rows, "project_id = ?", id).Error)
	require.Len(t, rows, 2)
	types := map[string]models.MediaType{}
	for _, row := range rows {
		types[row.FilePath] = row.MediaType
	}
	assert.Equal(t, models.MediaVideo, types[storage.MediaKey("launch-film", "clip.mp4")])
	assert.Equal(t, models.MediaImage, types[storage.MediaKey("launch-film", "photo.jpg")])

	assert.True(t, store.has(storage.CoverKey("launch-film", "hero.png")))
	assert.True(t, store.has(storage.MediaKey("launch-film", "clip.mp4")))
	assert.True(t, store.has(storage.MediaKey("launch-film", "photo.jpg")))
}

func TestBlobFailureRollsBackRows(t *testing.T) {
	store := newMemStore()
	store.failPuts = true
	pub, db := newTestPublisher(t, store, false)

	_, err := pub.SaveProject(context.Background(), ProjectInput{Title: "Doomed"}, []MediaOp{
		addOp("clip.mp4", 2048, []byte("video-bytes")),
	})
	require.Error(t, err)

	assert.Zero(t, projectCount(t, db))
	assert.Zero(t, mediaRowCount(t, db))
}

func TestUpdateKeepsSlugWhenTitleChanges(t *testing.T) {
	pub, db := newTestPublisher(t, newMemStore(), false)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{Title: "Original Title"}, nil)
	require.NoError(t, err)

	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "A Completely New Title"}, nil)
	require.NoError(t, err)

	var project models.Project
	require.NoError(t, db.First(&project, "id = ?", id).Error)
	assert.Equal(t, "original-title", project.Slug)
	assert.Equal(t, "A Completely New Title", project.Title)
}

func TestUpdateSlugRejectedWhenImmutable(t *testing.T) {
	pub, _ := newTestPublisher(t, newMemStore(), false)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{Title: "Fixed Slug"}, nil)
	require.NoError(t, err)

	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "Fixed Slug", Slug: "new-slug"}, nil)
	require.Error(t, err)

	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "slug", apiErr.Field)
}

func TestUpdateSlugRenamesNamespaceWhenMutable(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, true)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{Title: "Old Name"}, []MediaOp{
		addOp("clip.mp4", 2048, []byte("video-bytes")),
	})
	require.NoError(t, err)

	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "Old Name", Slug: "brand-new"}, nil)
	require.NoError(t, err)

	var project models.Project
	require.NoError(t, db.First(&project, "id = ?", id).Error)
	assert.Equal(t, "brand-new", project.Slug)

	var row models.ProjectMedia
	require.NoError(t, db.First(&row, "project_id = ?", id).Error)
	assert.Equal(t, storage.MediaKey("brand-new", "clip.mp4"), row.FilePath)

	assert.True(t, store.has(storage.MediaKey("brand-new", "clip.mp4")))
	assert.False(t, store.has(storage.MediaKey("old-name", "clip.mp4")))
}

// A failed save that includes a slug rename must leave the blobs in the old
// namespace, matching the rolled-back rows.
func TestFailedSaveAfterSlugRenameKeepsBlobNamespace(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, true)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{Title: "Old Name"}, []MediaOp{
		addOp("clip.mp4", 2048, []byte("video-bytes")),
	})
	require.NoError(t, err)

	// The stale remove op fails the transaction after the slug rename.
	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "Old Name", Slug: "brand-new"}, []MediaOp{
		{Kind: MediaOpRemove, MediaID: uuid.New()},
	})
	require.Error(t, err)

	var project models.Project
	require.NoError(t, db.First(&project, "id = ?", id).Error)
	assert.Equal(t, "old-name", project.Slug)

	var row models.ProjectMedia
	require.NoError(t, db.First(&row, "project_id = ?", id).Error)
	assert.Equal(t, storage.MediaKey("old-name", "clip.mp4"), row.FilePath)

	assert.True(t, store.has(storage.MediaKey("old-name", "clip.mp4")))
	assert.False(t, store.has(storage.MediaKey("brand-new", "clip.mp4")))
}

func TestReplacingCoverDeletesOldBlob(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, false)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{
		Title: "Cover Swap",
		Cover: pngUpload(t, "hero.png"),
	}, nil)
	require.NoError(t, err)
	require.True(t, store.has(storage.CoverKey("cover-swap", "hero.png")))

	_, err = pub.SaveProject(ctx, ProjectInput{
		ID:    id,
		Title: "Cover Swap",
		Cover: pngUpload(t, "new-hero.png"),
	}, nil)
	require.NoError(t, err)

	var project models.Project
	require.NoError(t, db.First(&project, "id = ?", id).Error)
	require.NotNil(t, project.CoverPath)
	assert.Equal(t, storage.CoverKey("cover-swap", "new-hero.png"), *project.CoverPath)

	assert.True(t, store.has(storage.CoverKey("cover-swap", "new-hero.png")))
	assert.False(t, store.has(storage.CoverKey("cover-swap", "hero.png")))
}

func TestSlugRenameWithNewCover(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, true)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{
		Title: "Old Name",
		Cover: pngUpload(t, "hero.png"),
	}, nil)
	require.NoError(t, err)

	_, err = pub.SaveProject(ctx, ProjectInput{
		ID:    id,
		Title: "Old Name",
		Slug:  "brand-new",
		Cover: pngUpload(t, "new-hero.png"),
	}, nil)
	require.NoError(t, err)

	var project models.Project
	require.NoError(t, db.First(&project, "id = ?", id).Error)
	require.NotNil(t, project.CoverPath)
	assert.Equal(t, storage.CoverKey("brand-new", "new-hero.png"), *project.CoverPath)

	assert.True(t, store.has(storage.CoverKey("brand-new", "new-hero.png")))
	assert.False(t, store.has(storage.CoverKey("brand-new", "hero.png")))
	assert.False(t, store.has(storage.CoverKey("old-name", "hero.png")))
}

func TestRemoveOpDeletesRowAndBlob(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, false)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{Title: "With Media"}, []MediaOp{
		addOp("clip.mp4", 2048, []byte("video-bytes")),
	})
	require.NoError(t, err)

	var row models.ProjectMedia
	require.NoError(t, db.First(&row, "project_id = ?", id).Error)

	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "With Media"}, []MediaOp{
		{Kind: MediaOpRemove, MediaID: row.ID},
	})
	require.NoError(t, err)

	assert.Zero(t, mediaRowCount(t, db))
	assert.False(t, store.has(row.FilePath))
}

func TestUpdateOpChangesCaptionAndOrder(t *testing.T) {
	pub, db := newTestPublisher(t, newMemStore(), false)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{Title: "Captioned"}, []MediaOp{
		addOp("clip.mp4", 2048, []byte("video-bytes")),
	})
	require.NoError(t, err)

	var row models.ProjectMedia
	require.NoError(t, db.First(&row, "project_id = ?", id).Error)

	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "Captioned"}, []MediaOp{
		{Kind: MediaOpUpdate, MediaID: row.ID, Caption: "behind the scenes", Order: 3},
	})
	require.NoError(t, err)

	require.NoError(t, db.First(&row, "id = ?", row.ID).Error)
	assert.Equal(t, "behind the scenes", row.Caption)
	assert.Equal(t, 3, row.Order)
}

func TestUpdateOpUnknownMediaFails(t *testing.T) {
	pub, _ := newTestPublisher(t, newMemStore(), false)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{Title: "No Such Media"}, nil)
	require.NoError(t, err)

	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "No Such Media"}, []MediaOp{
		{Kind: MediaOpUpdate, MediaID: uuid.New(), Caption: "nope"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestUpdateCeilingCountsExistingMedia(t *testing.T) {
	pub, db := newTestPublisher(t, newMemStore(), false)
	ctx := context.Background()

	ops := make([]MediaOp, 0, media.DefaultLimits.MaxPerProject-1)
	for i := 0; i < media.DefaultLimits.MaxPerProject-1; i++ {
		ops = append(ops, addOp(fmt.Sprintf("clip-%d.mp4", i), 1000, []byte("data")))
	}
	id, err := pub.SaveProject(ctx, ProjectInput{Title: "Nearly Full"}, ops)
	require.NoError(t, err)

	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "Nearly Full"}, []MediaOp{
		addOp("extra-1.mp4", 1000, []byte("data")),
		addOp("extra-2.mp4", 1000, []byte("data")),
	})
	require.Error(t, err)
	assert.True(t, errs.IsMediaLimitExceeded(err))

	assert.EqualValues(t, media.DefaultLimits.MaxPerProject-1, mediaRowCount(t, db))
}

func TestRemoveMakesRoomUnderCeiling(t *testing.T) {
	pub, db := newTestPublisher(t, newMemStore(), false)
	ctx := context.Background()

	ops := make([]MediaOp, 0, media.DefaultLimits.MaxPerProject)
	for i := 0; i < media.DefaultLimits.MaxPerProject; i++ {
		ops = append(ops, addOp(fmt.Sprintf("clip-%d.mp4", i), 1000, []byte("data")))
	}
	id, err := pub.SaveProject(ctx, ProjectInput{Title: "Full House"}, ops)
	require.NoError(t, err)

	var row models.ProjectMedia
	require.NoError(t, db.First(&row, "project_id = ?", id).Error)

	_, err = pub.SaveProject(ctx, ProjectInput{ID: id, Title: "Full House"}, []MediaOp{
		{Kind: MediaOpRemove, MediaID: row.ID},
		addOp("replacement.mp4", 1000, []byte("data")),
	})
	require.NoError(t, err)

	assert.EqualValues(t, media.DefaultLimits.MaxPerProject, mediaRowCount(t, db))
}

func TestUpdateUnknownProjectFails(t *testing.T) {
	pub, _ := newTestPublisher(t, newMemStore(), false)

	_, err := pub.SaveProject(context.Background(), ProjectInput{ID: uuid.New(), Title: "Ghost"}, nil)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteProjectRemovesRowsAndBlobs(t *testing.T) {
	store := newMemStore()
	pub, db := newTestPublisher(t, store, false)
	ctx := context.Background()

	id, err := pub.SaveProject(ctx, ProjectInput{
		Title: "Short Lived",
		Cover: pngUpload(t, "hero.png"),
	}, []MediaOp{
		addOp("clip.mp4", 2048, []byte("video-bytes")),
	})
	require.NoError(t, err)

	require.NoError(t, pub.DeleteProject(ctx, id))

	assert.Zero(t, projectCount(t, db))
	assert.Zero(t, mediaRowCount(t, db))
	assert.Zero(t, store.count())
}

func TestDeleteUnknownProjectFails(t *testing.T) {
	pub, _ := newTestPublisher(t, newMemStore(), false)

	err := pub.DeleteProject(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}
