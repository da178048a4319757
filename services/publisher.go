package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenshan/portfolio-backend/database"
	"github.com/greenshan/portfolio-backend/errs"
	"github.com/greenshan/portfolio-backend/media"
	"github.com/greenshan/portfolio-backend/models"
	"github.com/greenshan/portfolio-backend/slug"
	"github.com/greenshan/portfolio-backend/storage"
)

// MediaOpKind discriminates the three media operations a save can carry.
type MediaOpKind string

const (
	MediaOpAdd    MediaOpKind = "add"
	MediaOpUpdate MediaOpKind = "update"
	MediaOpRemove MediaOpKind = "remove"
)

// MediaOp is one media change applied alongside a project save. Add ops
// carry the upload; update and remove ops reference an existing row.
type MediaOp struct {
	Kind MediaOpKind

	// add
	Filename string
	Size     int64
	Content  io.ReadSeeker
	Declared models.MediaType

	// add + update
	Caption string
	Order   int

	// update + remove
	MediaID uuid.UUID
}

// Upload is an incoming file for the project cover.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// ProjectInput carries the project field values for a create or update.
// A nil ID means create.
type ProjectInput struct {
	ID              uuid.UUID
	Title           string
	Slug            string // empty triggers allocation on create
	Client          string
	ProjectDate     *time.Time
	Location        string
	Category        models.ProjectCategory
	Description     string
	ExperienceNotes string
	Featured        bool
	Cover           *Upload
}

// Publisher applies project create/update/delete as one atomic unit: slug
// resolution, media validation, the count ceiling, row writes and blob
// writes all succeed or all roll back.
type Publisher struct {
	db          *gorm.DB
	projects    *database.ProjectRepo
	store       storage.BlobStore
	limits      media.Limits
	slugMutable bool
	logger      zerolog.Logger
}

func NewPublisher(db *gorm.DB, store storage.BlobStore, limits media.Limits, slugMutable bool) *Publisher {
	return &Publisher{
		db:          db,
		projects:    database.NewProjectRepo(db),
		store:       store,
		limits:      limits,
		slugMutable: slugMutable,
		logger:      log.With().Str("serviceName", "publisher").Logger(),
	}
}

// SaveProject creates or updates a project together with its media
// operations. Every validation failure across the input is collected before
// the call fails, and a failed call persists nothing.
func (p *Publisher) SaveProject(ctx context.Context, input ProjectInput, ops []MediaOp) (uuid.UUID, error) {
	if strings.TrimSpace(input.Title) == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError("title")
	}
	if !models.ValidCategory(input.Category) {
		return uuid.Nil, errs.NewInvalidFieldError("category", string(input.Category)+" is not a known category")
	}

	creating := input.ID == uuid.Nil

	var current *models.Project
	if !creating {
		var existing models.Project
		err := p.db.WithContext(ctx).First(&existing, "id = ?", input.ID).Error
		if err == gorm.ErrRecordNotFound {
			return uuid.Nil, errs.NewNotFound("project")
		}
		if err != nil {
			return uuid.Nil, errs.NewDatabaseError("find", "project", err)
		}
		current = &existing
	}

	targetSlug, oldSlug, err := p.resolveSlug(input, current)
	if err != nil {
		return uuid.Nil, err
	}

	// Validate every incoming file before anything is written, collecting
	// all failures so the staff user fixes them in one round trip.
	validation := &errs.ValidationErrors{}
	for i := range ops {
		op := &ops[i]
		if op.Kind != MediaOpAdd {
			continue
		}
		resolved, verr := media.Classify(op.Filename, op.Size, op.Declared, false, nil, p.limits)
		if verr != nil {
			validation.Add(verr)
			continue
		}
		op.Declared = resolved
	}
	if input.Cover != nil {
		_, verr := media.Classify(input.Cover.Filename, input.Cover.Size, models.MediaImage, true, input.Cover.Content, p.limits)
		if verr != nil {
			validation.Add(verr)
		} else if _, err := input.Cover.Content.Seek(0, io.SeekStart); err != nil {
			return uuid.Nil, errs.NewInternalErrorWithCause("rewinding cover upload", err)
		}
	}
	if validation.HasErrors() {
		return uuid.Nil, validation
	}

	adds, updates, removes := splitOps(ops)

	// Pre-check the ceiling outside the transaction so an obviously oversized
	// request never opens one. Rechecked under the row lock below.
	if !creating {
		existingCount, err := p.projects.CountMedia(input.ID)
		if err != nil {
			return uuid.Nil, errs.NewDatabaseError("count", "project media", err)
		}
		if projected := int(existingCount) - len(removes) + len(adds); projected > p.limits.MaxPerProject {
			return uuid.Nil, errs.NewMediaLimitExceededError(projected, p.limits.MaxPerProject)
		}
	} else if len(adds) > p.limits.MaxPerProject {
		return uuid.Nil, errs.NewMediaLimitExceededError(len(adds), p.limits.MaxPerProject)
	}

	project := p.buildProject(input, current, targetSlug)

	var removedPaths []string
	var renamed bool
	txErr := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removedPaths = removedPaths[:0]
		renamed = false
		if creating {
			if err := tx.Create(project).Error; err != nil {
				if isUniqueViolation(err) {
					return errs.NewSlugCollisionError(targetSlug)
				}
				return errs.NewDatabaseError("create", "project", err)
			}
		} else {
			// Serialize concurrent writers against the same project so the
			// ceiling cannot be exceeded by a racing update.
			var locked models.Project
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "id = ?", project.ID).Error; err != nil {
				return errs.NewDatabaseError("lock", "project", err)
			}

			count, err := p.mediaCount(tx, project.ID)
			if err != nil {
				return errs.NewDatabaseError("count", "project media", err)
			}
			if projected := int(count) - len(removes) + len(adds); projected > p.limits.MaxPerProject {
				return errs.NewMediaLimitExceededError(projected, p.limits.MaxPerProject)
			}

			if oldSlug != "" && oldSlug != targetSlug {
				if err := p.renameNamespace(tx, project, oldSlug, targetSlug); err != nil {
					return err
				}
			}

			if err := tx.Save(project).Error; err != nil {
				if isUniqueViolation(err) {
					return errs.NewSlugCollisionError(targetSlug)
				}
				return errs.NewDatabaseError("update", "project", err)
			}
		}

		for _, op := range updates {
			result := tx.Model(&models.ProjectMedia{}).
				Where("id = ? AND project_id = ?", op.MediaID, project.ID).
				Updates(map[string]any{"caption": op.Caption, "display_order": op.Order})
			if result.Error != nil {
				return errs.NewDatabaseError("update", "project media", result.Error)
			}
			if result.RowsAffected == 0 {
				return errs.NewNotFound("project media")
			}
		}

		for _, op := range removes {
			var row models.ProjectMedia
			err := tx.First(&row, "id = ? AND project_id = ?", op.MediaID, project.ID).Error
			if err == gorm.ErrRecordNotFound {
				return errs.NewNotFound("project media")
			}
			if err != nil {
				return errs.NewDatabaseError("find", "project media", err)
			}
			if err := tx.Delete(&models.ProjectMedia{}, "id = ?", row.ID).Error; err != nil {
				return errs.NewDatabaseError("delete", "project media", err)
			}
			removedPaths = append(removedPaths, row.FilePath)
		}

		for _, op := range adds {
			row := models.ProjectMedia{
				ID:        uuid.New(),
				ProjectID: project.ID,
				FilePath:  storage.MediaKey(targetSlug, op.Filename),
				MediaType: op.Declared,
				Caption:   op.Caption,
				Order:     op.Order,
				Created:   time.Now().UTC(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return errs.NewDatabaseError("create", "project media", err)
			}
		}

		// A replaced cover's old blob is cleaned up post-commit, remapped to
		// the new namespace when this save also renames the slug.
		if input.Cover != nil && current != nil && current.CoverPath != nil {
			oldKey := *current.CoverPath
			if oldSlug != "" && oldSlug != targetSlug && strings.HasPrefix(oldKey, storage.ProjectPrefix(oldSlug)) {
				oldKey = storage.ProjectPrefix(targetSlug) + strings.TrimPrefix(oldKey, storage.ProjectPrefix(oldSlug))
			}
			if project.CoverPath == nil || oldKey != *project.CoverPath {
				removedPaths = append(removedPaths, oldKey)
			}
		}

		// Blob writes happen last, inside the transaction scope, so a failed
		// write rolls back every row above and never leaves an orphaned row.
		// A blob written before a later failure is orphaned storage at worst,
		// never a dangling database reference.
		if oldSlug != "" && oldSlug != targetSlug {
			if err := p.store.RenamePrefix(ctx, storage.ProjectPrefix(oldSlug), storage.ProjectPrefix(targetSlug)); err != nil {
				return errs.NewInternalErrorWithCause("renaming blob namespace", err)
			}
			renamed = true
		}
		if input.Cover != nil {
			if err := p.store.Put(ctx, storage.CoverKey(targetSlug, input.Cover.Filename), input.Cover.Content); err != nil {
				return errs.NewInternalErrorWithCause("writing cover blob", err)
			}
		}
		for _, op := range adds {
			if _, err := op.Content.Seek(0, io.SeekStart); err != nil {
				return errs.NewInternalErrorWithCause("rewinding media upload", err)
			}
			if err := p.store.Put(ctx, storage.MediaKey(targetSlug, op.Filename), op.Content); err != nil {
				return errs.NewInternalErrorWithCause("writing media blob", err)
			}
		}

		return nil
	})
	if txErr != nil {
		// The rows rolled back to the old slug; move the blobs back with them.
		if renamed {
			if err := p.store.RenamePrefix(ctx, storage.ProjectPrefix(targetSlug), storage.ProjectPrefix(oldSlug)); err != nil {
				p.logger.Warn().Err(err).Str("slug", oldSlug).Msg("Failed to restore blob namespace after rollback")
			}
		}
		return uuid.Nil, txErr
	}

	// Removed rows are gone; their blobs are best-effort cleanup.
	for _, key := range removedPaths {
		if err := p.store.Delete(ctx, key); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete removed media blob")
		}
	}

	return project.ID, nil
}

// DeleteProject removes the project row, its media rows and its whole blob
// namespace. Row deletion is transactional; blob deletion runs after commit
// and is logged on failure.
func (p *Publisher) DeleteProject(ctx context.Context, id uuid.UUID) error {
	var project models.Project
	err := p.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return errs.NewNotFound("project")
	}
	if err != nil {
		return errs.NewDatabaseError("find", "project", err)
	}

	txErr := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ProjectMedia{}, "project_id = ?", id).Error; err != nil {
			return errs.NewDatabaseError("delete", "project media", err)
		}
		if err := tx.Delete(&models.Project{}, "id = ?", id).Error; err != nil {
			return errs.NewDatabaseError("delete", "project", err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if err := p.store.DeletePrefix(ctx, storage.ProjectPrefix(project.Slug)); err != nil {
		p.logger.Warn().Err(err).Str("slug", project.Slug).Msg("Failed to delete project blob namespace")
	}
	return nil
}

// resolveSlug returns the slug the save will use and, for renames, the slug
// being replaced. Create: an explicit slug is trusted but must be free;
// otherwise one is allocated from the title. Update: the slug is immutable
// unless the deployment opts in with SLUG_MUTABLE.
func (p *Publisher) resolveSlug(input ProjectInput, current *models.Project) (target, old string, err error) {
	if current == nil {
		if input.Slug != "" {
			taken, err := p.projects.SlugTaken(input.Slug, uuid.Nil)
			if err != nil {
				return "", "", errs.NewDatabaseError("check", "slug", err)
			}
			if taken {
				return "", "", errs.NewSlugCollisionError(input.Slug)
			}
			return input.Slug, "", nil
		}

		existing, err := p.projects.ExistingSlugs()
		if err != nil {
			return "", "", errs.NewDatabaseError("list", "slugs", err)
		}
		return slug.Allocate(input.Title, existing), "", nil
	}

	if input.Slug == "" || input.Slug == current.Slug {
		return current.Slug, "", nil
	}

	if !p.slugMutable {
		return "", "", errs.NewInvalidFieldError("slug", "slug cannot be changed after creation")
	}

	taken, err := p.projects.SlugTaken(input.Slug, current.ID)
	if err != nil {
		return "", "", errs.NewDatabaseError("check", "slug", err)
	}
	if taken {
		return "", "", errs.NewSlugCollisionError(input.Slug)
	}
	return input.Slug, current.Slug, nil
}

// renameNamespace rewrites the stored blob paths when a slug edit changes the
// storage namespace. Row rewrites only; the blobs themselves are moved at the
// end of the transaction, after every row write has succeeded.
func (p *Publisher) renameNamespace(tx *gorm.DB, project *models.Project, oldSlug, newSlug string) error {
	oldPrefix := storage.ProjectPrefix(oldSlug)
	newPrefix := storage.ProjectPrefix(newSlug)

	var rows []models.ProjectMedia
	if err := tx.Find(&rows, "project_id = ?", project.ID).Error; err != nil {
		return errs.NewDatabaseError("find", "project media", err)
	}
	for _, row := range rows {
		updated := newPrefix + strings.TrimPrefix(row.FilePath, oldPrefix)
		if err := tx.Model(&row).Update("file_path", updated).Error; err != nil {
			return errs.NewDatabaseError("update", "project media path", err)
		}
	}
	// A cover uploaded in the same save is already keyed under the new slug.
	if project.CoverPath != nil && strings.HasPrefix(*project.CoverPath, oldPrefix) {
		updated := newPrefix + strings.TrimPrefix(*project.CoverPath, oldPrefix)
		project.CoverPath = &updated
	}
	return nil
}

func (p *Publisher) buildProject(input ProjectInput, current *models.Project, targetSlug string) *models.Project {
	project := &models.Project{
		Title:           input.Title,
		Slug:            targetSlug,
		Client:          input.Client,
		ProjectDate:     input.ProjectDate,
		Location:        input.Location,
		Category:        input.Category,
		Description:     input.Description,
		ExperienceNotes: input.ExperienceNotes,
		Featured:        input.Featured,
	}
	if current != nil {
		project.ID = current.ID
		project.Created = current.Created
		project.CoverPath = current.CoverPath
	} else {
		project.ID = uuid.New()
		project.Created = time.Now().UTC()
	}
	if input.Cover != nil {
		key := storage.CoverKey(targetSlug, input.Cover.Filename)
		project.CoverPath = &key
	}
	return project
}

func (p *Publisher) mediaCount(db *gorm.DB, projectID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.ProjectMedia{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

func splitOps(ops []MediaOp) (adds, updates, removes []MediaOp) {
	for _, op := range ops {
		switch op.Kind {
		case MediaOpAdd:
			adds = append(adds, op)
		case MediaOpUpdate:
			updates = append(updates, op)
		case MediaOpRemove:
			removes = append(removes, op)
		}
	}
	return
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
