package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenshan/portfolio-backend/models"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// preloadMedia applies the display ordering the public site expects.
func preloadMedia(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, created ASC")
}

// ProjectFilter narrows FindAll. Zero value returns everything.
type ProjectFilter struct {
	Category     models.ProjectCategory
	FeaturedOnly bool
}

// FindAll returns projects newest-first with their media preloaded.
func (r *ProjectRepo) FindAll(filter ProjectFilter) ([]*models.Project, error) {
	query := r.db.Preload("Media", preloadMedia).
		Order("project_date DESC, created DESC")
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.FeaturedOnly {
		query = query.Where("featured = ?", true)
	}

	var projects []*models.Project
	err := query.Find(&projects).Error
	return projects, err
}

// FindByID returns a project by its ID, or nil when no row matches.
func (r *ProjectRepo) FindByID(id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.Preload("Media", preloadMedia).First(&project, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindBySlug returns a project by its slug, or nil when no row matches.
func (r *ProjectRepo) FindBySlug(slug string) (*models.Project, error) {
	var project models.Project
	err := r.db.Preload("Media", preloadMedia).First(&project, "slug = ?", slug).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ExistingSlugs returns the set of every slug currently in use. The unique
// index on the slug column remains the authority under concurrent creation;
// this snapshot only feeds the allocator's collision-avoidance loop.
func (r *ProjectRepo) ExistingSlugs() (map[string]struct{}, error) {
	var slugs []string
	if err := r.db.Model(&models.Project{}).Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}
	return set, nil
}

// SlugTaken reports whether slug is used by any project other than exclude.
func (r *ProjectRepo) SlugTaken(slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.Model(&models.Project{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// CountMedia returns the number of media rows owned by the project.
func (r *ProjectRepo) CountMedia(projectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.ProjectMedia{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// Count returns total and featured project counts for the dashboard.
func (r *ProjectRepo) Count() (total, featured int64, err error) {
	if err = r.db.Model(&models.Project{}).Count(&total).Error; err != nil {
		return
	}
	err = r.db.Model(&models.Project{}).Where("featured = ?", true).Count(&featured).Error
	return
}

// CountAllMedia returns the total media row count across all projects.
func (r *ProjectRepo) CountAllMedia() (int64, error) {
	var count int64
	err := r.db.Model(&models.ProjectMedia{}).Count(&count).Error
	return count, err
}
