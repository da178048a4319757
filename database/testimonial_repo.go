package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenshan/portfolio-backend/models"
)

type TestimonialRepo struct {
	db *gorm.DB
}

func NewTestimonialRepo(db *gorm.DB) *TestimonialRepo {
	return &TestimonialRepo{db}
}

// FindAll returns every testimonial newest-first, for the management console.
func (r *TestimonialRepo) FindAll() ([]*models.Testimonial, error) {
	var testimonials []*models.Testimonial
	err := r.db.Order("created DESC").Find(&testimonials).Error
	return testimonials, err
}

// FindVisible returns only the testimonials shown on the public site.
func (r *TestimonialRepo) FindVisible() ([]*models.Testimonial, error) {
	var testimonials []*models.Testimonial
	err := r.db.Where("visible = ?", true).Order("created DESC").Find(&testimonials).Error
	return testimonials, err
}

func (r *TestimonialRepo) FindByID(id uuid.UUID) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	err := r.db.First(&testimonial, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &testimonial, nil
}

func (r *TestimonialRepo) Add(testimonial *models.Testimonial) error {
	return r.db.Create(testimonial).Error
}

// ToggleVisibility flips the visible flag and returns the new value.
func (r *TestimonialRepo) ToggleVisibility(id uuid.UUID) (bool, error) {
	var testimonial models.Testimonial
	if err := r.db.First(&testimonial, "id = ?", id).Error; err != nil {
		return false, err
	}
	testimonial.Visible = !testimonial.Visible
	if err := r.db.Model(&testimonial).Update("visible", testimonial.Visible).Error; err != nil {
		return false, err
	}
	return testimonial.Visible, nil
}

func (r *TestimonialRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Testimonial{}, "id = ?", id).Error
}

// Count returns total and visible testimonial counts for the dashboard.
func (r *TestimonialRepo) Count() (total, visible int64, err error) {
	if err = r.db.Model(&models.Testimonial{}).Count(&total).Error; err != nil {
		return
	}
	err = r.db.Model(&models.Testimonial{}).Where("visible = ?", true).Count(&visible).Error
	return
}
