package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenshan/portfolio-backend/models"
)

type ContactRequestRepo struct {
	db *gorm.DB
}

func NewContactRequestRepo(db *gorm.DB) *ContactRequestRepo {
	return &ContactRequestRepo{db}
}

// FindAll returns every contact request newest-first.
func (r *ContactRequestRepo) FindAll() ([]*models.ContactRequest, error) {
	var requests []*models.ContactRequest
	err := r.db.Order("created DESC").Find(&requests).Error
	return requests, err
}

func (r *ContactRequestRepo) FindByID(id uuid.UUID) (*models.ContactRequest, error) {
	var request models.ContactRequest
	err := r.db.First(&request, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Add inserts a request submitted through the public contact form.
func (r *ContactRequestRepo) Add(request *models.ContactRequest) error {
	return r.db.Create(request).Error
}

func (r *ContactRequestRepo) MarkHandled(id uuid.UUID) error {
	return r.db.Model(&models.ContactRequest{}).Where("id = ?", id).Update("handled", true).Error
}

func (r *ContactRequestRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.ContactRequest{}, "id = ?", id).Error
}

// CountPending returns the number of unhandled requests for the dashboard.
func (r *ContactRequestRepo) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&models.ContactRequest{}).Where("handled = ?", false).Count(&count).Error
	return count, err
}
