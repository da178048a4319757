package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenshan/portfolio-backend/models"
)

type ServiceRepo struct {
	db *gorm.DB
}

func NewServiceRepo(db *gorm.DB) *ServiceRepo {
	return &ServiceRepo{db}
}

// FindAll returns services in display order.
func (r *ServiceRepo) FindAll() ([]*models.Service, error) {
	var services []*models.Service
	err := r.db.Order("display_order ASC").Find(&services).Error
	return services, err
}

func (r *ServiceRepo) FindByID(id uuid.UUID) (*models.Service, error) {
	var service models.Service
	err := r.db.First(&service, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *ServiceRepo) Add(service *models.Service) error {
	return r.db.Create(service).Error
}

func (r *ServiceRepo) Update(service *models.Service) error {
	return r.db.Save(service).Error
}

func (r *ServiceRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Service{}, "id = ?", id).Error
}
