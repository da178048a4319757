package database

import (
	"gorm.io/gorm"
)

type Database struct {
	db                 *gorm.DB
	projectRepo        *ProjectRepo
	testimonialRepo    *TestimonialRepo
	serviceRepo        *ServiceRepo
	contactRequestRepo *ContactRequestRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:                 db,
		projectRepo:        NewProjectRepo(db),
		testimonialRepo:    NewTestimonialRepo(db),
		serviceRepo:        NewServiceRepo(db),
		contactRequestRepo: NewContactRequestRepo(db),
	}
}

// GORM returns the shared database handle for callers that manage their own
// transaction boundary (the project publisher).
func (d Database) GORM() *gorm.DB {
	return d.db
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) TestimonialRepo() *TestimonialRepo {
	return d.testimonialRepo
}

func (d Database) ServiceRepo() *ServiceRepo {
	return d.serviceRepo
}

func (d Database) ContactRequestRepo() *ContactRequestRepo {
	return d.contactRequestRepo
}
