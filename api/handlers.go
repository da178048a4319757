package api

import (
	"github.com/greenshan/portfolio-backend/database"
	"github.com/greenshan/portfolio-backend/services"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, publisher *services.Publisher) *routeHandlers {
	return &routeHandlers{
		projectHandler:     newProjectHandler(database.ProjectRepo(), publisher),
		testimonialHandler: newTestimonialHandler(database.TestimonialRepo()),
		serviceHandler:     newServiceHandler(database.ServiceRepo()),
		contactHandler:     newContactHandler(database.ContactRequestRepo()),
		dashboardHandler:   newDashboardHandler(database),
	}
}
