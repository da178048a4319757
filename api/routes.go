package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes wires the public site endpoints and the staff-only management
// console under /manage.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/projects", handlers.projectHandler.getAllProjects())
		r.Get("/projects/{slug}", handlers.projectHandler.getProjectBySlug())
		r.Get("/services", handlers.serviceHandler.getAllServices())
		r.Get("/testimonials", handlers.testimonialHandler.getVisibleTestimonials())
		r.Post("/contact", handlers.contactHandler.submitContactRequest())
	})

	// Staff-only management console
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.requireStaff)
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/manage/dashboard", handlers.dashboardHandler.getDashboard())

		// Project endpoints
		r.Get("/manage/projects", handlers.projectHandler.getAllProjects())
		r.Post("/manage/projects", handlers.projectHandler.createProject())
		r.Put("/manage/projects/{projectID}", handlers.projectHandler.updateProject())
		r.Delete("/manage/projects/{projectID}", handlers.projectHandler.deleteProject())

		// Testimonial endpoints
		r.Get("/manage/testimonials", handlers.testimonialHandler.getAllTestimonials())
		r.Post("/manage/testimonials", handlers.testimonialHandler.createTestimonial())
		r.Post("/manage/testimonials/{testimonialID}/visibility", handlers.testimonialHandler.toggleVisibility())
		r.Delete("/manage/testimonials/{testimonialID}", handlers.testimonialHandler.deleteTestimonial())

		// Service endpoints
		r.Post("/manage/services", handlers.serviceHandler.createService())
		r.Put("/manage/services/{serviceID}", handlers.serviceHandler.updateService())
		r.Delete("/manage/services/{serviceID}", handlers.serviceHandler.deleteService())

		// Contact message triage
		r.Get("/manage/messages", handlers.contactHandler.getAllMessages())
		r.Get("/manage/messages/{messageID}", handlers.contactHandler.getMessage())
		r.Post("/manage/messages/{messageID}/handled", handlers.contactHandler.markHandled())
		r.Delete("/manage/messages/{messageID}", handlers.contactHandler.deleteMessage())
	})
}
