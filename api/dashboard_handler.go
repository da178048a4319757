package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greenshan/portfolio-backend/database"
	"github.com/greenshan/portfolio-backend/errs"
)

type dashboardHandler struct {
	responder Responder
	logger    zerolog.Logger
	db        database.Database
}

func newDashboardHandler(db database.Database) dashboardHandler {
	logger := log.With().Str("handlerName", "dashboardHandler").Logger()

	return dashboardHandler{
		responder: NewResponder(logger),
		logger:    logger,
		db:        db,
	}
}

// DashboardStats mirrors the management console landing page counters.
type DashboardStats struct {
	ProjectsTotal       int64 `json:"projects_total"`
	FeaturedProjects    int64 `json:"featured_projects"`
	MediaCount          int64 `json:"media_count"`
	TestimonialsTotal   int64 `json:"testimonials_total"`
	TestimonialsVisible int64 `json:"testimonials_visible"`
	MessagesPending     int64 `json:"messages_pending"`
}

func (h dashboardHandler) getDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var stats DashboardStats
		var err error

		stats.ProjectsTotal, stats.FeaturedProjects, err = h.db.ProjectRepo().Count()
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("count", "projects", err))
			return
		}

		stats.MediaCount, err = h.db.ProjectRepo().CountAllMedia()
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("count", "project media", err))
			return
		}

		stats.TestimonialsTotal, stats.TestimonialsVisible, err = h.db.TestimonialRepo().Count()
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("count", "testimonials", err))
			return
		}

		stats.MessagesPending, err = h.db.ContactRequestRepo().CountPending()
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("count", "contact requests", err))
			return
		}

		h.responder.WriteJSON(w, stats)
	}
}
