package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greenshan/portfolio-backend/database"
	"github.com/greenshan/portfolio-backend/errs"
	"github.com/greenshan/portfolio-backend/models"
)

type testimonialHandler struct {
	responder       Responder
	logger          zerolog.Logger
	testimonialRepo *database.TestimonialRepo
}

func newTestimonialHandler(testimonialRepo *database.TestimonialRepo) testimonialHandler {
	logger := log.With().Str("handlerName", "testimonialHandler").Logger()

	return testimonialHandler{
		responder:       NewResponder(logger),
		logger:          logger,
		testimonialRepo: testimonialRepo,
	}
}

// TestimonialCollection represents multiple testimonials
type TestimonialCollection struct {
	Testimonials []*models.Testimonial `json:"testimonials"`
	Total        int                   `json:"total"`
}

// getVisibleTestimonials serves the public site: hidden entries excluded.
func (h testimonialHandler) getVisibleTestimonials() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testimonials, err := h.testimonialRepo.FindVisible()
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "testimonials", err))
			return
		}

		h.responder.WriteJSON(w, TestimonialCollection{
			Testimonials: testimonials,
			Total:        len(testimonials),
		})
	}
}

// getAllTestimonials serves the management console, hidden entries included.
func (h testimonialHandler) getAllTestimonials() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testimonials, err := h.testimonialRepo.FindAll()
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "testimonials", err))
			return
		}

		h.responder.WriteJSON(w, TestimonialCollection{
			Testimonials: testimonials,
			Total:        len(testimonials),
		})
	}
}

func (h testimonialHandler) createTestimonial() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var testimonial models.Testimonial
		if err := json.NewDecoder(r.Body).Decode(&testimonial); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode testimonial request body")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if strings.TrimSpace(testimonial.Author) == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("author"))
			return
		}
		if strings.TrimSpace(testimonial.Text) == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("text"))
			return
		}

		if testimonial.ID == uuid.Nil {
			testimonial.ID = uuid.New()
		}
		testimonial.Visible = true
		if err := h.testimonialRepo.Add(&testimonial); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "testimonial", err))
			return
		}

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, testimonial)
	}
}

// toggleVisibility flips whether a testimonial appears on the public site.
func (h testimonialHandler) toggleVisibility() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testimonialID, err := parseUUIDParam(r, "testimonialID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		existing, err := h.testimonialRepo.FindByID(testimonialID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "testimonial", err))
			return
		}
		if existing == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("testimonial not found"))
			return
		}

		visible, err := h.testimonialRepo.ToggleVisibility(testimonialID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "testimonial", err))
			return
		}

		h.responder.WriteJSON(w, map[string]any{
			"status":  "success",
			"visible": visible,
		})
	}
}

func (h testimonialHandler) deleteTestimonial() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testimonialID, err := parseUUIDParam(r, "testimonialID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.testimonialRepo.Delete(testimonialID); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "testimonial", err))
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "testimonial deleted successfully",
		})
	}
}
