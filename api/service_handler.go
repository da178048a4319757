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

type serviceHandler struct {
	responder   Responder
	logger      zerolog.Logger
	serviceRepo *database.ServiceRepo
}

func newServiceHandler(serviceRepo *database.ServiceRepo) serviceHandler {
	logger := log.With().Str("handlerName", "serviceHandler").Logger()

	return serviceHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		serviceRepo: serviceRepo,
	}
}

// ServiceCollection represents the ordered services listing
type ServiceCollection struct {
	Services []*models.Service `json:"services"`
	Total    int               `json:"total"`
}

func (h serviceHandler) getAllServices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := h.serviceRepo.FindAll()
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "services", err))
			return
		}

		h.responder.WriteJSON(w, ServiceCollection{
			Services: services,
			Total:    len(services),
		})
	}
}

func (h serviceHandler) createService() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var service models.Service
		if err := json.NewDecoder(r.Body).Decode(&service); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode service request body")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if strings.TrimSpace(service.Title) == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("title"))
			return
		}

		if service.ID == uuid.Nil {
			service.ID = uuid.New()
		}
		if err := h.serviceRepo.Add(&service); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "service", err))
			return
		}

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, service)
	}
}

func (h serviceHandler) updateService() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := parseUUIDParam(r, "serviceID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		existing, err := h.serviceRepo.FindByID(serviceID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "service", err))
			return
		}
		if existing == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("service not found"))
			return
		}

		var service models.Service
		if err := json.NewDecoder(r.Body).Decode(&service); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode service request body")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		service.ID = serviceID
		if err := h.serviceRepo.Update(&service); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "service", err))
			return
		}

		h.responder.WriteJSON(w, service)
	}
}

func (h serviceHandler) deleteService() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := parseUUIDParam(r, "serviceID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.serviceRepo.Delete(serviceID); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "service", err))
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "service deleted successfully",
		})
	}
}
