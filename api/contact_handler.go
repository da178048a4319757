package api

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greenshan/portfolio-backend/database"
	"github.com/greenshan/portfolio-backend/errs"
	"github.com/greenshan/portfolio-backend/models"
	"github.com/greenshan/portfolio-backend/services"
)

// maxContactMessageLength bounds public contact form submissions, counted in
// characters, not bytes.
const maxContactMessageLength = 2000

type contactHandler struct {
	responder   Responder
	logger      zerolog.Logger
	contactRepo *database.ContactRequestRepo
}

func newContactHandler(contactRepo *database.ContactRequestRepo) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		contactRepo: contactRepo,
	}
}

// contactSubmission is the public contact form payload.
type contactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// MessageCollection represents the staff message inbox
type MessageCollection struct {
	Messages []*models.ContactRequest `json:"messages"`
	Total    int                      `json:"total"`
}

// submitContactRequest accepts a public (unauthenticated) contact form
// submission.
func (h contactHandler) submitContactRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var submission contactSubmission
		if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode contact request body")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		submission.Name = strings.TrimSpace(submission.Name)
		submission.Email = strings.TrimSpace(submission.Email)
		submission.Subject = strings.TrimSpace(submission.Subject)
		submission.Message = strings.TrimSpace(submission.Message)

		if submission.Name == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("name"))
			return
		}
		if submission.Email == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("email"))
			return
		}
		if _, err := mail.ParseAddress(submission.Email); err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("email", "not a valid email address"))
			return
		}
		if submission.Message == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("message"))
			return
		}
		if utf8.RuneCountInString(submission.Message) > maxContactMessageLength {
			h.responder.WriteError(w, errs.NewInvalidFieldError("message", "message is too long"))
			return
		}

		request := models.ContactRequest{
			ID:      uuid.New(),
			Name:    submission.Name,
			Email:   submission.Email,
			Subject: submission.Subject,
			Message: submission.Message,
		}
		if err := h.contactRepo.Add(&request); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "contact request", err))
			return
		}

		// Notify staff out of band; the submitter never waits on email.
		go services.NotifyContactRequest(&request)

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "message sent successfully",
		})
	}
}

func (h contactHandler) getAllMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := h.contactRepo.FindAll()
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "contact requests", err))
			return
		}

		h.responder.WriteJSON(w, MessageCollection{
			Messages: messages,
			Total:    len(messages),
		})
	}
}

func (h contactHandler) getMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID, err := parseUUIDParam(r, "messageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message, err := h.contactRepo.FindByID(messageID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "contact request", err))
			return
		}
		if message == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("message not found"))
			return
		}

		h.responder.WriteJSON(w, message)
	}
}

func (h contactHandler) markHandled() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID, err := parseUUIDParam(r, "messageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message, err := h.contactRepo.FindByID(messageID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "contact request", err))
			return
		}
		if message == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("message not found"))
			return
		}

		if err := h.contactRepo.MarkHandled(messageID); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "contact request", err))
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "marked as handled",
		})
	}
}

func (h contactHandler) deleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID, err := parseUUIDParam(r, "messageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.contactRepo.Delete(messageID); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "contact request", err))
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "message deleted successfully",
		})
	}
}
