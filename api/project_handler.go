package api

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greenshan/portfolio-backend/database"
	"github.com/greenshan/portfolio-backend/errs"
	"github.com/greenshan/portfolio-backend/models"
	"github.com/greenshan/portfolio-backend/services"
)

// multipartMemory is the in-memory threshold for multipart parsing; larger
// file parts spill to temp files.
const multipartMemory = 64 << 20

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo *database.ProjectRepo
	publisher   *services.Publisher
}

func newProjectHandler(projectRepo *database.ProjectRepo, publisher *services.Publisher) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: projectRepo,
		publisher:   publisher,
	}
}

// ProjectCollection represents multiple projects
type ProjectCollection struct {
	Projects []*models.Project `json:"projects"`
	Total    int               `json:"total"`
}

// mediaOpRequest is one entry of the media_ops form field.
type mediaOpRequest struct {
	Op        string `json:"op"` // add | update | remove
	ID        string `json:"id,omitempty"`
	Filename  string `json:"filename,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Order     int    `json:"order,omitempty"`
}

// getAllProjects retrieves projects, optionally filtered by ?category= and
// ?featured=true.
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := database.ProjectFilter{
			Category:     models.ProjectCategory(r.URL.Query().Get("category")),
			FeaturedOnly: r.URL.Query().Get("featured") == "true",
		}
		if !models.ValidCategory(filter.Category) {
			h.responder.WriteError(w, errs.NewInvalidFieldError("category", "unknown category"))
			return
		}

		projects, err := h.projectRepo.FindAll(filter)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "projects", err))
			return
		}

		h.responder.WriteJSON(w, ProjectCollection{
			Projects: projects,
			Total:    len(projects),
		})
	}
}

// getProjectBySlug retrieves a single project for the public detail page.
func (h projectHandler) getProjectBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing slug"))
			return
		}

		project, err := h.projectRepo.FindBySlug(slug)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "project", err))
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("project not found"))
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

// createProject creates a new project from a multipart form carrying the
// field values, an optional cover file, media files and a media_ops JSON
// field describing each media operation.
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, ops, cleanup, err := h.parseProjectForm(r, uuid.Nil)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		defer cleanup()

		projectID, saveErr := h.publisher.SaveProject(r.Context(), input, ops)
		if saveErr != nil {
			h.responder.WriteError(w, saveErr)
			return
		}

		created, findErr := h.projectRepo.FindByID(projectID)
		if findErr != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find created", "project", findErr))
			return
		}

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, created)
	}
}

// updateProject applies a project edit plus its media operations atomically.
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseUUIDParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		input, ops, cleanup, parseErr := h.parseProjectForm(r, projectID)
		if parseErr != nil {
			h.responder.WriteError(w, parseErr)
			return
		}
		defer cleanup()

		if _, saveErr := h.publisher.SaveProject(r.Context(), input, ops); saveErr != nil {
			h.responder.WriteError(w, saveErr)
			return
		}

		updated, findErr := h.projectRepo.FindByID(projectID)
		if findErr != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find updated", "project", findErr))
			return
		}

		h.responder.WriteJSON(w, updated)
	}
}

// deleteProject deletes a project, cascading its media rows and blobs.
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseUUIDParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if delErr := h.publisher.DeleteProject(r.Context(), projectID); delErr != nil {
			h.responder.WriteError(w, delErr)
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "project deleted successfully",
		})
	}
}

// parseProjectForm decodes the multipart project form into publisher input.
// The returned cleanup closes every opened file part.
func (h projectHandler) parseProjectForm(r *http.Request, projectID uuid.UUID) (services.ProjectInput, []services.MediaOp, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return services.ProjectInput{}, nil, noop, errs.NewBadRequestErrorWithDetails("malformed multipart form", err.Error())
	}

	input := services.ProjectInput{
		ID:              projectID,
		Title:           r.FormValue("title"),
		Slug:            r.FormValue("slug"),
		Client:          r.FormValue("client"),
		Location:        r.FormValue("location"),
		Category:        models.ProjectCategory(r.FormValue("category")),
		Description:     r.FormValue("description"),
		ExperienceNotes: r.FormValue("experience_notes"),
		Featured:        r.FormValue("featured") == "true",
	}

	if dateStr := r.FormValue("project_date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return services.ProjectInput{}, nil, noop, errs.NewInvalidFieldError("project_date", "expected YYYY-MM-DD")
		}
		input.ProjectDate = &date
	}

	var openFiles []multipart.File
	cleanup := func() {
		for _, f := range openFiles {
			f.Close()
		}
	}

	// Cover upload, if present.
	if coverFile, coverHeader, err := r.FormFile("cover"); err == nil {
		openFiles = append(openFiles, coverFile)
		input.Cover = &services.Upload{
			Filename: coverHeader.Filename,
			Size:     coverHeader.Size,
			Content:  coverFile,
		}
	}

	ops, err := h.parseMediaOps(r, &openFiles)
	if err != nil {
		cleanup()
		return services.ProjectInput{}, nil, noop, err
	}

	return input, ops, cleanup, nil
}

// parseMediaOps reads the media_ops JSON field and binds add operations to
// their uploaded file parts (field "files", matched by filename). Uploaded
// files without a matching op become plain adds with defaults.
func (h projectHandler) parseMediaOps(r *http.Request, openFiles *[]multipart.File) ([]services.MediaOp, error) {
	var requested []mediaOpRequest
	if raw := r.FormValue("media_ops"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &requested); err != nil {
			return nil, errs.NewBadRequestErrorWithDetails("malformed media_ops", err.Error())
		}
	}

	fileHeaders := map[string]*multipart.FileHeader{}
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			fileHeaders[fh.Filename] = fh
		}
	}

	openByName := func(filename string) (*services.MediaOp, error) {
		fh, ok := fileHeaders[filename]
		if !ok {
			return nil, errs.NewInvalidFieldError("media_ops", "no uploaded file named "+filename)
		}
		delete(fileHeaders, filename)
		f, err := fh.Open()
		if err != nil {
			return nil, errs.NewInternalErrorWithCause("opening uploaded file", err)
		}
		*openFiles = append(*openFiles, f)
		return &services.MediaOp{
			Kind:     services.MediaOpAdd,
			Filename: fh.Filename,
			Size:     fh.Size,
			Content:  f,
		}, nil
	}

	var ops []services.MediaOp
	for _, req := range requested {
		switch req.Op {
		case "add":
			op, err := openByName(req.Filename)
			if err != nil {
				return nil, err
			}
			op.Declared = models.MediaType(req.MediaType)
			op.Caption = req.Caption
			op.Order = req.Order
			ops = append(ops, *op)
		case "update", "remove":
			mediaID, err := uuid.Parse(req.ID)
			if err != nil {
				return nil, errs.NewInvalidFieldError("media_ops", "invalid media id "+req.ID)
			}
			kind := services.MediaOpUpdate
			if req.Op == "remove" {
				kind = services.MediaOpRemove
			}
			ops = append(ops, services.MediaOp{
				Kind:    kind,
				MediaID: mediaID,
				Caption: req.Caption,
				Order:   req.Order,
			})
		default:
			return nil, errs.NewInvalidFieldError("media_ops", "unknown op "+req.Op)
		}
	}

	// Remaining files without an explicit op are adds with defaults.
	for filename := range fileHeaders {
		op, err := openByName(filename)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}

	return ops, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewBadRequestError("missing " + name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid " + name)
	}
	return id, nil
}
