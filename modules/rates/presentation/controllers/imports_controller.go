package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/importjob"
	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/partner"
	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/httpapi"
)

type ImportsController struct {
	imports *services.ImportService
	log     *logrus.Logger

	// appCtx carries the database pool and outlives the triggering request:
	// a submitted job runs to completion even if the client disconnects.
	appCtx   context.Context
	basePath string

	maxUploadSize int64
}

func NewImportsController(imports *services.ImportService, log *logrus.Logger, appCtx context.Context, maxUploadSize int64) *ImportsController {
	return &ImportsController{
		imports:       imports,
		log:           log,
		appCtx:        appCtx,
		basePath:      "/api/imports",
		maxUploadSize: maxUploadSize,
	}
}

func (c *ImportsController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.Create).Methods(http.MethodPost)
	r.HandleFunc(c.basePath, c.List).Methods(http.MethodGet)
	r.HandleFunc(c.basePath+"/{id}", c.GetByID).Methods(http.MethodGet)
}

// Create accepts a multipart upload (partner_id + file), registers the job
// and starts processing in the background. The response carries the PENDING
// job; callers poll GET /api/imports/{id} for the outcome.
func (c *ImportsController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(c.maxUploadSize); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart form")
		return
	}

	partnerID, err := uuid.Parse(r.FormValue("partner_id"))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid partner_id")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "missing file")
		return
	}
	defer file.Close()

	job, err := c.imports.Upload(r.Context(), partnerID, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, partner.ErrNotFound):
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "partner not found")
		case errors.Is(err, services.ErrUnsupportedFileType):
			_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "UNSUPPORTED_FILE_TYPE", err.Error())
		default:
			c.log.WithError(err).Error("upload failed")
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "upload failed")
		}
		return
	}

	go func() {
		if _, err := c.imports.Process(c.appCtx, job.ID); err != nil {
			c.log.WithError(err).WithField("job_id", job.ID).Error("import processing failed")
		}
	}()

	_ = httpapi.WriteJSON(w, http.StatusAccepted, job)
}

func (c *ImportsController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid job id")
		return
	}

	job, err := c.imports.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, importjob.ErrNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "import job not found")
			return
		}
		c.log.WithError(err).Error("failed to load import job")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load import job")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, job)
}

func (c *ImportsController) List(w http.ResponseWriter, r *http.Request) {
	params := &importjob.FindParams{
		Limit:  parseIntParam(r, "limit", 50),
		Offset: parseIntParam(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("partner_id"); raw != "" {
		partnerID, err := uuid.Parse(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid partner_id")
			return
		}
		params.PartnerID = &partnerID
	}

	jobs, err := c.imports.ListJobs(r.Context(), params)
	if err != nil {
		c.log.WithError(err).Error("failed to list import jobs")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list import jobs")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, jobs)
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
