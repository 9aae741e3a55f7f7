package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/partner"
	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/httpapi"
)

type PartnersController struct {
	partners *services.PartnerService
	log      *logrus.Logger
	basePath string
}

func NewPartnersController(partners *services.PartnerService, log *logrus.Logger) *PartnersController {
	return &PartnersController{
		partners: partners,
		log:      log,
		basePath: "/api/partners",
	}
}

func (c *PartnersController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.Create).Methods(http.MethodPost)
	r.HandleFunc(c.basePath, c.List).Methods(http.MethodGet)
	r.HandleFunc(c.basePath+"/{id}", c.GetByID).Methods(http.MethodGet)
}

func (c *PartnersController) Create(w http.ResponseWriter, r *http.Request) {
	var dto services.CreatePartnerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", errMsgInvalidJSON)
		return
	}

	p, err := c.partners.Create(r.Context(), &dto)
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			_ = httpapi.WriteFieldErrors(w, http.StatusUnprocessableEntity, vErr.Fields)
		case errors.Is(err, partner.ErrCodeTaken):
			_ = httpapi.WriteError(w, http.StatusConflict, "CONFLICT", "partner code already in use")
		default:
			c.log.WithError(err).Error("failed to create partner")
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create partner")
		}
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, p)
}

func (c *PartnersController) List(w http.ResponseWriter, r *http.Request) {
	partners, err := c.partners.List(r.Context(), parseIntParam(r, "limit", 100), parseIntParam(r, "offset", 0))
	if err != nil {
		c.log.WithError(err).Error("failed to list partners")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list partners")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, partners)
}

func (c *PartnersController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid partner id")
		return
	}

	p, err := c.partners.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, partner.ErrNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "partner not found")
			return
		}
		c.log.WithError(err).Error("failed to load partner")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load partner")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, p)
}
