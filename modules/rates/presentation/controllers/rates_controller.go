package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/httpapi"
)

type RatesController struct {
	rates    *services.RateService
	log      *logrus.Logger
	basePath string
}

func NewRatesController(rates *services.RateService, log *logrus.Logger) *RatesController {
	return &RatesController{
		rates:    rates,
		log:      log,
		basePath: "/api/rates",
	}
}

func (c *RatesController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.List).Methods(http.MethodGet)
	r.HandleFunc(c.basePath+"/count", c.Count).Methods(http.MethodGet)
	r.HandleFunc(c.basePath+"/{id}", c.GetByID).Methods(http.MethodGet)
}

func (c *RatesController) List(w http.ResponseWriter, r *http.Request) {
	params, ok := c.findParams(w, r)
	if !ok {
		return
	}

	rates, err := c.rates.List(r.Context(), params)
	if err != nil {
		c.log.WithError(err).Error("failed to list rates")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list rates")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, rates)
}

func (c *RatesController) Count(w http.ResponseWriter, r *http.Request) {
	params, ok := c.findParams(w, r)
	if !ok {
		return
	}

	count, err := c.rates.Count(r.Context(), params)
	if err != nil {
		c.log.WithError(err).Error("failed to count rates")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to count rates")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (c *RatesController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid rate id")
		return
	}

	rt, err := c.rates.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, rate.ErrNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "rate not found")
			return
		}
		c.log.WithError(err).Error("failed to load rate")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load rate")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, rt)
}

func (c *RatesController) findParams(w http.ResponseWriter, r *http.Request) (*rate.FindParams, bool) {
	q := r.URL.Query()
	params := &rate.FindParams{
		OriginCountry: q.Get("origin_country"),
		DestCountry:   q.Get("dest_country"),
		ActiveOnly:    q.Get("active") == "true",
		Limit:         parseIntParam(r, "limit", 100),
		Offset:        parseIntParam(r, "offset", 0),
	}
	if raw := q.Get("partner_id"); raw != "" {
		partnerID, err := uuid.Parse(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid partner_id")
			return nil, false
		}
		params.PartnerID = &partnerID
	}
	if raw := q.Get("transport_mode"); raw != "" {
		mode := rate.TransportMode(raw)
		if !mode.Valid() {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid transport_mode")
			return nil, false
		}
		params.TransportMode = &mode
	}
	return params, true
}
