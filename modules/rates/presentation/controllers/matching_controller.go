package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/httpapi"
)

const errMsgInvalidJSON = "invalid JSON"

type MatchingController struct {
	matching *services.MatchingService
	log      *logrus.Logger
	basePath string
}

func NewMatchingController(matching *services.MatchingService, log *logrus.Logger) *MatchingController {
	return &MatchingController{
		matching: matching,
		log:      log,
		basePath: "/api/matching",
	}
}

func (c *MatchingController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.Search).Methods(http.MethodPost)
}

type searchRequest struct {
	OriginCountry    string `json:"origin_country"`
	OriginPostalCode string `json:"origin_postal_code"`
	OriginCity       string `json:"origin_city"`

	DestCountry    string `json:"dest_country"`
	DestPostalCode string `json:"dest_postal_code"`
	DestCity       string `json:"dest_city"`

	Weight        float64  `json:"weight"`
	Volume        *float64 `json:"volume"`
	TransportMode string   `json:"transport_mode"`
	ShippingDate  string   `json:"shipping_date"`

	HandlingFeePer100Kg  decimal.Decimal `json:"handling_fee_per_100kg"`
	FuelSurchargePercent decimal.Decimal `json:"fuel_surcharge_percent"`
}

type searchResponse struct {
	Count   int                    `json:"count"`
	Results []services.MatchedRate `json:"results"`
}

func (c *MatchingController) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", errMsgInvalidJSON)
		return
	}

	query := &services.SearchQuery{
		OriginCountry:        req.OriginCountry,
		OriginPostalCode:     req.OriginPostalCode,
		OriginCity:           req.OriginCity,
		DestCountry:          req.DestCountry,
		DestPostalCode:       req.DestPostalCode,
		DestCity:             req.DestCity,
		Weight:               req.Weight,
		Volume:               req.Volume,
		HandlingFeePer100Kg:  req.HandlingFeePer100Kg,
		FuelSurchargePercent: req.FuelSurchargePercent,
	}
	if req.TransportMode != "" {
		mode := rate.TransportMode(req.TransportMode)
		query.TransportMode = &mode
	}
	if req.ShippingDate != "" {
		date, err := parseDate(req.ShippingDate)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid shipping_date")
			return
		}
		query.ShippingDate = &date
	}

	matches, err := c.matching.Search(r.Context(), query)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			_ = httpapi.WriteFieldErrors(w, http.StatusUnprocessableEntity, vErr.Fields)
			return
		}
		c.log.WithError(err).Error("rate search failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "search failed")
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, &searchResponse{
		Count:   len(matches),
		Results: matches,
	})
}

func parseDate(value string) (time.Time, error) {
	if date, err := time.Parse("2006-01-02", value); err == nil {
		return date, nil
	}
	return time.Parse(time.RFC3339, value)
}
