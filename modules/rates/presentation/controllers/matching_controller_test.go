package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
	"github.com/freightdesk/freightdesk/modules/rates/services"
	"github.com/freightdesk/freightdesk/pkg/httpapi"
)

type stubRateRepository struct {
	rates []*rate.Rate
}

func (s *stubRateRepository) GetByID(_ context.Context, _ uuid.UUID) (*rate.Rate, error) {
	return nil, rate.ErrNotFound
}

func (s *stubRateRepository) List(_ context.Context, _ *rate.FindParams) ([]*rate.Rate, error) {
	return s.rates, nil
}

func (s *stubRateRepository) Count(_ context.Context, _ *rate.FindParams) (int64, error) {
	return int64(len(s.rates)), nil
}

func (s *stubRateRepository) Create(_ context.Context, _ *rate.Rate) error { return nil }

func (s *stubRateRepository) DeleteByPartner(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func newMatchingRouter(rates []*rate.Rate) *mux.Router {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	matching := services.NewMatchingService(&stubRateRepository{rates: rates}, services.NewPricingService())
	router := mux.NewRouter()
	NewMatchingController(matching, log).Register(router)
	return router
}

func postJSON(t *testing.T, router *mux.Router, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMatchingController_Search(t *testing.T) {
	postal := "69"
	router := newMatchingRouter([]*rate.Rate{{
		ID:               uuid.New(),
		TransportMode:    rate.ModeRoad,
		OriginPostalCode: &postal,
		OriginCity:       "LYON",
		OriginCountry:    "FR",
		DestCity:         "ALL",
		DestCountry:      "IT",
		Cost:             decimal.RequireFromString("17.00"),
		PricingType:      rate.PricingPer100Kg,
		Currency:         "EUR",
		IsActive:         true,
	}})

	rec := postJSON(t, router, "/api/matching", map[string]any{
		"origin_country":     "FR",
		"origin_postal_code": "69100",
		"dest_country":       "IT",
		"dest_city":          "Milano",
		"weight":             250,
		"shipping_date":      "2026-08-30",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int `json:"count"`
		Results []struct {
			Breakdown struct {
				Total   string `json:"total"`
				Formula string `json:"formula"`
			} `json:"price_breakdown"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "51.00", resp.Results[0].Breakdown.Total)
	require.Equal(t, "17.00 × 3 = 51.00 €", resp.Results[0].Breakdown.Formula)
}

func TestMatchingController_ValidationErrors(t *testing.T) {
	router := newMatchingRouter(nil)

	rec := postJSON(t, router, "/api/matching", map[string]any{
		"origin_country": "FR",
		"dest_country":   "IT",
		"dest_city":      "Milano",
		"weight":         0,
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "VALIDATION_ERROR", envelope.Code)
	require.Len(t, envelope.Errors, 2)
}

func TestMatchingController_BadJSON(t *testing.T) {
	router := newMatchingRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/matching", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
