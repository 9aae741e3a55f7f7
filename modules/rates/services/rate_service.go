package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
)

type RateService struct {
	repo rate.Repository
}

func NewRateService(repo rate.Repository) *RateService {
	return &RateService{repo: repo}
}

func (s *RateService) GetByID(ctx context.Context, id uuid.UUID) (*rate.Rate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RateService) List(ctx context.Context, params *rate.FindParams) ([]*rate.Rate, error) {
	return s.repo.List(ctx, params)
}

func (s *RateService) Count(ctx context.Context, params *rate.FindParams) (int64, error) {
	return s.repo.Count(ctx, params)
}

func (s *RateService) DeleteByPartner(ctx context.Context, partnerID uuid.UUID) (int64, error) {
	return s.repo.DeleteByPartner(ctx, partnerID)
}
