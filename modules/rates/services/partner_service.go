package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/partner"
	"github.com/freightdesk/freightdesk/pkg/serrors"
)

// CreatePartnerDTO is the inbound shape for registering a transport partner.
type CreatePartnerDTO struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
}

func (d *CreatePartnerDTO) Validate() []serrors.FieldError {
	var errs []serrors.FieldError
	if strings.TrimSpace(d.Code) == "" {
		errs = append(errs, serrors.NewFieldError("code", "value is required", d.Code))
	}
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, serrors.NewFieldError("name", "value is required", d.Name))
	}
	if c := strings.TrimSpace(d.Currency); c != "" && len(c) != 3 {
		errs = append(errs, serrors.NewFieldError("currency", "value must be exactly 3 characters", d.Currency))
	}
	return errs
}

type PartnerService struct {
	repo partner.Repository
}

func NewPartnerService(repo partner.Repository) *PartnerService {
	return &PartnerService{repo: repo}
}

func (s *PartnerService) GetByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PartnerService) GetByCode(ctx context.Context, code string) (*partner.Partner, error) {
	return s.repo.GetByCode(ctx, strings.TrimSpace(code))
}

func (s *PartnerService) List(ctx context.Context, limit, offset int) ([]*partner.Partner, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *PartnerService) Create(ctx context.Context, dto *CreatePartnerDTO) (*partner.Partner, error) {
	if fieldErrs := dto.Validate(); len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	currency := strings.ToUpper(strings.TrimSpace(dto.Currency))
	if currency == "" {
		currency = "EUR"
	}
	p := &partner.Partner{
		ID:       uuid.New(),
		Code:     strings.ToUpper(strings.TrimSpace(dto.Code)),
		Name:     strings.TrimSpace(dto.Name),
		Currency: currency,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
