package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/partner"
)

func TestPartnerService_Create(t *testing.T) {
	repo := &mockPartnerRepository{partners: make(map[uuid.UUID]*partner.Partner)}
	svc := NewPartnerService(repo)

	p, err := svc.Create(context.Background(), &CreatePartnerDTO{
		Code: " acme ",
		Name: " Acme Transport ",
	})
	require.NoError(t, err)
	require.Equal(t, "ACME", p.Code)
	require.Equal(t, "Acme Transport", p.Name)
	require.Equal(t, "EUR", p.Currency)
	require.True(t, p.IsActive)

	stored, err := svc.GetByCode(context.Background(), "ACME")
	require.NoError(t, err)
	require.Equal(t, p.ID, stored.ID)
}

func TestPartnerService_CreateValidation(t *testing.T) {
	svc := NewPartnerService(&mockPartnerRepository{partners: make(map[uuid.UUID]*partner.Partner)})

	_, err := svc.Create(context.Background(), &CreatePartnerDTO{Currency: "EURO"})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 3)
}
