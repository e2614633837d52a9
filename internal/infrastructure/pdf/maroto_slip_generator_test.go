package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/infrastructure/pdf"
)

func TestGenerateSlip_Traslado(t *testing.T) {
	reviewed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	w := &entity.WithdrawalRequest{
		ID:          "3f0c1a52-6a52-4a59-9d2d-0f3c5c8f6b11",
		Kind:        entity.WithdrawalKindTransfer,
		Status:      entity.WithdrawalStatusApproved,
		RequestedBy: "u1",
		Notes:       "reposición semanal",
		CreatedAt:   time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		ReviewedAt:  &reviewed,
	}
	items := []withdrawal.SlipItem{{
		WithdrawalItem: entity.WithdrawalItem{
			RequestedQuantity: decimal.NewFromInt(2),
			ConversionToBase:  decimal.NewFromInt(5),
			QuantityBase:      decimal.NewFromInt(10),
		},
		ProductName:      "Gasa estéril",
		BaseUnitName:     "unidad",
		BatchNumber:      "L-001",
		UnitName:         "caja x5",
		FromLocationName: "Farmacia",
		ToLocationName:   "Consultorio 1",
	}}

	out, err := pdf.NewMarotoSlipGenerator("Clínica Central").
		GenerateSlip(context.Background(), w, &entity.User{Name: "Dra. Pérez"}, items)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateSlip_PersonalSinFilas(t *testing.T) {
	w := &entity.WithdrawalRequest{
		ID:        "abc",
		Kind:      entity.WithdrawalKindPersonal,
		Status:    entity.WithdrawalStatusPending,
		CreatedAt: time.Now(),
	}
	out, err := pdf.NewMarotoSlipGenerator("").GenerateSlip(context.Background(), w, &entity.User{Email: "x@clinica.test"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
