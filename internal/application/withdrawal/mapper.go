package withdrawal

import (
	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
)

// ToRowResponse convierte el resultado del validador a su forma HTTP.
func ToRowResponse(r inventory.RowAvailability) dto.AvailabilityRowResponse {
	return dto.AvailabilityRowResponse{
		Index:           r.Index,
		Valid:           r.Valid,
		Reason:          r.Reason,
		Deferred:        r.Deferred,
		InputEnabled:    r.InputEnabled,
		RequestedBase:   r.RequestedBase,
		AvailableBase:   r.AvailableBase,
		AvailableInUnit: r.AvailableInUnit,
	}
}

// ToRowResponses convierte todas las filas; útil para el detalle de un AvailabilityError.
func ToRowResponses(rows []inventory.RowAvailability) []dto.AvailabilityRowResponse {
	out := make([]dto.AvailabilityRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToRowResponse(r))
	}
	return out
}

func toWithdrawalResponse(w *entity.WithdrawalRequest) *dto.WithdrawalResponse {
	if w == nil {
		return nil
	}
	items := make([]dto.WithdrawalItemResponse, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, dto.WithdrawalItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			BatchID:          it.BatchID,
			UnitID:           it.UnitID,
			FromLocationID:   it.FromLocationID,
			ToLocationID:     it.ToLocationID,
			Quantity:         it.RequestedQuantity,
			ConversionToBase: it.ConversionToBase,
			QuantityBase:     it.QuantityBase,
		})
	}
	return &dto.WithdrawalResponse{
		ID:          w.ID,
		Kind:        w.Kind,
		Status:      w.Status,
		RequestedBy: w.RequestedBy,
		ReviewedBy:  w.ReviewedBy,
		Notes:       w.Notes,
		CreatedAt:   w.CreatedAt,
		ReviewedAt:  w.ReviewedAt,
		Items:       items,
	}
}
