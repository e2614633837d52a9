package inventory

import (
	"errors"
	"fmt"

	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

// ErrDefaultUnit indica que el producto no tiene exactamente una unidad por defecto.
var ErrDefaultUnit = errors.New("el producto debe tener exactamente una unidad por defecto")

// ValidateUnitSet verifica las unidades de un producto: factores positivos y una sola por defecto.
func ValidateUnitSet(units []*entity.ProductUnit) error {
	defaults := 0
	for _, u := range units {
		if !u.ConversionToBase.IsPositive() {
			return fmt.Errorf("unidad %q: %w", u.Name, domain.ErrInvalidInput)
		}
		if u.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return ErrDefaultUnit
	}
	return nil
}

// DefaultUnit devuelve la unidad por defecto del producto.
func DefaultUnit(units []*entity.ProductUnit) (*entity.ProductUnit, error) {
	if err := ValidateUnitSet(units); err != nil {
		return nil, err
	}
	for _, u := range units {
		if u.IsDefault {
			return u, nil
		}
	}
	return nil, ErrDefaultUnit
}
