package inventory

import (
	"fmt"

	"github.com/jhoicas/clinica-stock-api/internal/domain"
)

// RowAvailability asocia el resultado de CheckAvailability a la fila de origen.
type RowAvailability struct {
	Index int
	Availability
}

// AvailabilityError agrupa las filas que no pueden atenderse.
// errors.Is(err, domain.ErrInsufficientStock) es verdadero.
type AvailabilityError struct {
	Rows []RowAvailability
}

func (e *AvailabilityError) Error() string {
	if len(e.Rows) == 1 {
		return fmt.Sprintf("fila %d: %s", e.Rows[0].Index, e.Rows[0].Reason)
	}
	return fmt.Sprintf("%d filas sin stock suficiente", len(e.Rows))
}

func (e *AvailabilityError) Unwrap() error {
	return domain.ErrInsufficientStock
}
