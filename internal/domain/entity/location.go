package entity

import "time"

// Location representa un lugar físico de almacenamiento (consultorio, bodega, esterilización).
type Location struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
