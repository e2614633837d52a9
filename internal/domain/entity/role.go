package entity

// Role es el conjunto cerrado de roles de la clínica.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleReception Role = "reception"
	RoleStaff     Role = "staff"
)

// Capability es una acción autorizable.
type Capability string

const (
	CapViewStock                Capability = "view_stock"
	CapRequestWithdrawal        Capability = "request_withdrawal"
	CapTransferBetweenLocations Capability = "transfer_between_locations"
	CapReviewWithdrawal         Capability = "review_withdrawal"
	CapManageCatalog            Capability = "manage_catalog"
)

// capabilities es la única política de autorización del sistema.
var capabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapViewStock:                true,
		CapRequestWithdrawal:        true,
		CapTransferBetweenLocations: true,
		CapReviewWithdrawal:         true,
		CapManageCatalog:            true,
	},
	RoleDoctor: {
		CapViewStock:         true,
		CapRequestWithdrawal: true,
	},
	RoleStaff: {
		CapViewStock:                true,
		CapRequestWithdrawal:        true,
		CapTransferBetweenLocations: true,
	},
	RoleReception: {
		CapViewStock: true,
	},
}

// ParseRole convierte el claim de texto en Role. ok=false si el rol no existe.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := capabilities[r]
	return r, ok
}

// Can decide si el rol tiene la capacidad. Roles desconocidos no tienen ninguna.
func Can(r Role, c Capability) bool {
	return capabilities[r][c]
}
