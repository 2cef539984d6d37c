package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "ADMIN"
	RolePharmacist = "PHARMACIST"
	RoleOperator   = "OPERATOR" // solo lectura
)

// User es un operador del sistema. LocationID es la sucursal asignada (vacío para ADMIN).
type User struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	LocationID   string
	IsActive     bool
	CreatedAt    time.Time
}
