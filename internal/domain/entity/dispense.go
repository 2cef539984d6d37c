package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DispenseHeader agrupa las líneas entregadas a un paciente en una sucursal.
type DispenseHeader struct {
	ID               string
	BranchID         string
	PatientID        string
	PharmacistUserID string
	DispensedAt      time.Time
	Note             string
	CreatedBy        string
	CreatedAt        time.Time
}

// DispenseLine es una línea de dispensación (producto, lote opcional, cantidad en un nivel de unidad).
type DispenseLine struct {
	ID          string
	HeaderID    string
	LineNo      int
	ProductID   string
	LotID       string
	UnitLevelID string
	Quantity    decimal.Decimal
	Note        string
}
