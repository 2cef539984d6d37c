package entity

import "time"

// Clases de unidad de medida.
const (
	UnitKindMass    = "MASS"
	UnitKindVolume  = "VOLUME"
	UnitKindCount   = "COUNT"
	UnitKindPackage = "PACKAGE"
)

// UnitType es una unidad de medida global (MG, ML, TABLET, BOX...).
type UnitType struct {
	ID             string
	Code           string // único
	Name           string
	UnitKind       string
	Symbol         string
	PrecisionScale int
	IsActive       bool
}

// ProductUnitLevel es un nivel de unidad por producto (caja, blíster, tableta...).
// El primero creado para un producto es el nivel base (IsBase) y es la denominación de stock_on_hand.
type ProductUnitLevel struct {
	ID          string
	ProductID   string
	Code        string // único por producto
	DisplayName string
	UnitTypeID  string
	IsBase      bool
	IsSellable  bool
	SortOrder   int
	CreatedAt   time.Time
}
