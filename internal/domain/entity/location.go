package entity

import "time"

// Tipos de ubicación. Solo BRANCH admite operaciones de venta y dispensación.
const (
	LocationTypeBranch       = "BRANCH"
	LocationTypeOffice       = "OFFICE"
	LocationTypeManufacturer = "MANUFACTURER"
	LocationTypeWholesaler   = "WHOLESALER"
	LocationTypeVendor       = "VENDOR"
	LocationTypeWarehouse    = "WAREHOUSE"
	LocationTypeOther        = "OTHER"
)

// Location representa una sucursal, bodega, fabricante u otro punto origen/destino de stock.
type Location struct {
	ID           string
	Code         string // único
	Name         string
	LocationType string
	IsActive     bool
	CreatedAt    time.Time
}

// IsBranch indica si la ubicación es una sucursal.
func (l *Location) IsBranch() bool {
	return l.LocationType == LocationTypeBranch
}

// ValidLocationType indica si t es un tipo de ubicación conocido.
func ValidLocationType(t string) bool {
	switch t {
	case LocationTypeBranch, LocationTypeOffice, LocationTypeManufacturer, LocationTypeWholesaler,
		LocationTypeVendor, LocationTypeWarehouse, LocationTypeOther:
		return true
	}
	return false
}
