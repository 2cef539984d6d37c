package entity

import "time"

// Product es la vista mínima del catálogo que necesita el motor de stock.
// El CRUD del catálogo vive fuera de este servicio.
type Product struct {
	ID          string
	ProductCode string
	TradeName   string
	KYType      string // clasificación regulatoria (ข.ย.)
	CreatedAt   time.Time
}
