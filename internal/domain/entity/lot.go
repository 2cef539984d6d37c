package entity

import "time"

// ProductLot es un lote de fabricante. La clave natural es (ProductID, LotNo, ExpDate):
// el mismo número de lote con otra fecha de vencimiento es otro lote.
type ProductLot struct {
	ID           string
	ProductID    string
	LotNo        string
	MfgDate      *time.Time
	ExpDate      time.Time
	Manufacturer string
	CreatedAt    time.Time
}
