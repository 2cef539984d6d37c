package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveItemRequest línea de recepción. Si LotID viene vacío se resuelve o crea el lote con LotNo + ExpDate.
type ReceiveItemRequest struct {
	ProductID    string          `json:"productId" validate:"required"`
	Qty          decimal.Decimal `json:"qty"`
	UnitLabel    string          `json:"unitLabel" validate:"required,max=100"`
	LotID        string          `json:"lotId,omitempty"`
	LotNo        string          `json:"lotNo,omitempty" validate:"omitempty,max=100"`
	ExpDate      string          `json:"expDate,omitempty"` // YYYY-MM-DD
	MfgDate      string          `json:"mfgDate,omitempty"` // YYYY-MM-DD
	Manufacturer string          `json:"manufacturer,omitempty" validate:"omitempty,max=200"`
}

// ReceiveRequest body para POST /api/inventory/receive.
type ReceiveRequest struct {
	ToBranchCode    string               `json:"toBranchCode" validate:"required,max=50"`
	Items           []ReceiveItemRequest `json:"items" validate:"required,min=1,dive"`
	OccurredAt      string               `json:"occurredAt,omitempty"` // RFC3339; vacío = ahora
	Note            string               `json:"note,omitempty"`
	CreatedByUserID string               `json:"createdByUserId,omitempty"`
}

// ReceiveResponse resultado de una recepción.
type ReceiveResponse struct {
	OK                  bool     `json:"ok"`
	BranchCode          string   `json:"branchCode"`
	MovementCount       int      `json:"movementCount"`
	MovementIDs         []string `json:"movementIds"`
	CreatedUnitLevelIDs []string `json:"createdUnitLevelIds,omitempty"`
	CreatedLotIDs       []string `json:"createdLotIds,omitempty"`
}

// TransferItemRequest línea de transferencia. Solo acepta lotes ya existentes.
type TransferItemRequest struct {
	ProductID string          `json:"productId" validate:"required"`
	Qty       decimal.Decimal `json:"qty"`
	UnitLabel string          `json:"unitLabel" validate:"required,max=100"`
	LotID     string          `json:"lotId,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfer.
type TransferRequest struct {
	FromBranchCode  string                `json:"fromBranchCode" validate:"required,max=50"`
	ToBranchCode    string                `json:"toBranchCode" validate:"required,max=50,nefield=FromBranchCode"`
	Items           []TransferItemRequest `json:"items" validate:"required,min=1,dive"`
	OccurredAt      string                `json:"occurredAt,omitempty"`
	Note            string                `json:"note,omitempty"`
	CreatedByUserID string                `json:"createdByUserId,omitempty"`
}

// TransferResponse resultado de una transferencia (dos movimientos por ítem).
type TransferResponse struct {
	OK                  bool     `json:"ok"`
	FromBranchCode      string   `json:"fromBranchCode"`
	ToBranchCode        string   `json:"toBranchCode"`
	MovementCount       int      `json:"movementCount"`
	MovementIDs         []string `json:"movementIds"`
	CreatedUnitLevelIDs []string `json:"createdUnitLevelIds,omitempty"`
}

// CreateMovementRequest body para POST /api/inventory/movements (ids de ubicación, no códigos).
type CreateMovementRequest struct {
	MovementType   string          `json:"movementType" validate:"required"`
	ProductID      string          `json:"productId" validate:"required"`
	Qty            decimal.Decimal `json:"qty"`
	UnitLabel      string          `json:"unitLabel" validate:"required,max=100"`
	FromLocationID string          `json:"fromLocationId,omitempty"`
	ToLocationID   string          `json:"toLocationId,omitempty"`
	LotID          string          `json:"lotId,omitempty"`
	OccurredAt     string          `json:"occurredAt,omitempty"`
	Note           string          `json:"note,omitempty"`
}

// CreateMovementResponse resultado del movimiento genérico.
type CreateMovementResponse struct {
	OK             bool     `json:"ok"`
	MovementType   string   `json:"movementType"`
	FromLocationID string   `json:"fromLocationId,omitempty"`
	ToLocationID   string   `json:"toLocationId,omitempty"`
	MovementCount  int      `json:"movementCount"`
	MovementIDs    []string `json:"movementIds"`
	UnitLevelID    string   `json:"unitLevelId"`
	UnitLevelNew   bool     `json:"unitLevelCreated"`
}

// Caller identidad autenticada que invoca una operación (claims del JWT).
type Caller struct {
	UserID     string
	Role       string
	LocationID string
}

// StockOnHandQuery filtros de GET /api/stock/on-hand.
type StockOnHandQuery struct {
	BranchCode string `query:"branchCode"`
}

// StockOnHandRow fila de existencias.
type StockOnHandRow struct {
	BranchCode  string          `json:"branchCode"`
	BranchName  string          `json:"branchName"`
	ProductID   string          `json:"productId"`
	ProductCode string          `json:"productCode"`
	TradeName   string          `json:"tradeName"`
	LotID       string          `json:"lotId,omitempty"`
	LotNo       string          `json:"lotNo,omitempty"`
	ExpDate     *time.Time      `json:"expDate,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCode    string          `json:"unitCode"`
	UnitLabel   string          `json:"unitLabel"`
}

// MovementQuery filtros de GET /api/movements. From inclusivo, To exclusivo.
type MovementQuery struct {
	ProductID  string `query:"productId"`
	BranchCode string `query:"branchCode"`
	LocationID string `query:"locationId"`
	From       string `query:"from"`
	To         string `query:"to"`
	Limit      int    `query:"limit"`
}

// MovementRow fila del historial de movimientos.
type MovementRow struct {
	ID             string          `json:"id"`
	MovementType   string          `json:"movementType"`
	OccurredAt     time.Time       `json:"occurredAt"`
	Quantity       decimal.Decimal `json:"quantity"`
	Note           string          `json:"note,omitempty"`
	ProductID      string          `json:"productId"`
	ProductCode    string          `json:"productCode"`
	TradeName      string          `json:"tradeName"`
	LotID          string          `json:"lotId,omitempty"`
	LotNo          string          `json:"lotNo,omitempty"`
	UnitLabel      string          `json:"unitLabel"`
	FromBranchCode string          `json:"fromBranchCode,omitempty"`
	FromBranchName string          `json:"fromBranchName,omitempty"`
	ToBranchCode   string          `json:"toBranchCode,omitempty"`
	ToBranchName   string          `json:"toBranchName,omitempty"`
	CreatedBy      string          `json:"createdBy"`
}

// LocationQuery filtros de GET /api/locations.
type LocationQuery struct {
	IncludeInactive bool   `query:"includeInactive"`
	LocationType    string `query:"locationType"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	LocationType string `json:"locationType"`
	IsActive     bool   `json:"isActive"`
}

// LedgerDriftRow clave de saldo inconsistente con el libro de movimientos.
type LedgerDriftRow struct {
	BranchID      string          `json:"branchId"`
	BranchCode    string          `json:"branchCode"`
	ProductID     string          `json:"productId"`
	UnitLevelID   string          `json:"unitLevelId"`
	LotID         string          `json:"lotId,omitempty"`
	OnHand        decimal.Decimal `json:"onHand"`
	MovementTotal decimal.Decimal `json:"movementTotal"`
	Negative      bool            `json:"negative"`
}

// ReconcileReport resultado de la conciliación del libro.
type ReconcileReport struct {
	CheckedAt time.Time        `json:"checkedAt"`
	Drift     []LedgerDriftRow `json:"drift"`
}
