package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockOnHandResult fila de la proyección de existencias por sucursal.
type StockOnHandResult struct {
	BranchCode  string
	BranchName  string
	ProductID   string
	ProductCode string
	TradeName   string
	LotID       string
	LotNo       string
	ExpDate     *time.Time
	Quantity    decimal.Decimal
	UnitCode    string
	UnitLabel   string
}

// MovementFilter filtros del historial de movimientos. LocationID filtra por origen o destino.
type MovementFilter struct {
	ProductID  string
	BranchCode string
	LocationID string
	From       *time.Time // inclusivo
	To         *time.Time // exclusivo
	Limit      int
}

// MovementResult fila del historial de movimientos.
type MovementResult struct {
	ID             string
	MovementType   string
	OccurredAt     time.Time
	Quantity       decimal.Decimal
	Note           string
	ProductID      string
	ProductCode    string
	TradeName      string
	LotID          string
	LotNo          string
	UnitLabel      string
	FromBranchCode string
	FromBranchName string
	ToBranchCode   string
	ToBranchName   string
	CreatedBy      string
}

// PatientDispenseResult fila del historial de dispensación de un paciente (una por línea).
type PatientDispenseResult struct {
	HeaderID    string
	DispensedAt time.Time
	PID         string
	PatientName string
	BranchCode  string
	BranchName  string
	ProductID   string
	ProductCode string
	TradeName   string
	Quantity    decimal.Decimal
	UnitLabel   string
	LotNo       string
	LineNote    string
	HeaderNote  string
}

// DispenseSlipResult datos para imprimir el comprobante de una dispensación.
type DispenseSlipResult struct {
	HeaderID       string
	DispensedAt    time.Time
	BranchCode     string
	BranchName     string
	PID            string
	PatientName    string
	PharmacistName string
	Note           string
	Lines          []DispenseSlipLine
}

// DispenseSlipLine línea del comprobante.
type DispenseSlipLine struct {
	LineNo    int
	TradeName string
	LotNo     string
	ExpDate   *time.Time
	Quantity  decimal.Decimal
	UnitLabel string
}

// LedgerDriftResult clave de saldo cuyo stock_on_hand no coincide con la suma de movimientos.
type LedgerDriftResult struct {
	BranchID      string
	BranchCode    string
	ProductID     string
	UnitLevelID   string
	LotID         string
	OnHand        decimal.Decimal
	MovementTotal decimal.Decimal
}

// QueryRepository define las consultas de solo lectura (proyecciones) sobre el libro de stock.
type QueryRepository interface {
	StockOnHand(ctx context.Context, branchCode string) ([]StockOnHandResult, error)
	Movements(ctx context.Context, filter MovementFilter) ([]MovementResult, error)
	PatientDispenseHistory(ctx context.Context, pid string, from, to *time.Time) ([]PatientDispenseResult, error)
	// DispenseSlip devuelve (nil, nil) si la cabecera no existe.
	DispenseSlip(ctx context.Context, headerID string) (*DispenseSlipResult, error)
	// LedgerDrift compara cada saldo con la suma con signo de sus movimientos y devuelve las diferencias
	// (incluye saldos negativos y claves con movimientos pero sin fila de saldo).
	LedgerDrift(ctx context.Context) ([]LedgerDriftResult, error)
}
