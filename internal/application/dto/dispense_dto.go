package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PatientRequest datos demográficos del paciente. PID es la clave natural.
type PatientRequest struct {
	PID            string `json:"pid" validate:"required,max=20"`
	FullName       string `json:"fullName" validate:"required,max=200"`
	BirthDate      string `json:"birthDate,omitempty"`
	Sex            string `json:"sex,omitempty"`
	CardIssuePlace string `json:"cardIssuePlace,omitempty"`
	CardIssuedDate string `json:"cardIssuedDate,omitempty"`
	CardExpiryDate string `json:"cardExpiryDate,omitempty"`
	AddressText    string `json:"addressText,omitempty"`
	AddressLine1   string `json:"addressLine1,omitempty"`
	District       string `json:"district,omitempty"`
	Province       string `json:"province,omitempty"`
	PostalCode     string `json:"postalCode,omitempty" validate:"omitempty,max=10"`
}

// DispenseLineRequest línea de dispensación.
type DispenseLineRequest struct {
	ProductID string          `json:"productId" validate:"required"`
	Qty       decimal.Decimal `json:"qty"`
	UnitLabel string          `json:"unitLabel" validate:"required,max=100"`
	LotID     string          `json:"lotId,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// DispenseRequest body para POST /api/dispense.
type DispenseRequest struct {
	BranchCode       string                `json:"branchCode" validate:"required,max=50"`
	Patient          PatientRequest        `json:"patient"`
	Lines            []DispenseLineRequest `json:"lines" validate:"required,min=1,dive"`
	PharmacistUserID string                `json:"pharmacistUserId,omitempty"`
	OccurredAt       string                `json:"occurredAt,omitempty"`
	Note             string                `json:"note,omitempty"`
}

// DispensedLine línea registrada.
type DispensedLine struct {
	ID         string          `json:"id"`
	LineNo     int             `json:"lineNo"`
	ProductID  string          `json:"productId"`
	LotID      string          `json:"lotId,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitLabel  string          `json:"unitLabel"`
	MovementID string          `json:"movementId"`
}

// DispenseResponse resultado de una dispensación.
type DispenseResponse struct {
	OK         bool            `json:"ok"`
	HeaderID   string          `json:"headerId"`
	BranchCode string          `json:"branchCode"`
	PatientID  string          `json:"patientId"`
	LineCount  int             `json:"lineCount"`
	Lines      []DispensedLine `json:"lines"`
}

// PatientDispenseQuery ventana de fechas de GET /api/patients/:pid/dispense.
type PatientDispenseQuery struct {
	From string `query:"from"`
	To   string `query:"to"`
}

// PatientDispenseRow fila del historial de dispensación de un paciente.
type PatientDispenseRow struct {
	HeaderID    string          `json:"headerId"`
	DispensedAt time.Time       `json:"dispensedAt"`
	PID         string          `json:"pid"`
	PatientName string          `json:"patientName"`
	BranchCode  string          `json:"branchCode"`
	BranchName  string          `json:"branchName"`
	ProductID   string          `json:"productId"`
	ProductCode string          `json:"productCode"`
	TradeName   string          `json:"tradeName"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitLabel   string          `json:"unitLabel"`
	LotNo       string          `json:"lotNo,omitempty"`
	LineNote    string          `json:"lineNote,omitempty"`
	HeaderNote  string          `json:"headerNote,omitempty"`
}
