package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

var (
	_ repository.DispenseRepository = (*DispenseRepo)(nil)
	_ repository.PatientRepository  = (*PatientRepo)(nil)
)

// DispenseRepo cabeceras y líneas de dispensación (usable con pool o tx).
type DispenseRepo struct {
	q Querier
}

// NewDispenseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDispenseRepository(q Querier) *DispenseRepo {
	return &DispenseRepo{q: q}
}

// CreateHeader persiste la cabecera.
func (r *DispenseRepo) CreateHeader(ctx context.Context, h *entity.DispenseHeader) error {
	query := `
		INSERT INTO dispense_headers (id, branch_id, patient_id, pharmacist_user_id, dispensed_at, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		h.ID, h.BranchID, h.PatientID, h.PharmacistUserID, h.DispensedAt, nullable(h.Note), h.CreatedBy, h.CreatedAt,
	)
	if err != nil {
		return wrapErr("create dispense header", err)
	}
	return nil
}

// CreateLine persiste una línea; ErrDuplicate si el número de línea ya existe en la cabecera.
func (r *DispenseRepo) CreateLine(ctx context.Context, l *entity.DispenseLine) error {
	query := `
		INSERT INTO dispense_lines (id, header_id, line_no, product_id, lot_id, unit_level_id, quantity, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.HeaderID, l.LineNo, l.ProductID, nullable(l.LotID), l.UnitLevelID, l.Quantity, nullable(l.Note),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("create dispense line", err)
	}
	return nil
}

// PatientRepo pacientes por PID.
type PatientRepo struct {
	q Querier
}

// NewPatientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPatientRepository(q Querier) *PatientRepo {
	return &PatientRepo{q: q}
}

// UpsertByPID inserta el paciente o actualiza sus datos demográficos; asigna p.ID.
func (r *PatientRepo) UpsertByPID(ctx context.Context, p *entity.Patient) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO patients (
			id, pid, full_name, birth_date, sex, card_issue_place, card_issued_date, card_expiry_date,
			address_text, address_line1, district, province, postal_code, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (pid) DO UPDATE SET
			full_name        = EXCLUDED.full_name,
			birth_date       = EXCLUDED.birth_date,
			sex              = EXCLUDED.sex,
			card_issue_place = EXCLUDED.card_issue_place,
			card_issued_date = EXCLUDED.card_issued_date,
			card_expiry_date = EXCLUDED.card_expiry_date,
			address_text     = EXCLUDED.address_text,
			address_line1    = EXCLUDED.address_line1,
			district         = EXCLUDED.district,
			province         = EXCLUDED.province,
			postal_code      = EXCLUDED.postal_code,
			updated_at       = EXCLUDED.updated_at
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		p.ID, p.PID, p.FullName, p.BirthDate, p.Sex, nullable(p.CardIssuePlace), p.CardIssuedDate, p.CardExpiryDate,
		nullable(p.AddressText), nullable(p.AddressLine1), nullable(p.District), nullable(p.Province), nullable(p.PostalCode),
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return wrapErr("upsert patient", err)
	}
	return nil
}
