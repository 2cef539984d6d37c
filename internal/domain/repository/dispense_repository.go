package repository

import (
	"context"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// DispenseRepository define el puerto de persistencia para cabeceras y líneas de dispensación.
type DispenseRepository interface {
	CreateHeader(ctx context.Context, header *entity.DispenseHeader) error
	CreateLine(ctx context.Context, line *entity.DispenseLine) error
}

// PatientRepository define el puerto de persistencia para pacientes.
type PatientRepository interface {
	// UpsertByPID inserta o actualiza los datos demográficos por PID y asigna patient.ID.
	UpsertByPID(ctx context.Context, patient *entity.Patient) error
}
