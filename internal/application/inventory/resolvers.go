package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/inventory"
)

// Resolution resultado de un resolve-or-create: Created indica si la fila nació en esta llamada.
type Resolution struct {
	ID      string
	Created bool
}

// LotSpec datos para resolver o crear un lote en recepción.
type LotSpec struct {
	ProductID    string
	LotNo        string
	ExpDate      *time.Time
	MfgDate      *time.Time
	Manufacturer string
}

// Resolver traduce identificadores externos (códigos, etiquetas, lotes) a filas, creando las que faltan.
// Todos los métodos operan con los repositorios de la transacción del caller.
type Resolver struct {
	systemUsername string
	now            func() time.Time
}

// NewResolver construye el resolver. systemUsername es la cuenta sembrada usada cuando no hay actor.
func NewResolver(systemUsername string) *Resolver {
	if systemUsername == "" {
		systemUsername = "system"
	}
	return &Resolver{systemUsername: systemUsername, now: time.Now}
}

// ResolveBranch busca una sucursal por código. NotFound si no existe o no es BRANCH; Inactive si está inactiva.
func (r *Resolver) ResolveBranch(ctx context.Context, repos Repos, code string) (*entity.Location, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: código de sucursal requerido", domain.ErrInvalidInput)
	}
	loc, err := repos.Locations().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if loc == nil || !loc.IsBranch() {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, code)
	}
	if !loc.IsActive {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrInactive, code)
	}
	return loc, nil
}

// ResolveActiveLocation busca una ubicación de cualquier tipo por id; field nombra el campo en los errores.
func (r *Resolver) ResolveActiveLocation(ctx context.Context, repos Repos, id, field string) (*entity.Location, error) {
	if err := requireUUID(field, id); err != nil {
		return nil, err
	}
	loc, err := repos.Locations().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, field, id)
	}
	if !loc.IsActive {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrInactive, field, id)
	}
	return loc, nil
}

// EnsureProductExists verifica que el producto exista en el catálogo.
func (r *Resolver) EnsureProductExists(ctx context.Context, repos Repos, productID string) (*entity.Product, error) {
	if err := requireUUID("productId", productID); err != nil {
		return nil, err
	}
	p, err := repos.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	return p, nil
}

// ResolveOrCreateUnitType asegura la unidad global correspondiente a la etiqueta.
func (r *Resolver) ResolveOrCreateUnitType(ctx context.Context, repos Repos, rawLabel string) (*entity.UnitType, Resolution, error) {
	label := strings.TrimSpace(rawLabel)
	if label == "" {
		return nil, Resolution{}, fmt.Errorf("%w: unitLabel requerido", domain.ErrInvalidInput)
	}
	code := inventory.NormalizeUnitCode(label)
	if code == "" {
		return nil, Resolution{}, fmt.Errorf("%w: unitLabel inválido %q", domain.ErrInvalidInput, label)
	}

	existing, err := repos.UnitTypes().GetByCode(ctx, code)
	if err != nil {
		return nil, Resolution{}, err
	}
	if existing != nil {
		return existing, Resolution{ID: existing.ID}, nil
	}

	ut := &entity.UnitType{
		ID:             uuid.New().String(),
		Code:           code,
		Name:           label,
		UnitKind:       inventory.UnitKindFromCode(code),
		Symbol:         label,
		PrecisionScale: 3,
		IsActive:       true,
	}
	if err := repos.UnitTypes().Create(ctx, ut); err != nil {
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, Resolution{}, err
		}
		// otra transacción la creó primero
		existing, err = repos.UnitTypes().GetByCode(ctx, code)
		if err != nil {
			return nil, Resolution{}, err
		}
		if existing == nil {
			return nil, Resolution{}, fmt.Errorf("%w: unidad %s", domain.ErrConflict, code)
		}
		return existing, Resolution{ID: existing.ID}, nil
	}
	return ut, Resolution{ID: ut.ID, Created: true}, nil
}

// ResolveOrCreateUnitLevel devuelve el nivel de unidad del producto para la etiqueta, creándolo si no existe.
// El primer nivel de un producto es el base; todos son vendibles; sortOrder = máximo + 1.
func (r *Resolver) ResolveOrCreateUnitLevel(ctx context.Context, repos Repos, productID, rawLabel string) (*entity.ProductUnitLevel, Resolution, error) {
	unit, _, err := r.ResolveOrCreateUnitType(ctx, repos, rawLabel)
	if err != nil {
		return nil, Resolution{}, err
	}
	levels := repos.UnitLevels()

	existing, err := levels.GetByCode(ctx, productID, unit.Code)
	if err != nil {
		return nil, Resolution{}, err
	}
	if existing != nil {
		return existing, Resolution{ID: existing.ID}, nil
	}

	// Dos intentos: el segundo cubre la carrera en la que otra transacción creó el nivel base
	// con otro código entre Stats y Create.
	for attempt := 0; attempt < 2; attempt++ {
		maxOrder, count, err := levels.Stats(ctx, productID)
		if err != nil {
			return nil, Resolution{}, err
		}
		level := &entity.ProductUnitLevel{
			ID:          uuid.New().String(),
			ProductID:   productID,
			Code:        unit.Code,
			DisplayName: strings.TrimSpace(rawLabel),
			UnitTypeID:  unit.ID,
			IsBase:      count == 0,
			IsSellable:  true,
			SortOrder:   maxOrder + 1,
			CreatedAt:   r.now(),
		}
		err = levels.Create(ctx, level)
		if err == nil {
			return level, Resolution{ID: level.ID, Created: true}, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, Resolution{}, err
		}
		existing, err = levels.GetByCode(ctx, productID, unit.Code)
		if err != nil {
			return nil, Resolution{}, err
		}
		if existing != nil {
			return existing, Resolution{ID: existing.ID}, nil
		}
	}
	return nil, Resolution{}, fmt.Errorf("%w: nivel de unidad %s del producto %s", domain.ErrConflict, unit.Code, productID)
}

// ResolveOrCreateLot busca el lote por (producto, lotNo, expDate) y lo crea si no existe.
// lotNo y expDate son obligatorios: los lotes solo nacen en la recepción.
func (r *Resolver) ResolveOrCreateLot(ctx context.Context, repos Repos, spec LotSpec) (Resolution, error) {
	lotNo := strings.TrimSpace(spec.LotNo)
	if lotNo == "" {
		return Resolution{}, fmt.Errorf("%w: lotNo requerido", domain.ErrInvalidInput)
	}
	if spec.ExpDate == nil {
		return Resolution{}, fmt.Errorf("%w: expDate requerido para la recepción", domain.ErrInvalidInput)
	}
	expDate := truncateDate(*spec.ExpDate)

	lots := repos.Lots()
	existing, err := lots.Find(ctx, spec.ProductID, lotNo, expDate)
	if err != nil {
		return Resolution{}, err
	}
	if existing != nil {
		return Resolution{ID: existing.ID}, nil
	}

	lot := &entity.ProductLot{
		ID:           uuid.New().String(),
		ProductID:    spec.ProductID,
		LotNo:        lotNo,
		ExpDate:      expDate,
		Manufacturer: strings.TrimSpace(spec.Manufacturer),
		CreatedAt:    r.now(),
	}
	if spec.MfgDate != nil {
		d := truncateDate(*spec.MfgDate)
		lot.MfgDate = &d
	}
	if err := lots.Create(ctx, lot); err != nil {
		if !errors.Is(err, domain.ErrDuplicate) {
			return Resolution{}, err
		}
		existing, err = lots.Find(ctx, spec.ProductID, lotNo, expDate)
		if err != nil {
			return Resolution{}, err
		}
		if existing == nil {
			return Resolution{}, fmt.Errorf("%w: lote %s", domain.ErrConflict, lotNo)
		}
		return Resolution{ID: existing.ID}, nil
	}
	return Resolution{ID: lot.ID, Created: true}, nil
}

// AssertLotBelongsToProduct no hace nada si lotID es vacío; si no, exige que el lote sea del producto.
func (r *Resolver) AssertLotBelongsToProduct(ctx context.Context, repos Repos, productID, lotID string) error {
	if lotID == "" {
		return nil
	}
	if err := requireUUID("lotId", lotID); err != nil {
		return err
	}
	lot, err := repos.Lots().GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil || lot.ProductID != productID {
		return fmt.Errorf("%w: lote %s no pertenece al producto %s", domain.ErrInvalidInput, lotID, productID)
	}
	return nil
}

// ResolveActorUser devuelve el id del actor: el usuario explícito (debe estar activo) o la cuenta de sistema sembrada.
func (r *Resolver) ResolveActorUser(ctx context.Context, repos Repos, actorID string) (string, error) {
	if actorID != "" {
		if err := requireUUID("actorId", actorID); err != nil {
			return "", err
		}
		u, err := repos.Users().GetActiveByID(ctx, actorID)
		if err != nil {
			return "", err
		}
		if u == nil {
			return "", fmt.Errorf("%w: usuario %s", domain.ErrNotFound, actorID)
		}
		return u.ID, nil
	}
	u, err := repos.Users().GetByUsername(ctx, r.systemUsername)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("%w: usuario de sistema %q no sembrado", domain.ErrNotFound, r.systemUsername)
	}
	return u.ID, nil
}

func requireUUID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s requerido", domain.ErrInvalidInput, field)
	}
	if _, err := uuid.Parse(v); err != nil {
		return fmt.Errorf("%w: %s debe ser un UUID válido", domain.ErrInvalidInput, field)
	}
	return nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
