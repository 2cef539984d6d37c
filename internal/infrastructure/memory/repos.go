package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

type locationRepo struct{ st *state }

func (r locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.st.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r locationRepo) GetByCode(_ context.Context, code string) (*entity.Location, error) {
	for _, l := range r.st.locations {
		if l.Code == code {
			return &l, nil
		}
	}
	return nil, nil
}

func (r locationRepo) List(_ context.Context, includeInactive bool, locationType string) ([]*entity.Location, error) {
	out := make([]*entity.Location, 0, len(r.st.locations))
	for _, l := range r.st.locations {
		if !includeInactive && !l.IsActive {
			continue
		}
		if locationType != "" && l.LocationType != locationType {
			continue
		}
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocationType != out[j].LocationType {
			return out[i].LocationType < out[j].LocationType
		}
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

type productRepo struct{ st *state }

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type unitTypeRepo struct{ st *state }

func (r unitTypeRepo) GetByCode(_ context.Context, code string) (*entity.UnitType, error) {
	for _, u := range r.st.unitTypes {
		if u.Code == code {
			return &u, nil
		}
	}
	return nil, nil
}

func (r unitTypeRepo) Create(ctx context.Context, unit *entity.UnitType) error {
	if existing, _ := r.GetByCode(ctx, unit.Code); existing != nil {
		return domain.ErrDuplicate
	}
	r.st.unitTypes[unit.ID] = *unit
	return nil
}

type unitLevelRepo struct{ st *state }

func (r unitLevelRepo) GetByCode(_ context.Context, productID, code string) (*entity.ProductUnitLevel, error) {
	for _, l := range r.st.unitLevels {
		if l.ProductID == productID && l.Code == code {
			return &l, nil
		}
	}
	return nil, nil
}

func (r unitLevelRepo) Stats(_ context.Context, productID string) (int, int, error) {
	maxOrder, count := 0, 0
	for _, l := range r.st.unitLevels {
		if l.ProductID != productID {
			continue
		}
		count++
		if l.SortOrder > maxOrder {
			maxOrder = l.SortOrder
		}
	}
	return maxOrder, count, nil
}

func (r unitLevelRepo) Create(_ context.Context, level *entity.ProductUnitLevel) error {
	for _, l := range r.st.unitLevels {
		if l.ProductID != level.ProductID {
			continue
		}
		if l.Code == level.Code || (l.IsBase && level.IsBase) {
			return domain.ErrDuplicate
		}
	}
	r.st.unitLevels[level.ID] = *level
	return nil
}

type lotRepo struct{ st *state }

func (r lotRepo) GetByID(_ context.Context, id string) (*entity.ProductLot, error) {
	l, ok := r.st.lots[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r lotRepo) Find(_ context.Context, productID, lotNo string, expDate time.Time) (*entity.ProductLot, error) {
	for _, l := range r.st.lots {
		if l.ProductID == productID && l.LotNo == lotNo && l.ExpDate.Equal(expDate) {
			return &l, nil
		}
	}
	return nil, nil
}

func (r lotRepo) Create(ctx context.Context, lot *entity.ProductLot) error {
	if existing, _ := r.Find(ctx, lot.ProductID, lot.LotNo, lot.ExpDate); existing != nil {
		return domain.ErrDuplicate
	}
	r.st.lots[lot.ID] = *lot
	return nil
}

type stockRepo struct{ st *state }

func (r stockRepo) Get(_ context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	for _, b := range r.st.stock {
		if b.Key == key {
			return &b, nil
		}
	}
	return nil, nil
}

// GetForUpdate equivale a Get: la transacción ya tiene exclusividad sobre todo el Store.
func (r stockRepo) GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	return r.Get(ctx, key)
}

func (r stockRepo) Insert(ctx context.Context, balance *entity.StockBalance) error {
	if existing, _ := r.Get(ctx, balance.Key); existing != nil {
		return domain.ErrDuplicate
	}
	r.st.stock[balance.ID] = *balance
	return nil
}

func (r stockRepo) UpdateQuantity(_ context.Context, id string, quantity decimal.Decimal, updatedAt time.Time) error {
	b, ok := r.st.stock[id]
	if !ok {
		return fmt.Errorf("%w: saldo %s", domain.ErrNotFound, id)
	}
	if quantity.IsNegative() {
		return fmt.Errorf("%w: saldo negativo", domain.ErrInsufficientStock)
	}
	b.Quantity = quantity
	b.UpdatedAt = updatedAt
	r.st.stock[id] = b
	return nil
}

type movementRepo struct{ st *state }

func (r movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	if !m.Quantity.IsPositive() {
		return fmt.Errorf("%w: cantidad de movimiento no positiva", domain.ErrInvalidInput)
	}
	r.st.movements = append(r.st.movements, *m)
	return nil
}

type dispenseRepo struct{ st *state }

func (r dispenseRepo) CreateHeader(_ context.Context, h *entity.DispenseHeader) error {
	r.st.headers[h.ID] = *h
	return nil
}

func (r dispenseRepo) CreateLine(_ context.Context, l *entity.DispenseLine) error {
	for _, existing := range r.st.lines {
		if existing.HeaderID == l.HeaderID && existing.LineNo == l.LineNo {
			return domain.ErrDuplicate
		}
	}
	r.st.lines = append(r.st.lines, *l)
	return nil
}

type patientRepo struct{ st *state }

func (r patientRepo) UpsertByPID(_ context.Context, p *entity.Patient) error {
	for id, existing := range r.st.patients {
		if existing.PID == p.PID {
			p.ID = id
			r.st.patients[id] = *p
			return nil
		}
	}
	p.ID = uuid.New().String()
	r.st.patients[p.ID] = *p
	return nil
}

type userRepo struct{ st *state }

func (r userRepo) GetActiveByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.st.users[id]
	if !ok || !u.IsActive {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range r.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}
