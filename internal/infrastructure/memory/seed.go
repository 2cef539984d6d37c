package memory

import (
	"context"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

// Ids fijos de los datos sembrados; coinciden con la migración 00002_seed.sql.
const (
	SystemUserID = "00000000-0000-0000-0000-000000000001"
	AdminUserID  = "00000000-0000-0000-0000-000000000002"
	Branch001ID  = "10000000-0000-0000-0000-000000000001"
	Branch003ID  = "10000000-0000-0000-0000-000000000003"
	Branch004ID  = "10000000-0000-0000-0000-000000000004"
	OfficeID     = "10000000-0000-0000-0000-000000000100"
)

// NewSeeded crea un Store con la cuenta de sistema, un ADMIN, las sucursales base y
// un catálogo mínimo. La contraseña del ADMIN sale de SEED_ADMIN_PASSWORD.
func NewSeeded(systemUsername string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := New()
	now := time.Now().UTC()

	s.AddUser(entity.User{ID: SystemUserID, Username: systemUsername, PasswordHash: "!", FullName: "System User", Role: entity.RoleAdmin, IsActive: true, CreatedAt: now})

	pwd := os.Getenv("SEED_ADMIN_PASSWORD")
	if pwd == "" {
		pwd = "admin123"
		log.Warn().Msg("memory-store: usando contraseña de desarrollo para admin; defina SEED_ADMIN_PASSWORD")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("memory-store: no se pudo hashear la contraseña de admin")
	}
	s.AddUser(entity.User{ID: AdminUserID, Username: "admin", PasswordHash: string(hash), FullName: "Administrador", Role: entity.RoleAdmin, IsActive: true, CreatedAt: now})

	for _, l := range []entity.Location{
		{ID: Branch001ID, Code: "001", Name: "Sucursal 001", LocationType: entity.LocationTypeBranch, IsActive: true, CreatedAt: now},
		{ID: Branch003ID, Code: "003", Name: "Sucursal 003", LocationType: entity.LocationTypeBranch, IsActive: true, CreatedAt: now},
		{ID: Branch004ID, Code: "004", Name: "Sucursal 004", LocationType: entity.LocationTypeBranch, IsActive: true, CreatedAt: now},
		{ID: OfficeID, Code: "HQ", Name: "Oficina central", LocationType: entity.LocationTypeOffice, IsActive: true, CreatedAt: now},
	} {
		s.AddLocation(l)
	}
	for _, p := range []entity.Product{
		{ID: "20000000-0000-0000-0000-000000000001", ProductCode: "PARA500", TradeName: "Paracetamol 500 mg", CreatedAt: now},
		{ID: "20000000-0000-0000-0000-000000000002", ProductCode: "AMOX250", TradeName: "Amoxicilina 250 mg", KYType: "KY11", CreatedAt: now},
	} {
		s.AddProduct(p)
	}
	return s
}

// AddLocation inserta o reemplaza una ubicación.
func (s *Store) AddLocation(l entity.Location) { s.mutate(func(st *state) { st.locations[l.ID] = l }) }

// AddProduct inserta o reemplaza un producto.
func (s *Store) AddProduct(p entity.Product) { s.mutate(func(st *state) { st.products[p.ID] = p }) }

// AddUser inserta o reemplaza un usuario.
func (s *Store) AddUser(u entity.User) { s.mutate(func(st *state) { st.users[u.ID] = u }) }

// Balance devuelve el saldo de una clave y si la fila existe.
func (s *Store) Balance(key entity.BalanceKey) (decimal.Decimal, bool) {
	var qty decimal.Decimal
	var ok bool
	_ = s.read(context.Background(), func(st *state) error {
		for _, b := range st.stock {
			if b.Key == key {
				qty, ok = b.Quantity, true
			}
		}
		return nil
	})
	return qty, ok
}

// AllMovements devuelve una copia del libro en orden de inserción.
func (s *Store) AllMovements() []entity.StockMovement {
	var out []entity.StockMovement
	_ = s.read(context.Background(), func(st *state) error {
		out = append(out, st.movements...)
		return nil
	})
	return out
}

// AllDispenseLines devuelve una copia de las líneas de dispensación.
func (s *Store) AllDispenseLines() []entity.DispenseLine {
	var out []entity.DispenseLine
	_ = s.read(context.Background(), func(st *state) error {
		out = append(out, st.lines...)
		return nil
	})
	return out
}

// UnitLevels devuelve los niveles de unidad de un producto.
func (s *Store) UnitLevels(productID string) []entity.ProductUnitLevel {
	var out []entity.ProductUnitLevel
	_ = s.read(context.Background(), func(st *state) error {
		for _, l := range st.unitLevels {
			if l.ProductID == productID {
				out = append(out, l)
			}
		}
		return nil
	})
	return out
}

// Lots devuelve los lotes de un producto.
func (s *Store) Lots(productID string) []entity.ProductLot {
	var out []entity.ProductLot
	_ = s.read(context.Background(), func(st *state) error {
		for _, l := range st.lots {
			if l.ProductID == productID {
				out = append(out, l)
			}
		}
		return nil
	})
	return out
}

// CorruptBalance sobrescribe un saldo sin pasar por el libro (solo para probar la conciliación).
func (s *Store) CorruptBalance(key entity.BalanceKey, qty decimal.Decimal) {
	s.mutate(func(st *state) {
		for id, b := range st.stock {
			if b.Key == key {
				b.Quantity = qty
				st.stock[id] = b
			}
		}
	})
}

func (s *Store) mutate(fn func(st *state)) {
	_ = s.read(context.Background(), func(st *state) error {
		fn(st)
		return nil
	})
}
