// Package memory implementa los puertos de persistencia en memoria para desarrollo y tests.
//
// No hay bloqueos por fila: el Store serializa transacciones completas con un semáforo
// y restaura una copia del estado si la transacción falla.
package memory

import (
	"context"
	"fmt"
	"maps"

	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

type state struct {
	locations  map[string]entity.Location
	products   map[string]entity.Product
	unitTypes  map[string]entity.UnitType
	unitLevels map[string]entity.ProductUnitLevel
	lots       map[string]entity.ProductLot
	stock      map[string]entity.StockBalance
	movements  []entity.StockMovement
	headers    map[string]entity.DispenseHeader
	lines      []entity.DispenseLine
	patients   map[string]entity.Patient
	users      map[string]entity.User
}

func newState() *state {
	return &state{
		locations:  make(map[string]entity.Location),
		products:   make(map[string]entity.Product),
		unitTypes:  make(map[string]entity.UnitType),
		unitLevels: make(map[string]entity.ProductUnitLevel),
		lots:       make(map[string]entity.ProductLot),
		stock:      make(map[string]entity.StockBalance),
		headers:    make(map[string]entity.DispenseHeader),
		patients:   make(map[string]entity.Patient),
		users:      make(map[string]entity.User),
	}
}

func (st *state) clone() *state {
	return &state{
		locations:  maps.Clone(st.locations),
		products:   maps.Clone(st.products),
		unitTypes:  maps.Clone(st.unitTypes),
		unitLevels: maps.Clone(st.unitLevels),
		lots:       maps.Clone(st.lots),
		stock:      maps.Clone(st.stock),
		movements:  append([]entity.StockMovement(nil), st.movements...),
		headers:    maps.Clone(st.headers),
		lines:      append([]entity.DispenseLine(nil), st.lines...),
		patients:   maps.Clone(st.patients),
		users:      maps.Clone(st.users),
	}
}

// Store guarda todo el estado en memoria.
type Store struct {
	sem chan struct{} // turno exclusivo: una transacción o lectura a la vez
	st  *state
}

// New crea un Store vacío.
func New() *Store {
	return &Store{sem: make(chan struct{}, 1), st: newState()}
}

var _ inventory.TxRunner = (*Store)(nil)
var _ repository.QueryRepository = (*Store)(nil)

// acquire toma el turno exclusivo; si ctx vence antes devuelve ErrBusy (equivale a lock_timeout).
func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrBusy, ctx.Err())
	}
}

func (s *Store) release() { <-s.sem }

// Run ejecuta fn con exclusividad total; si fn falla o entra en pánico se restaura el estado previo.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
		s.release()
	}()

	if err := fn(txRepos{st: s.st}); err != nil {
		return err
	}
	committed = true
	return nil
}

// read ejecuta fn sobre el estado confirmado, sin transacciones concurrentes.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn(s.st)
}

// ── Repos transaccionales ─────────────────────────────────────────────────────

type txRepos struct{ st *state }

func (r txRepos) Locations() repository.LocationRepository      { return locationRepo{r.st} }
func (r txRepos) Products() repository.ProductRepository        { return productRepo{r.st} }
func (r txRepos) UnitTypes() repository.UnitTypeRepository      { return unitTypeRepo{r.st} }
func (r txRepos) UnitLevels() repository.UnitLevelRepository    { return unitLevelRepo{r.st} }
func (r txRepos) Lots() repository.LotRepository                { return lotRepo{r.st} }
func (r txRepos) Stock() repository.StockRepository             { return stockRepo{r.st} }
func (r txRepos) Movements() repository.StockMovementRepository { return movementRepo{r.st} }
func (r txRepos) Dispenses() repository.DispenseRepository      { return dispenseRepo{r.st} }
func (r txRepos) Patients() repository.PatientRepository        { return patientRepo{r.st} }
func (r txRepos) Users() repository.UserRepository              { return userRepo{r.st} }

// ── Repos fuera de transacción ────────────────────────────────────────────────

// Locations devuelve el repositorio de ubicaciones sobre el estado confirmado.
func (s *Store) Locations() repository.LocationRepository { return storeLocations{s} }

// Users devuelve el repositorio de usuarios sobre el estado confirmado.
func (s *Store) Users() repository.UserRepository { return storeUsers{s} }

type storeLocations struct{ s *Store }

func (l storeLocations) GetByID(ctx context.Context, id string) (out *entity.Location, err error) {
	err = l.s.read(ctx, func(st *state) error {
		out, err = locationRepo{st}.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (l storeLocations) GetByCode(ctx context.Context, code string) (out *entity.Location, err error) {
	err = l.s.read(ctx, func(st *state) error {
		out, err = locationRepo{st}.GetByCode(ctx, code)
		return err
	})
	return out, err
}

func (l storeLocations) List(ctx context.Context, includeInactive bool, locationType string) (out []*entity.Location, err error) {
	err = l.s.read(ctx, func(st *state) error {
		out, err = locationRepo{st}.List(ctx, includeInactive, locationType)
		return err
	})
	return out, err
}

type storeUsers struct{ s *Store }

func (u storeUsers) GetActiveByID(ctx context.Context, id string) (out *entity.User, err error) {
	err = u.s.read(ctx, func(st *state) error {
		out, err = userRepo{st}.GetActiveByID(ctx, id)
		return err
	})
	return out, err
}

func (u storeUsers) GetByUsername(ctx context.Context, username string) (out *entity.User, err error) {
	err = u.s.read(ctx, func(st *state) error {
		out, err = userRepo{st}.GetByUsername(ctx, username)
		return err
	})
	return out, err
}
