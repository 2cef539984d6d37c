// reconcile compara stock_on_hand con la suma con signo del libro de movimientos y reporta
// las claves inconsistentes o negativas. Nunca corrige saldos.
//
// Uso: go run ./cmd/reconcile
// Sale con código 1 si encuentra diferencias y 2 si no pudo ejecutarse.
// Con REDIS_ADDR definido solo corre una instancia a la vez (lock "lock:ledger-reconcile").
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain"
	infracache "github.com/jhoicas/farmacia-api/internal/infrastructure/cache"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/farmacia-api/pkg/config"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

const lockTTL = 10 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: cfg.App.Name}).Component("reconcile")

	if !cfg.DB.Enabled() {
		log.Error().Msg("reconcile requiere DATABASE_URL o DB_HOST")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTTL)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return 2
	}
	defer pool.Close()

	uc := inventory.NewReconcileUseCase(postgres.NewQueryRepository(pool), log)

	var report *dto.ReconcileReport
	job := func(ctx context.Context) error {
		report, err = uc.Reconcile(ctx)
		return err
	}

	if cfg.Redis.Enabled() {
		client := infracache.NewClient(cfg.Redis)
		defer client.Close()
		err = infracache.NewLocker(client).RunExclusive(ctx, "ledger-reconcile", lockTTL, job)
	} else {
		log.Warn().Msg("sin REDIS_ADDR: se ejecuta sin lock entre procesos")
		err = job(ctx)
	}
	if errors.Is(err, domain.ErrBusy) {
		log.Warn().Err(err).Msg("otra conciliación en curso")
		return 2
	}
	if err != nil {
		log.Error().Err(err).Msg("conciliación fallida")
		return 2
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error().Err(err).Msg("escribir reporte")
		return 2
	}
	if len(report.Drift) > 0 {
		return 1
	}
	return 0
}
