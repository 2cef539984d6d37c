package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jhoicas/farmacia-api/docs"
	"github.com/jhoicas/farmacia-api/internal/application/auth"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
	infracache "github.com/jhoicas/farmacia-api/internal/infrastructure/cache"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/farmacia-api/internal/infrastructure/pdf"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/postgres"
	infraxlsx "github.com/jhoicas/farmacia-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/farmacia-api/internal/interfaces/http"
	"github.com/jhoicas/farmacia-api/pkg/config"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

// storage agrupa los puertos que dependen del backend (PostgreSQL o memoria).
type storage struct {
	tx        inventory.TxRunner
	queries   repository.QueryRepository
	locations repository.LocationRepository
	users     repository.UserRepository
	ping      func(ctx context.Context) error
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	store := openStorage(ctx, cfg, log)
	defer store.close()

	// Caché de existencias: Redis si está configurado; si no, nunca acierta.
	var stockCache inventory.StockCache = infracache.NoopStockCache{}
	if cfg.Redis.Enabled() {
		client := infracache.NewClient(cfg.Redis)
		defer client.Close()
		redisCache := infracache.NewRedisStockCache(client, time.Duration(cfg.Redis.StockCacheTTL)*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no responde; la caché se reintentará en cada consulta")
		}
		stockCache = redisCache
	}

	var opMetrics inventory.Metrics = inventory.NopMetrics()
	var promMetrics *metrics.Prometheus
	if cfg.Metrics.Enabled {
		promMetrics = metrics.NewPrometheus()
		opMetrics = promMetrics
	}

	invLog := log.Component("inventory")
	resolver := inventory.NewResolver(cfg.App.SystemUsername)
	movementUC := inventory.NewMovementUseCase(store.tx, resolver, stockCache, opMetrics, invLog)
	queryUC := inventory.NewQueryUseCase(
		store.queries, store.locations, stockCache,
		infraxlsx.NewMovementExporter(), infrapdf.NewMarotoPDFGenerator(), invLog,
	)
	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, cfg.App.SystemUsername)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Farmacia API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := store.ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if promMetrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promMetrics.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		MovementUC: movementUC,
		QueryUC:    queryUC,
		Locations:  store.locations,
		JWTSecret:  cfg.JWT.Secret,
		Log:        log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStorage conecta PostgreSQL (migraciones y contraseña inicial del admin) o, sin base configurada,
// levanta el store en memoria sembrado para desarrollo.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if !cfg.DB.Enabled() {
		log.Warn().Msg("sin base de datos configurada: usando store en memoria (los datos se pierden al reiniciar)")
		mem := memory.NewSeeded(cfg.App.SystemUsername, log)
		return storage{
			tx:        mem,
			queries:   mem,
			locations: mem.Locations(),
			users:     mem.Users(),
			ping:      func(context.Context) error { return nil },
			close:     func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}
	if pwd := os.Getenv("SEED_ADMIN_PASSWORD"); pwd != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("hashear contraseña inicial")
		}
		set, err := postgres.SetInitialPassword(ctx, pool, "admin", string(hash))
		if err != nil {
			log.Fatal().Err(err).Msg("asignar contraseña inicial del admin")
		}
		if set {
			log.Info().Msg("contraseña inicial del admin asignada")
		}
	}

	tx := postgres.NewTxRunner(pool)
	return storage{
		tx:        tx,
		queries:   postgres.NewQueryRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		users:     postgres.NewUserRepository(pool),
		ping:      tx.Ping,
		close:     pool.Close,
	}
}
