package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-api/internal/application/auth"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	MovementUC *inventory.MovementUseCase
	QueryUC    *inventory.QueryUseCase
	Locations  locationGetter
	JWTSecret  string
	Log        *logger.Logger // opcional; nil desactiva el log de peticiones
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	if deps.Log != nil {
		api.Use(RequestLogger(deps.Log))
	}

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token). OPERATOR queda en solo lectura.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole())
	writers := RequireRole(entity.RoleAdmin, entity.RolePharmacist)
	branchScoped := RequireBranchAccess(deps.Locations)

	// Movimientos de stock
	inventoryHandler := NewInventoryHandler(deps.MovementUC)
	inv := protected.Group("/inventory")
	inv.Post("/receive", writers, branchScoped, inventoryHandler.Receive)
	inv.Post("/transfer", writers, branchScoped, inventoryHandler.Transfer)
	inv.Post("/movements", writers, inventoryHandler.CreateMovement)
	protected.Post("/dispense", writers, branchScoped, inventoryHandler.Dispense)

	// Reportes (lectura)
	queryHandler := NewQueryHandler(deps.QueryUC)
	protected.Get("/stock/on-hand", queryHandler.StockOnHand)
	protected.Get("/movements", queryHandler.Movements)
	protected.Get("/movements/export", queryHandler.ExportMovements)
	protected.Get("/patients/:pid/dispense", queryHandler.PatientDispenseHistory)
	protected.Get("/locations", queryHandler.ListLocations)
	protected.Get("/dispense/:id/pdf", queryHandler.DispenseSlip)
}
