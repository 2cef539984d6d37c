package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
)

// QueryHandler expone las proyecciones de solo lectura (protegido, cualquier rol).
type QueryHandler struct {
	uc *inventory.QueryUseCase
}

// NewQueryHandler construye el handler.
func NewQueryHandler(uc *inventory.QueryUseCase) *QueryHandler {
	return &QueryHandler{uc: uc}
}

// StockOnHand godoc
// @Summary      Existencias por sucursal
// @Tags         reporting
// @Security     Bearer
// @Produce      json
// @Param        branchCode  query  string  false  "Código de sucursal. Vacío = todas."
// @Success      200  {object}  dto.ListResponse[dto.StockOnHandRow]
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/stock/on-hand [get]
func (h *QueryHandler) StockOnHand(c *fiber.Ctx) error {
	var q dto.StockOnHandQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	rows, err := h.uc.StockOnHand(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(rows))
}

// Movements godoc
// @Summary      Historial de movimientos
// @Description  Los usuarios no ADMIN solo ven movimientos de su ubicación.
// @Tags         reporting
// @Security     Bearer
// @Produce      json
// @Param        productId   query  string  false  "UUID de producto"
// @Param        branchCode  query  string  false  "Código de sucursal (origen o destino)"
// @Param        locationId  query  string  false  "UUID de ubicación (origen o destino)"
// @Param        from        query  string  false  "RFC3339, inclusivo"
// @Param        to          query  string  false  "RFC3339, exclusivo"
// @Param        limit       query  int     false  "1..1000 (defecto 1000)"
// @Success      200  {object}  dto.ListResponse[dto.MovementRow]
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *QueryHandler) Movements(c *fiber.Ctx) error {
	var q dto.MovementQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	rows, err := h.uc.Movements(c.UserContext(), GetCaller(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(rows))
}

// ExportMovements godoc
// @Summary      Exportar historial de movimientos a XLSX
// @Tags         reporting
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        productId   query  string  false  "UUID de producto"
// @Param        branchCode  query  string  false  "Código de sucursal"
// @Param        from        query  string  false  "RFC3339, inclusivo"
// @Param        to          query  string  false  "RFC3339, exclusivo"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/movements/export [get]
func (h *QueryHandler) ExportMovements(c *fiber.Ctx) error {
	var q dto.MovementQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	// se escribe primero en memoria para poder responder un error JSON si falla
	var buf bytes.Buffer
	if err := h.uc.ExportMovementsXLSX(c.UserContext(), GetCaller(c), q, &buf); err != nil {
		return writeError(c, err)
	}
	filename := fmt.Sprintf("movimientos_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

// PatientDispenseHistory godoc
// @Summary      Historial de dispensación de un paciente
// @Tags         reporting
// @Security     Bearer
// @Produce      json
// @Param        pid   path   string  true   "Identificación del paciente"
// @Param        from  query  string  false  "RFC3339, inclusivo"
// @Param        to    query  string  false  "RFC3339, exclusivo"
// @Success      200  {object}  dto.ListResponse[dto.PatientDispenseRow]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/patients/{pid}/dispense [get]
func (h *QueryHandler) PatientDispenseHistory(c *fiber.Ctx) error {
	var q dto.PatientDispenseQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	rows, err := h.uc.PatientDispenseHistory(c.UserContext(), c.Params("pid"), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(rows))
}

// ListLocations godoc
// @Summary      Listar ubicaciones
// @Tags         reporting
// @Security     Bearer
// @Produce      json
// @Param        includeInactive  query  bool    false  "Incluir inactivas"
// @Param        locationType     query  string  false  "BRANCH, OFFICE, ..."
// @Success      200  {object}  dto.ListResponse[dto.LocationResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/locations [get]
func (h *QueryHandler) ListLocations(c *fiber.Ctx) error {
	var q dto.LocationQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	rows, err := h.uc.ListLocations(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(rows))
}

// DispenseSlip godoc
// @Summary      Comprobante PDF de una dispensación
// @Tags         dispense
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "UUID de la cabecera de dispensación"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dispense/{id}/pdf [get]
func (h *QueryHandler) DispenseSlip(c *fiber.Ctx) error {
	pdf, filename, err := h.uc.DispenseSlipPDF(c.UserContext(), GetCaller(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}
