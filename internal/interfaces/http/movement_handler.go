package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/application/ledger"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
)

// MovementHandler entrada de movimientos desde los canales de adquisición (NFC, código de barras, manual).
type MovementHandler struct {
	ledger *ledger.Ledger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(l *ledger.Ledger) *MovementHandler {
	return &MovementHandler{ledger: l}
}

// Apply godoc
// @Summary      Aplicar movimiento de inventario
// @Description  Se aplica siempre en local y se encola para el servidor. Nunca devuelve errores de transporte.
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyMovementRequest  true  "item_id o code, kind IN|OUT, quantity > 0"
// @Success      201   {object}  dto.ApplyMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Apply(c *fiber.Ctx) error {
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.ledger.ApplyMovement(c.Context(), ledger.MovementInput{
		ItemID:   in.ItemID,
		Code:     in.Code,
		Kind:     entity.MovementKind(in.Kind),
		Quantity: in.Quantity,
		Origin:   entity.Origin(in.Origin),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ApplyMovementResponse{
		Success:     true,
		ItemID:      res.ItemID,
		MovementID:  res.MovementID,
		NewQuantity: res.NewQuantity,
		Queued:      res.Queued,
	})
}

// List godoc
// @Summary      Listar movimientos locales
// @Tags         movements
// @Produce      json
// @Param        item_id  query  string  false  "Filtrar por ítem"
// @Param        pending  query  bool    false  "Solo no sincronizados"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	_ = c.QueryParser(&page)
	page.DefaultPage()
	filter := repository.MovementFilter{
		ItemID: c.Query("item_id"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if c.QueryBool("pending") {
		pending := false
		filter.Synchronized = &pending
	}
	list, err := h.ledger.ListMovements(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Totales de movimientos locales por tipo
// @Tags         movements
// @Produce      json
// @Success      200  {array}  dto.MovementSummaryResponse
// @Router       /api/movements/summary [get]
func (h *MovementHandler) Summary(c *fiber.Ctx) error {
	sums, err := h.ledger.Summary(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MovementSummaryResponse, 0, len(sums))
	for _, s := range sums {
		out = append(out, dto.MovementSummaryResponse{
			Kind:          string(s.Kind),
			Count:         s.Count,
			TotalQuantity: s.TotalQuantity,
		})
	}
	return c.JSON(out)
}
