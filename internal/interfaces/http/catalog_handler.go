package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// Catalog casos de uso del servidor de referencia.
type Catalog interface {
	SubmitMovement(ctx context.Context, p entity.MovementPayload) (*entity.StockItem, error)
	UpsertItem(ctx context.Context, p entity.ItemPayload) (*entity.StockItem, error)
	ListItems(ctx context.Context) ([]*entity.StockItem, error)
}

// CatalogHandler endpoints que consumen los dispositivos al sincronizar.
type CatalogHandler struct {
	catalog Catalog
	service string
}

// NewCatalogHandler construye el handler. service es el nombre reportado en el health.
func NewCatalogHandler(catalog Catalog, service string) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, service: service}
}

// SubmitMovement godoc
// @Summary      Recibir un movimiento de un dispositivo
// @Description  Idempotente por movement_id.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncMovementRequest  true  "Movimiento"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/sync [post]
func (h *CatalogHandler) SubmitMovement(c *fiber.Ctx) error {
	var in dto.SyncMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.catalog.SubmitMovement(c.Context(), entity.MovementPayload{
		MovementID: in.MovementID,
		ItemID:     in.ItemID,
		Kind:       entity.MovementKind(in.Kind),
		Quantity:   in.Quantity,
		Origin:     entity.Origin(in.Origin),
		CreatedAt:  in.CreatedAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toItemResponse(item))
}

// UpsertItem godoc
// @Summary      Alta o actualización de metadatos de un ítem
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpsertItemRequest  true  "Ítem (sin cantidad)"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *CatalogHandler) UpsertItem(c *fiber.Ctx) error {
	var in dto.UpsertItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.catalog.UpsertItem(c.Context(), entity.ItemPayload{
		ItemID:      in.ItemID,
		Code:        in.Code,
		Description: in.Description,
		Category:    in.Category,
		UpdatedAt:   in.UpdatedAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toItemResponse(item))
}

// ListItems godoc
// @Summary      Lista autoritativa de ítems
// @Tags         sync
// @Produce      json
// @Success      200  {object}  dto.ItemListResponse
// @Router       /api/items [get]
func (h *CatalogHandler) ListItems(c *fiber.Ctx) error {
	list, err := h.catalog.ListItems(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toItemList(list))
}

// Health godoc
// @Summary      Health del servidor
// @Tags         sync
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Router       /api/sync/status [get]
func (h *CatalogHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{Status: "ok", Service: h.service, Time: time.Now().UTC()})
}
