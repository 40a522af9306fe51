package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/application/ledger"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
)

// ItemHandler consulta y alta de ítems en el almacén local.
type ItemHandler struct {
	ledger *ledger.Ledger
}

// NewItemHandler construye el handler.
func NewItemHandler(l *ledger.Ledger) *ItemHandler {
	return &ItemHandler{ledger: l}
}

// Register godoc
// @Summary      Registrar o actualizar un ítem local
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterItemRequest  true  "code obligatorio; id vacío crea un ítem nuevo"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.ledger.RegisterItem(c.Context(), ledger.ItemInput{
		ID:          in.ID,
		Code:        in.Code,
		Description: in.Description,
		Category:    in.Category,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toItemResponse(item))
}

// List godoc
// @Summary      Listar ítems locales
// @Tags         items
// @Produce      json
// @Param        category   query  string  false  "Filtrar por categoría"
// @Param        low_stock  query  bool    false  "Solo ítems bajo el umbral"
// @Param        threshold  query  int     false  "Umbral de stock bajo (por defecto el configurado)"
// @Param        limit      query  int     false  "Límite"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.ItemListResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	var list []*entity.StockItem
	var err error
	if c.QueryBool("low_stock") {
		threshold, _ := strconv.ParseInt(c.Query("threshold"), 10, 64)
		list, err = h.ledger.LowStock(c.Context(), threshold)
	} else {
		var page dto.PageRequest
		_ = c.QueryParser(&page)
		page.DefaultPage()
		list, err = h.ledger.ListItems(c.Context(), repository.ItemFilter{
			Category: c.Query("category"),
			Limit:    page.Limit,
			Offset:   page.Offset,
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toItemList(list))
}

// GetByID godoc
// @Summary      Obtener ítem por ID
// @Tags         items
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	item, err := h.ledger.GetItem(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toItemResponse(item))
}

// GetByCode godoc
// @Summary      Obtener ítem por código escaneado
// @Tags         items
// @Produce      json
// @Param        code  path  string  true  "Código (se normaliza)"
// @Success      200   {object}  dto.ItemResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/code/{code} [get]
func (h *ItemHandler) GetByCode(c *fiber.Ctx) error {
	item, err := h.ledger.GetItemByCode(c.Context(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toItemResponse(item))
}
