package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/application/outbox"
	"github.com/jhoicas/inventario-sync/internal/application/syncengine"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// SyncController la parte del orquestador que consume la API.
type SyncController interface {
	Status(ctx context.Context) (syncengine.Status, error)
	Trigger() error
}

// SyncHandler estado y disparo de la sincronización; inspección y reinicio de la cola.
type SyncHandler struct {
	sync  SyncController
	queue *outbox.Queue
}

// NewSyncHandler construye el handler.
func NewSyncHandler(sync SyncController, queue *outbox.Queue) *SyncHandler {
	return &SyncHandler{sync: sync, queue: queue}
}

// Status godoc
// @Summary      Estado de la sincronización
// @Tags         sync
// @Produce      json
// @Success      200  {object}  dto.SyncStatusResponse
// @Router       /api/sync/status [get]
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	st, err := h.sync.Status(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ToSyncStatus(st))
}

// Trigger godoc
// @Summary      Disparar un ciclo de sincronización
// @Tags         sync
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sync [post]
func (h *SyncHandler) Trigger(c *fiber.Ctx) error {
	if err := h.sync.Trigger(); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "sincronización solicitada"})
}

// ListOutbox godoc
// @Summary      Listar entradas de la cola de salida
// @Tags         outbox
// @Produce      json
// @Param        status  query  string  false  "PENDING o ERROR"
// @Param        limit   query  int     false  "Límite"
// @Success      200  {array}   dto.OutboxEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/outbox [get]
func (h *SyncHandler) ListOutbox(c *fiber.Ctx) error {
	list, err := h.queue.List(c.Context(), entity.OutboxStatus(c.Query("status")), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.OutboxEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toOutboxResponse(e))
	}
	return c.JSON(out)
}

// ResetEntry godoc
// @Summary      Devolver una entrada ERROR a PENDING
// @Tags         outbox
// @Produce      json
// @Param        id   path  int  true  "ID de la entrada"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/outbox/{id}/reset [post]
func (h *SyncHandler) ResetEntry(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeValidation, Message: "id inválido"})
	}
	if err := h.queue.Reset(c.Context(), int64(id)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "entrada reiniciada"})
}
