package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sync/internal/application/ledger"
	"github.com/jhoicas/inventario-sync/internal/application/outbox"
)

// AgentDeps dependencias de la API local del agente.
type AgentDeps struct {
	Ledger *ledger.Ledger
	Queue  *outbox.Queue
	Sync   SyncController
}

// AgentRouter registra las rutas de la API local (colaboradores en el mismo equipo).
func AgentRouter(app *fiber.App, deps AgentDeps) {
	api := app.Group("/api")

	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.Ledger)
	items.Post("/", itemHandler.Register)
	items.Get("/", itemHandler.List)
	items.Get("/code/:code", itemHandler.GetByCode)
	items.Get("/:id", itemHandler.GetByID)

	movements := api.Group("/movements")
	movementHandler := NewMovementHandler(deps.Ledger)
	movements.Post("/", movementHandler.Apply)
	movements.Get("/", movementHandler.List)
	movements.Get("/summary", movementHandler.Summary)

	syncHandler := NewSyncHandler(deps.Sync, deps.Queue)
	api.Get("/sync/status", syncHandler.Status)
	api.Post("/sync", syncHandler.Trigger)
	api.Get("/outbox", syncHandler.ListOutbox)
	api.Post("/outbox/:id/reset", syncHandler.ResetEntry)
}

// ServerDeps dependencias del servidor de referencia.
type ServerDeps struct {
	Catalog Catalog
	Service string
}

// ServerRouter registra las rutas que consume el adaptador remoto del agente.
func ServerRouter(app *fiber.App, deps ServerDeps) {
	api := app.Group("/api")
	h := NewCatalogHandler(deps.Catalog, deps.Service)
	api.Post("/movements/sync", h.SubmitMovement)
	api.Post("/items", h.UpsertItem)
	api.Get("/items", h.ListItems)
	api.Get("/sync/status", h.Health)
}
