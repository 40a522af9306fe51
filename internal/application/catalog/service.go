// Package catalog es el lado servidor de la sincronización: aplica movimientos de los
// dispositivos sobre el stock autoritativo y publica la lista de ítems.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/pkg/codes"
)

// Service casos de uso del servidor de referencia.
type Service struct {
	txRunner TxRunner
	items    ItemStore
	now      func() time.Time
}

// NewService construye el servicio. items se usa para lecturas fuera de transacción.
func NewService(txRunner TxRunner, items ItemStore) *Service {
	return &Service{txRunner: txRunner, items: items, now: time.Now}
}

// SubmitMovement aplica un movimiento de un dispositivo. Bloquea la fila del ítem
// (SELECT FOR UPDATE), registra el movimiento y ajusta la cantidad en la misma tx.
// Reenviar un movimiento ya aplicado devuelve el ítem actual sin volver a aplicarlo.
func (s *Service) SubmitMovement(ctx context.Context, p entity.MovementPayload) (*entity.StockItem, error) {
	if p.MovementID == "" || p.ItemID == "" {
		return nil, fmt.Errorf("movement_id e item_id son obligatorios: %w", domain.ErrInvalidInput)
	}
	if !p.Kind.Valid() || p.Quantity <= 0 {
		return nil, fmt.Errorf("tipo %q o cantidad %d: %w", p.Kind, p.Quantity, domain.ErrInvalidInput)
	}
	if p.Origin == "" {
		p.Origin = entity.OriginManual
	}
	if !p.Origin.Valid() {
		return nil, fmt.Errorf("origen %q: %w", p.Origin, domain.ErrInvalidInput)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	var result *entity.StockItem
	err := s.txRunner.Run(ctx, func(items ItemStore, movements MovementLog) error {
		item, err := items.GetForUpdate(ctx, p.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", p.ItemID, domain.ErrNotFound)
		}

		inserted, err := movements.Insert(ctx, &entity.MovementRecord{
			ID:           p.MovementID,
			ItemID:       p.ItemID,
			Kind:         p.Kind,
			Quantity:     p.Quantity,
			Origin:       p.Origin,
			CreatedAt:    p.CreatedAt,
			Synchronized: true,
		})
		if err != nil {
			return err
		}
		if !inserted {
			result = item
			return nil
		}

		newQty, err := item.Apply(p.Kind, p.Quantity)
		if err != nil {
			return err
		}
		if err := items.UpdateQuantity(ctx, item.ID, newQty); err != nil {
			return err
		}
		item.Quantity = newQty
		item.UpdatedAt = s.now()
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertItem registra o actualiza metadatos de un ítem (gana la escritura más reciente).
// La cantidad no viaja en esta operación.
func (s *Service) UpsertItem(ctx context.Context, p entity.ItemPayload) (*entity.StockItem, error) {
	p.Code = codes.Normalize(p.Code)
	if p.ItemID == "" || !codes.Valid(p.Code) {
		return nil, fmt.Errorf("item_id y code son obligatorios: %w", domain.ErrInvalidInput)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now()
	}

	var result *entity.StockItem
	err := s.txRunner.Run(ctx, func(items ItemStore, _ MovementLog) error {
		byCode, err := items.GetByCode(ctx, p.Code)
		if err != nil {
			return err
		}
		if byCode != nil && byCode.ID != p.ItemID {
			return fmt.Errorf("código %s ya asignado a %s: %w", p.Code, byCode.ID, domain.ErrDuplicate)
		}
		if err := items.UpsertMetadata(ctx, &entity.StockItem{
			ID:          p.ItemID,
			Code:        p.Code,
			Description: p.Description,
			Category:    p.Category,
			UpdatedAt:   p.UpdatedAt,
		}); err != nil {
			return err
		}
		result, err = items.GetByID(ctx, p.ItemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListItems lista todos los ítems autoritativos.
func (s *Service) ListItems(ctx context.Context) ([]*entity.StockItem, error) {
	return s.items.List(ctx)
}
