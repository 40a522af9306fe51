// Package ledger es el único punto de cambio de cantidades de stock en el dispositivo.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-sync/internal/application/outbox"
	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
	"github.com/jhoicas/inventario-sync/pkg/codes"
)

// DefaultLowStockThreshold umbral de stock bajo cuando no se configura otro.
const DefaultLowStockThreshold = 10

// Ledger aplica movimientos de forma transaccional: cantidad, movimiento y entrada
// de la cola se escriben juntos o no se escriben.
type Ledger struct {
	txRunner  repository.TxRunner
	items     repository.ItemRepository
	movements repository.MovementRepository
	queue     *outbox.Queue
	lowStock  int64
	now       func() time.Time
}

// Option configura el Ledger.
type Option func(*Ledger)

// WithLowStockThreshold fija el umbral por defecto de LowStock.
func WithLowStockThreshold(n int64) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.lowStock = n
		}
	}
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New construye el Ledger.
func New(
	txRunner repository.TxRunner,
	items repository.ItemRepository,
	movements repository.MovementRepository,
	queue *outbox.Queue,
	opts ...Option,
) *Ledger {
	l := &Ledger{
		txRunner:  txRunner,
		items:     items,
		movements: movements,
		queue:     queue,
		lowStock:  DefaultLowStockThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MovementInput entrada de ApplyMovement. Exactamente uno de ItemID o Code.
type MovementInput struct {
	ItemID   string
	Code     string
	Kind     entity.MovementKind
	Quantity int64
	Origin   entity.Origin // vacío = MANUAL
}

// MovementResult resultado de un movimiento aplicado.
type MovementResult struct {
	ItemID      string
	MovementID  string
	EntryID     int64
	NewQuantity int64
	Queued      bool
}

func (in *MovementInput) validate() error {
	in.Code = codes.Normalize(in.Code)
	if (in.ItemID == "") == (in.Code == "") {
		return fmt.Errorf("indicar item_id o code, no ambos: %w", domain.ErrInvalidInput)
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("tipo de movimiento %q: %w", in.Kind, domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("la cantidad debe ser mayor que 0: %w", domain.ErrInvalidInput)
	}
	if in.Origin == "" {
		in.Origin = entity.OriginManual
	}
	if !in.Origin.Valid() {
		return fmt.Errorf("origen %q: %w", in.Origin, domain.ErrInvalidInput)
	}
	return nil
}

// ApplyMovement aplica un movimiento siempre en local primero. En una transacción:
// lee el ítem, calcula la nueva cantidad, la guarda, registra el movimiento sin
// sincronizar y encola su entrada MOVEMENT. Después del commit avisa al orquestador.
// Una salida que dejaría la cantidad negativa se rechaza sin tocar nada.
func (l *Ledger) ApplyMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := l.now()
	res := &MovementResult{MovementID: uuid.New().String()}

	err := l.txRunner.Run(ctx, func(r repository.TxRepos) error {
		item, err := findItem(ctx, r.Items, in.ItemID, in.Code)
		if err != nil {
			return err
		}
		newQty, err := item.Apply(in.Kind, in.Quantity)
		if err != nil {
			return err
		}
		if err := r.Items.UpdateQuantity(ctx, item.ID, newQty, now); err != nil {
			return err
		}

		mov := &entity.MovementRecord{
			ID:        res.MovementID,
			ItemID:    item.ID,
			Kind:      in.Kind,
			Quantity:  in.Quantity,
			Origin:    in.Origin,
			CreatedAt: now,
		}
		if err := r.Movements.Create(ctx, mov); err != nil {
			return err
		}

		entry, err := entity.NewMovementEntry(entity.MovementPayload{
			MovementID: mov.ID,
			ItemID:     mov.ItemID,
			Kind:       mov.Kind,
			Quantity:   mov.Quantity,
			Origin:     mov.Origin,
			CreatedAt:  mov.CreatedAt,
		}, now)
		if err != nil {
			return err
		}
		entryID, err := l.queue.EnqueueTx(ctx, r, entry)
		if err != nil {
			return err
		}

		res.ItemID = item.ID
		res.EntryID = entryID
		res.NewQuantity = newQty
		res.Queued = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.queue.Notify()
	return res, nil
}

func findItem(ctx context.Context, items repository.ItemRepository, id, code string) (*entity.StockItem, error) {
	var (
		item *entity.StockItem
		err  error
	)
	if id != "" {
		item, err = items.GetByID(ctx, id)
	} else {
		item, err = items.GetByCode(ctx, code)
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		ref := id
		if ref == "" {
			ref = code
		}
		return nil, fmt.Errorf("ítem %s: %w", ref, domain.ErrNotFound)
	}
	return item, nil
}

// ItemInput alta o actualización local de metadatos de un ítem.
type ItemInput struct {
	ID          string // vacío = ítem nuevo
	Code        string
	Description string
	Category    string
}

// RegisterItem registra un ítem localmente y encola su ITEM_UPSERT en la misma transacción.
// Un ítem nuevo arranca en cantidad 0; uno existente conserva su cantidad.
func (l *Ledger) RegisterItem(ctx context.Context, in ItemInput) (*entity.StockItem, error) {
	in.Code = codes.Normalize(in.Code)
	if !codes.Valid(in.Code) {
		return nil, fmt.Errorf("código vacío o demasiado largo: %w", domain.ErrInvalidInput)
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	now := l.now()
	var saved *entity.StockItem

	err := l.txRunner.Run(ctx, func(r repository.TxRepos) error {
		byCode, err := r.Items.GetByCode(ctx, in.Code)
		if err != nil {
			return err
		}
		if byCode != nil && byCode.ID != in.ID {
			return fmt.Errorf("código %s ya asignado a %s: %w", in.Code, byCode.ID, domain.ErrDuplicate)
		}
		item, err := r.Items.GetByID(ctx, in.ID)
		if err != nil {
			return err
		}
		if item == nil {
			item = &entity.StockItem{ID: in.ID}
		}
		item.Code = in.Code
		item.Description = in.Description
		item.Category = in.Category
		item.UpdatedAt = now
		if err := r.Items.Upsert(ctx, item); err != nil {
			return err
		}

		entry, err := entity.NewItemEntry(entity.ItemPayload{
			ItemID:      item.ID,
			Code:        item.Code,
			Description: item.Description,
			Category:    item.Category,
			UpdatedAt:   now,
		}, now)
		if err != nil {
			return err
		}
		if _, err := l.queue.EnqueueTx(ctx, r, entry); err != nil {
			return err
		}
		saved = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.queue.Notify()
	return saved, nil
}

// MergeResult resultado de integrar un ítem remoto.
type MergeResult struct {
	Item    *entity.StockItem
	Pending int64 // efecto neto de movimientos locales aún sin confirmar
	Clamped bool  // la suma daba negativa y se dejó en 0
}

// MergeRemote integra un ítem traído del servidor. El servidor manda en metadatos y en
// cantidad confirmada; a esa cantidad se suma el efecto de los movimientos locales que
// todavía no llegaron al servidor, para no perder operaciones hechas sin conexión.
// Un código remoto que localmente pertenece a otro ítem devuelve ErrDuplicate.
func (l *Ledger) MergeRemote(ctx context.Context, remote entity.StockItem) (*MergeResult, error) {
	remote.Code = codes.Normalize(remote.Code)
	if remote.ID == "" || remote.Code == "" {
		return nil, fmt.Errorf("ítem remoto sin id o código: %w", domain.ErrInvalidInput)
	}
	if remote.UpdatedAt.IsZero() {
		remote.UpdatedAt = l.now()
	}
	res := &MergeResult{}

	err := l.txRunner.Run(ctx, func(r repository.TxRepos) error {
		byCode, err := r.Items.GetByCode(ctx, remote.Code)
		if err != nil {
			return err
		}
		if byCode != nil && byCode.ID != remote.ID {
			return fmt.Errorf("código remoto %s pertenece localmente a %s: %w", remote.Code, byCode.ID, domain.ErrDuplicate)
		}
		pending, err := r.Movements.PendingDelta(ctx, remote.ID)
		if err != nil {
			return err
		}
		merged := remote
		merged.Quantity = remote.Quantity + pending
		if merged.Quantity < 0 {
			merged.Quantity = 0
			res.Clamped = true
		}
		if err := r.Items.Upsert(ctx, &merged); err != nil {
			return err
		}
		res.Item = &merged
		res.Pending = pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetItem obtiene un ítem por ID.
func (l *Ledger) GetItem(ctx context.Context, id string) (*entity.StockItem, error) {
	return findItem(ctx, l.items, id, "")
}

// GetItemByCode obtiene un ítem por código (se normaliza antes de buscar).
func (l *Ledger) GetItemByCode(ctx context.Context, code string) (*entity.StockItem, error) {
	code = codes.Normalize(code)
	if code == "" {
		return nil, fmt.Errorf("código vacío: %w", domain.ErrInvalidInput)
	}
	return findItem(ctx, l.items, "", code)
}

// ListItems lista ítems locales.
func (l *Ledger) ListItems(ctx context.Context, filter repository.ItemFilter) ([]*entity.StockItem, error) {
	return l.items.List(ctx, filter)
}

// LowStock ítems con cantidad menor al umbral (<= 0 usa el configurado).
func (l *Ledger) LowStock(ctx context.Context, threshold int64) ([]*entity.StockItem, error) {
	if threshold <= 0 {
		threshold = l.lowStock
	}
	return l.items.ListBelow(ctx, threshold)
}

// ListMovements lista movimientos locales.
func (l *Ledger) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	return l.movements.List(ctx, filter)
}

// PendingMovements movimientos locales aún no confirmados por el servidor.
func (l *Ledger) PendingMovements(ctx context.Context) ([]*entity.MovementRecord, error) {
	pending := false
	return l.movements.List(ctx, repository.MovementFilter{Synchronized: &pending})
}

// Summary totales de movimientos locales por tipo.
func (l *Ledger) Summary(ctx context.Context) ([]entity.MovementSummary, error) {
	return l.movements.Summary(ctx)
}

// IsValidation indica si err es un error de validación de entrada (no de almacenamiento).
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrDuplicate)
}
