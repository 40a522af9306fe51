package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// Result clasificación del envío de una entrada.
type Result int

// Resultados posibles de Send.
const (
	Ack            Result = iota // el servidor aceptó la operación de forma durable
	Reject                       // error de datos: reintentar no lo arregla
	TransportError               // timeout, conexión, 5xx: se espera que se resuelva solo
)

func (r Result) String() string {
	switch r {
	case Ack:
		return "ACK"
	case Reject:
		return "REJECT"
	case TransportError:
		return "TRANSPORT_ERROR"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Outcome resultado de enviar una entrada de la cola.
type Outcome struct {
	Result Result
	Item   *entity.StockItem // ítem canónico devuelto en un Ack
	Err    error
}

// Adapter traduce entradas de la cola a llamadas del Client.
type Adapter struct {
	client *Client
}

// NewAdapter construye el adaptador.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Send decodifica el payload tipado de la entrada y lo envía. Nunca devuelve error:
// todo fallo queda clasificado en el Outcome.
func (a *Adapter) Send(ctx context.Context, entry *entity.OutboxEntry) Outcome {
	var (
		resp *dto.ItemResponse
		err  error
	)
	switch entry.Kind {
	case entity.OperationMovement:
		p, perr := entry.MovementPayload()
		if perr != nil {
			return rejected(perr)
		}
		resp, err = a.client.SubmitMovement(ctx, MovementRequest(p))
	case entity.OperationItemUpsert:
		p, perr := entry.ItemPayload()
		if perr != nil {
			return rejected(perr)
		}
		resp, err = a.client.UpsertItem(ctx, ItemRequest(p))
	default:
		return rejected(fmt.Errorf("tipo de operación %q", entry.Kind))
	}

	if err != nil {
		if errors.Is(err, domain.ErrRejected) {
			return Outcome{Result: Reject, Err: err}
		}
		return Outcome{Result: TransportError, Err: err}
	}
	return Outcome{Result: Ack, Item: ItemFromResponse(*resp)}
}

// FetchItems trae los ítems autoritativos como entidades.
func (a *Adapter) FetchItems(ctx context.Context) ([]entity.StockItem, error) {
	list, err := a.client.FetchItems(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]entity.StockItem, 0, len(list))
	for _, r := range list {
		items = append(items, *ItemFromResponse(r))
	}
	return items, nil
}

// Health delega al cliente.
func (a *Adapter) Health(ctx context.Context) error {
	return a.client.Health(ctx)
}

func rejected(err error) Outcome {
	return Outcome{Result: Reject, Err: fmt.Errorf("payload inválido: %w: %w", domain.ErrRejected, err)}
}

// MovementRequest body del envío de un movimiento.
func MovementRequest(p entity.MovementPayload) dto.SyncMovementRequest {
	return dto.SyncMovementRequest{
		MovementID: p.MovementID,
		ItemID:     p.ItemID,
		Kind:       string(p.Kind),
		Quantity:   p.Quantity,
		Origin:     string(p.Origin),
		CreatedAt:  p.CreatedAt.UTC(),
	}
}

// ItemRequest body del alta de un ítem.
func ItemRequest(p entity.ItemPayload) dto.UpsertItemRequest {
	return dto.UpsertItemRequest{
		ItemID:      p.ItemID,
		Code:        p.Code,
		Description: p.Description,
		Category:    p.Category,
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

// ItemFromResponse convierte el ítem del servidor en entidad.
func ItemFromResponse(r dto.ItemResponse) *entity.StockItem {
	return &entity.StockItem{
		ID:          r.ID,
		Code:        r.Code,
		Description: r.Description,
		Category:    r.Category,
		Quantity:    r.Quantity,
		UpdatedAt:   r.UpdatedAt,
	}
}
