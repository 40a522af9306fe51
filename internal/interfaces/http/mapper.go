package http

import (
	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/application/syncengine"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

func toItemResponse(it *entity.StockItem) dto.ItemResponse {
	return dto.ItemResponse{
		ID:          it.ID,
		Code:        it.Code,
		Description: it.Description,
		Category:    it.Category,
		Quantity:    it.Quantity,
		UpdatedAt:   it.UpdatedAt,
	}
}

func toItemList(list []*entity.StockItem) dto.ItemListResponse {
	out := dto.ItemListResponse{Items: make([]dto.ItemResponse, 0, len(list))}
	for _, it := range list {
		out.Items = append(out.Items, toItemResponse(it))
	}
	out.Count = len(out.Items)
	return out
}

func toMovementResponse(m *entity.MovementRecord) dto.MovementResponse {
	return dto.MovementResponse{
		ID:           m.ID,
		ItemID:       m.ItemID,
		Kind:         string(m.Kind),
		Quantity:     m.Quantity,
		Origin:       string(m.Origin),
		CreatedAt:    m.CreatedAt,
		Synchronized: m.Synchronized,
	}
}

func toOutboxResponse(e *entity.OutboxEntry) dto.OutboxEntryResponse {
	return dto.OutboxEntryResponse{
		ID:            e.ID,
		Kind:          string(e.Kind),
		RefID:         e.RefID,
		Attempts:      e.Attempts,
		LastAttemptAt: e.LastAttemptAt,
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt,
	}
}

// ToCycleReport convierte el reporte del orquestador (también lo usa la CLI).
func ToCycleReport(r *syncengine.CycleReport) *dto.CycleReportResponse {
	if r == nil {
		return nil
	}
	out := &dto.CycleReportResponse{
		Confirmed:  r.Confirmed,
		Failed:     r.Failed,
		Terminal:   r.Terminal,
		Pulled:     r.Pulled,
		Skipped:    r.Skipped,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.PullErr != nil {
		out.PullError = r.PullErr.Error()
	}
	return out
}

// ToSyncStatus convierte el estado del orquestador.
func ToSyncStatus(st syncengine.Status) dto.SyncStatusResponse {
	out := dto.SyncStatusResponse{
		State:      st.State.String(),
		NetworkUp:  st.NetworkUp,
		Pending:    st.Pending,
		Errors:     st.Errors,
		LastReport: ToCycleReport(st.LastReport),
	}
	if !st.LastRunAt.IsZero() {
		t := st.LastRunAt
		out.LastRunAt = &t
	}
	if st.LastError != nil {
		out.LastError = st.LastError.Error()
	}
	return out
}
