// Package syncengine drena la cola de salida hacia el servidor y trae su estado
// autoritativo, con un único ciclo activo a la vez.
package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/infrastructure/remote"
	"github.com/jhoicas/inventario-sync/pkg/logger"
)

// State estado del ciclo de sincronización.
type State int32

// Estados del ciclo: IDLE -> DRAINING -> PULLING -> IDLE.
const (
	StateIdle State = iota
	StateDraining
	StatePulling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDraining:
		return "DRAINING"
	case StatePulling:
		return "PULLING"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Valores por defecto.
const (
	DefaultInterval  = 5 * time.Minute
	DefaultBatchSize = 10
	DefaultRetryBase = 15 * time.Second
)

// Config parámetros del orquestador.
type Config struct {
	Interval  time.Duration // disparo periódico
	BatchSize int
	RetryBase time.Duration // primer reintento tras ServerUnavailable; se duplica hasta Interval
	// OnCycle se invoca al terminar cada ciclo que llegó a ejecutarse.
	OnCycle func(CycleReport, error)
}

// CycleReport resultado agregado de un ciclo.
type CycleReport struct {
	Confirmed int
	Failed    int
	Terminal  int // entradas que pasaron a ERROR en este ciclo
	Pulled    int
	Skipped   int // ítems remotos no integrados por conflicto de código
	StartedAt time.Time
	Duration  time.Duration
	PullErr   error // la descarga falló; el drenado sí se hizo
}

// Status instantánea del motor para colaboradores.
type Status struct {
	State      State
	NetworkUp  bool
	Pending    int64
	Errors     int64
	LastRunAt  time.Time
	LastError  error
	LastReport *CycleReport
}

// Orchestrator dueño del token de estado y del canal de disparos.
type Orchestrator struct {
	state    atomic.Int32
	triggers chan struct{}

	probe  Prober
	sender Sender
	queue  Queue
	merger Merger
	diag   DiagnosticLog
	cfg    Config
	log    *logger.Logger
	now    func() time.Time

	mu         sync.RWMutex
	networkUp  bool
	lastRunAt  time.Time
	lastErr    error
	lastReport *CycleReport
}

// New construye el orquestador. diag puede ser nil.
func New(probe Prober, sender Sender, queue Queue, merger Merger, diag DiagnosticLog, cfg Config, log *logger.Logger) *Orchestrator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		triggers: make(chan struct{}, 1),
		probe:    probe,
		sender:   sender,
		queue:    queue,
		merger:   merger,
		diag:     diag,
		cfg:      cfg,
		log:      log.Component("sync"),
		now:      time.Now,
	}
}

// State estado actual del ciclo.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// RunCycle ejecuta un ciclo completo. Si ya hay uno activo devuelve ErrSyncInProgress
// sin esperar. Sin red devuelve ErrNoConnectivity y con el servidor caído
// ErrServerUnavailable; en ambos casos la cola no se toca.
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleReport, error) {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateDraining)) {
		return nil, domain.ErrSyncInProgress
	}

	report := &CycleReport{StartedAt: o.now()}
	err := func() error {
		defer o.state.Store(int32(StateIdle))
		return o.cycle(ctx, report)
	}()
	report.Duration = o.now().Sub(report.StartedAt)

	o.mu.Lock()
	o.lastRunAt = report.StartedAt
	o.lastErr = err
	o.lastReport = report
	o.mu.Unlock()

	o.logCycle(report, err)
	if o.cfg.OnCycle != nil {
		o.cfg.OnCycle(*report, err)
	}
	return report, err
}

// FullSync fuerza un ciclo completo (push y pull).
func (o *Orchestrator) FullSync(ctx context.Context) (*CycleReport, error) {
	return o.RunCycle(ctx)
}

func (o *Orchestrator) cycle(ctx context.Context, report *CycleReport) error {
	if !o.probe.IsNetworkUp(ctx) {
		o.setNetwork(false)
		return domain.ErrNoConnectivity
	}
	o.setNetwork(true)
	if !o.probe.IsServerUp(ctx) {
		return domain.ErrServerUnavailable
	}

	if err := o.drain(ctx, report); err != nil {
		return err
	}

	o.state.Store(int32(StatePulling))
	return o.pull(ctx, report)
}

// drain envía un lote en orden FIFO, de a una entrada. El fallo de una entrada no
// detiene las siguientes; solo un error del almacenamiento local aborta.
func (o *Orchestrator) drain(ctx context.Context, report *CycleReport) error {
	batch, err := o.queue.PeekBatch(ctx, o.cfg.BatchSize)
	if err != nil {
		return err
	}
	for _, entry := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		out := o.sender.Send(ctx, entry)
		if out.Result == remote.Ack {
			if err := o.queue.MarkConfirmed(ctx, entry.ID); err != nil {
				return err
			}
			report.Confirmed++
			continue
		}

		status, err := o.queue.MarkFailed(ctx, entry.ID)
		if err != nil {
			return err
		}
		report.Failed++
		terminal := status == entity.OutboxError
		if terminal {
			report.Terminal++
		}
		o.logFailure(ctx, entry, out, terminal)
	}
	return nil
}

func (o *Orchestrator) logFailure(ctx context.Context, entry *entity.OutboxEntry, out remote.Outcome, terminal bool) {
	attempts := entry.Attempts + 1
	// Las entradas terminales se registran abajo con su contexto; el hook no las duplica.
	lctx := ctx
	if terminal && o.diag != nil {
		lctx = logger.Persisted(ctx)
	}
	if out.Result == remote.Reject {
		o.log.Error().Ctx(lctx).Err(out.Err).
			Int64("entry_id", entry.ID).Str("kind", string(entry.Kind)).Str("ref_id", entry.RefID).
			Int("attempts", attempts).Bool("terminal", terminal).
			Msg("entrada rechazada por el servidor")
	} else {
		o.log.Warn().Ctx(lctx).Err(out.Err).
			Int64("entry_id", entry.ID).Str("kind", string(entry.Kind)).
			Int("attempts", attempts).Bool("terminal", terminal).
			Msg("error de transporte al enviar entrada")
	}
	if !terminal || o.diag == nil {
		return
	}

	level := entity.LogLevelWarning
	if out.Result == remote.Reject {
		level = entity.LogLevelError
	}
	detail, _ := json.Marshal(map[string]any{
		"entry_id": entry.ID,
		"kind":     entry.Kind,
		"ref_id":   entry.RefID,
		"attempts": attempts,
		"result":   out.Result.String(),
		"error":    errString(out.Err),
		"review":   true,
	})
	err := o.diag.Append(ctx, &entity.ErrorLogEntry{
		Timestamp: o.now(),
		Level:     level,
		Message:   fmt.Sprintf("entrada %d pasó a ERROR tras %d intentos", entry.ID, attempts),
		Context:   string(detail),
		Platform:  runtime.GOOS,
	})
	if err != nil {
		o.log.Warn().Err(err).Int64("entry_id", entry.ID).Msg("no se pudo registrar en el log de diagnóstico")
	}
}

// pull integra la lista autoritativa. Un fallo de descarga queda en el reporte y no
// invalida el drenado ya hecho.
func (o *Orchestrator) pull(ctx context.Context, report *CycleReport) error {
	items, err := o.sender.FetchItems(ctx)
	if err != nil {
		report.PullErr = err
		o.log.Warn().Err(err).Msg("no se pudo descargar ítems del servidor")
		return nil
	}
	for _, item := range items {
		res, err := o.merger.MergeRemote(ctx, item)
		switch {
		case err == nil:
			report.Pulled++
			if res.Clamped {
				o.log.Warn().Str("item_id", item.ID).Int64("remote_qty", item.Quantity).
					Int64("pending", res.Pending).Msg("cantidad combinada negativa, se deja en 0")
			}
		case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrInvalidInput):
			report.Skipped++
			o.log.Warn().Err(err).Str("item_id", item.ID).Msg("ítem remoto omitido")
		default:
			return err
		}
	}
	return nil
}

func (o *Orchestrator) logCycle(r *CycleReport, err error) {
	switch {
	case err == nil:
		o.log.Info().
			Int("confirmed", r.Confirmed).Int("failed", r.Failed).Int("terminal", r.Terminal).
			Int("pulled", r.Pulled).Dur("duration", r.Duration).
			Msg("ciclo de sincronización completado")
	case errors.Is(err, domain.ErrNoConnectivity), errors.Is(err, domain.ErrServerUnavailable):
		o.log.Debug().Err(err).Msg("ciclo omitido")
	default:
		o.log.Error().Err(err).Int("confirmed", r.Confirmed).Msg("ciclo de sincronización abortado")
	}
}

func (o *Orchestrator) setNetwork(up bool) (changedUp bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	changedUp = up && !o.networkUp
	o.networkUp = up
	return changedUp
}

// Trigger pide un ciclo sin bloquear. Si hay uno activo el disparo se descarta y se
// devuelve ErrSyncInProgress.
func (o *Orchestrator) Trigger() error {
	if o.State() != StateIdle {
		return domain.ErrSyncInProgress
	}
	select {
	case o.triggers <- struct{}{}:
	default:
		// ya hay un disparo pendiente
	}
	return nil
}

// NotifyConnectivity registra el estado de la red. El paso de sin red a con red dispara un ciclo.
func (o *Orchestrator) NotifyConnectivity(up bool) {
	if o.setNetwork(up) {
		o.log.Info().Msg("conectividad recuperada")
		_ = o.Trigger()
	}
}

// WatchConnectivity consume un flujo de estados de red (p. ej. netprobe.Probe.Watch).
func (o *Orchestrator) WatchConnectivity(ctx context.Context, states <-chan bool) {
	go func() {
		for {
			select {
			case up, ok := <-states:
				if !ok {
					return
				}
				o.NotifyConnectivity(up)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Run consume disparos hasta que ctx se cancele: periódico, conectividad recuperada,
// post-encolado y reintento con backoff tras ServerUnavailable. Arranca con un ciclo.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	_ = o.Trigger()
	var (
		retry    <-chan time.Time
		failures int
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-o.triggers:
		case <-retry:
		}

		_, err := o.RunCycle(ctx)
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
		case errors.Is(err, domain.ErrServerUnavailable):
			failures++
			delay := o.backoff(failures)
			retry = time.After(delay)
			o.log.Debug().Dur("retry_in", delay).Msg("servidor no disponible, reintento programado")
		default:
			failures = 0
			retry = nil
		}
	}
}

// backoff demora del reintento n (1-based): RetryBase * 2^(n-1), tope Interval.
func (o *Orchestrator) backoff(n int) time.Duration {
	d := o.cfg.RetryBase
	for i := 1; i < n; i++ {
		d *= 2
		if d >= o.cfg.Interval {
			return o.cfg.Interval
		}
	}
	return min(d, o.cfg.Interval)
}

// Status instantánea del motor.
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	o.mu.RLock()
	st := Status{
		State:      o.State(),
		NetworkUp:  o.networkUp,
		LastRunAt:  o.lastRunAt,
		LastError:  o.lastErr,
		LastReport: o.lastReport,
	}
	o.mu.RUnlock()

	stats, err := o.queue.Stats(ctx)
	if err != nil {
		return st, err
	}
	st.Pending, st.Errors = stats.Pending, stats.Errors
	return st, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
