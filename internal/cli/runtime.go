package cli

import (
	"context"
	goruntime "runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-sync/internal/application/ledger"
	"github.com/jhoicas/inventario-sync/internal/application/outbox"
	"github.com/jhoicas/inventario-sync/internal/application/syncengine"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/infrastructure/netprobe"
	"github.com/jhoicas/inventario-sync/internal/infrastructure/remote"
	"github.com/jhoicas/inventario-sync/internal/infrastructure/sqlite"
	"github.com/jhoicas/inventario-sync/pkg/config"
	"github.com/jhoicas/inventario-sync/pkg/logger"
)

// agent componentes del agente armados a partir de la configuración.
type agent struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *sqlite.Store
	queue  *outbox.Queue
	ledger *ledger.Ledger
	client *remote.Client
	probe  *netprobe.Probe
	orch   *syncengine.Orchestrator
}

// loadConfig lee la configuración y aplica los flags globales.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cargar configuración", err)
	}
	if opts.DBPath != "" {
		cfg.Local.DBPath = opts.DBPath
	}
	if opts.RemoteURL != "" {
		cfg.Remote.BaseURL = opts.RemoteURL
	}
	return cfg, nil
}

// openAgent abre el almacén y arma cola, libro, adaptador remoto, sonda y orquestador.
// Los eventos warn/error del logger se persisten en el log de diagnóstico.
func openAgent(opts *RootOptions, cmd *cobra.Command) (*agent, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	store, err := sqlite.Open(cfg.Local.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "abrir almacén local", err)
	}

	diag := store.ErrorLog()
	log := logger.New(logger.Config{
		Env:    cfg.App.Env,
		Level:  cfg.App.LogLevel,
		Output: cmd.ErrOrStderr(),
		ErrorSink: func(r logger.Record) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = diag.Append(ctx, &entity.ErrorLogEntry{
				Timestamp: r.Time,
				Level:     r.Level,
				Message:   r.Message,
				Platform:  goruntime.GOOS,
			})
		},
	})

	a := &agent{cfg: cfg, log: log, store: store}
	a.queue = outbox.NewQueue(store.TxRunner(), store.Outbox(), outbox.Options{
		BatchSize:   cfg.Sync.BatchSize,
		MaxAttempts: cfg.Sync.MaxAttempts,
	})
	a.ledger = ledger.New(store.TxRunner(), store.Items(), store.Movements(), a.queue,
		ledger.WithLowStockThreshold(cfg.Sync.LowStockThreshold))

	a.client = remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)
	adapter := remote.NewAdapter(a.client)
	a.probe = netprobe.New(cfg.Sync.ProbeAddr, cfg.Remote.Timeout, adapter)
	a.orch = syncengine.New(a.probe, adapter, a.queue, a.ledger, diag, syncengine.Config{
		Interval:  cfg.Sync.Interval,
		BatchSize: cfg.Sync.BatchSize,
		RetryBase: cfg.Sync.RetryBase,
	}, log)
	a.queue.SetOnEnqueue(func() { _ = a.orch.Trigger() })
	return a, nil
}

// Close vacía el log de diagnóstico pendiente y cierra el almacén.
func (a *agent) Close() {
	a.log.Close()
	_ = a.store.Close()
}

func output(opts *RootOptions, cmd *cobra.Command) *Output {
	return &Output{Format: opts.Format, Writer: cmd.OutOrStdout()}
}
