package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpRouter "github.com/jhoicas/inventario-sync/internal/interfaces/http"
)

// ServeOptions flags de serve.
type ServeOptions struct {
	*RootOptions
	NoAPI     bool
	Retention time.Duration
}

// NewServeCommand crea el comando serve.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Ejecutar el motor de sincronización y la API local",
		Long: `Arranca el ciclo de sincronización (periódico, por conectividad y tras
cada movimiento), el sondeo de red y la API HTTP local para los canales
de adquisición. Se detiene con SIGINT o SIGTERM.

Ejemplos:
  agent serve
  agent serve --db ./inventario.db --remote http://10.0.0.5:8081
  agent serve --no-api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoAPI, "no-api", false, "no exponer la API HTTP local")
	cmd.Flags().DurationVar(&opts.Retention, "log-retention", 30*24*time.Hour, "antigüedad máxima del log de diagnóstico")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	a, err := openAgent(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.log.Info().
		Str("env", a.cfg.App.Env).
		Str("db", a.cfg.Local.DBPath).
		Str("remote", a.client.BaseURL()).
		Str("probe", a.probe.Addr()).
		Msg("iniciando agente")

	if opts.Retention > 0 {
		n, err := a.store.ErrorLog().PurgeBefore(ctx, time.Now().Add(-opts.Retention))
		if err != nil {
			a.log.Warn().Err(err).Msg("depurar log de diagnóstico")
		} else if n > 0 {
			a.log.Info().Int64("deleted", n).Msg("log de diagnóstico depurado")
		}
	}

	a.orch.WatchConnectivity(ctx, a.probe.Watch(ctx, a.cfg.Sync.ProbeEvery))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error().Err(err).Msg("motor de sincronización finalizado")
		}
	}()

	var app *fiber.App
	if !opts.NoAPI {
		app = fiber.New(fiber.Config{
			AppName:               a.cfg.App.Name,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
			IdleTimeout:           60 * time.Second,
			DisableStartupMessage: true,
		})
		app.Use(recover.New())
		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok", "service": a.cfg.App.Name})
		})
		httpRouter.AgentRouter(app, httpRouter.AgentDeps{Ledger: a.ledger, Queue: a.queue, Sync: a.orch})

		go func() {
			if err := app.Listen(a.cfg.HTTP.Addr()); err != nil {
				a.log.Error().Err(err).Msg("servidor HTTP finalizado")
			}
		}()
		a.log.Info().Str("addr", a.cfg.HTTP.Addr()).Msg("API local escuchando")
	}

	<-ctx.Done()
	a.log.Info().Msg("señal de apagado recibida, deteniendo agente...")

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("apagado del servidor HTTP")
		}
	}
	<-done

	a.log.Info().Msg("agente detenido")
	return nil
}
