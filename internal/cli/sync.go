package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-sync/internal/domain"
	httpRouter "github.com/jhoicas/inventario-sync/internal/interfaces/http"
)

// NewSyncCommand crea el comando sync.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Ejecutar un ciclo de sincronización",
		Long: `Ejecuta un ciclo completo: verifica red y servidor, entrega un lote de
la cola en orden FIFO y descarga la lista de ítems del servidor.

Ejemplos:
  agent sync
  agent sync --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openAgent(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := output(opts, cmd)
	report, err := a.orch.FullSync(cmd.Context())
	if err != nil {
		code := syncErrorCode(err)
		_ = out.Error(code, err.Error())
		return WrapExitError(ExitFailure, "ciclo de sincronización", err)
	}

	resp := httpRouter.ToCycleReport(report)
	return out.Success(resp, func(w io.Writer) {
		fmt.Fprintf(w, "confirmadas\t%d\n", resp.Confirmed)
		fmt.Fprintf(w, "fallidas\t%d\n", resp.Failed)
		fmt.Fprintf(w, "a ERROR\t%d\n", resp.Terminal)
		fmt.Fprintf(w, "descargadas\t%d\n", resp.Pulled)
		fmt.Fprintf(w, "omitidas\t%d\n", resp.Skipped)
		fmt.Fprintf(w, "duración\t%dms\n", resp.DurationMS)
		if resp.PullError != "" {
			fmt.Fprintf(w, "error de descarga\t%s\n", resp.PullError)
		}
	})
}

func syncErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoConnectivity):
		return "NO_CONNECTIVITY"
	case errors.Is(err, domain.ErrServerUnavailable):
		return "SERVER_UNAVAILABLE"
	case errors.Is(err, domain.ErrSyncInProgress):
		return "SYNC_IN_PROGRESS"
	case errors.Is(err, domain.ErrLocalStore):
		return "LOCAL_STORE"
	}
	return "INTERNAL"
}
