package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// LogsOptions flags de logs.
type LogsOptions struct {
	*RootOptions
	Limit int
}

// LogView entrada del log de diagnóstico en la salida.
type LogView struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
}

// NewLogsCommand crea el comando logs.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Mostrar el log de diagnóstico local",
		Long: `Muestra las entradas más recientes del log de diagnóstico: errores y
advertencias del agente y entradas de la cola que pasaron a ERROR.

Ejemplos:
  agent logs
  agent logs --limit 200 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(opts, cmd)
		},
	}
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "cantidad de entradas")

	return cmd
}

func runLogs(opts *LogsOptions, cmd *cobra.Command) error {
	a, err := openAgent(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.ErrorLog().ListRecent(cmd.Context(), opts.Limit)
	out := output(opts.RootOptions, cmd)
	if err != nil {
		_ = out.Error(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "leer log de diagnóstico", err)
	}

	views := make([]LogView, 0, len(entries))
	for _, e := range entries {
		views = append(views, LogView{ID: e.ID, Timestamp: e.Timestamp, Level: e.Level, Message: e.Message, Context: e.Context})
	}
	return out.Success(views, func(w io.Writer) {
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s", v.Timestamp.Local().Format(time.DateTime), v.Level, v.Message)
			if v.Context != "" {
				fmt.Fprintf(w, "\t%s", v.Context)
			}
			fmt.Fprintln(w)
		}
	})
}
