package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// OutboxOptions flags de outbox.
type OutboxOptions struct {
	*RootOptions
	Status string
	Limit  int
	All    bool
}

// NewOutboxCommand crea el grupo outbox (list, reset).
func NewOutboxCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OutboxOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspeccionar y reiniciar la cola de salida",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Listar entradas de la cola",
		Long: `Lista las entradas de la cola en orden FIFO.

Ejemplos:
  agent outbox list
  agent outbox list --status ERROR`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutboxList(opts, cmd)
		},
	}
	list.Flags().StringVar(&opts.Status, "status", "", "PENDING o ERROR (vacío = todas)")
	list.Flags().IntVar(&opts.Limit, "limit", 0, "máximo de entradas (0 = sin límite)")

	reset := &cobra.Command{
		Use:   "reset [id]",
		Short: "Devolver entradas ERROR a PENDING",
		Long: `Devuelve una entrada en ERROR a PENDING con los intentos en cero,
o todas con --all.

Ejemplos:
  agent outbox reset 42
  agent outbox reset --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutboxReset(opts, cmd, args)
		},
	}
	reset.Flags().BoolVar(&opts.All, "all", false, "reiniciar todas las entradas en ERROR")

	cmd.AddCommand(list, reset)
	return cmd
}

func runOutboxList(opts *OutboxOptions, cmd *cobra.Command) error {
	a, err := openAgent(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := output(opts.RootOptions, cmd)
	list, err := a.queue.List(cmd.Context(), entity.OutboxStatus(opts.Status), opts.Limit)
	if err != nil {
		_ = out.Error(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "listar cola", err)
	}

	resp := make([]dto.OutboxEntryResponse, 0, len(list))
	for _, e := range list {
		resp = append(resp, dto.OutboxEntryResponse{
			ID:            e.ID,
			Kind:          string(e.Kind),
			RefID:         e.RefID,
			Attempts:      e.Attempts,
			LastAttemptAt: e.LastAttemptAt,
			Status:        string(e.Status),
			CreatedAt:     e.CreatedAt,
		})
	}
	return out.Success(resp, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTIPO\tREF\tINTENTOS\tESTADO\tCREADA")
		for _, e := range resp {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
				e.ID, e.Kind, e.RefID, e.Attempts, e.Status, e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
	})
}

func runOutboxReset(opts *OutboxOptions, cmd *cobra.Command, args []string) error {
	if opts.All == (len(args) == 1) {
		return NewExitError(ExitCommandError, "indicar un id o --all")
	}
	var id int64
	if !opts.All {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || n <= 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("id inválido: %q", args[0]))
		}
		id = n
	}

	a, err := openAgent(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := output(opts.RootOptions, cmd)
	var reset int64 = 1
	if opts.All {
		reset, err = a.queue.ResetAll(cmd.Context())
	} else {
		err = a.queue.Reset(cmd.Context(), id)
	}
	if err != nil {
		_ = out.Error(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "reiniciar cola", err)
	}
	return out.Success(map[string]int64{"reset": reset}, func(w io.Writer) {
		fmt.Fprintf(w, "entradas reiniciadas: %d\n", reset)
	})
}
