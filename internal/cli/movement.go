package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-sync/internal/application/dto"
	"github.com/jhoicas/inventario-sync/internal/application/ledger"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
)

// MovementOptions flags de movement apply.
type MovementOptions struct {
	*RootOptions
	ItemID   string
	Code     string
	Kind     string
	Quantity int64
	Origin   string
}

// NewMovementCommand crea el grupo movement (apply).
func NewMovementCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MovementOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "movement",
		Short: "Operar movimientos de inventario",
	}

	apply := &cobra.Command{
		Use:   "apply",
		Short: "Aplicar un movimiento en el almacén local",
		Long: `Aplica un movimiento IN u OUT en local y lo encola para el servidor.
No requiere conexión.

Ejemplos:
  agent movement apply --code ABC-001 --kind IN --qty 10
  agent movement apply --item 3f2c... --kind OUT --qty 2 --origin NFC`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMovementApply(opts, cmd)
		},
	}
	apply.Flags().StringVar(&opts.ItemID, "item", "", "ID del ítem")
	apply.Flags().StringVar(&opts.Code, "code", "", "código del ítem")
	apply.Flags().StringVar(&opts.Kind, "kind", "", "IN u OUT (requerido)")
	_ = apply.MarkFlagRequired("kind")
	apply.Flags().Int64Var(&opts.Quantity, "qty", 0, "cantidad > 0 (requerido)")
	_ = apply.MarkFlagRequired("qty")
	apply.Flags().StringVar(&opts.Origin, "origin", string(entity.OriginManual), "NFC, BARCODE o MANUAL")
	apply.MarkFlagsMutuallyExclusive("item", "code")
	apply.MarkFlagsOneRequired("item", "code")

	cmd.AddCommand(apply)
	return cmd
}

func runMovementApply(opts *MovementOptions, cmd *cobra.Command) error {
	a, err := openAgent(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := output(opts.RootOptions, cmd)
	res, err := a.ledger.ApplyMovement(cmd.Context(), ledger.MovementInput{
		ItemID:   opts.ItemID,
		Code:     opts.Code,
		Kind:     entity.MovementKind(strings.ToUpper(opts.Kind)),
		Quantity: opts.Quantity,
		Origin:   entity.Origin(strings.ToUpper(opts.Origin)),
	})
	if err != nil {
		_ = out.Error(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "aplicar movimiento", err)
	}

	resp := dto.ApplyMovementResponse{
		Success:     true,
		ItemID:      res.ItemID,
		MovementID:  res.MovementID,
		NewQuantity: res.NewQuantity,
		Queued:      res.Queued,
	}
	return out.Success(resp, func(w io.Writer) {
		fmt.Fprintf(w, "movimiento\t%s\n", resp.MovementID)
		fmt.Fprintf(w, "ítem\t%s\n", resp.ItemID)
		fmt.Fprintf(w, "nueva cantidad\t%d\n", resp.NewQuantity)
		fmt.Fprintf(w, "encolado\t%t\n", resp.Queued)
	})
}
