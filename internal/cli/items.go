package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-sync/internal/application/ledger"
	"github.com/jhoicas/inventario-sync/internal/domain"
	"github.com/jhoicas/inventario-sync/internal/domain/entity"
	"github.com/jhoicas/inventario-sync/internal/domain/repository"
	"github.com/jhoicas/inventario-sync/pkg/codes"
)

// ItemsOptions flags de items.
type ItemsOptions struct {
	*RootOptions
	LowStock  bool
	Threshold int64
	Category  string
	Limit     int
	Encoding  string
	Delimiter string
}

// NewItemsCommand crea el grupo items (list, import).
func NewItemsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Consultar e importar ítems locales",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Listar ítems del almacén local",
		Long: `Lista los ítems locales con su cantidad actual.

Ejemplos:
  agent items list
  agent items list --low-stock
  agent items list --low-stock --threshold 3 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsList(opts, cmd)
		},
	}
	list.Flags().BoolVar(&opts.LowStock, "low-stock", false, "solo ítems bajo el umbral")
	list.Flags().Int64Var(&opts.Threshold, "threshold", 0, "umbral de stock bajo (0 = LOW_STOCK_THRESHOLD)")
	list.Flags().StringVar(&opts.Category, "category", "", "filtrar por categoría")
	list.Flags().IntVar(&opts.Limit, "limit", 0, "máximo de ítems (0 = todos)")

	imp := &cobra.Command{
		Use:   "import <archivo.csv>",
		Short: "Importar ítems desde CSV",
		Long: `Registra ítems desde un CSV con columnas code,description,category[,quantity].
Una fila de encabezado se detecta y se omite. Si la fila trae cantidad
mayor que 0 se aplica como movimiento IN (origen MANUAL).
Los códigos existentes actualizan sus metadatos.

Ejemplos:
  agent items import catalogo.csv
  agent items import catalogo.csv --encoding latin1 --delimiter ';'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsImport(opts, cmd, args[0])
		},
	}
	imp.Flags().StringVar(&opts.Encoding, "encoding", "utf-8", "codificación del archivo (utf-8|latin1|windows-1252)")
	imp.Flags().StringVar(&opts.Delimiter, "delimiter", ",", "separador de columnas")

	cmd.AddCommand(list, imp)
	return cmd
}

// ItemView ítem en la salida de la CLI.
type ItemView struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    int64  `json:"quantity"`
}

func runItemsList(opts *ItemsOptions, cmd *cobra.Command) error {
	a, err := openAgent(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var list []*entity.StockItem
	if opts.LowStock {
		list, err = a.ledger.LowStock(cmd.Context(), opts.Threshold)
	} else {
		list, err = a.ledger.ListItems(cmd.Context(), repository.ItemFilter{Category: opts.Category, Limit: opts.Limit})
	}
	out := output(opts.RootOptions, cmd)
	if err != nil {
		_ = out.Error(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "listar ítems", err)
	}

	views := make([]ItemView, 0, len(list))
	for _, it := range list {
		views = append(views, ItemView{ID: it.ID, Code: it.Code, Description: it.Description, Category: it.Category, Quantity: it.Quantity})
	}
	return out.Success(views, func(w io.Writer) {
		fmt.Fprintln(w, "CÓDIGO\tDESCRIPCIÓN\tCATEGORÍA\tCANTIDAD")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", v.Code, v.Description, v.Category, v.Quantity)
		}
	})
}

// ImportReport resultado de items import.
type ImportReport struct {
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Movements int      `json:"movements"`
	Errors    []string `json:"errors,omitempty"`
}

func runItemsImport(opts *ItemsOptions, cmd *cobra.Command, path string) error {
	delim, size := utf8.DecodeRuneInString(opts.Delimiter)
	if size == 0 || size != len(opts.Delimiter) {
		return NewExitError(ExitCommandError, fmt.Sprintf("separador inválido: %q", opts.Delimiter))
	}
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "abrir CSV", err)
	}
	defer f.Close()

	a, err := openAgent(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := importItems(cmd.Context(), a.ledger, codes.ReaderFor(opts.Encoding, f), delim)
	out := output(opts.RootOptions, cmd)
	if err != nil {
		_ = out.Error(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "importar ítems", err)
	}
	if err := out.Success(report, func(w io.Writer) {
		fmt.Fprintf(w, "creados\t%d\n", report.Created)
		fmt.Fprintf(w, "actualizados\t%d\n", report.Updated)
		fmt.Fprintf(w, "movimientos IN\t%d\n", report.Movements)
		for _, e := range report.Errors {
			fmt.Fprintf(w, "error\t%s\n", e)
		}
	}); err != nil {
		return err
	}
	if len(report.Errors) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d filas con error", len(report.Errors)))
	}
	return nil
}

// importItems registra cada fila del CSV. Los errores de validación se reportan por fila;
// un error del almacén local aborta la importación.
func importItems(ctx context.Context, l *ledger.Ledger, r io.Reader, delim rune) (*ImportReport, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	report := &ImportReport{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return report, fmt.Errorf("leer CSV línea %d: %w", line, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if err := importRow(ctx, l, rec, report); err != nil {
			if !ledger.IsValidation(err) {
				return report, err
			}
			report.Errors = append(report.Errors, fmt.Sprintf("línea %d: %v", line, err))
		}
	}
	return report, nil
}

func importRow(ctx context.Context, l *ledger.Ledger, rec []string, report *ImportReport) error {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var qty int64
	if raw := field(3); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("cantidad %q: %w", raw, domain.ErrInvalidInput)
		}
		qty = n
	}

	in := ledger.ItemInput{Code: field(0), Description: field(1), Category: field(2)}
	existing, err := l.GetItemByCode(ctx, in.Code)
	switch {
	case err == nil:
		in.ID = existing.ID
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	item, err := l.RegisterItem(ctx, in)
	if err != nil {
		return err
	}
	if existing != nil {
		report.Updated++
	} else {
		report.Created++
	}

	if qty > 0 {
		if _, err := l.ApplyMovement(ctx, ledger.MovementInput{
			ItemID: item.ID, Kind: entity.MovementIn, Quantity: qty, Origin: entity.OriginManual,
		}); err != nil {
			return err
		}
		report.Movements++
	}
	return nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(rec[0])) {
	case "code", "codigo", "código":
		return true
	}
	return false
}
