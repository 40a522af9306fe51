// Package cli comandos del agente del dispositivo: servicio de sincronización,
// ciclo manual, inspección de la cola y operaciones sobre el inventario local.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions flags globales.
type RootOptions struct {
	Format    string // "json" | "text"
	DBPath    string // sobrescribe LOCAL_DB_PATH
	RemoteURL string // sobrescribe REMOTE_BASE_URL
}

// ValidFormats formatos de salida admitidos.
var ValidFormats = []string{"text", "json"}

// NewRootCommand crea el comando raíz del agente.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agente de inventario offline-first",
		Long: `Agente de inventario que opera sin conexión.

Los movimientos se aplican siempre en el almacén local y se encolan;
el ciclo de sincronización los entrega al servidor cuando hay red.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("formato %q inválido: usar uno de %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "ruta del almacén SQLite (por defecto LOCAL_DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.RemoteURL, "remote", "", "URL del servidor remoto (por defecto REMOTE_BASE_URL)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewOutboxCommand(opts))
	cmd.AddCommand(NewItemsCommand(opts))
	cmd.AddCommand(NewMovementCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))

	return cmd
}
