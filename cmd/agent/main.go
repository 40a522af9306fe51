// agent ejecuta el cliente de inventario offline-first del dispositivo.
//
// Uso: agent serve | sync | outbox list | items list | movement apply ...
package main

import (
	"fmt"
	"os"

	"github.com/jhoicas/inventario-sync/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
