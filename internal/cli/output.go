package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
)

// Códigos de salida.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // la operación se ejecutó pero fue rechazada (validación, stock)
	ExitCommandError = 2 // configuración, almacén inaccesible, flags inválidos
)

// ExitError error con código de salida.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError crea un ExitError.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError envuelve err con un código de salida.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode código de salida de err; ExitFailure si no es un ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response envoltura de la salida JSON.
type Response struct {
	Status string     `json:"status"` // "ok" o "error"
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody detalle de error en la salida JSON.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Output escribe resultados en texto o JSON.
type Output struct {
	Format string
	Writer io.Writer
}

// JSON indica si la salida es JSON.
func (o *Output) JSON() bool { return o.Format == "json" }

// Success escribe data. En texto, render recibe un tabwriter ya configurado.
func (o *Output) Success(data any, render func(w io.Writer)) error {
	if o.JSON() {
		return json.NewEncoder(o.Writer).Encode(Response{Status: "ok", Data: data})
	}
	tw := tabwriter.NewWriter(o.Writer, 0, 4, 2, ' ', 0)
	render(tw)
	return tw.Flush()
}

// Error escribe un error tipado.
func (o *Output) Error(code, message string) error {
	if o.JSON() {
		return json.NewEncoder(o.Writer).Encode(Response{Status: "error", Error: &ErrorBody{Code: code, Message: message}})
	}
	_, err := fmt.Fprintf(o.Writer, "Error [%s]: %s\n", code, message)
	return err
}
