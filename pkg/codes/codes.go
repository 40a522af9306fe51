// Package codes normaliza los códigos internos de ítems leídos por NFC, código de barras
// o digitados a mano, y decodifica archivos de catálogo en ISO-8859-1.
package codes

import (
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength longitud máxima de un código normalizado.
const MaxLength = 64

// Normalize lleva el código a su forma canónica: NFKC, sin espacios ni caracteres de
// control, en mayúsculas. Dos lecturas del mismo código físico producen el mismo valor.
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.ToUpper(s)
}

// Valid indica si un código ya normalizado es utilizable.
func Valid(code string) bool {
	return code != "" && len(code) <= MaxLength
}

// Latin1Reader decodifica un flujo ISO-8859-1 a UTF-8.
func Latin1Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
}

// ReaderFor devuelve un lector UTF-8 según el nombre de la codificación de origen.
// Codificaciones desconocidas se tratan como UTF-8.
func ReaderFor(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.ReplaceAll(encoding, "-", "")) {
	case "latin1", "iso88591":
		return Latin1Reader(r)
	case "windows1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}
	return r
}
