package codes_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sync/pkg/codes"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"abc-001", "ABC-001"},
		{"  abc 001 \n", "ABC001"},
		{"\uff21\uff22\uff23\uff11\uff12\uff13", "ABC123"}, // ancho completo
		{"caf\u00e9", "CAF\u00c9"},
		{"x\u0000y\ttag", "XYTAG"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, codes.Normalize(tc.in), "entrada %q", tc.in)
	}
}

func TestNormalize_FormasEquivalentes(t *testing.T) {
	compuesto := "e\u0301" // e + acento combinante
	precompuesto := "\u00e9"
	assert.Equal(t, codes.Normalize(precompuesto), codes.Normalize(compuesto))
}

func TestValid(t *testing.T) {
	assert.True(t, codes.Valid("A-1"))
	assert.False(t, codes.Valid(""))
	assert.False(t, codes.Valid(strings.Repeat("X", codes.MaxLength+1)))
}

func TestReaderFor_Latin1(t *testing.T) {
	raw := []byte{'c', 'a', 'f', 0xE9} // "café" en ISO-8859-1
	out, err := io.ReadAll(codes.ReaderFor("ISO-8859-1", strings.NewReader(string(raw))))
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))

	out, err = io.ReadAll(codes.ReaderFor("utf-8", strings.NewReader("café")))
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))
}
