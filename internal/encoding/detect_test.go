package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/tabungan/internal/encoding"
)

const roster = "nis;nama;kelas\n1001;José Ramírez;7A\n1002;Siti Nurhaliza;7B\n"

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestDecode_UTF8Passthrough(t *testing.T) {
	r, cs, err := encoding.Decode(bytes.NewReader([]byte(roster)))
	require.NoError(t, err)

	assert.Equal(t, encoding.CharsetUTF8, cs)
	assert.Equal(t, roster, readAll(t, r))
}

func TestDecode_Windows1252(t *testing.T) {
	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(roster))
	require.NoError(t, err)

	r, cs, err := encoding.Decode(bytes.NewReader(latin1))
	require.NoError(t, err)

	assert.NotEqual(t, encoding.CharsetUTF8, cs)
	assert.Equal(t, roster, readAll(t, r))
}

func TestDecode_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte(roster)...)

	r, cs, err := encoding.Decode(bytes.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, encoding.CharsetUTF8BOM, cs)
	assert.Equal(t, roster, readAll(t, r))
}

func TestDecode_UTF16LE(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	input, err := enc.Bytes([]byte(roster))
	require.NoError(t, err)

	r, cs, err := encoding.Decode(bytes.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, encoding.CharsetUTF16LE, cs)
	assert.Equal(t, roster, readAll(t, r))
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	r, err := encoding.NewUTF8Reader(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, readAll(t, r))
}
