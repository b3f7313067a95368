package regmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
chip:
  type:
    addr: 0x0003
    access: ro
  code:
    addr: [0x0004, 0x0005, 0x0006]
    access: ro
sysclk:
  pll:
    freq-doubler:
      addr: 0x0201
      mask: 0x01
      format: complex:enable
    stability-period:
      addr: [0x0207, 0x0208, 0x0209]
      mask: [0xFF, 0xFF, 0x0F]
      format: int
      scaling: 10e-3
      signed: true
      doc: lock detector stability period in ms
`

func TestParseYAML(t *testing.T) {
	root, err := ParseYAML([]byte(testYAML))
	require.NoError(t, err)

	m, err := Build(root, testTables())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chip.type",
		"chip.code",
		"sysclk.pll.freq-doubler",
		"sysclk.pll.stability-period",
	}, m.Paths())

	d := lookup(t, m, "sysclk.pll.stability-period")
	assert.Equal(t, []uint16{0x0207, 0x0208, 0x0209}, d.Addresses)
	assert.Equal(t, []uint8{0xFF, 0xFF, 0x0F}, d.Masks)
	assert.InDelta(t, 0.01, d.Scaling, 1e-15)
	assert.True(t, d.Signed)
	assert.Equal(t, "lock detector stability period in ms", d.Doc)

	typ := lookup(t, m, "chip.type")
	assert.Equal(t, ReadOnly, typ.Access)
	assert.Equal(t, []uint8{0xFF}, typ.Masks)

	doubler := lookup(t, m, "sysclk.pll.freq-doubler")
	assert.Equal(t, EnumFormat("enable"), doubler.Format)
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not a mapping", "- a\n- b\n"},
		{"leaf scalar", "chip: 3\n"},
		{"address range", "r:\n  addr: 0x10000\n"},
		{"mask range", "r:\n  addr: 0x10\n  mask: 0x100\n"},
		{"bad address", "r:\n  addr: {a: 1}\n"},
		{"syntax", "r: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	root, err := ParseYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, root.Children)
}

func TestEncodeYAMLRoundTrip(t *testing.T) {
	norm, err := Normalize(testDecl())
	require.NoError(t, err)

	out, err := EncodeYAML(norm)
	require.NoError(t, err)
	assert.Contains(t, string(out), "addr: 0x0003")

	back, err := ParseYAML(out)
	require.NoError(t, err)
	again, err := Normalize(back)
	require.NoError(t, err)
	assert.Equal(t, norm, again)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o644))

	root, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Len(t, root.Children, 2)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
