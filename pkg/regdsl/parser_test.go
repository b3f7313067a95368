package regdsl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/ad954x/pkg/regmap"
	"github.com/OpenTraceLab/ad954x/pkg/symtab"
)

const testSource = `
# demo register map
table enable {
    0 = disabled;
    1 = enabled;
}

table pin:currents { 0 = "7.5 mA"; 1 = "12.5 mA"; 2 = "15 mA" }

group chip {
    reg type @ 0x0003 access ro;
    reg code @ [0x0004, 0x0005, 0x0006] access ro doc "product code";
}

// C++ style comments work too
group sysclk {
    group pll {
        reg freq-doubler @ 0x0201 mask 0x01 format complex:enable;
        reg stability-period @ [0x0207, 0x0208, 0x0209]
            mask [0xFF, 0xFF, 0x0F]
            format int
            scaling 10e-3
            signed;
    }
    reg mask @ 0x0202 mask 0x03 format complex:pin:currents;
}
`

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser()
	require.NoError(t, err)
	return p
}

func TestParseSource(t *testing.T) {
	p := newParser(t)
	src, err := p.ParseSource("demo.reg", testSource)
	require.NoError(t, err)

	require.Len(t, src.Tables, 2)
	assert.Equal(t, "enable", src.Tables[0].Name())
	assert.Equal(t, "pin:currents", src.Tables[1].Name())
	label, ok := src.Tables[1].Label(0)
	require.True(t, ok)
	assert.Equal(t, "7.5 mA", label)

	m, err := src.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chip.type",
		"chip.code",
		"sysclk.pll.freq-doubler",
		"sysclk.pll.stability-period",
		"sysclk.mask",
	}, m.Paths())

	code, err := m.Lookup("chip.code")
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0004, 0x0005, 0x0006}, code.Addresses)
	assert.Equal(t, regmap.ReadOnly, code.Access)
	assert.Equal(t, "product code", code.Doc)

	period, err := m.Lookup("sysclk.pll.stability-period")
	require.NoError(t, err)
	assert.Equal(t, []uint8{0xFF, 0xFF, 0x0F}, period.Masks)
	assert.InDelta(t, 0.01, period.Scaling, 1e-15)
	assert.True(t, period.Signed)
	assert.Equal(t, regmap.Format{Kind: regmap.FormatInt}, period.Format)

	cur, err := m.Lookup("sysclk.mask")
	require.NoError(t, err)
	assert.Equal(t, regmap.Symbol("12.5 mA"), m.Decode(cur, []byte{0x01}))
}

func TestSourceTablesShadowBase(t *testing.T) {
	p := newParser(t)
	src, err := p.ParseSource("t", `
table enable { 0 = off; 1 = on; }
reg en @ 0x10 mask 0x01 format complex:enable;
reg src @ 0x11 format complex:other;
`)
	require.NoError(t, err)

	base := symtab.NewRegistry(
		symtab.New("enable", map[uint64]string{0: "disabled", 1: "enabled"}),
		symtab.New("other", map[uint64]string{3: "three"}),
	)
	m, err := src.Build(base)
	require.NoError(t, err)

	en, _ := m.Lookup("en")
	assert.Equal(t, regmap.Symbol("on"), m.Decode(en, []byte{0x01}))
	other, _ := m.Lookup("src")
	assert.Equal(t, regmap.Symbol("three"), m.Decode(other, []byte{0x03}))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing semicolon", "reg a @ 0x10", "parse error"},
		{"unclosed group", "group g { reg a @ 0x10;", "parse error"},
		{"address range", "reg a @ 0x10000;", "out of range"},
		{"mask range", "reg a @ 0x10 mask 0x100;", "out of range"},
		{"negative address", "reg a @ -1;", "not an unsigned number"},
		{"duplicate table", "table t { 0 = a; } table t { 1 = b; }", "declared twice"},
		{"duplicate table value", "table t { 0 = a; 0 = b; }", "listed twice"},
		{"unknown attribute", "reg a @ 0x10 colour red;", "parse error"},
	}
	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseSource("bad.reg", tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConvertedTreeIsValidatedByBuild(t *testing.T) {
	p := newParser(t)
	src, err := p.ParseSource("t", "reg a @ [0x10, 0x11] mask [0x01, 0x02, 0x03];")
	require.NoError(t, err)
	_, err = src.Build(nil)
	assert.ErrorIs(t, err, regmap.ErrMalformedDescriptor)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.reg")
	require.NoError(t, os.WriteFile(path, []byte(testSource), 0o644))

	p := newParser(t)
	src, err := p.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, src.Root.Children, 2)

	_, err = p.LoadFile(filepath.Join(t.TempDir(), "missing.reg"))
	assert.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	p := newParser(t)
	settings, err := p.ParseAssignments("cmdline", `
sysclk.pll.freq-doubler = enabled;
sysclk.pll.stability-period = -0.5, chip.type=0x05
sysclk.mask = "15 mA"
sysclk.pll.stability-period = 2
`)
	require.NoError(t, err)
	require.Len(t, settings, 5)
	assert.Equal(t, "sysclk.pll.freq-doubler", settings[0].Path)
	assert.Equal(t, "enabled", settings[0].Text)
	assert.Equal(t, "-0.5", settings[1].Text)
	assert.Equal(t, "0x05", settings[2].Text)
	assert.Equal(t, "15 mA", settings[3].Text)
	assert.Equal(t, 3, settings[1].Pos.Line)

	src, err := p.ParseSource("t", testSource)
	require.NoError(t, err)
	m, err := src.Build(nil)
	require.NoError(t, err)

	values, err := Resolve(m, settings)
	require.NoError(t, err)
	assert.Equal(t, regmap.Symbol("enabled"), values["sysclk.pll.freq-doubler"])
	assert.Equal(t, regmap.Float(2), values["sysclk.pll.stability-period"], "later settings win")
	assert.Equal(t, regmap.Symbol("15 mA"), values["sysclk.mask"])
	assert.Equal(t, regmap.Hex{Value: 5, Bits: 8}, values["chip.type"])
}

func TestResolveErrors(t *testing.T) {
	p := newParser(t)
	src, err := p.ParseSource("t", testSource)
	require.NoError(t, err)
	m, err := src.Build(nil)
	require.NoError(t, err)

	settings, err := p.ParseAssignments("cmdline", "chip.nope = 1")
	require.NoError(t, err)
	_, err = Resolve(m, settings)
	assert.ErrorIs(t, err, regmap.ErrPathNotFound)

	settings, err = p.ParseAssignments("cmdline", "sysclk.pll.freq-doubler = sometimes")
	require.NoError(t, err)
	_, err = Resolve(m, settings)
	assert.ErrorIs(t, err, regmap.ErrUnknownSymbol)

	_, err = p.ParseAssignments("cmdline", "chip.type 5")
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	p := newParser(t)
	src, err := p.ParseSource("t", testSource)
	require.NoError(t, err)
	want, err := regmap.Normalize(src.Root)
	require.NoError(t, err)

	text := Format(want, src.Tables)
	assert.Contains(t, text, "reg type @ 0x0003 access ro;")
	assert.Contains(t, text, "mask [0xFF, 0xFF, 0x0F]")
	assert.Contains(t, text, `0 = "7.5 mA";`)
	assert.True(t, strings.HasPrefix(text, "table enable {"))

	back, err := p.ParseSource("roundtrip", text)
	require.NoError(t, err)
	got, err := regmap.Normalize(back.Root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.Len(t, back.Tables, 2)
	assert.Equal(t, src.Tables[1].Entries(), back.Tables[1].Entries())
}

func TestWriteYAMLEquivalence(t *testing.T) {
	// A tree read from YAML renders to the same DSL as its DSL original.
	p := newParser(t)
	src, err := p.ParseSource("t", testSource)
	require.NoError(t, err)
	norm, err := regmap.Normalize(src.Root)
	require.NoError(t, err)

	y, err := regmap.EncodeYAML(norm)
	require.NoError(t, err)
	fromYAML, err := regmap.ParseYAML(y)
	require.NoError(t, err)
	normYAML, err := regmap.Normalize(fromYAML)
	require.NoError(t, err)

	assert.Equal(t, Format(norm, nil), Format(normYAML, nil))
}
