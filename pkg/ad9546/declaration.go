package ad9546

import (
	"fmt"
	"sync"

	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

// TemperatureLSB is the weight of one temperature sensor count in °C.
const TemperatureLSB = 1.0 / 128

func reg(name string, d regmap.Decl) *regmap.DeclNode { return regmap.Leaf(name, d) }

// flag is a single bit boolean field.
func flag(name string, addr uint16, mask uint8) *regmap.DeclNode {
	return reg(name, regmap.Decl{Addr: regmap.A(addr), Mask: regmap.M(mask), Format: "bool"})
}

// status is a read-only single bit boolean field.
func status(name string, addr uint16, mask uint8) *regmap.DeclNode {
	return reg(name, regmap.Decl{Addr: regmap.A(addr), Mask: regmap.M(mask), Format: "bool", Access: "ro"})
}

func statusAs(name string, addr uint16, mask uint8, format string) *regmap.DeclNode {
	return reg(name, regmap.Decl{Addr: regmap.A(addr), Mask: regmap.M(mask), Format: format, Access: "ro"})
}

// Declaration returns a fresh copy of the AD9545/46 register declaration.
func Declaration() *regmap.DeclNode {
	return regmap.Root(
		regmap.Group("chip",
			reg("type", regmap.Decl{Addr: regmap.A(0x0003), Access: "ro"}),
			reg("code", regmap.Decl{Addr: regmap.A(0x0004, 0x0005, 0x0006), Access: "ro"}),
			reg("vendor", regmap.Decl{Addr: regmap.A(0x000C, 0x000D), Access: "ro"}),
		),
		regmap.Group("serial",
			flag("soft-reset", 0x0000, 0x01),
			regmap.Group("spi",
				reg("version", regmap.Decl{Addr: regmap.A(0x000B), Access: "ro"}),
				flag("lbsf", 0x0000, 0x02),
				flag("addr-asc", 0x0000, 0x04),
				flag("sdo", 0x0000, 0x08),
			),
			flag("reset-registers", 0x0001, 0x04),
			flag("buffered-read", 0x0001, 0x40),
			reg("io-update", regmap.Decl{Addr: regmap.A(0x000F), Mask: regmap.M(0x01), Format: "bool",
				Doc: "self-clearing; transfers buffered registers to the active set"}),
		),
		regmap.Group("watchdog",
			reg("period", regmap.Decl{Addr: regmap.A(0x010A, 0x010B), Format: "int", Doc: "watchdog timer period in ms, 0 disables"}),
		),
		sysclkGroup(),
		regmap.Group("pll",
			pllChannel(0),
			pllChannel(1),
		),
		regmap.Group("eeprom",
			status("crc-fault", 0x3000, 0x08),
			status("fault", 0x3000, 0x04),
			regmap.Group("busy",
				status("downloading", 0x3000, 0x02),
				status("uploading", 0x3000, 0x01),
			),
		),
		regmap.Group("misc",
			status("aux-nco1-phase-error", 0x3002, 0x80),
			status("aux-nco1-phase-slewing", 0x3002, 0x40),
			status("aux-nco0-phase-error", 0x3002, 0x20),
			status("aux-nco0-phase-slewing", 0x3002, 0x10),
			status("aux-dpll-ref", 0x3002, 0x04),
			status("aux-dpll-locked", 0x3002, 0x02),
			status("temperature-alarm", 0x3002, 0x01),
		),
		regmap.Group("temperature",
			reg("reading", regmap.Decl{Addr: regmap.A(0x3003, 0x3004), Format: "int", Signed: true,
				Scaling: TemperatureLSB, Access: "ro", Doc: "die temperature in °C"}),
			reg("threshold-low", regmap.Decl{Addr: regmap.A(0x2903, 0x2904), Format: "int", Signed: true,
				Scaling: TemperatureLSB, Doc: "warning threshold low in °C"}),
			reg("threshold-high", regmap.Decl{Addr: regmap.A(0x2905, 0x2906), Format: "int", Signed: true,
				Scaling: TemperatureLSB, Doc: "warning threshold high in °C"}),
		),
		regmap.Group("ref",
			refStatus("a", 0x3005),
			refStatus("aa", 0x3006),
			refStatus("b", 0x3007),
			refStatus("bb", 0x3008),
		),
		regmap.Group("irq",
			status("sysclk-unlock", 0x300B, 0x80),
			status("sysclk-stable", 0x300B, 0x40),
			status("sysclk-lock", 0x300B, 0x20),
			status("sysclk-cal-end", 0x300B, 0x10),
			status("sysclk-cal-start", 0x300B, 0x08),
			status("watchdog-timeout", 0x300B, 0x04),
			status("eeprom-fault", 0x300B, 0x02),
			status("eeprom-complete", 0x300B, 0x01),
			status("skew-limit", 0x300C, 0x20),
			status("temp-warning", 0x300C, 0x10),
			status("aux-dpll-unfault", 0x300C, 0x08),
			status("aux-dpll-fault", 0x300C, 0x04),
			status("aux-dpll-unlock", 0x300C, 0x02),
			status("aux-dpll-lock", 0x300C, 0x01),
		),
	)
}

func sysclkGroup() *regmap.DeclNode {
	return regmap.Group("sysclk",
		regmap.Group("pll",
			reg("fb-div-ratio", regmap.Decl{Addr: regmap.A(0x0200), Format: "int"}),
			reg("freq-doubler", regmap.Decl{Addr: regmap.A(0x0201), Mask: regmap.M(0x01), Format: "complex:enable"}),
			reg("input-sel", regmap.Decl{Addr: regmap.A(0x0201), Mask: regmap.M(0x08)}),
			reg("input-div", regmap.Decl{Addr: regmap.A(0x0201), Mask: regmap.M(0x06), Format: "int"}),
			reg("ref-freq", regmap.Decl{Addr: regmap.A(0x0202, 0x0203, 0x0204, 0x0205, 0x0206), Format: "int",
				Scaling: 1e-3, Doc: "reference frequency in Hz"}),
			reg("stability-period", regmap.Decl{Addr: regmap.A(0x0207, 0x0208, 0x0209), Mask: regmap.M(0xFF, 0xFF, 0x0F),
				Format: "int", Scaling: 10e-3, Doc: "stability timer period in ms"}),
		),
		regmap.Group("compensation",
			flag("method2-aux-dpll", 0x0280, 0x20),
			flag("method1-aux-dpll", 0x0280, 0x10),
			flag("method3-tcds", 0x0280, 0x04),
			flag("method2-tcds", 0x0280, 0x02),
			flag("method1-tcds", 0x0280, 0x01),
			flag("method3-aux-nco1", 0x0281, 0x40),
			flag("method2-aux-nco1", 0x0281, 0x20),
			flag("method1-aux-nco1", 0x0281, 0x10),
			flag("method3-aux-nco0", 0x0281, 0x04),
			flag("method2-aux-nco0", 0x0281, 0x02),
			flag("method1-aux-nco0", 0x0281, 0x01),
			flag("method3-dpll1", 0x0282, 0x40),
			flag("method2-dpll1", 0x0282, 0x20),
			flag("method1-dpll1", 0x0282, 0x10),
			flag("method3-dpll0", 0x0282, 0x04),
			flag("method2-dpll0", 0x0282, 0x02),
			flag("method1-dpll0", 0x0282, 0x01),
			regmap.Group("slew-rate-limiter",
				reg("threshold", regmap.Decl{Addr: regmap.A(0x0283), Mask: regmap.M(0x07), Format: "complex:slew-rate-threshold"}),
			),
			reg("source", regmap.Decl{Addr: regmap.A(0x0284), Mask: regmap.M(0x0F), Format: "complex:comp-sources"}),
			regmap.Group("dpll",
				reg("bandwidth", regmap.Decl{Addr: regmap.A(0x0285, 0x0286), Format: "int", Scaling: 0.1, Doc: "in Hz"}),
				reg("selector", regmap.Decl{Addr: regmap.A(0x0287), Mask: regmap.M(0x01), Format: "complex:comp:dpll:selector"}),
			),
			reg("method1-cutoff", regmap.Decl{Addr: regmap.A(0x0288), Mask: regmap.M(0x07), Format: "complex:comp:cutoffs"}),
		),
		status("locked", 0x3001, 0x01),
		status("stable", 0x3001, 0x02),
		status("calibrating", 0x3001, 0x04),
	)
}

// pllChannel declares the status block of DPLL/APLL channel ch. Channel 1
// mirrors channel 0 0x100 higher.
func pllChannel(ch int) *regmap.DeclNode {
	base := uint16(0x3100 + 0x100*ch)
	locked := uint8(0x10) << ch

	return regmap.Group(fmt.Sprintf("ch%d", ch),
		status("locked", 0x3001, locked),
		regmap.Group("digital",
			status("freq-locked", base, 0x04),
			status("phase-locked", base, 0x02),
			statusAs("profile", base+1, 0x70, "int"),
			status("active", base+1, 0x08),
			status("switching-profile", base+1, 0x04),
			status("holdover", base+1, 0x02),
			status("free-running", base+1, 0x01),
			statusAs("fast-acquisition", base+2, 0x20, "complex:done"),
			status("fast-acquisition-active", base+2, 0x10),
			statusAs("phase-slew", base+2, 0x04, "complex:active"),
			statusAs("freq-clamping", base+2, 0x02, "complex:active"),
			statusAs("tuning-word-history", base+2, 0x01, "complex:available"),
			reg("ftw-history", regmap.Decl{
				Addr:   regmap.A(base+3, base+4, base+5, base+6, base+7, base+8),
				Mask:   regmap.M(0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x1F),
				Format: "int", Access: "ro",
			}),
			reg("phase-lock-tub", regmap.Decl{Addr: regmap.A(base+9, base+10), Mask: regmap.M(0xFF, 0x0F), Format: "int", Access: "ro"}),
			reg("freq-lock-tub", regmap.Decl{Addr: regmap.A(base+11, base+12), Mask: regmap.M(0xFF, 0x0F), Format: "int", Access: "ro"}),
		),
		regmap.Group("analog",
			statusAs("calibration", base, 0x20, "complex:done"),
			status("calibrating", base, 0x10),
			status("phase-locked", base, 0x08),
		),
	)
}

func refStatus(name string, addr uint16) *regmap.DeclNode {
	return regmap.Group(name,
		status("loss-of-signal", addr, 0x20),
		status("valid", addr, 0x10),
		status("fault", addr, 0x08),
		status("jitter-excess", addr, 0x04),
		status("fast", addr, 0x02),
		status("slow", addr, 0x01),
	)
}

var buildMap = sync.OnceValues(func() (*regmap.Map, error) {
	tables, err := Tables()
	if err != nil {
		return nil, fmt.Errorf("ad9546: %w", err)
	}
	m, err := regmap.Build(Declaration(), tables)
	if err != nil {
		return nil, fmt.Errorf("ad9546: %w", err)
	}
	return m, nil
})

// Map returns the normalized AD9545/46 register map. It is built once and
// shared; Map values are immutable.
func Map() (*regmap.Map, error) {
	return buildMap()
}
