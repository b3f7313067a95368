// Package regdsl implements a small text language for register maps and
// for lists of register assignments.
//
// A source declares symbol tables, groups and registers:
//
//	table enable { 0 = disabled; 1 = enabled; }
//
//	group sysclk {
//	    reg freq-doubler @ 0x0201 mask 0x01 format complex:enable;
//	    reg ref-freq @ [0x0202, 0x0203, 0x0204, 0x0205, 0x0206]
//	        format int scaling 1e-3 doc "reference frequency in Hz";
//	}
//
// Register attributes are mask, access (rw, ro), format (hex, bool, int,
// complex:<table>), scaling, signed and doc. Omitted attributes take the
// regmap defaults.
//
// Assignment lists feed Device.Apply:
//
//	p, _ := regdsl.NewParser()
//	settings, err := p.ParseAssignments("args", "sysclk.freq-doubler = enabled")
//	values, err := regdsl.Resolve(m, settings)
//	res, err := dev.Apply(values)
package regdsl
