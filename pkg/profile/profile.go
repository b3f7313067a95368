// Package profile reads, writes and compares flat register dumps: one byte
// per address, as produced by the vendor evaluation software and by
// "ad954x dump".
package profile

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/ad954x/pkg/ad9546"
	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

// Dump maps register addresses to their byte values.
type Dump map[uint16]byte

// Addresses returns the dumped addresses in ascending order.
func (d Dump) Addresses() []uint16 {
	out := make([]uint16, 0, len(d))
	for a := range d {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Progress is called after each register transfer.
type Progress func(done, total int)

// Read dumps every address of ranges, bounds inclusive.
func Read(dev ad9546.RawAccess, ranges []regmap.Range, progress Progress) (Dump, error) {
	total := ad9546.DumpSize(ranges)
	d := make(Dump, total)
	done := 0
	for _, r := range ranges {
		if r.End < r.Start {
			return nil, fmt.Errorf("profile: invalid range %s", r)
		}
		for a := int(r.Start); a <= int(r.End); a++ {
			v, err := dev.ReadRaw(uint16(a))
			if err != nil {
				return d, err
			}
			d[uint16(a)] = v
			done++
			if progress != nil {
				progress(done, total)
			}
		}
	}
	return d, nil
}

// Load writes d to the device in ascending address order and then issues
// an I/O update so the buffered registers take effect.
func Load(dev ad9546.RawAccess, d Dump, progress Progress) error {
	addrs := d.Addresses()
	for i, a := range addrs {
		if err := dev.WriteRaw(a, d[a]); err != nil {
			return err
		}
		if progress != nil {
			progress(i+1, len(addrs))
		}
	}
	return ad9546.IOUpdate(dev)
}

// Difference is a register whose value differs between two dumps.
type Difference struct {
	Addr     uint16
	Expected byte
	Actual   byte
	// Missing is set when the address is absent from the actual dump.
	Missing bool
}

func (d Difference) String() string {
	if d.Missing {
		return fmt.Sprintf("reg 0x%04X - expected 0x%02X - missing", d.Addr, d.Expected)
	}
	return fmt.Sprintf("reg 0x%04X - expected 0x%02X - 0x%02X", d.Addr, d.Expected, d.Actual)
}

// Diff compares actual against expected, address by address of expected.
// Addresses only present in actual are ignored.
func Diff(expected, actual Dump) []Difference {
	var out []Difference
	for _, a := range expected.Addresses() {
		want := expected[a]
		got, ok := actual[a]
		switch {
		case !ok:
			out = append(out, Difference{Addr: a, Expected: want, Missing: true})
		case got != want:
			out = append(out, Difference{Addr: a, Expected: want, Actual: got})
		}
	}
	return out
}
