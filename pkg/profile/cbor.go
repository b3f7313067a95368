package profile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// dumpEncMode encodes dumps deterministically so identical register
// contents produce identical files.
var dumpEncMode cbor.EncMode

var dumpDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	dumpEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create dump CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	dumpDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create dump CBOR decoder mode: %v", err))
	}
}

// cborFile uses integer keys for compactness.
type cborFile struct {
	Chip      string          `cbor:"1,keyasint,omitempty"`
	Registers map[uint16]byte `cbor:"2,keyasint"`
}

// MarshalCBOR encodes d with integer register addresses as map keys.
func MarshalCBOR(d Dump, chip string) ([]byte, error) {
	regs := make(map[uint16]byte, len(d))
	for a, v := range d {
		regs[a] = v
	}
	out, err := dumpEncMode.Marshal(cborFile{Chip: chip, Registers: regs})
	if err != nil {
		return nil, fmt.Errorf("profile: encode cbor: %w", err)
	}
	return out, nil
}

// UnmarshalCBOR decodes a dump written by MarshalCBOR. It also returns the
// recorded chip name, if any.
func UnmarshalCBOR(data []byte) (Dump, string, error) {
	var f cborFile
	if err := dumpDecMode.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("profile: parse cbor: %w", err)
	}
	d := make(Dump, len(f.Registers))
	for a, v := range f.Registers {
		d[a] = v
	}
	return d, f.Chip, nil
}
