// Package regmap provides a declarative register-map engine for chips
// exposing a sparse 16-bit address space accessed one byte at a time.
//
// A map is declared once as a tree of named groups and leaves. Each leaf
// describes one register or bit-field: the byte addresses it spans (index 0
// holds the least significant byte), a mask per address, its access mode,
// its display format and an optional scaling factor.
//
// # Overview
//
// The package provides:
//   - Decl / DeclNode: the terse declaration form, where masks, access and
//     format may be omitted and a single address stands for a one-byte
//     register
//   - Normalize: fills in every omitted attribute and rejects malformed
//     declarations with ErrMalformedDescriptor
//   - Map: the normalized, immutable tree with a path index and an address
//     index
//   - Decode / Encode: the value codec between raw bytes and typed values
//   - Device: the bus-facing runtime (Read, Write, Update, Apply)
//
// # Usage
//
//	root := regmap.Root(
//		regmap.Group("chip",
//			regmap.Leaf("type", regmap.Decl{Addr: regmap.A(0x0003), Access: "ro"}),
//		),
//	)
//	m, err := regmap.Build(root, tables)
//	dev, err := regmap.NewDevice(b, m)
//	snap, err := dev.Update()
//	fmt.Println(snap.Get("chip.type"))
//
// # Codec
//
// For a single-address field the value is (raw & mask) >> shift, where the
// shift is the position of the lowest set bit of the mask (zero for 0xFF).
// Multi-address fields are composed little-endian from the masked bytes
// without per-byte shifting. Signed fields are sign-extended to their
// declared width; scaled integer fields decode to Float.
//
// Decoding never fails. An enumerated field whose table or key is unknown
// decodes to Hex so that telemetry stays readable for device states the
// tables do not anticipate.
//
// # Writes
//
// Fields share addresses, so every write is merged into the current byte as
// (current &^ mask) | field. Apply compares the requested values with the
// last snapshot, skips unchanged fields, and touches each address with at
// most one read and one write. A read is skipped when the fields being
// written cover the whole byte.
//
// # Limitations
//
//   - Overlapping masks between fields are not detected
//   - Fields are limited to 8 addresses (64 bits); unsigned int fields to
//     63 bits
//   - Update is not atomic: device state may change between two reads
package regmap
