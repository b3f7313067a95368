package regmap

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/ad954x/pkg/symtab"
)

// Shift returns the bit position a masked byte is shifted right by: 0 for
// 0xFF, otherwise the index of the lowest set bit.
func Shift(mask uint8) int {
	if mask == 0xFF || mask == 0 {
		return 0
	}
	return bits.TrailingZeros8(mask)
}

// Merge places field (already aligned to mask) into current without
// disturbing the bits outside mask.
func Merge(current, field, mask uint8) uint8 {
	return (current &^ mask) | (field & mask)
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return 1<<uint(width) - 1
}

// Compose assembles the unsigned field value from the raw bytes, index 0
// being the least significant. Missing bytes read as zero.
func Compose(d *Descriptor, raw []byte) uint64 {
	if len(d.Masks) == 1 {
		if len(raw) == 0 {
			return 0
		}
		return uint64((raw[0] & d.Masks[0]) >> Shift(d.Masks[0]))
	}
	var v uint64
	for i, m := range d.Masks {
		if i >= len(raw) {
			break
		}
		v |= uint64(raw[i]&m) << (8 * uint(i))
	}
	return v
}

// Split is the inverse of Compose: it returns one mask-aligned byte per
// address.
func Split(d *Descriptor, v uint64) []byte {
	out := make([]byte, len(d.Masks))
	if len(d.Masks) == 1 {
		out[0] = byte(v<<uint(Shift(d.Masks[0]))) & d.Masks[0]
		return out
	}
	for i, m := range d.Masks {
		out[i] = byte(v>>(8*uint(i))) & m
	}
	return out
}

// signExtend interprets the low width bits of v as two's complement.
func signExtend(v uint64, width int) int64 {
	if width <= 0 || width >= 64 {
		return int64(v)
	}
	if v&(1<<uint(width-1)) != 0 {
		return int64(v) - int64(1)<<uint(width)
	}
	return int64(v)
}

// Decode turns the raw bytes of d into a value. It never fails: an enum
// field whose table or key is unknown decodes to Hex.
func Decode(d *Descriptor, raw []byte, tables symtab.Lookup) Value {
	u := Compose(d, raw)
	width := d.Width()

	switch d.Format.Kind {
	case FormatBool:
		return Bool(u != 0)
	case FormatInt:
		var i int64
		if d.Signed {
			i = signExtend(u, width)
		} else {
			i = int64(u)
		}
		if d.Scaling != 0 {
			return Float(float64(i) * d.Scaling)
		}
		return Int(i)
	case FormatEnum:
		if tables != nil {
			if t, ok := tables.Table(d.Format.Table); ok {
				if label, ok := t.Label(u); ok {
					return Symbol(label)
				}
			}
		}
	}
	return Hex{Value: u, Bits: width}
}

// Encode converts v into one mask-aligned byte per address of d. Numeric
// values are clamped to the declared range; Hex values are truncated to the
// width.
func Encode(d *Descriptor, v Value, tables symtab.Lookup) ([]byte, error) {
	u, err := fieldValue(d, v, tables)
	if err != nil {
		return nil, err
	}
	return Split(d, u), nil
}

func fieldValue(d *Descriptor, v Value, tables symtab.Lookup) (uint64, error) {
	width := d.Width()
	mask := widthMask(width)

	switch val := v.(type) {
	case Hex:
		return val.Value & mask, nil
	case Bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case Int:
		if d.Scaled() {
			return clampFloat(d, float64(val)/d.Scaling), nil
		}
		return clampInt(d, int64(val)), nil
	case Float:
		f := float64(val)
		if d.Scaled() {
			f /= d.Scaling
		}
		return clampFloat(d, f), nil
	case Symbol:
		if d.Format.Kind != FormatEnum {
			return 0, fmt.Errorf("%w: %s is not an enumerated field", ErrUnknownSymbol, d.Path)
		}
		if tables != nil {
			if t, ok := tables.Table(d.Format.Table); ok {
				if u, ok := t.Value(string(val)); ok {
					return u & mask, nil
				}
			}
		}
		return 0, fmt.Errorf("%w: %q in %s", ErrUnknownSymbol, string(val), d.Format.Table)
	case nil:
		return 0, fmt.Errorf("%w: nil value for %s", ErrInvalidValue, d.Path)
	default:
		return 0, fmt.Errorf("%w: unsupported value %T for %s", ErrInvalidValue, v, d.Path)
	}
}

// valueRange returns the representable integer range of d.
func valueRange(d *Descriptor) (lo, hi float64) {
	width := d.Width()
	if d.Signed && d.Format.Kind == FormatInt {
		return -math.Ldexp(1, width-1), math.Ldexp(1, width-1) - 1
	}
	return 0, float64(widthMask(width))
}

func clampInt(d *Descriptor, i int64) uint64 {
	width := d.Width()
	if d.Signed && d.Format.Kind == FormatInt {
		lo := -(int64(1) << uint(width-1))
		hi := int64(1)<<uint(width-1) - 1
		if width >= 64 {
			lo, hi = math.MinInt64, math.MaxInt64
		}
		if i < lo {
			i = lo
		}
		if i > hi {
			i = hi
		}
		return uint64(i) & widthMask(width)
	}
	if i < 0 {
		return 0
	}
	if u := uint64(i); u <= widthMask(width) {
		return u
	}
	return widthMask(width)
}

func clampFloat(d *Descriptor, f float64) uint64 {
	if math.IsNaN(f) {
		return 0
	}
	f = math.Round(f)
	signed := d.Signed && d.Format.Kind == FormatInt
	lo, hi := valueRange(d)
	switch {
	case f <= lo:
		if signed {
			return clampInt(d, math.MinInt64)
		}
		return 0
	case f >= hi:
		if signed {
			return clampInt(d, math.MaxInt64)
		}
		return widthMask(d.Width())
	}
	return clampInt(d, int64(f))
}

// ParseValue parses user text into a value suitable for Encode on d:
// "true"/"false" for bool fields, decimal or 0x-prefixed integers, floats
// for scaled fields and symbol labels for enumerated fields.
func ParseValue(d *Descriptor, text string, tables symtab.Lookup) (Value, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("%w: empty value for %s", ErrInvalidValue, d.Path)
	}

	switch d.Format.Kind {
	case FormatBool:
		switch strings.ToLower(s) {
		case "on", "enable", "enabled", "yes":
			return Bool(true), nil
		case "off", "disable", "disabled", "no":
			return Bool(false), nil
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return Bool(b), nil
		}
	case FormatEnum:
		if tables != nil {
			if t, ok := tables.Table(d.Format.Table); ok {
				if u, ok := t.Value(s); ok {
					label, _ := t.Label(u)
					return Symbol(label), nil
				}
			}
		}
		if u, err := strconv.ParseUint(s, 0, 64); err == nil {
			return Hex{Value: u, Bits: d.Width()}, nil
		}
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownSymbol, s, d.Format.Table)
	case FormatInt:
		if isHexLiteral(s) {
			break
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			if d.Scaled() {
				return Float(float64(i)), nil
			}
			return Int(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float(f), nil
		}
	}

	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return Hex{Value: u, Bits: d.Width()}, nil
	}
	return nil, fmt.Errorf("%w: %q for %s (%s)", ErrInvalidValue, s, d.Path, d.Format)
}

func isHexLiteral(s string) bool {
	return len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Decode decodes raw bytes of d with the map's tables.
func (m *Map) Decode(d *Descriptor, raw []byte) Value {
	return Decode(d, raw, m.tables)
}

// Encode encodes v for d with the map's tables.
func (m *Map) Encode(d *Descriptor, v Value) ([]byte, error) {
	return Encode(d, v, m.tables)
}

// ParseValue parses text for d with the map's tables.
func (m *Map) ParseValue(d *Descriptor, text string) (Value, error) {
	return ParseValue(d, text, m.tables)
}
