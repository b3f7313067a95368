package regmap

import (
	"fmt"
	"strconv"
)

// Value is a decoded field value. The concrete types are Bool, Int, Float,
// Hex and Symbol.
type Value interface {
	fmt.Stringer
	value()
}

// Bool is the value of a "bool" field.
type Bool bool

// Int is the value of an unscaled "int" field.
type Int int64

// Float is the value of a scaled "int" field, in physical units.
type Float float64

// Hex is a raw field value together with the field width in bits. It is
// the default presentation and the fallback for unknown symbols.
type Hex struct {
	Value uint64
	Bits  int
}

// Symbol is the label of an enumerated field.
type Symbol string

func (Bool) value()   {}
func (Int) value()    {}
func (Float) value()  {}
func (Hex) value()    {}
func (Symbol) value() {}

func (b Bool) String() string {
	return strconv.FormatBool(bool(b))
}

func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (f Float) String() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

// String renders the value with as many hex digits as the width needs, and
// at least two.
func (h Hex) String() string {
	digits := (h.Bits + 3) / 4
	if digits < 2 {
		digits = 2
	}
	return fmt.Sprintf("0x%0*X", digits, h.Value)
}

func (s Symbol) String() string {
	return string(s)
}
