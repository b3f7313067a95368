package regmap

import (
	"fmt"
	"strings"
)

// Access is the access mode of a register.
type Access uint8

const (
	ReadWrite Access = iota
	ReadOnly
)

func (a Access) String() string {
	if a == ReadOnly {
		return "ro"
	}
	return "rw"
}

// ParseAccess parses "rw" or "ro". An empty string means read-write.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rw":
		return ReadWrite, nil
	case "ro", "r":
		return ReadOnly, nil
	default:
		return ReadWrite, fmt.Errorf("unknown access %q", s)
	}
}

// FormatKind selects how a field's integer value is presented.
type FormatKind uint8

const (
	FormatHex FormatKind = iota
	FormatBool
	FormatInt
	FormatEnum
)

// enumPrefix introduces a symbol-table backed format, e.g. "complex:enable".
const enumPrefix = "complex:"

// Format is the closed set of field formats. Table is only meaningful for
// FormatEnum and holds the symbol table name.
type Format struct {
	Kind  FormatKind
	Table string
}

// EnumFormat returns the format decoding through the named symbol table.
func EnumFormat(table string) Format {
	return Format{Kind: FormatEnum, Table: table}
}

func (f Format) String() string {
	switch f.Kind {
	case FormatBool:
		return "bool"
	case FormatInt:
		return "int"
	case FormatEnum:
		return enumPrefix + f.Table
	default:
		return "hex"
	}
}

// ParseFormat resolves a format string. Unrecognized names degrade to Hex;
// only an enum format without a table name is an error.
func ParseFormat(s string) (Format, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "hex":
		return Format{Kind: FormatHex}, nil
	case "bool":
		return Format{Kind: FormatBool}, nil
	case "int":
		return Format{Kind: FormatInt}, nil
	}
	if strings.HasPrefix(s, enumPrefix) {
		table := strings.TrimSpace(strings.TrimPrefix(s, enumPrefix))
		if table == "" {
			return Format{}, fmt.Errorf("format %q names no table", s)
		}
		return EnumFormat(table), nil
	}
	return Format{Kind: FormatHex}, nil
}
