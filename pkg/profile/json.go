package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// jsonFile is the subset of the vendor profile format we interpret. Other
// top level sections are ignored on read.
type jsonFile struct {
	RegisterMap map[string]string `json:"RegisterMap"`
}

// MarshalJSON renders d in the vendor layout, addresses as "0x%04X" and
// values as "0x%02X". A non-empty chip adds the descriptive header the
// vendor tools expect.
func MarshalJSON(d Dump, chip string) ([]byte, error) {
	regs := make(map[string]string, len(d))
	for a, v := range d {
		regs[fmt.Sprintf("0x%04X", a)] = fmt.Sprintf("0x%02X", v)
	}
	doc := map[string]any{"RegisterMap": regs}
	if chip != "" {
		doc[chip] = map[string]any{
			"_gui_version": "1.0.0.0",
			"notes":        map[string]any{},
			"bitfields":    map[string]any{},
			"read only":    map[string]any{},
			"wizard":       map[string]any{},
		}
		doc["wizard"] = map[string]any{"version": "1.0.0.0"}
	}
	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("profile: encode json: %w", err)
	}
	return append(out, '\n'), nil
}

// UnmarshalJSON parses a vendor profile. A leading UTF-8 byte order mark is
// accepted.
func UnmarshalJSON(data []byte) (Dump, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("profile: parse json: %w", err)
	}
	if f.RegisterMap == nil {
		return nil, fmt.Errorf("profile: no RegisterMap section")
	}
	d := make(Dump, len(f.RegisterMap))
	for k, v := range f.RegisterMap {
		addr, err := strconv.ParseUint(k, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("profile: bad address %q", k)
		}
		val, err := strconv.ParseUint(v, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("profile: bad value %q at %s", v, k)
		}
		d[uint16(addr)] = byte(val)
	}
	return d, nil
}
