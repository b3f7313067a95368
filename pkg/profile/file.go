package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Encoding selects a dump file format.
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingCBOR
)

func (e Encoding) String() string {
	if e == EncodingCBOR {
		return "cbor"
	}
	return "json"
}

// EncodingFor picks the encoding from a file extension: ".cbor" is CBOR,
// everything else JSON.
func EncodingFor(path string) Encoding {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return EncodingCBOR
	}
	return EncodingJSON
}

// Marshal encodes d.
func Marshal(d Dump, chip string, enc Encoding) ([]byte, error) {
	if enc == EncodingCBOR {
		return MarshalCBOR(d, chip)
	}
	return MarshalJSON(d, chip)
}

// Unmarshal decodes data in the given encoding.
func Unmarshal(data []byte, enc Encoding) (Dump, error) {
	if enc == EncodingCBOR {
		d, _, err := UnmarshalCBOR(data)
		return d, err
	}
	return UnmarshalJSON(data)
}

// Save writes d to path in the encoding its extension selects.
func Save(path string, d Dump, chip string) error {
	data, err := Marshal(d, chip, EncodingFor(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return nil
}

// LoadFile reads a dump from path in the encoding its extension selects.
func LoadFile(path string) (Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	d, err := Unmarshal(data, EncodingFor(path))
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return d, nil
}
