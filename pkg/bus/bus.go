package bus

import (
	"errors"
	"fmt"
)

// Kind categorizes bus backends.
type Kind string

const (
	KindFake    Kind = "fake"
	KindSim     Kind = "sim"
	KindI2CDev  Kind = "i2c-dev"
	KindCP2112  Kind = "cp2112"
	KindUnknown Kind = "unknown"
)

// Info describes a bus backend and the device it is attached to.
type Info struct {
	Kind        Kind
	Name        string
	Description string
	Path        string // device node, e.g. /dev/i2c-1
	VendorID    uint16
	ProductID   uint16
	Serial      string
	Slave       int // 7-bit target address, when the bus is addressed
}

// Label returns a user-friendly description for the backend.
func (i Info) Label() string {
	if i.Description != "" {
		return i.Description
	}
	if i.Path != "" {
		return fmt.Sprintf("%s (%s)", string(i.Kind), i.Path)
	}
	if i.VendorID != 0 || i.ProductID != 0 {
		return fmt.Sprintf("%s (%04X:%04X)", string(i.Kind), i.VendorID, i.ProductID)
	}
	return string(i.Kind)
}

// Bus abstracts the byte-wide register access of the chip. Every call
// blocks until the transport completes; implementations are not required
// to be safe for concurrent use unless they say so.
type Bus interface {
	Info() Info
	ReadReg(addr uint16) (byte, error)
	WriteReg(addr uint16, value byte) error
	Close() error
}

// ErrNotImplemented lets backends signal that a requested capability is not
// available on this platform or build.
var ErrNotImplemented = errors.New("bus: not implemented")

// Error is returned by backends for failed transfers. The engine hands it
// back to callers untouched.
type Error struct {
	Op   string // "read" or "write"
	Addr uint16
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bus: %s 0x%04X: %v", e.Op, e.Addr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func readError(addr uint16, err error) error {
	return &Error{Op: "read", Addr: addr, Err: err}
}

func writeError(addr uint16, err error) error {
	return &Error{Op: "write", Addr: addr, Err: err}
}

// SplitAddress returns the big-endian (MSB, LSB) pair the chip expects on
// the wire for a 16-bit register address.
func SplitAddress(addr uint16) (msb, lsb byte) {
	return byte(addr >> 8), byte(addr)
}
