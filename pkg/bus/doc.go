// Package bus provides the byte-level register transports used to reach an
// AD9545/46 clock chip.
//
// The chip exposes a sparse 16-bit register space. Every access moves a
// single byte; multi-byte registers are assembled by the caller. A Bus is
// therefore just ReadReg/WriteReg plus some identification.
//
// Backends:
//   - Fake: returns pseudo-random bytes on read and discards writes, for
//     exercising the engine without hardware
//   - Sim: an in-memory register file with hooks and an operation log, for
//     deterministic tests
//   - I2CDev: Linux i2c-dev (/dev/i2c-N)
//   - CP2112: Silicon Labs CP2112 USB-to-SMBus bridge over libusb
//
// # Wire format
//
// Over I2C the chip takes the register address MSB first:
//
//	write: S | slave+W | addr[15:8] | addr[7:0] | data | P
//	read:  S | slave+W | addr[15:8] | addr[7:0] | Sr | slave+R | data | P
//
// Backends map this onto whatever primitives their transport offers.
//
// Retry and arbitration are not handled here; a failed transfer is
// reported once as an *Error.
package bus
