// Package ad9546 describes the Analog Devices AD9545/AD9546 clock
// synchronizers: the register map declaration with its symbol tables, the
// address blocks of a full register dump, and the few control sequences
// that are not plain field writes (I/O update, calibration, resets).
//
//	m, err := ad9546.Map()
//	dev, err := regmap.NewDevice(b, m)
//	snap, err := dev.Update()
//	locked, _ := snap.Get("sysclk.locked")
//
// Most configuration registers are double buffered: writes only take
// effect after IOUpdate.
package ad9546
