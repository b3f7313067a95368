package bus

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/gousb"
)

const (
	// Silicon Labs CP2112 HID USB-to-SMBus bridge
	VendorIDSiliconLabs = 0x10C4
	ProductIDCP2112     = 0xEA90

	DefaultUSBTimeout = 2 * time.Second
)

// USBTransport moves CP2112 HID reports over the interrupt endpoints.
type USBTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	reportSize int
	timeout    time.Duration

	serial string
}

// NewUSBTransport opens the first CP2112 whose serial number matches serial
// (any device when serial is empty).
func NewUSBTransport(serial string) (*USBTransport, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == VendorIDSiliconLabs && desc.Product == ProductIDCP2112
	})
	if err != nil && len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("cp2112: open: %w", err)
	}

	var dev *gousb.Device
	var devSerial string
	for _, d := range devs {
		s, _ := d.SerialNumber()
		if dev == nil && (serial == "" || s == serial) {
			dev, devSerial = d, s
			continue
		}
		d.Close()
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("CP2112 not found (VID:0x%04X PID:0x%04X serial %q)",
			VendorIDSiliconLabs, ProductIDCP2112, serial)
	}

	// The kernel binds hid-generic (or hid-cp2112) to the bridge. Detach
	// is unsupported on some platforms; claiming reports the real failure.
	_ = dev.SetAutoDetach(true)

	t := &USBTransport{
		ctx:        ctx,
		dev:        dev,
		reportSize: CP2112ReportSize,
		timeout:    DefaultUSBTimeout,
		serial:     devSerial,
	}

	if err := t.claimInterface(); err != nil {
		t.Close()
		return nil, err
	}

	return t, nil
}

// claimInterface claims HID interface 0 and opens its interrupt endpoints.
func (t *USBTransport) claimInterface() error {
	cfg, err := t.dev.Config(1)
	if err != nil {
		return fmt.Errorf("cp2112: config 1: %w", err)
	}
	t.cfg = cfg

	if t.intf, err = cfg.Interface(0, 0); err != nil {
		return fmt.Errorf("cp2112: claim interface 0: %w", err)
	}

	out, in, size := interruptEndpoints(t.intf.Setting.Endpoints)
	if out == 0 || in == 0 {
		return fmt.Errorf("cp2112: interrupt endpoints missing (out %d, in %d)", out, in)
	}
	if size > 0 {
		t.reportSize = size
	}
	if t.epOut, err = t.intf.OutEndpoint(out); err != nil {
		return fmt.Errorf("cp2112: OUT endpoint %d: %w", out, err)
	}
	if t.epIn, err = t.intf.InEndpoint(in); err != nil {
		return fmt.Errorf("cp2112: IN endpoint %d: %w", in, err)
	}
	return nil
}

// interruptEndpoints returns the first interrupt OUT and IN endpoint numbers
// and the IN packet size.
func interruptEndpoints(eps map[gousb.EndpointAddress]gousb.EndpointDesc) (out, in, size int) {
	addrs := make([]int, 0, len(eps))
	for a := range eps {
		addrs = append(addrs, int(a))
	}
	sort.Ints(addrs)
	for _, a := range addrs {
		ep := eps[gousb.EndpointAddress(a)]
		if ep.TransferType != gousb.TransferTypeInterrupt {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionOut && out == 0 {
			out = ep.Number
		}
		if ep.Direction == gousb.EndpointDirectionIn && in == 0 {
			in, size = ep.Number, ep.MaxPacketSize
		}
	}
	return out, in, size
}

// Write sends one report, zero padded to the report size.
func (t *USBTransport) Write(data []byte) (int, error) {
	report := make([]byte, t.reportSize)
	copy(report, data)

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	n, err := t.epOut.WriteContext(ctx, report)
	if err != nil {
		return n, fmt.Errorf("cp2112: report write: %w", err)
	}
	return n, nil
}

// Read receives one report.
func (t *USBTransport) Read(data []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	n, err := t.epIn.ReadContext(ctx, data)
	if err != nil {
		return n, fmt.Errorf("cp2112: report read: %w", err)
	}
	return n, nil
}

// ReportSize returns the interrupt report size.
func (t *USBTransport) ReportSize() int {
	return t.reportSize
}

// Serial returns the serial number of the opened bridge.
func (t *USBTransport) Serial() string {
	return t.serial
}

// SetTimeout sets the read/write timeout.
func (t *USBTransport) SetTimeout(timeout time.Duration) {
	t.timeout = timeout
}

// Close releases the interface, configuration, device and context in that
// order. It is safe to call more than once.
func (t *USBTransport) Close() error {
	if t.intf != nil {
		t.intf.Close()
	}
	if t.cfg != nil {
		t.cfg.Close()
	}
	if t.dev != nil {
		t.dev.Close()
	}
	if t.ctx != nil {
		t.ctx.Close()
	}
	t.intf, t.cfg, t.dev, t.ctx = nil, nil, nil, nil
	return nil
}

// EnumerateCP2112 lists connected CP2112 bridges.
func EnumerateCP2112() ([]Info, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == VendorIDSiliconLabs && desc.Product == ProductIDCP2112
	})
	if err != nil && len(devs) == 0 {
		return nil, fmt.Errorf("cp2112: enumerate: %w", err)
	}

	infos := make([]Info, 0, len(devs))
	for _, dev := range devs {
		serial, _ := dev.SerialNumber()
		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()

		infos = append(infos, Info{
			Kind:        KindCP2112,
			Name:        "cp2112",
			Description: fmt.Sprintf("%s %s", manufacturer, product),
			VendorID:    uint16(dev.Desc.Vendor),
			ProductID:   uint16(dev.Desc.Product),
			Serial:      serial,
		})
		dev.Close()
	}

	return infos, nil
}
