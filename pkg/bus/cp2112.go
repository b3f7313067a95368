package bus

import (
	"fmt"
	"sync"
	"time"
)

// reportTransport moves whole HID reports. *USBTransport satisfies it; tests
// substitute a scripted fake.
type reportTransport interface {
	Write(data []byte) (int, error)
	Read(data []byte) (int, error)
	Close() error
}

const (
	defaultStatusPolls = 50
	defaultPollDelay   = time.Millisecond
)

// CP2112 reaches the chip through a Silicon Labs CP2112 HID-to-SMBus bridge.
// Methods are safe for concurrent use.
type CP2112 struct {
	transport reportTransport
	protocol  *CP2112Protocol

	info  Info
	slave byte

	pollLimit int
	pollDelay time.Duration
	open      bool

	mu sync.Mutex
}

// OpenCP2112 opens the bridge matching serial (first one found when empty)
// and targets the given 7-bit slave address.
func OpenCP2112(serial string, slave int) (*CP2112, error) {
	transport, err := NewUSBTransport(serial)
	if err != nil {
		return nil, fmt.Errorf("failed to open USB device: %w", err)
	}

	info := Info{
		Kind:        KindCP2112,
		Name:        "cp2112",
		Description: fmt.Sprintf("CP2112 USB-to-SMBus bridge, slave 0x%02X", slave),
		VendorID:    VendorIDSiliconLabs,
		ProductID:   ProductIDCP2112,
		Serial:      transport.Serial(),
		Slave:       slave,
	}
	return newCP2112(transport, slave, info), nil
}

func newCP2112(t reportTransport, slave int, info Info) *CP2112 {
	return &CP2112{
		transport: t,
		protocol:  NewCP2112Protocol(),
		info:      info,
		slave:     byte(slave),
		pollLimit: defaultStatusPolls,
		pollDelay: defaultPollDelay,
		open:      true,
	}
}

func (c *CP2112) Info() Info {
	return c.info
}

func (c *CP2112) ReadReg(addr uint16) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return 0, readError(addr, fmt.Errorf("bus closed"))
	}

	msb, lsb := SplitAddress(addr)
	req, err := c.protocol.EncodeWriteRead(c.slave, 1, []byte{msb, lsb})
	if err != nil {
		return 0, readError(addr, err)
	}
	if _, err := c.transport.Write(req); err != nil {
		return 0, readError(addr, err)
	}
	if err := c.waitComplete(); err != nil {
		return 0, readError(addr, err)
	}

	if _, err := c.transport.Write(c.protocol.EncodeForceRead(1)); err != nil {
		return 0, readError(addr, err)
	}
	resp := make([]byte, CP2112ReportSize)
	n, err := c.transport.Read(resp)
	if err != nil {
		return 0, readError(addr, err)
	}
	_, data, err := c.protocol.DecodeReadResponse(resp[:n])
	if err != nil {
		return 0, readError(addr, err)
	}
	if len(data) < 1 {
		return 0, readError(addr, fmt.Errorf("cp2112: empty read response"))
	}
	return data[0], nil
}

func (c *CP2112) WriteReg(addr uint16, value byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return writeError(addr, fmt.Errorf("bus closed"))
	}

	msb, lsb := SplitAddress(addr)
	req, err := c.protocol.EncodeDataWrite(c.slave, []byte{msb, lsb, value})
	if err != nil {
		return writeError(addr, err)
	}
	if _, err := c.transport.Write(req); err != nil {
		return writeError(addr, err)
	}
	if err := c.waitComplete(); err != nil {
		return writeError(addr, err)
	}
	return nil
}

// waitComplete polls the transfer status until the bridge reports the
// transfer finished or pollLimit is exhausted.
func (c *CP2112) waitComplete() error {
	resp := make([]byte, CP2112ReportSize)
	for i := 0; i < c.pollLimit; i++ {
		if _, err := c.transport.Write(c.protocol.EncodeStatusRequest()); err != nil {
			return err
		}
		n, err := c.transport.Read(resp)
		if err != nil {
			return err
		}
		st, err := c.protocol.DecodeStatusResponse(resp[:n])
		if err != nil {
			return err
		}
		if st.Done() {
			return st.Err()
		}
		if c.pollDelay > 0 {
			time.Sleep(c.pollDelay)
		}
	}
	// Leave the bridge idle for the next transfer.
	_, _ = c.transport.Write(c.protocol.EncodeCancel())
	return fmt.Errorf("cp2112: transfer timed out after %d status polls", c.pollLimit)
}

func (c *CP2112) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}
	c.open = false
	return c.transport.Close()
}
