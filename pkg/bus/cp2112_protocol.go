package bus

import (
	"encoding/binary"
	"fmt"
)

// CP2112 HID report IDs (interrupt transfers)
const (
	ReportDataReadRequest     = 0x10
	ReportDataWriteRead       = 0x11
	ReportDataReadForceSend   = 0x12
	ReportDataReadResponse    = 0x13
	ReportDataWrite           = 0x14
	ReportTransferStatusReq   = 0x15
	ReportTransferStatusResp  = 0x16
	ReportCancelTransfer      = 0x17
	CP2112ReportSize          = 64
	CP2112MaxWritePayload     = 61
	CP2112MaxTargetAddressLen = 16
	CP2112MaxReadLength       = 512
)

// Transfer status (status0 of a Transfer Status Response)
const (
	XferIdle     = 0x00
	XferBusy     = 0x01
	XferComplete = 0x02
	XferError    = 0x03
)

// Error details (status1 when status0 == XferError)
const (
	XferErrAddressNACK = 0x00
	XferErrBusNotFree  = 0x01
	XferErrArbitration = 0x02
	XferErrReadShort   = 0x03
	XferErrWriteShort  = 0x04
	XferErrRetried     = 0x05
)

// TransferStatus is a decoded Transfer Status Response.
type TransferStatus struct {
	Status   byte
	Detail   byte
	Retries  uint16
	Received uint16
}

// Done reports whether the transfer is no longer in progress.
func (s TransferStatus) Done() bool {
	return s.Status == XferComplete || s.Status == XferError || s.Status == XferIdle
}

// Err converts an error status into an error value.
func (s TransferStatus) Err() error {
	if s.Status != XferError {
		return nil
	}
	switch s.Detail {
	case XferErrAddressNACK:
		return fmt.Errorf("cp2112: address NACK")
	case XferErrBusNotFree:
		return fmt.Errorf("cp2112: bus not free")
	case XferErrArbitration:
		return fmt.Errorf("cp2112: arbitration lost")
	case XferErrReadShort:
		return fmt.Errorf("cp2112: read incomplete")
	case XferErrWriteShort:
		return fmt.Errorf("cp2112: write incomplete")
	case XferErrRetried:
		return nil
	default:
		return fmt.Errorf("cp2112: transfer error 0x%02X", s.Detail)
	}
}

// CP2112Protocol handles encoding/decoding of CP2112 HID reports.
type CP2112Protocol struct{}

// NewCP2112Protocol creates a new protocol handler.
func NewCP2112Protocol() *CP2112Protocol {
	return &CP2112Protocol{}
}

func slaveByte(slave byte) byte {
	return slave << 1
}

// EncodeDataWrite builds a Data Write report sending data to slave.
func (p *CP2112Protocol) EncodeDataWrite(slave byte, data []byte) ([]byte, error) {
	if len(data) == 0 || len(data) > CP2112MaxWritePayload {
		return nil, fmt.Errorf("cp2112: write length %d out of range", len(data))
	}
	report := []byte{ReportDataWrite, slaveByte(slave), byte(len(data))}
	return append(report, data...), nil
}

// EncodeWriteRead builds a Data Write Read Request: the target bytes are
// written, then readLen bytes are read after a repeated start.
func (p *CP2112Protocol) EncodeWriteRead(slave byte, readLen int, target []byte) ([]byte, error) {
	if readLen <= 0 || readLen > CP2112MaxReadLength {
		return nil, fmt.Errorf("cp2112: read length %d out of range", readLen)
	}
	if len(target) == 0 || len(target) > CP2112MaxTargetAddressLen {
		return nil, fmt.Errorf("cp2112: target address length %d out of range", len(target))
	}
	report := make([]byte, 5, 5+len(target))
	report[0] = ReportDataWriteRead
	report[1] = slaveByte(slave)
	binary.BigEndian.PutUint16(report[2:4], uint16(readLen))
	report[4] = byte(len(target))
	return append(report, target...), nil
}

// EncodeStatusRequest builds a Transfer Status Request.
func (p *CP2112Protocol) EncodeStatusRequest() []byte {
	return []byte{ReportTransferStatusReq, 0x01}
}

// DecodeStatusResponse parses a Transfer Status Response.
func (p *CP2112Protocol) DecodeStatusResponse(resp []byte) (TransferStatus, error) {
	if len(resp) < 7 {
		return TransferStatus{}, fmt.Errorf("cp2112: status response too short")
	}
	if resp[0] != ReportTransferStatusResp {
		return TransferStatus{}, fmt.Errorf("cp2112: unexpected report 0x%02X", resp[0])
	}
	return TransferStatus{
		Status:   resp[1],
		Detail:   resp[2],
		Retries:  binary.BigEndian.Uint16(resp[3:5]),
		Received: binary.BigEndian.Uint16(resp[5:7]),
	}, nil
}

// EncodeForceRead builds a Data Read Force Send for n bytes.
func (p *CP2112Protocol) EncodeForceRead(n int) []byte {
	report := []byte{ReportDataReadForceSend, 0, 0}
	binary.BigEndian.PutUint16(report[1:3], uint16(n))
	return report
}

// DecodeReadResponse parses a Data Read Response and returns its status and
// payload.
func (p *CP2112Protocol) DecodeReadResponse(resp []byte) (byte, []byte, error) {
	if len(resp) < 3 {
		return 0, nil, fmt.Errorf("cp2112: read response too short")
	}
	if resp[0] != ReportDataReadResponse {
		return 0, nil, fmt.Errorf("cp2112: unexpected report 0x%02X", resp[0])
	}
	n := int(resp[2])
	if len(resp) < 3+n {
		return 0, nil, fmt.Errorf("cp2112: incomplete read payload")
	}
	return resp[1], resp[3 : 3+n], nil
}

// EncodeCancel builds a Cancel Transfer report.
func (p *CP2112Protocol) EncodeCancel() []byte {
	return []byte{ReportCancelTransfer, 0x01}
}
