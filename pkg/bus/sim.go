package bus

import "fmt"

// OpKind identifies whether a recorded operation was a read or a write.
type OpKind uint8

const (
	OpRead OpKind = iota
	OpWrite
)

func (k OpKind) String() string {
	if k == OpWrite {
		return "write"
	}
	return "read"
}

// Op captures one bus transaction for inspection within tests.
type Op struct {
	Kind  OpKind
	Addr  uint16
	Value byte
}

func (o Op) String() string {
	return fmt.Sprintf("%s 0x%04X=0x%02X", o.Kind, o.Addr, o.Value)
}

// ReadHook lets a test emulate device-specific read behavior (status bits
// that change on their own, transfer failures). Returning handled=false
// falls back to the register file.
type ReadHook func(addr uint16) (value byte, handled bool, err error)

// WriteHook is invoked before a write reaches the register file. A non-nil
// error aborts the write.
type WriteHook func(addr uint16, value byte) error

// Sim is an in-memory register file. Unwritten registers read as zero.
type Sim struct {
	InfoData Info

	OnRead  ReadHook
	OnWrite WriteHook

	regs [1 << 16]byte
	ops  []Op
}

// NewSim constructs a simulator with the provided initial register values.
func NewSim(initial map[uint16]byte) *Sim {
	s := &Sim{
		InfoData: Info{
			Kind:        KindSim,
			Name:        "sim",
			Description: "Simulator (in-memory register file)",
		},
	}
	for addr, v := range initial {
		s.regs[addr] = v
	}
	return s
}

func (s *Sim) Info() Info {
	return s.InfoData
}

func (s *Sim) ReadReg(addr uint16) (byte, error) {
	if s.OnRead != nil {
		v, handled, err := s.OnRead(addr)
		if err != nil {
			return 0, readError(addr, err)
		}
		if handled {
			s.ops = append(s.ops, Op{Kind: OpRead, Addr: addr, Value: v})
			return v, nil
		}
	}
	v := s.regs[addr]
	s.ops = append(s.ops, Op{Kind: OpRead, Addr: addr, Value: v})
	return v, nil
}

func (s *Sim) WriteReg(addr uint16, value byte) error {
	if s.OnWrite != nil {
		if err := s.OnWrite(addr, value); err != nil {
			return writeError(addr, err)
		}
	}
	s.regs[addr] = value
	s.ops = append(s.ops, Op{Kind: OpWrite, Addr: addr, Value: value})
	return nil
}

func (s *Sim) Close() error {
	return nil
}

// Peek returns the register value without recording an operation.
func (s *Sim) Peek(addr uint16) byte {
	return s.regs[addr]
}

// Poke sets a register without recording an operation.
func (s *Sim) Poke(addr uint16, value byte) {
	s.regs[addr] = value
}

// Ops returns a copy of the operation log.
func (s *Sim) Ops() []Op {
	return append([]Op(nil), s.ops...)
}

// Writes returns only the write operations of the log.
func (s *Sim) Writes() []Op {
	var out []Op
	for _, op := range s.ops {
		if op.Kind == OpWrite {
			out = append(out, op)
		}
	}
	return out
}

// LastOp returns the most recent operation.
func (s *Sim) LastOp() (Op, bool) {
	if len(s.ops) == 0 {
		return Op{}, false
	}
	return s.ops[len(s.ops)-1], true
}

// ResetLog clears the operation log; register contents are kept.
func (s *Sim) ResetLog() {
	s.ops = nil
}
