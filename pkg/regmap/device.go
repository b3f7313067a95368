package regmap

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/OpenTraceLab/ad954x/pkg/bus"
)

// Device drives a chip through a bus using a register map. It keeps the
// snapshot of the last Update so that Apply only writes what changed.
//
// A Device is meant to have a single owner; it does no locking.
type Device struct {
	bus bus.Bus
	m   *Map
	log *slog.Logger

	// Last known state, refreshed by Update, Apply and Write.
	last *Snapshot
}

// Option configures a Device.
type Option func(*Device)

// WithLogger routes bus traffic and apply decisions to l at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDevice binds a register map to a bus.
func NewDevice(b bus.Bus, m *Map, opts ...Option) (*Device, error) {
	if b == nil {
		return nil, fmt.Errorf("regmap: bus is nil")
	}
	if m == nil {
		return nil, fmt.Errorf("regmap: map is nil")
	}
	d := &Device{
		bus: b,
		m:   m,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Map returns the register map.
func (d *Device) Map() *Map {
	return d.m
}

// Bus returns the underlying bus.
func (d *Device) Bus() bus.Bus {
	return d.bus
}

// Snapshot returns the state recorded by the last Update, or nil.
func (d *Device) Snapshot() *Snapshot {
	return d.last
}

// ReadRaw reads one byte. Bus errors are returned unchanged.
func (d *Device) ReadRaw(addr uint16) (byte, error) {
	v, err := d.bus.ReadReg(addr)
	if err != nil {
		return 0, err
	}
	d.log.Debug("read", "addr", fmt.Sprintf("0x%04X", addr), "value", fmt.Sprintf("0x%02X", v))
	return v, nil
}

// WriteRaw writes one byte without consulting the map.
func (d *Device) WriteRaw(addr uint16, value byte) error {
	if err := d.bus.WriteReg(addr, value); err != nil {
		return err
	}
	d.log.Debug("write", "addr", fmt.Sprintf("0x%04X", addr), "value", fmt.Sprintf("0x%02X", value))
	d.refresh(map[uint16]byte{addr: value})
	return nil
}

// Read reads and decodes the register at path.
func (d *Device) Read(path string) (Value, error) {
	desc, err := d.m.Lookup(path)
	if err != nil {
		return nil, err
	}
	v, _, err := d.ReadDescriptor(desc)
	return v, err
}

// ReadDescriptor reads every address of desc once and decodes the field.
func (d *Device) ReadDescriptor(desc *Descriptor) (Value, []byte, error) {
	raw := make([]byte, len(desc.Addresses))
	for i, a := range desc.Addresses {
		v, err := d.ReadRaw(a)
		if err != nil {
			return nil, nil, err
		}
		raw[i] = v
	}
	return d.m.Decode(desc, raw), raw, nil
}

// Update reads every used address between MinAddress and MaxAddress once,
// skipping holes, and decodes all registers from the collected bytes.
func (d *Device) Update() (*Snapshot, error) {
	raw := make(map[uint16]byte)
	if d.m.Len() > 0 {
		// int loop so that a map ending at 0xFFFF terminates
		for a := int(d.m.MinAddress()); a <= int(d.m.MaxAddress()); a++ {
			addr := uint16(a)
			if !d.m.Uses(addr) {
				continue
			}
			v, err := d.ReadRaw(addr)
			if err != nil {
				return nil, err
			}
			raw[addr] = v
		}
	}

	snap := newSnapshot(d.m)
	for addr, v := range raw {
		snap.Raw[addr] = v
	}
	for _, desc := range d.m.leaves {
		snap.Values[desc.Path] = d.m.Decode(desc, snap.bytesOf(desc))
	}
	d.last = snap
	return snap, nil
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	Changed []string // paths that were written
	Skipped []string // paths already holding the requested value
	Written []uint16 // addresses written, ascending
}

// Apply writes the requested values. Every path is validated and encoded
// before the bus is touched. Paths whose encoding equals the last snapshot
// are skipped. Fields sharing an address are merged so that each address
// gets at most one read and one write, in ascending address order. A read
// is skipped when the written fields cover the whole byte.
func (d *Device) Apply(desired map[string]Value) (*ApplyResult, error) {
	return d.apply(desired, false)
}

// Write writes a single register regardless of the snapshot.
func (d *Device) Write(path string, v Value) error {
	_, err := d.apply(map[string]Value{path: v}, true)
	return err
}

type pendingByte struct {
	mask  uint8
	field uint8
}

func (d *Device) apply(desired map[string]Value, force bool) (*ApplyResult, error) {
	paths := make([]string, 0, len(desired))
	for p := range desired {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	res := &ApplyResult{}
	pending := make(map[uint16]*pendingByte)

	for _, p := range paths {
		desc, err := d.m.Lookup(p)
		if err != nil {
			return nil, err
		}
		if !desc.Writable() {
			return nil, fmt.Errorf("%w: %s", ErrReadOnly, p)
		}
		enc, err := d.m.Encode(desc, desired[p])
		if err != nil {
			return nil, err
		}

		if !force && d.unchanged(desc, enc) {
			d.log.Debug("apply skip", "path", p, "value", desired[p].String())
			res.Skipped = append(res.Skipped, p)
			continue
		}
		res.Changed = append(res.Changed, p)

		for i, a := range desc.Addresses {
			pb, ok := pending[a]
			if !ok {
				pb = &pendingByte{}
				pending[a] = pb
			}
			// Later paths override earlier ones on overlapping bits.
			pb.field = Merge(pb.field, enc[i], desc.Masks[i])
			pb.mask |= desc.Masks[i]
		}
	}

	addrs := make([]uint16, 0, len(pending))
	for a := range pending {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	written := make(map[uint16]byte, len(addrs))
	defer func() { d.refresh(written) }()

	for _, a := range addrs {
		pb := pending[a]
		next := pb.field
		if pb.mask != 0xFF {
			cur, err := d.ReadRaw(a)
			if err != nil {
				return res, err
			}
			next = Merge(cur, pb.field, pb.mask)
		}
		if err := d.bus.WriteReg(a, next); err != nil {
			return res, err
		}
		d.log.Debug("write", "addr", fmt.Sprintf("0x%04X", a), "value", fmt.Sprintf("0x%02X", next), "mask", fmt.Sprintf("0x%02X", pb.mask))
		written[a] = next
		res.Written = append(res.Written, a)
	}
	return res, nil
}

// unchanged reports whether the last snapshot already encodes to enc.
func (d *Device) unchanged(desc *Descriptor, enc []byte) bool {
	if d.last == nil {
		return false
	}
	cur, ok := d.last.Values[desc.Path]
	if !ok {
		return false
	}
	prev, err := d.m.Encode(desc, cur)
	if err != nil || len(prev) != len(enc) {
		return false
	}
	for i := range prev {
		if prev[i] != enc[i] {
			return false
		}
	}
	return true
}

// refresh folds written bytes into the snapshot and re-decodes the
// registers that use them.
func (d *Device) refresh(written map[uint16]byte) {
	if d.last == nil || len(written) == 0 {
		return
	}
	for a, v := range written {
		d.last.Raw[a] = v
	}
	seen := make(map[*Descriptor]bool)
	for a := range written {
		for _, desc := range d.m.byAddr[a] {
			if seen[desc] {
				continue
			}
			seen[desc] = true
			d.last.Values[desc.Path] = d.m.Decode(desc, d.last.bytesOf(desc))
		}
	}
}

// Snapshot is the decoded state of every register at one Update.
type Snapshot struct {
	Values map[string]Value
	Raw    map[uint16]byte

	m *Map
}

func newSnapshot(m *Map) *Snapshot {
	return &Snapshot{
		Values: make(map[string]Value, m.Len()),
		Raw:    make(map[uint16]byte),
		m:      m,
	}
}

// Get returns the value at path.
func (s *Snapshot) Get(path string) (Value, bool) {
	v, ok := s.Values[path]
	return v, ok
}

// Byte returns the raw byte read at addr.
func (s *Snapshot) Byte(addr uint16) (byte, bool) {
	v, ok := s.Raw[addr]
	return v, ok
}

// Paths returns the snapshot paths in declaration order.
func (s *Snapshot) Paths() []string {
	out := make([]string, 0, len(s.Values))
	for _, p := range s.m.Paths() {
		if _, ok := s.Values[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Snapshot) bytesOf(desc *Descriptor) []byte {
	raw := make([]byte, len(desc.Addresses))
	for i, a := range desc.Addresses {
		raw[i] = s.Raw[a]
	}
	return raw
}
