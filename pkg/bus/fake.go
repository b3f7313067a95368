package bus

import "math/rand"

// Fake emulates hardware access: reads return pseudo-random bytes and
// writes are dropped. A fixed seed makes runs repeatable.
type Fake struct {
	rng    *rand.Rand
	reads  int
	writes int
}

// NewFake creates a fake bus seeded with seed.
func NewFake(seed int64) *Fake {
	return &Fake{rng: rand.New(rand.NewSource(seed))}
}

func (f *Fake) Info() Info {
	return Info{
		Kind:        KindFake,
		Name:        "fake",
		Description: "Fake bus (random reads, no hardware)",
	}
}

func (f *Fake) ReadReg(addr uint16) (byte, error) {
	f.reads++
	return byte(f.rng.Intn(256)), nil
}

func (f *Fake) WriteReg(addr uint16, value byte) error {
	f.writes++
	return nil
}

func (f *Fake) Close() error {
	return nil
}

// Counts reports how many reads and writes have been issued.
func (f *Fake) Counts() (reads, writes int) {
	return f.reads, f.writes
}
