package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/ad954x/pkg/ad9546"
	"github.com/OpenTraceLab/ad954x/pkg/bus"
	"github.com/OpenTraceLab/ad954x/pkg/profile"
	"github.com/OpenTraceLab/ad954x/pkg/regdsl"
	"github.com/OpenTraceLab/ad954x/pkg/regmap"
	"github.com/OpenTraceLab/ad954x/pkg/symtab"
)

// session is an open bus with the device engine on top.
type session struct {
	bus bus.Bus
	dev *regmap.Device
}

func (s *session) Map() *regmap.Map { return s.dev.Map() }

func (s *session) Close() error {
	return s.bus.Close()
}

// loadMap returns the map selected by --map.
func loadMap() (*regmap.Map, error) {
	if mapFile == "" {
		return ad9546.Map()
	}
	tables, err := ad9546.Tables()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(mapFile)) {
	case ".yaml", ".yml":
		root, err := regmap.LoadYAML(mapFile)
		if err != nil {
			return nil, err
		}
		return regmap.Build(root, tables)
	default:
		p, err := regdsl.NewParser()
		if err != nil {
			return nil, err
		}
		src, err := p.LoadFile(mapFile)
		if err != nil {
			return nil, err
		}
		return src.Build(tables)
	}
}

func parseSlaveAddr(s string) (int, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid --addr %q", s)
	}
	return int(v), nil
}

func openSession() (*session, error) {
	m, err := loadMap()
	if err != nil {
		return nil, fmt.Errorf("failed to load register map: %w", err)
	}
	kind, err := bus.ParseKind(busName)
	if err != nil {
		return nil, err
	}
	addr, err := parseSlaveAddr(slaveAddr)
	if err != nil {
		return nil, err
	}
	cfg := bus.Config{
		Kind:    kind,
		I2CBus:  i2cBus,
		Address: addr,
		Serial:  serialFilter,
		Seed:    fakeSeed,
	}
	if simProfile != "" {
		if kind != bus.KindSim {
			return nil, fmt.Errorf("--sim-profile requires --bus sim")
		}
		d, err := profile.LoadFile(simProfile)
		if err != nil {
			return nil, err
		}
		cfg.Initial = d
	}

	b, err := bus.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open bus: %w", err)
	}
	dev, err := regmap.NewDevice(b, m, regmap.WithLogger(logger))
	if err != nil {
		b.Close()
		return nil, err
	}
	logger.Debug("session opened", "bus", b.Info().Label(), "registers", m.Len())
	return &session{bus: b, dev: dev}, nil
}

// usedTables returns the tables referenced by enumerated fields of m, by
// name.
func usedTables(m *regmap.Map) []*symtab.Table {
	seen := make(map[string]bool)
	var names []string
	for _, d := range m.Descriptors() {
		if d.Format.Kind == regmap.FormatEnum && !seen[d.Format.Table] {
			seen[d.Format.Table] = true
			names = append(names, d.Format.Table)
		}
	}
	sort.Strings(names)

	var out []*symtab.Table
	if m.Tables() == nil {
		return out
	}
	for _, n := range names {
		if t, ok := m.Tables().Table(n); ok {
			out = append(out, t)
		}
	}
	return out
}

func formatBytes(raw []byte) string {
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
