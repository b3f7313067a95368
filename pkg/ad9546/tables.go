package ad9546

import (
	_ "embed"
	"sync"

	"github.com/OpenTraceLab/ad954x/pkg/symtab"
)

//go:embed tables.yaml
var tablesYAML []byte

var loadTables = sync.OnceValues(func() (*symtab.Registry, error) {
	r := symtab.NewRegistry()
	if err := r.LoadYAML(tablesYAML); err != nil {
		return nil, err
	}
	return r, nil
})

// Tables returns the symbol tables used by the AD9545/46 register map.
// The registry is shared; callers must not add to it.
func Tables() (*symtab.Registry, error) {
	return loadTables()
}
