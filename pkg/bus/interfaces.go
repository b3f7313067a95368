package bus

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// i2cDevGlob matches the Linux i2c-dev character devices.
var i2cDevGlob = "/dev/i2c-*"

// DiscoverInterfaces enumerates buses the chip may be reachable through:
// CP2112 bridges on USB, i2c-dev nodes, and the two software backends. It
// always returns the software entries so the tool can run without hardware.
func DiscoverInterfaces(ctx context.Context) ([]Info, error) {
	var results []Info

	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if uint16(desc.Vendor) == VendorIDSiliconLabs && uint16(desc.Product) == ProductIDCP2112 {
			results = append(results, Info{
				Kind:        KindCP2112,
				Name:        "cp2112",
				Description: "Silicon Labs CP2112 USB-to-SMBus bridge",
				VendorID:    VendorIDSiliconLabs,
				ProductID:   ProductIDCP2112,
				Path:        fmt.Sprintf("usb:%03d/%03d", desc.Bus, desc.Address),
			})
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}

	results = append(results, discoverI2CDev()...)

	results = append(results,
		Info{Kind: KindSim, Name: "sim", Description: "Simulator (in-memory register file)"},
		Info{Kind: KindFake, Name: "fake", Description: "Fake bus (random reads, no hardware)"},
	)

	return results, nil
}

func discoverI2CDev() []Info {
	paths, _ := filepath.Glob(i2cDevGlob)
	sort.Slice(paths, func(i, j int) bool {
		return i2cBusNumber(paths[i]) < i2cBusNumber(paths[j])
	})

	out := make([]Info, 0, len(paths))
	for _, p := range paths {
		n := i2cBusNumber(p)
		if n < 0 {
			continue
		}
		out = append(out, Info{
			Kind:        KindI2CDev,
			Name:        "i2c-dev",
			Description: "Linux i2c-dev bus " + strconv.Itoa(n),
			Path:        p,
		})
	}
	return out
}

// i2cBusNumber extracts N from /dev/i2c-N, or -1.
func i2cBusNumber(path string) int {
	base := filepath.Base(path)
	n, err := strconv.Atoi(strings.TrimPrefix(base, "i2c-"))
	if err != nil || !strings.HasPrefix(base, "i2c-") {
		return -1
	}
	return n
}
