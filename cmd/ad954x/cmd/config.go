package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the persistent flags. Flags given on the command line
// win over the file.
type fileConfig struct {
	Bus        string `yaml:"bus"`
	I2CBus     *int   `yaml:"i2c-bus"`
	Addr       string `yaml:"addr"`
	Serial     string `yaml:"serial"`
	Map        string `yaml:"map"`
	Seed       *int64 `yaml:"seed"`
	SimProfile string `yaml:"sim-profile"`
	Verbose    *bool  `yaml:"verbose"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ad954x", "config.yaml")
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyConfig reads the config file, if any, and sets every flag the user
// did not pass explicitly.
func applyConfig(cmd *cobra.Command) error {
	path := configFile
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return nil
		}
	}
	cfg, err := loadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	flags := cmd.Flags()
	set := func(name, value string) error {
		if value == "" || flags.Changed(name) {
			return nil
		}
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("config %s: %s: %w", path, name, err)
		}
		return nil
	}

	settings := []struct{ name, value string }{
		{"bus", cfg.Bus},
		{"addr", cfg.Addr},
		{"serial", cfg.Serial},
		{"map", cfg.Map},
		{"sim-profile", cfg.SimProfile},
	}
	if cfg.I2CBus != nil {
		settings = append(settings, struct{ name, value string }{"i2c-bus", strconv.Itoa(*cfg.I2CBus)})
	}
	if cfg.Seed != nil {
		settings = append(settings, struct{ name, value string }{"seed", strconv.FormatInt(*cfg.Seed, 10)})
	}
	if cfg.Verbose != nil {
		settings = append(settings, struct{ name, value string }{"verbose", strconv.FormatBool(*cfg.Verbose)})
	}
	for _, s := range settings {
		if err := set(s.name, s.value); err != nil {
			return err
		}
	}
	return nil
}
