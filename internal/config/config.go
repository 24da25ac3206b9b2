// Package config loads and validates the tunnels configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/treykane/tunnels/internal/model"
)

// Config is the full application configuration: the flat list of tunnels.
// Groups are derived from each tunnel's group field, not configured
// separately.
type Config struct {
	Tunnels []model.Tunnel `yaml:"tunnels"`
}

// Dir returns the application config directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/tunnels.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tunnels"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".config", "tunnels"), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads the config from the default path, or from override when
// non-empty.
func Load(override string) (Config, error) {
	path := override
	if path == "" {
		p, err := Path()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	return LoadFile(path)
}

// LoadFile reads and validates a config file. A missing default file yields
// an empty config rather than an error; every tunnel it does define must be
// valid.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every tunnel: unique non-empty names, a hostname, and
// exactly one forwarding spec which itself must be well-formed.
func (c Config) Validate() error {
	seen := map[string]struct{}{}
	for _, t := range c.Tunnels {
		if t.Name == "" {
			return fmt.Errorf("tunnel with empty name")
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("duplicate tunnel name: %s", t.Name)
		}
		seen[t.Name] = struct{}{}
		if t.Hostname == "" {
			return fmt.Errorf("tunnel %s: hostname is required", t.Name)
		}
		switch {
		case t.Dynamic != nil && t.Local != nil:
			return fmt.Errorf("tunnel %s: dynamic and local are mutually exclusive", t.Name)
		case t.Dynamic == nil && t.Local == nil:
			return fmt.Errorf("tunnel %s: one of dynamic or local is required", t.Name)
		}
		if t.Dynamic != nil {
			if err := model.ValidatePort(t.Dynamic.Port); err != nil {
				return fmt.Errorf("tunnel %s: %w", t.Name, err)
			}
		}
		if t.Local != nil {
			if err := t.Local.Validate(); err != nil {
				return fmt.Errorf("tunnel %s: %w", t.Name, err)
			}
		}
	}
	return nil
}

// ByName returns the tunnel with the given name.
func (c Config) ByName(name string) (model.Tunnel, bool) {
	for _, t := range c.Tunnels {
		if t.Name == name {
			return t, true
		}
	}
	return model.Tunnel{}, false
}

// ByGroup returns all tunnels whose group field equals group.
func (c Config) ByGroup(group string) []model.Tunnel {
	var out []model.Tunnel
	for _, t := range c.Tunnels {
		if t.Group == group {
			out = append(out, t)
		}
	}
	return out
}

// Groups returns the sorted distinct group names appearing in the config.
func (c Config) Groups() []model.TunnelGroup {
	byName := map[string][]model.Tunnel{}
	for _, t := range c.Tunnels {
		if t.Group == "" {
			continue
		}
		byName[t.Group] = append(byName[t.Group], t)
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]model.TunnelGroup, 0, len(names))
	for _, name := range names {
		out = append(out, model.TunnelGroup{Name: name, Tunnels: byName[name]})
	}
	return out
}
