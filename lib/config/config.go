// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// Config is the master configuration for x0x commands.
type Config struct {
	// Identity configures this replica's peer identity.
	Identity IdentityConfig `yaml:"identity"`

	// Store configures persistence.
	Store StoreConfig `yaml:"store"`

	// Keyring is the path to the age-encrypted keyring file.
	// Empty disables sealing: deltas are exchanged in the clear
	// (trusted transports, local experiments).
	Keyring string `yaml:"keyring"`

	// Lists maps a short local alias to each replicated list.
	Lists map[string]ListConfig `yaml:"lists"`
}

// IdentityConfig configures the replica's peer identity.
type IdentityConfig struct {
	// Peer is the peer ID as 64 hex characters. Generated by
	// `x0x-task init` and stable for the lifetime of the replica.
	Peer string `yaml:"peer"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// Backend selects the storage backend: "file" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the store root: a directory for the file backend, a
	// database file for the sqlite backend.
	Path string `yaml:"path"`

	// Compression selects snapshot payload compression:
	// "lz4" (default), "zstd", or "none".
	Compression string `yaml:"compression"`

	// KeepSnapshots is how many snapshots to retain per list.
	// Zero takes the store default.
	KeepSnapshots int `yaml:"keep_snapshots"`

	// Checkpoint tunes snapshot capture. Zero fields take the
	// defaults.
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// CheckpointConfig tunes the checkpoint scheduler.
type CheckpointConfig struct {
	// MutationThreshold forces a snapshot after this many applied
	// mutations. Default 32.
	MutationThreshold int `yaml:"mutation_threshold"`

	// DirtyTimeFloor snapshots a list dirty for this long even
	// below the mutation threshold. Default 5m.
	DirtyTimeFloor Duration `yaml:"dirty_time_floor"`

	// DebounceFloor is the minimum spacing between snapshots.
	// Default 2s.
	DebounceFloor Duration `yaml:"debounce_floor"`
}

// Duration is a time.Duration that (un)marshals as a Go duration
// string ("5m", "2s") in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ListConfig describes one replicated list.
type ListConfig struct {
	// ID is the list ID as 64 hex characters.
	ID string `yaml:"id"`

	// Group is the sealing group ID as 64 hex characters. Required
	// when a keyring is configured.
	Group string `yaml:"group"`

	// Epoch is the current key epoch for outbound deltas.
	Epoch uint64 `yaml:"epoch"`
}

// Default returns the default configuration. These defaults are the
// base the config file merges over; the file itself is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".local", "share", "x0x")
	return &Config{
		Store: StoreConfig{
			Backend:     "file",
			Path:        filepath.Join(root, "store"),
			Compression: "lz4",
		},
		// Keyring stays empty: sealing is opt-in, enabled by
		// `keyring init` once a group exists.
		Lists: make(map[string]ListConfig),
	}
}

// Load loads configuration from the X0X_CONFIG environment variable.
// There is no fallback: if X0X_CONFIG is not set, this fails.
func Load() (*Config, error) {
	path := os.Getenv("X0X_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("X0X_CONFIG environment variable not set; " +
			"set it to the path of your x0x.yaml config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults, expanding path variables, and validating.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Store.Path = expandVars(c.Store.Path, vars)
	c.Keyring = expandVars(c.Keyring, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, reporting every
// problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Identity.Peer != "" {
		if _, err := ref.ParsePeerID(c.Identity.Peer); err != nil {
			errs = append(errs, fmt.Errorf("identity.peer: %w", err))
		}
	}

	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store.backend must be \"file\" or \"sqlite\", got %q", c.Store.Backend))
	}
	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}
	switch c.Store.Compression {
	case "", "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("store.compression must be \"none\", \"lz4\", or \"zstd\", got %q", c.Store.Compression))
	}
	if c.Store.KeepSnapshots < 0 {
		errs = append(errs, fmt.Errorf("store.keep_snapshots must not be negative"))
	}

	for alias, list := range c.Lists {
		if _, err := ref.ParseListID(list.ID); err != nil {
			errs = append(errs, fmt.Errorf("lists.%s.id: %w", alias, err))
		}
		if list.Group != "" {
			if _, err := ref.ParseGroupID(list.Group); err != nil {
				errs = append(errs, fmt.Errorf("lists.%s.group: %w", alias, err))
			}
		} else if c.Keyring != "" {
			errs = append(errs, fmt.Errorf("lists.%s.group is required when a keyring is configured", alias))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// PeerID returns the configured peer identity.
func (c *Config) PeerID() (ref.PeerID, error) {
	if c.Identity.Peer == "" {
		return ref.PeerID{}, fmt.Errorf("identity.peer is not set; run `x0x-task init` first")
	}
	return ref.ParsePeerID(c.Identity.Peer)
}

// List resolves a list alias.
func (c *Config) List(alias string) (ListConfig, error) {
	list, ok := c.Lists[alias]
	if !ok {
		return ListConfig{}, fmt.Errorf("list %q is not configured", alias)
	}
	return list, nil
}

// Save writes the configuration back to the given path. Used by
// `x0x-task init` to record the generated identity.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
