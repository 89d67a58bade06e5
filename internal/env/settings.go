// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package env

import (
	"errors"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Store drivers.
const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultOptionKey is the option under which the host persists its active
// plugin list.
const DefaultOptionKey = "active_plugins"

// DefaultPriority is the checkpoint tier for custom-path plugins that do not
// declare one.
const DefaultPriority = 1

// Settings holds the tool's configuration.
type Settings struct {
	Layout          Layout          `koanf:"layout"`
	DefaultPriority int             `koanf:"default_priority"`
	Store           StoreSettings   `koanf:"store"`
	Log             LogSettings     `koanf:"log"`
	Metrics         MetricsSettings `koanf:"metrics"`
	Admin           AdminSettings   `koanf:"admin"`
}

// StoreSettings selects and configures the host option store.
type StoreSettings struct {
	Driver    string `koanf:"driver"`
	Path      string `koanf:"path"`
	DSN       string `koanf:"dsn"`
	OptionKey string `koanf:"option_key"`
}

// LogSettings configures structured logging.
type LogSettings struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsSettings configures metric export.
type MetricsSettings struct {
	Textfile string `koanf:"textfile"`
}

// AdminSettings configures the administrative reset action.
type AdminSettings struct {
	Secret string              `koanf:"secret"`
	Grants map[string][]string `koanf:"grants"`
}

// Defaults returns settings with every optional value filled in.
func Defaults() Settings {
	return Settings{
		DefaultPriority: DefaultPriority,
		Store: StoreSettings{
			Driver:    DriverBolt,
			Path:      DefaultStorePath(),
			OptionKey: DefaultOptionKey,
		},
		Log: LogSettings{
			Format: "text",
			Level:  "info",
		},
	}
}

// flagKeys maps command-line flag names to settings keys.
var flagKeys = map[string]string{
	"root":             "layout.root",
	"content-dir":      "layout.content_dir",
	"mu-plugins-dir":   "layout.mu_plugins_dir",
	"plugins-dir":      "layout.plugins_dir",
	"template-dir":     "layout.template_dir",
	"stylesheet-dir":   "layout.stylesheet_dir",
	"default-priority": "default_priority",
	"store":            "store.driver",
	"store-path":       "store.path",
	"store-dsn":        "store.dsn",
	"option-key":       "store.option_key",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"metrics-textfile": "metrics.textfile",
	"admin-secret":     "admin.secret",
}

// Load reads settings from a YAML file and command-line flags on top of
// Defaults. Flags win over the file. An empty path reads DefaultConfigFile
// if it exists; an explicit path must exist.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("SETTINGS_LOAD_FAILED").With("path", path).Wrap(err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code("SETTINGS_LOAD_FAILED").With("path", path).Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("SETTINGS_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	s := Defaults()
	if err := k.Unmarshal("", &s); err != nil {
		return nil, oops.Code("SETTINGS_LOAD_FAILED").With("path", path).Wrap(err)
	}
	s.Layout = s.Layout.Resolve()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	if s.Layout.Root == "" {
		return oops.Code("SETTINGS_INVALID").With("key", "layout.root").Errorf("layout.root is required")
	}
	switch s.Store.Driver {
	case DriverBolt:
		if s.Store.Path == "" {
			return oops.Code("SETTINGS_INVALID").With("key", "store.path").Errorf("store.path is required for the bolt driver")
		}
	case DriverPostgres:
		if s.Store.DSN == "" {
			return oops.Code("SETTINGS_INVALID").With("key", "store.dsn").Errorf("store.dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return oops.Code("SETTINGS_INVALID").With("key", "store.driver").
			Errorf("store.driver must be %q, %q or %q, got %q", DriverBolt, DriverPostgres, DriverMemory, s.Store.Driver)
	}
	if s.Store.OptionKey == "" {
		return oops.Code("SETTINGS_INVALID").With("key", "store.option_key").Errorf("store.option_key is required")
	}
	if s.Log.Format != "json" && s.Log.Format != "text" {
		return oops.Code("SETTINGS_INVALID").With("key", "log.format").
			Errorf("log.format must be 'json' or 'text', got %q", s.Log.Format)
	}
	return nil
}
