package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonmap/internal/dateformat"
	"github.com/mcncl/jsonmap/internal/models"
	"github.com/mcncl/jsonmap/internal/naming"
)

// Settings governs one serializer or deserializer. It is a plain value:
// the With helpers return modified copies and never touch the receiver.
type Settings struct {
	// Naming converts field names to external names. nil keeps them as is.
	Naming              naming.Policy
	IncludeProtected    bool
	SkipInheritedFields bool
	DateTimeFormat      string
	DateTimeAsString    bool
	EnumFormat          models.EnumFormat
	SkipNull            bool
	SkipEmptyArray      bool
	PrettyPrint         bool
}

// DefaultSettings returns the settings used when the caller supplies none.
func DefaultSettings() Settings {
	return Settings{
		Naming:              nil,
		IncludeProtected:    false,
		SkipInheritedFields: false,
		DateTimeFormat:      dateformat.Default,
		DateTimeAsString:    true,
		EnumFormat:          models.EnumByValue,
		SkipNull:            false,
		SkipEmptyArray:      false,
		PrettyPrint:         true,
	}
}

func (s Settings) WithNaming(p naming.Policy) Settings {
	s.Naming = p
	return s
}

func (s Settings) WithIncludeProtected(v bool) Settings {
	s.IncludeProtected = v
	return s
}

func (s Settings) WithSkipInheritedFields(v bool) Settings {
	s.SkipInheritedFields = v
	return s
}

func (s Settings) WithDateTimeFormat(format string) Settings {
	s.DateTimeFormat = format
	return s
}

func (s Settings) WithDateTimeAsString(v bool) Settings {
	s.DateTimeAsString = v
	return s
}

func (s Settings) WithEnumFormat(f models.EnumFormat) Settings {
	s.EnumFormat = f
	return s
}

func (s Settings) WithSkipNull(v bool) Settings {
	s.SkipNull = v
	return s
}

func (s Settings) WithSkipEmptyArray(v bool) Settings {
	s.SkipEmptyArray = v
	return s
}

func (s Settings) WithPrettyPrint(v bool) Settings {
	s.PrettyPrint = v
	return s
}

// Validate reports settings the engines cannot work with.
func (s Settings) Validate() error {
	if s.DateTimeFormat == "" {
		return fmt.Errorf("date_time_format must not be empty")
	}
	if err := dateformat.Check(s.DateTimeFormat); err != nil {
		return fmt.Errorf("date_time_format: %w", err)
	}
	switch s.EnumFormat {
	case models.EnumByValue, models.EnumByName, models.EnumByFull:
	default:
		return fmt.Errorf("unknown enum format %d", s.EnumFormat)
	}
	return nil
}

// fileSettings is the YAML shape of a settings file.
type fileSettings struct {
	Naming              string `yaml:"naming"`
	IncludeProtected    bool   `yaml:"include_protected"`
	SkipInheritedFields bool   `yaml:"skip_inherited_fields"`
	DateTimeFormat      string `yaml:"date_time_format"`
	DateTimeAsString    bool   `yaml:"date_time_as_string"`
	EnumFormat          string `yaml:"enum_format"`
	SkipNull            bool   `yaml:"skip_null"`
	SkipEmptyArray      bool   `yaml:"skip_empty_array"`
	PrettyPrint         bool   `yaml:"pretty_print"`
}

func newFileSettings() *fileSettings {
	d := DefaultSettings()
	return &fileSettings{
		Naming:              "none",
		IncludeProtected:    d.IncludeProtected,
		SkipInheritedFields: d.SkipInheritedFields,
		DateTimeFormat:      d.DateTimeFormat,
		DateTimeAsString:    d.DateTimeAsString,
		EnumFormat:          d.EnumFormat.String(),
		SkipNull:            d.SkipNull,
		SkipEmptyArray:      d.SkipEmptyArray,
		PrettyPrint:         d.PrettyPrint,
	}
}

func (f *fileSettings) settings() (Settings, error) {
	s := DefaultSettings()

	policy, ok := naming.Lookup(f.Naming)
	if !ok {
		return Settings{}, fmt.Errorf("unknown naming policy %q", f.Naming)
	}
	if policy != naming.None {
		s.Naming = policy
	}

	enumFormat, err := models.ParseEnumFormat(f.EnumFormat)
	if err != nil {
		return Settings{}, err
	}

	s.IncludeProtected = f.IncludeProtected
	s.SkipInheritedFields = f.SkipInheritedFields
	s.DateTimeFormat = f.DateTimeFormat
	s.DateTimeAsString = f.DateTimeAsString
	s.EnumFormat = enumFormat
	s.SkipNull = f.SkipNull
	s.SkipEmptyArray = f.SkipEmptyArray
	s.PrettyPrint = f.PrettyPrint
	return s, s.Validate()
}

// LoadSettings loads settings from a YAML file. Keys missing from the file
// keep their defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	fs := newFileSettings()
	if err := yaml.Unmarshal(data, fs); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file: %w", err)
	}

	s, err := fs.settings()
	if err != nil {
		return Settings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	return s, nil
}

// FindSettingsFile searches for a settings file in the current directory and
// its parents. It returns "" when none exists.
func FindSettingsFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findSettingsFileFrom(dir)
}

func findSettingsFileFrom(dir string) string {
	names := []string{".jsonmap.yml", ".jsonmap.yaml", "jsonmap.yml", "jsonmap.yaml"}

	for {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Overrides are settings given on the command line. Empty strings and false
// flags leave the underlying value alone.
type Overrides struct {
	Naming              string
	EnumFormat          string
	IncludeProtected    bool
	SkipInheritedFields bool
	SkipNull            bool
	SkipEmptyArray      bool
	Compact             bool
}

// Apply returns s with the overrides applied.
func (o Overrides) Apply(s Settings) (Settings, error) {
	if o.Naming != "" {
		policy, ok := naming.Lookup(o.Naming)
		if !ok {
			return Settings{}, fmt.Errorf("unknown naming policy %q (want one of %v)", o.Naming, naming.Names())
		}
		if policy == naming.None {
			policy = nil
		}
		s = s.WithNaming(policy)
	}
	if o.EnumFormat != "" {
		f, err := models.ParseEnumFormat(o.EnumFormat)
		if err != nil {
			return Settings{}, err
		}
		s = s.WithEnumFormat(f)
	}
	if o.IncludeProtected {
		s = s.WithIncludeProtected(true)
	}
	if o.SkipInheritedFields {
		s = s.WithSkipInheritedFields(true)
	}
	if o.SkipNull {
		s = s.WithSkipNull(true)
	}
	if o.SkipEmptyArray {
		s = s.WithSkipEmptyArray(true)
	}
	if o.Compact {
		s = s.WithPrettyPrint(false)
	}
	return s, nil
}

// LoadSettingsWithOverrides loads the settings file at path, or the defaults
// when path is empty, and applies command-line overrides on top.
func LoadSettingsWithOverrides(path string, o Overrides) (Settings, error) {
	s := DefaultSettings()
	if path != "" {
		loaded, err := LoadSettings(path)
		if err != nil {
			return Settings{}, err
		}
		s = loaded
	}
	return o.Apply(s)
}
