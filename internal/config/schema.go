package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeDuration is a Go time.Duration value (e.g. "30s", "5m", "1h").
	TypeDuration OptionType = "duration"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file (kebab-case).
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a command/section name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// ConfigSchema declares the expected configuration options.
type ConfigSchema struct {
	options   []*ConfigOption
	byKey     map[string]*ConfigOption
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. The last registration of a key
// within a section wins.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
		return
	}
	if s.bySection[opt.Section] == nil {
		s.bySection[opt.Section] = make(map[string]*ConfigOption)
	}
	s.bySection[opt.Section][opt.Key] = ref
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for global).
// Returns nil if the key is not registered.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	return s.bySection[section][key]
}

// IsKnown returns true if the key is registered in the given section. Global
// keys are known in every section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section != "" && s.bySection[section][key] != nil {
		return true
	}
	return s.byKey[key] != nil
}

// Options returns the registered options of a section ("" for global), in
// registration order.
func (s *ConfigSchema) Options(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted non-empty section names.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value for a global key by checking, in
// order: the option's environment variable, the config value, the schema
// default. Returns "" if the key is not found anywhere.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	return s.ResolveSection(c, "", key)
}

// ResolveSection returns the effective value for key as seen from section:
// the environment variable of the section option (or of the global option),
// then the section value, then the global value, then the section default,
// then the global default. A nil config is treated as empty.
func (s *ConfigSchema) ResolveSection(c *Config, section, key string) string {
	var candidates []*ConfigOption
	if section != "" {
		if opt := s.Lookup(section, key); opt != nil {
			candidates = append(candidates, opt)
		}
	}
	if opt := s.Lookup("", key); opt != nil {
		candidates = append(candidates, opt)
	}

	for _, opt := range candidates {
		if opt.EnvVar != "" {
			if v, ok := os.LookupEnv(opt.EnvVar); ok {
				return v
			}
		}
	}

	if c != nil {
		if section != "" {
			if v, ok := c.GetCommandOption(section, key); ok {
				return v
			}
		} else if v, ok := c.GetGlobalOption(key); ok {
			return v
		}
	}

	for _, opt := range candidates {
		if opt.Default != "" {
			return opt.Default
		}
	}
	return ""
}

// ResolveInt is ResolveSection parsed as an integer. An unset or invalid
// value yields 0.
func (s *ConfigSchema) ResolveInt(c *Config, section, key string) int {
	i, err := strconv.Atoi(s.ResolveSection(c, section, key))
	if err != nil {
		return 0
	}
	return i
}

// ResolveDuration is ResolveSection parsed as a time.Duration. An unset or
// invalid value yields 0.
func (s *ConfigSchema) ResolveDuration(c *Config, section, key string) time.Duration {
	d, err := time.ParseDuration(s.ResolveSection(c, section, key))
	if err != nil {
		return 0
	}
	return d
}

// ResolveBool is ResolveSection parsed with ParseBool. An unset value is
// false; an invalid one is an error.
func (s *ConfigSchema) ResolveBool(c *Config, section, key string) (bool, error) {
	v := s.ResolveSection(c, section, key)
	if v == "" {
		return false, nil
	}
	b, err := ParseBool(v)
	if err != nil {
		if section != "" {
			return false, fmt.Errorf("option %q in [%s]: %w", key, section, err)
		}
		return false, fmt.Errorf("global option %q: %w", key, err)
	}
	return b, nil
}

// ValidateConfig checks a loaded Config against the schema and returns a
// sorted list of human-readable issues: unknown options and type mismatches.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Commands {
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if err := validateType(opt.Type, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := ParseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// --- Help text generation ---

// FormatHelp returns a human-readable reference of all registered options,
// grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	if globals := s.Options(""); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	for _, sec := range s.Sections() {
		opts := s.Options(sec)
		if len(opts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-25s %s", o.Key, o.Description)
	parts := make([]string, 0, 3)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// --- Default schema ---

// DefaultSchema returns the schema declaring every known goaltree option.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll(defaultGlobalOptions())
	s.RegisterAll(defaultCommandOptions())
	return s
}

func defaultGlobalOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "log.level", Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "GOALTREE_LOG_LEVEL"},
		{Key: "log.file", Type: TypeString, Default: "", Description: "Log file path (JSON output)", EnvVar: "GOALTREE_LOG_FILE"},

		{Key: "mind.max-errors", Type: TypeInt, Default: "5", Description: "Errors a goal may accumulate before it is marked irrelevant", EnvVar: "GOALTREE_MAX_ERRORS"},
		{Key: "mind.ticks", Type: TypeInt, Default: "24", Description: "Number of ticks to run"},
		{Key: "mind.expr-cache-size", Type: TypeInt, Default: "1000", Description: "Compiled expression cache size"},

		{Key: "time.day-length", Type: TypeDuration, Default: "24h", Description: "Length of a simulated day"},
		{Key: "time.step", Type: TypeDuration, Default: "1h", Description: "Simulated time advanced per tick"},
		{Key: "time.start", Type: TypeDuration, Default: "6h", Description: "Simulated time of the first tick"},
	}
}

func defaultCommandOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "ticks", Section: "run", Type: TypeInt, Default: "", Description: "Number of ticks to run (overrides mind.ticks)"},
		{Key: "interval", Section: "run", Type: TypeDuration, Default: "0s", Description: "Wall-clock delay between ticks; 0 runs as fast as possible"},
		{Key: "verbose", Section: "run", Type: TypeBool, Default: "false", Description: "Print goal traces after each tick"},

		{Key: "compact", Section: "report", Type: TypeBool, Default: "false", Description: "Print the report as a single line of JSON"},
	}
}
