package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"

	"github.com/konveyor/progress-logger/progress/units"
)

// Config holds configuration values for creating a ProgressLogger.
// It can be read from YAML and bound to cobra flags, and converts to
// Options with ToOptions.
//
// Example YAML:
//
//	item-name: record
//	log-interval: 30s
//	expected-updates: 1000000
//	time-unit: s
//	local-speed: true
//	display-memory: true
//	locale: de
type Config struct {
	// ItemName is the noun describing one item. Empty means "item".
	ItemName string `yaml:"item-name,omitempty"`

	// LogInterval is a Go duration string. Empty means 10s.
	LogInterval string `yaml:"log-interval,omitempty"`

	// ExpectedUpdates enables percentage and time to end. 0 means unknown.
	ExpectedUpdates uint64 `yaml:"expected-updates,omitempty"`

	// TimeUnit pins the unit of timings and speeds (ns, us, ms, s, m, h, d).
	TimeUnit string `yaml:"time-unit,omitempty"`

	LocalSpeed    bool `yaml:"local-speed,omitempty"`
	DisplayMemory bool `yaml:"display-memory,omitempty"`

	// Locale is a BCP 47 tag used for digit grouping. Empty means English.
	Locale string `yaml:"locale,omitempty"`
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read progress config %s: %w", path, err)
	}

	config := &Config{}
	if err := yaml.UnmarshalStrict(content, config); err != nil {
		return nil, fmt.Errorf("unable to parse progress config %s: %w", path, err)
	}
	return config, nil
}

// AddFlags adds all configuration flags to the given cobra command.
func (c *Config) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.ItemName, "item-name", c.ItemName, "noun describing one item (default \"item\")")
	cmd.Flags().StringVar(&c.LogInterval, "log-interval", c.LogInterval, "minimum time between progress lines (default 10s)")
	cmd.Flags().Uint64Var(&c.ExpectedUpdates, "expected-updates", c.ExpectedUpdates, "expected number of items, enables percentage and time to end")
	cmd.Flags().StringVar(&c.TimeUnit, "time-unit", c.TimeUnit, "fixed unit for timings and speeds: ns, us, ms, s, m, h or d; disables digit grouping")
	cmd.Flags().BoolVar(&c.LocalSpeed, "local-speed", c.LocalSpeed, "also show the speed over the last interval")
	cmd.Flags().BoolVar(&c.DisplayMemory, "display-memory", c.DisplayMemory, "show process and system memory")
	cmd.Flags().StringVar(&c.Locale, "locale", c.Locale, "locale for digit grouping (default en)")
}

// Merge returns c with the non-zero values of other applied on top.
func (c Config) Merge(other Config) Config {
	if other.ItemName != "" {
		c.ItemName = other.ItemName
	}
	if other.LogInterval != "" {
		c.LogInterval = other.LogInterval
	}
	if other.ExpectedUpdates != 0 {
		c.ExpectedUpdates = other.ExpectedUpdates
	}
	if other.TimeUnit != "" {
		c.TimeUnit = other.TimeUnit
	}
	c.LocalSpeed = c.LocalSpeed || other.LocalSpeed
	c.DisplayMemory = c.DisplayMemory || other.DisplayMemory
	if other.Locale != "" {
		c.Locale = other.Locale
	}
	return c
}

// ToOptions converts the Config to Options. Unset values keep the defaults
// of New.
func (c *Config) ToOptions() ([]Option, error) {
	options := []Option{}

	if c.ItemName != "" {
		options = append(options, WithItemName(c.ItemName))
	}
	if c.LogInterval != "" {
		interval, err := time.ParseDuration(c.LogInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid log interval: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("log interval must be positive, got %s", interval)
		}
		options = append(options, WithLogInterval(interval))
	}
	if c.ExpectedUpdates != 0 {
		options = append(options, WithExpectedUpdates(c.ExpectedUpdates))
	}
	if c.TimeUnit != "" {
		unit, err := units.ParseTimeUnit(c.TimeUnit)
		if err != nil {
			return nil, fmt.Errorf("invalid time unit: %w", err)
		}
		options = append(options, WithTimeUnit(unit))
	}
	if c.LocalSpeed {
		options = append(options, WithLocalSpeed())
	}
	if c.DisplayMemory {
		options = append(options, WithDisplayMemory())
	}
	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale: %w", err)
		}
		options = append(options, WithLocale(tag))
	}

	return options, nil
}
