package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storefront/internal/hours"
	"storefront/internal/seasonal"
)

// DefaultTimezone is the store's home zone.
const DefaultTimezone = "Asia/Colombo"

// DayHoursConfig is one weekday entry of store.yaml.
type DayHoursConfig struct {
	Day   string `yaml:"day"`   // "Monday"
	Open  int    `yaml:"open"`  // 9
	Close int    `yaml:"close"` // 19
}

// ThemeConfig is one seasonal window of store.yaml.
type ThemeConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Start     string `yaml:"start"` // "12-27"
	End       string `yaml:"end"`   // "01-05"
	Snowfall  bool   `yaml:"snowfall"`
	Fireworks bool   `yaml:"fireworks"`
	Lanterns  bool   `yaml:"lanterns"`
}

// StoreConfig is the root configuration for store.yaml.
type StoreConfig struct {
	Name     string           `yaml:"name"`
	Timezone string           `yaml:"timezone"`
	Hours    []DayHoursConfig `yaml:"hours"`
	Themes   []ThemeConfig    `yaml:"themes"`

	location *time.Location
	schedule hours.WeeklySchedule
	themes   []seasonal.Theme
}

// LoadStoreConfig loads and validates the store configuration from a YAML file.
func LoadStoreConfig(path string) (*StoreConfig, error) {
	if path == "" {
		path = "configs/store.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store config: %w", err)
	}

	return ParseStoreConfig(data)
}

// ParseStoreConfig decodes, defaults and validates store.yaml contents.
func ParseStoreConfig(data []byte) (*StoreConfig, error) {
	var cfg StoreConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse store config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate store config: %w", err)
	}

	return &cfg, nil
}

// DefaultStoreConfig returns the built-in store: 9-19 daily in Asia/Colombo with the default themes.
func DefaultStoreConfig() *StoreConfig {
	cfg := &StoreConfig{}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// applyDefaults fills in missing sections before validation.
func (c *StoreConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = "Storefront"
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if len(c.Hours) == 0 {
		for _, d := range hours.DefaultSchedule() {
			c.Hours = append(c.Hours, DayHoursConfig{Day: d.DayName, Open: d.OpenHour, Close: d.CloseHour})
		}
	}
	if len(c.Themes) == 0 {
		for _, t := range seasonal.DefaultThemes() {
			if t.ID == seasonal.DefaultThemeID {
				continue
			}
			c.Themes = append(c.Themes, ThemeConfig{
				ID:        t.ID,
				Name:      t.DisplayName,
				Start:     t.Start.String(),
				End:       t.End.String(),
				Snowfall:  t.Effects.Snowfall,
				Fireworks: t.Effects.Fireworks,
				Lanterns:  t.Effects.Lanterns,
			})
		}
	}
}

// Validate checks the configuration and builds the resolved schedule, location and themes.
func (c *StoreConfig) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: unknown zone '%s'", c.Timezone)
	}

	if len(c.Hours) != hours.DaysInWeek {
		return fmt.Errorf("hours: expected %d entries (Monday first), got %d", hours.DaysInWeek, len(c.Hours))
	}

	var schedule hours.WeeklySchedule
	for i, h := range c.Hours {
		if !strings.EqualFold(strings.TrimSpace(h.Day), hours.DayNames[i]) {
			return fmt.Errorf("hours[%d]: expected day '%s', got '%s'", i, hours.DayNames[i], h.Day)
		}
		schedule[i] = hours.DaySchedule{DayName: hours.DayNames[i], OpenHour: h.Open, CloseHour: h.Close}
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	ids := make(map[string]bool)
	themes := make([]seasonal.Theme, 0, len(c.Themes))
	for i, tc := range c.Themes {
		if tc.ID == "" {
			return fmt.Errorf("themes[%d]: id is required", i)
		}
		if ids[tc.ID] {
			return fmt.Errorf("themes[%d]: duplicate id '%s'", i, tc.ID)
		}
		ids[tc.ID] = true

		theme := seasonal.Theme{
			ID:          tc.ID,
			DisplayName: tc.Name,
			Effects:     seasonal.Effects{Snowfall: tc.Snowfall, Fireworks: tc.Fireworks, Lanterns: tc.Lanterns},
		}
		if theme.DisplayName == "" {
			theme.DisplayName = tc.ID
		}
		if tc.ID != seasonal.DefaultThemeID {
			if theme.Start, err = seasonal.ParseMonthDay(tc.Start); err != nil {
				return fmt.Errorf("themes[%d].start: %w", i, err)
			}
			if theme.End, err = seasonal.ParseMonthDay(tc.End); err != nil {
				return fmt.Errorf("themes[%d].end: %w", i, err)
			}
		}
		themes = append(themes, theme)
	}

	c.location = loc
	c.schedule = schedule
	c.themes = themes
	return nil
}

// Location returns the resolved store timezone.
func (c *StoreConfig) Location() *time.Location {
	return c.location
}

// Schedule returns the Monday-first weekly schedule.
func (c *StoreConfig) Schedule() hours.WeeklySchedule {
	return c.schedule
}

// ThemeTable returns a copy of the theme table in declaration order.
func (c *StoreConfig) ThemeTable() []seasonal.Theme {
	out := make([]seasonal.Theme, len(c.themes))
	copy(out, c.themes)
	return out
}

// ThemeOverlaps lists theme pairs whose windows intersect.
func (c *StoreConfig) ThemeOverlaps() []seasonal.Overlap {
	return seasonal.Overlaps(c.themes)
}

// String returns a summary of the configuration.
func (c *StoreConfig) String() string {
	return fmt.Sprintf("StoreConfig: %s (%s), %d themes", c.Name, c.Timezone, len(c.themes))
}
