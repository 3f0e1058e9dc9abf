package slots

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Cadence names.
const (
	CadenceHourly = "hourly"
	CadenceDaily  = "daily"
)

// Center configures one service center and, for the hourly cadence, its
// offset range relative to the current hour.
type Center struct {
	ID               string `json:"id" yaml:"id" toml:"id"`
	Name             string `json:"name" yaml:"name" toml:"name"`
	FirstOffsetHours int    `json:"first_offset_hours" yaml:"first_offset_hours" toml:"first_offset_hours"`
	LastOffsetHours  int    `json:"last_offset_hours" yaml:"last_offset_hours" toml:"last_offset_hours"`
}

// Config describes the slot catalog.
type Config struct {
	Cadence        string   `json:"cadence" yaml:"cadence" toml:"cadence"`
	LookaheadHours int      `json:"lookahead_hours" yaml:"lookahead_hours" toml:"lookahead_hours"`
	Days           int      `json:"days" yaml:"days" toml:"days"`
	HoursOfDay     []int    `json:"hours_of_day" yaml:"hours_of_day" toml:"hours_of_day"`
	Centers        []Center `json:"centers" yaml:"centers" toml:"centers"`
}

// DefaultCenters is the hourly catalog used when none is configured.
func DefaultCenters() []Center {
	return []Center{
		{ID: "SC001", Name: "Pulse Service Hub - North", FirstOffsetHours: 1},
		{ID: "SC002", Name: "Pulse Service Hub - South", FirstOffsetHours: 2},
	}
}

// DefaultDailyCenters is the daily catalog used when none is configured. It
// adds the partner workshop that only takes day-ahead appointments.
func DefaultDailyCenters() []Center {
	return append(DefaultCenters(), Center{ID: "SC003", Name: "Authorized Jeep Center", FirstOffsetHours: 1})
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Cadence == "" {
		c.Cadence = CadenceHourly
	}
	if c.LookaheadHours == 0 {
		c.LookaheadHours = 48
	}
	if c.Days == 0 {
		c.Days = 7
	}
	if len(c.HoursOfDay) == 0 {
		c.HoursOfDay = []int{9, 11, 14, 16}
	}
	if len(c.Centers) == 0 {
		if c.Cadence == CadenceDaily {
			c.Centers = DefaultDailyCenters()
		} else {
			c.Centers = DefaultCenters()
		}
	}
	for i := range c.Centers {
		if c.Centers[i].FirstOffsetHours == 0 {
			c.Centers[i].FirstOffsetHours = 1
		}
		if c.Centers[i].LastOffsetHours == 0 {
			c.Centers[i].LastOffsetHours = c.LookaheadHours - 1
		}
	}
}

// Validate checks the catalog for consistency.
func (c Config) Validate() error {
	switch c.Cadence {
	case CadenceHourly, CadenceDaily:
	default:
		return fmt.Errorf("unknown cadence %q", c.Cadence)
	}
	if c.LookaheadHours <= 0 {
		return errors.New("lookahead_hours must be positive")
	}
	if c.Days <= 0 {
		return errors.New("days must be positive")
	}
	for _, h := range c.HoursOfDay {
		if h < 0 || h > 23 {
			return fmt.Errorf("hour of day %d out of range", h)
		}
	}
	if len(c.Centers) == 0 {
		return errors.New("at least one service center is required")
	}
	seen := make(map[string]struct{}, len(c.Centers))
	for _, ctr := range c.Centers {
		if ctr.ID == "" {
			return errors.New("service center id is required")
		}
		if strings.Contains(ctr.ID, "-") {
			return fmt.Errorf("service center id %q must not contain '-'", ctr.ID)
		}
		if _, dup := seen[ctr.ID]; dup {
			return fmt.Errorf("duplicate service center %s", ctr.ID)
		}
		seen[ctr.ID] = struct{}{}
		if c.Cadence == CadenceHourly {
			if ctr.FirstOffsetHours < 0 || ctr.LastOffsetHours < ctr.FirstOffsetHours {
				return fmt.Errorf("center %s: invalid offset range %d..%d", ctr.ID, ctr.FirstOffsetHours, ctr.LastOffsetHours)
			}
			if ctr.LastOffsetHours > c.LookaheadHours {
				return fmt.Errorf("center %s: last offset %d beyond lookahead %d", ctr.ID, ctr.LastOffsetHours, c.LookaheadHours)
			}
		}
	}
	return nil
}

// LoadConfig reads a catalog from a YAML, JSON or TOML file and applies
// defaults.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return DecodeConfig(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// DecodeConfig reads a catalog in the given format from r.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "toml":
		if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
