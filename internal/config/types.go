// Package config loads and watches the YAML configuration file.
//
// Durations are Go duration strings (e.g. "500ms", "30m"). The bot token
// is deliberately not part of the file; it comes from the environment so
// the config can be committed or shared without secrets.
package config

import "fmt"

type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Source    SourceConfig    `yaml:"source"`
	Notify    NotifyConfig    `yaml:"notify"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type LoggingConfig struct {
	Level   string      `yaml:"level"`
	Console bool        `yaml:"console"`
	File    LoggingFile `yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type StorageConfig struct {
	Path        string `yaml:"path"`
	BusyTimeout string `yaml:"busy_timeout,omitempty"`
}

type TelegramConfig struct {
	// PollTimeout is the long-poll timeout for incoming updates.
	PollTimeout string `yaml:"poll_timeout,omitempty"`
}

// Region identifies one search partition: a human label plus the HH area
// identifier used in the API query.
type Region struct {
	Label string `yaml:"label"`
	Area  string `yaml:"area"`
}

type SourceConfig struct {
	BaseURL string   `yaml:"base_url,omitempty"` // override for tests; default is the HH API
	Query   string   `yaml:"query"`
	Regions []Region `yaml:"regions"`

	// Lookback bounds the minimum publication time of fetched vacancies.
	Lookback string `yaml:"lookback,omitempty"`
	PageSize int    `yaml:"page_size,omitempty"`
	// Politeness is the enforced delay between per-region requests.
	Politeness     string `yaml:"politeness,omitempty"`
	RequestTimeout string `yaml:"request_timeout,omitempty"`
}

type NotifyConfig struct {
	// PendingLimit caps how many pending postings one cycle fans out.
	PendingLimit int `yaml:"pending_limit,omitempty"`
	// RatePerSec paces consecutive sends to the messaging channel.
	RatePerSec int `yaml:"rate_per_sec,omitempty"`
}

type SchedulerConfig struct {
	Interval   string `yaml:"interval,omitempty"`
	RunOnStart bool   `yaml:"run_on_start"`
}

func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Source.Query == "" {
		return fmt.Errorf("source.query is required")
	}
	if len(c.Source.Regions) == 0 {
		return fmt.Errorf("source.regions must list at least one region")
	}
	for i, r := range c.Source.Regions {
		if r.Area == "" {
			return fmt.Errorf("source.regions[%d].area is required", i)
		}
	}
	for _, d := range []struct{ path, raw string }{
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"source.lookback", c.Source.Lookback},
		{"source.politeness", c.Source.Politeness},
		{"source.request_timeout", c.Source.RequestTimeout},
		{"scheduler.interval", c.Scheduler.Interval},
	} {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			return err
		}
	}
	return nil
}
