package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aayushbajaj/japcount/internal/counter"
	"go.uber.org/zap"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Counter CounterConfig `toml:"counter"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// CounterConfig maps counter-related settings.
type CounterConfig struct {
	Goal      *int64  `toml:"goal"`
	WeekStart *string `toml:"week-start"`
	Namespace *string `toml:"namespace"`
}

// StorageConfig maps storage settings.
type StorageConfig struct {
	Path *string `toml:"path"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr           *string  `toml:"addr"`
	AllowedOrigins []string `toml:"allowed-origins"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Counter.WeekStart != nil {
		if _, err := ParseWeekday(*cfg.Counter.WeekStart); err != nil {
			return FileConfig{}, err
		}
	}
	if cfg.Counter.Goal != nil && *cfg.Counter.Goal <= 0 {
		return FileConfig{}, fmt.Errorf("counter.goal must be positive, got %d", *cfg.Counter.Goal)
	}
	return cfg, nil
}

// ParseWeekday parses an English weekday name ("sunday", "Mon", ...).
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if name == full || name == full[:3] {
				return d, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}

// CounterOptions translates the [counter] section into counter options. A
// blank namespace keeps the default.
func CounterOptions(cfg FileConfig, log *zap.Logger) ([]counter.Option, error) {
	opts := []counter.Option{counter.WithLogger(log)}
	c := cfg.Counter
	if c.Goal != nil {
		opts = append(opts, counter.WithDefaultGoal(*c.Goal))
	}
	if c.WeekStart != nil {
		day, err := ParseWeekday(*c.WeekStart)
		if err != nil {
			return nil, err
		}
		opts = append(opts, counter.WithWeekStart(day))
	}
	if c.Namespace != nil && strings.TrimSpace(*c.Namespace) != "" {
		opts = append(opts, counter.WithNamespace(*c.Namespace))
	}
	return opts, nil
}
