// Package config loads impactlens settings from JSONC files and builds the
// logger the CLI uses.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/tailscale/hujson"
	"go.uber.org/zap/zapcore"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/store"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".impactlens.json"

var (
	ErrNotFound = errors.New("config file not found")
	ErrInvalid  = errors.New("invalid config")
)

// Config holds every setting. Field names are snake_case in files.
type Config struct {
	PriceRange   []float64 `json:"price_range,omitempty"`
	SearchFields []string  `json:"search_fields,omitempty"`
	Store        Store     `json:"store"`
	LogLevel     string    `json:"log_level,omitempty"`
	Currency     Currency  `json:"currency"`
}

// Store selects the persistence backend.
type Store struct {
	Backend   string `json:"backend,omitempty"`
	Path      string `json:"path,omitempty"`
	RedisAddr string `json:"redis_addr,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
}

// Currency configures normalization of mixed-currency totals. Rates map a
// currency code to its value in Base.
type Currency struct {
	Base  string             `json:"base,omitempty"`
	Rates map[string]float64 `json:"rates,omitempty"`
}

// Sources records which files contributed to a Config.
type Sources struct {
	Global  string // empty when no global file was read
	Project string // project or explicit file, empty when none was read
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PriceRange:   []float64{engine.DefaultPriceRange.Min, engine.DefaultPriceRange.Max},
		SearchFields: []string{engine.DimTitle, engine.DimDescription},
		Store:        Store{Backend: store.BackendMemory},
		LogLevel:     "info",
	}
}

// GlobalPath returns $XDG_CONFIG_HOME/impactlens/config.json, falling back to
// ~/.config. env is searched before the process environment. An empty result
// means no home directory could be found.
func GlobalPath(env []string) string {
	for _, e := range env {
		if dir, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok && dir != "" {
			return filepath.Join(dir, "impactlens", "config.json")
		}
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "impactlens", "config.json")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "impactlens", "config.json")
	}
	return ""
}

// Load builds the configuration. Later sources win:
//  1. defaults
//  2. global file (GlobalPath)
//  3. .impactlens.json in workDir, or explicitPath when given
//
// A missing global or project file is not an error; a missing explicit file
// is. CLI flags are applied by the caller on top of the result.
func Load(workDir, explicitPath string, env []string) (Config, Sources, error) {
	cfg := Default()
	var sources Sources

	if path := GlobalPath(env); path != "" {
		overlay, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, Sources{}, err
		}
		if loaded {
			cfg = merge(cfg, overlay)
			sources.Global = path
		}
	}

	path, mustExist := filepath.Join(workDir, FileName), false
	if explicitPath != "" {
		path, mustExist = explicitPath, true
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
	}
	overlay, loaded, err := loadFile(path, mustExist)
	if err != nil {
		return Config{}, Sources{}, err
	}
	if loaded {
		cfg = merge(cfg, overlay)
		sources.Project = path
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, Sources{}, err
	}
	return cfg, sources, nil
}

func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, true, nil
}

// Parse decodes one JSONC document. Comments and trailing commas are allowed;
// unknown keys are not.
func Parse(data []byte) (Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	dec := json.NewDecoder(strings.NewReader(string(std)))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.PriceRange != nil {
		base.PriceRange = overlay.PriceRange
	}
	if len(overlay.SearchFields) > 0 {
		base.SearchFields = overlay.SearchFields
	}
	if overlay.Store.Backend != "" {
		base.Store.Backend = overlay.Store.Backend
	}
	if overlay.Store.Path != "" {
		base.Store.Path = overlay.Store.Path
	}
	if overlay.Store.RedisAddr != "" {
		base.Store.RedisAddr = overlay.Store.RedisAddr
	}
	if overlay.Store.Prefix != "" {
		base.Store.Prefix = overlay.Store.Prefix
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	if overlay.Currency.Base != "" {
		base.Currency.Base = overlay.Currency.Base
	}
	if len(overlay.Currency.Rates) > 0 {
		rates := make(map[string]float64, len(base.Currency.Rates)+len(overlay.Currency.Rates))
		for k, v := range base.Currency.Rates {
			rates[k] = v
		}
		for k, v := range overlay.Currency.Rates {
			rates[k] = v
		}
		base.Currency.Rates = rates
	}
	return base
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if len(c.PriceRange) != 2 {
		result = multierror.Append(result, fmt.Errorf("price_range must be [min, max], got %d values", len(c.PriceRange)))
	} else if lo, hi := c.PriceRange[0], c.PriceRange[1]; math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		result = multierror.Append(result, fmt.Errorf("price_range min %v is greater than max %v", lo, hi))
	}

	switch c.Store.Backend {
	case "", store.BackendMemory, store.BackendFile, store.BackendSQLite:
	case store.BackendRedis:
		if c.Store.RedisAddr == "" {
			result = multierror.Append(result, errors.New("store.redis_addr is required for the redis backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("log_level: %w", err))
	}

	for code, rate := range c.Currency.Rates {
		if rate <= 0 {
			result = multierror.Append(result, fmt.Errorf("currency rate for %s must be positive", code))
		}
	}
	if len(c.Currency.Rates) > 0 && c.Currency.Base == "" {
		result = multierror.Append(result, errors.New("currency.base is required when rates are set"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// EngineOptions turns the filter and currency settings into engine options.
func (c Config) EngineOptions() []engine.Option {
	var opts []engine.Option
	if len(c.PriceRange) == 2 {
		opts = append(opts, engine.WithDefaultRange(engine.Range{Min: c.PriceRange[0], Max: c.PriceRange[1]}))
	}
	if len(c.SearchFields) > 0 {
		opts = append(opts, engine.WithSearchFields(c.SearchFields...))
	}
	if c.Currency.Base != "" && len(c.Currency.Rates) > 0 {
		opts = append(opts, engine.WithCurrency(c.Currency.Base, engine.DimCurrency, c.Currency.Rates))
	}
	return opts
}

// StoreSettings returns the backend selection for store.OpenBackend.
func (c Config) StoreSettings() store.Settings {
	return store.Settings{
		Backend:   c.Store.Backend,
		Path:      c.Store.Path,
		RedisAddr: c.Store.RedisAddr,
		Prefix:    c.Store.Prefix,
	}
}

// Format renders cfg as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}
	return string(data), nil
}
