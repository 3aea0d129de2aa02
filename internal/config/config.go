package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/smilq/internal/overlay"
)

// DefaultEscapables lists the structural semantics playback may escape from.
var DefaultEscapables = []string{
	"sidebar", "bibliography", "toc", "loi", "appendix", "landmarks", "lot",
	"index", "colophon", "epigraph", "conclusion", "afterword", "warning",
	"epilogue", "foreword", "introduction", "prologue", "preface", "preamble",
	"notice", "errata", "copyright-page", "acknowledgments", "other-credits",
	"titlepage", "imprimatur", "contributors", "halftitlepage", "dedication",
	"help", "annotation", "marginalia", "practice", "note", "footnote",
	"rearnote", "footnotes", "rearnotes", "bridgehead", "page-list", "table",
	"table-row", "table-cell", "list", "list-item", "glossary",
}

// DefaultSkippables lists the structural semantics playback may skip.
var DefaultSkippables = []string{
	"sidebar", "practice", "marginalia", "annotation", "help", "note",
	"footnote", "rearnote", "table", "table-row", "table-cell", "list",
	"list-item", "pagebreak",
}

type Config struct {
	// Importer switches
	Debug          bool `yaml:"debug"`
	ForceSynthetic bool `yaml:"force_synthetic"`
	MaxDepth       int  `yaml:"max_depth"`

	// Category vocabularies
	Escapables []string `yaml:"escapables"`
	Skippables []string `yaml:"skippables"`

	// Worker pool
	WorkerCount int `yaml:"workers"`

	// Logging: text or json
	LogFormat string `yaml:"log_format"`
}

func Load() Config {
	cfg := Config{
		Debug:          envBool("SMILQ_DEBUG", false),
		ForceSynthetic: envBool("SMILQ_FORCE_SYNTHETIC", false),
		MaxDepth:       envInt("SMILQ_MAX_DEPTH", overlay.DefaultMaxDepth),

		Escapables: envList("SMILQ_ESCAPABLES", DefaultEscapables),
		Skippables: envList("SMILQ_SKIPPABLES", DefaultSkippables),

		WorkerCount: envInt("SMILQ_WORKERS", 4),

		LogFormat: envOr("SMILQ_LOG_FORMAT", "text"),
	}

	cfg.applyDefaults()
	return cfg
}

// LoadFile overlays the YAML file at path on top of Load. Keys absent from
// the file keep their environment or default values.
func LoadFile(path string) (Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxDepth <= 0 {
		c.MaxDepth = overlay.DefaultMaxDepth
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Escapables == nil {
		c.Escapables = append([]string(nil), DefaultEscapables...)
	}
	if c.Skippables == nil {
		c.Skippables = append([]string(nil), DefaultSkippables...)
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.WorkerCount > 256 {
		errs = append(errs, fmt.Errorf("workers must be at most 256, got %d", c.WorkerCount))
	}
	if c.MaxDepth > 1<<16 {
		errs = append(errs, fmt.Errorf("max_depth must be at most %d, got %d", 1<<16, c.MaxDepth))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	for _, s := range append(append([]string(nil), c.Escapables...), c.Skippables...) {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, errors.New("category vocabularies must not contain empty entries"))
			break
		}
	}
	return errors.Join(errs...)
}

// Context builds the media-overlay context shared by every import.
func (c Config) Context() *overlay.Context {
	return &overlay.Context{
		Escapables:     append([]string(nil), c.Escapables...),
		Skippables:     append([]string(nil), c.Skippables...),
		Debug:          c.Debug,
		ForceSynthetic: c.ForceSynthetic,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping blank entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
