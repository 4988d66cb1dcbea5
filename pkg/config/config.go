package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Entropy   EntropyConfig   `yaml:"entropy"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Blocklist BlocklistConfig `yaml:"blocklist"`
	Rules     []RuleConfig    `yaml:"rules"`
	History   HistoryConfig   `yaml:"history"`
	Watch     WatchConfig     `yaml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// EntropyConfig holds the entropy heuristic thresholds.
type EntropyConfig struct {
	BlockSize     int     `yaml:"block_size"`
	HighBlockBits float64 `yaml:"high_block_bits"`
	HighRatio     float64 `yaml:"high_ratio"`
	TrailingRatio float64 `yaml:"trailing_ratio"`
}

// ScoringConfig holds severity weights and verdict thresholds.
type ScoringConfig struct {
	RedWeight     int `yaml:"red_weight"`
	YellowWeight  int `yaml:"yellow_weight"`
	GreenWeight   int `yaml:"green_weight"`
	UnknownWeight int `yaml:"unknown_weight"`
	HighRisk      int `yaml:"high_risk"`
	Warnings      int `yaml:"warnings"`
}

// BlocklistConfig holds the known-bad digest list. Entries are lowercase hex
// digests; File optionally points at a newline-separated digest file.
type BlocklistConfig struct {
	Entries []string `yaml:"entries"`
	File    string   `yaml:"file"`
}

// RuleConfig describes one byte-pattern detection rule.
type RuleConfig struct {
	Name       string   `yaml:"name"`
	Patterns   []string `yaml:"patterns"`
	MinMatches int      `yaml:"min_matches"`
	NoCase     bool     `yaml:"nocase"`
}

// HistoryConfig holds the scan journal settings.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig holds directory-watch settings.
type WatchConfig struct {
	Dir      string `yaml:"dir"`
	SettleMs int    `yaml:"settle_ms"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Entropy: EntropyConfig{
			BlockSize:     4096,
			HighBlockBits: 7.5,
			HighRatio:     0.4,
			TrailingRatio: 0.2,
		},
		Scoring: ScoringConfig{
			RedWeight:     50,
			YellowWeight:  20,
			GreenWeight:   0,
			UnknownWeight: 10,
			HighRisk:      70,
			Warnings:      30,
		},
		Rules: DefaultRules(),
		Watch: WatchConfig{
			SettleMs: 500,
		},
	}
}

// DefaultRules returns the built-in detection rule set.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{
			Name:       "suspicious_pdf_js",
			Patterns:   []string{"/AA", "/Launch", "powershell"},
			MinMatches: 1,
			NoCase:     true,
		},
		{
			Name:       "suspicious_macro_strings",
			Patterns:   []string{"AutoOpen", "CreateObject", "WScript.Shell"},
			MinMatches: 2,
			NoCase:     true,
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("SHADOWSAFE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SHADOWSAFE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SHADOWSAFE_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("SHADOWSAFE_BLOCKLIST_FILE"); v != "" {
		c.Blocklist.File = v
	}
	if v := os.Getenv("SHADOWSAFE_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("SHADOWSAFE_WATCH_DIR"); v != "" {
		c.Watch.Dir = v
	}
	if v := os.Getenv("SHADOWSAFE_WATCH_SETTLE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Watch.SettleMs = ms
		}
	}
}

func (c *Config) validate() error {
	if c.Entropy.BlockSize <= 0 {
		return fmt.Errorf("entropy block_size must be positive, got %d", c.Entropy.BlockSize)
	}
	if c.Entropy.HighBlockBits < 0 || c.Entropy.HighBlockBits > 8 {
		return fmt.Errorf("entropy high_block_bits must be within 0-8, got %g", c.Entropy.HighBlockBits)
	}
	for _, ratio := range []float64{c.Entropy.HighRatio, c.Entropy.TrailingRatio} {
		if ratio < 0 || ratio > 1 {
			return fmt.Errorf("entropy ratios must be within 0-1, got %g", ratio)
		}
	}
	for _, w := range []int{c.Scoring.RedWeight, c.Scoring.YellowWeight, c.Scoring.GreenWeight, c.Scoring.UnknownWeight} {
		if w < 0 {
			return fmt.Errorf("severity weights must not be negative, got %d", w)
		}
	}
	if c.Scoring.Warnings > c.Scoring.HighRisk {
		return fmt.Errorf("warnings threshold %d exceeds high_risk threshold %d", c.Scoring.Warnings, c.Scoring.HighRisk)
	}
	for _, rule := range c.Rules {
		if rule.Name == "" {
			return fmt.Errorf("rules must have a name")
		}
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("rule %q has no patterns", rule.Name)
		}
	}
	return nil
}

// LoadBlocklist returns the combined digest blocklist: inline entries plus
// the contents of the configured blocklist file (one lowercase hex digest per
// line, '#' starts a comment). All entries are normalized to lowercase.
func (c *Config) LoadBlocklist() ([]string, error) {
	entries := make([]string, 0, len(c.Blocklist.Entries))
	for _, e := range c.Blocklist.Entries {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			entries = append(entries, e)
		}
	}

	if c.Blocklist.File == "" {
		return entries, nil
	}

	f, err := os.Open(c.Blocklist.File)
	if err != nil {
		return nil, fmt.Errorf("opening blocklist file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, strings.ToLower(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading blocklist file: %w", err)
	}
	return entries, nil
}
