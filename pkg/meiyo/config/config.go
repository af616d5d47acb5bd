// Package config loads the YAML settings file and the dictionary sources
// the engine is built from.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
	"github.com/cognicore/meiyo/pkg/meiyo/internalerr"
	"github.com/cognicore/meiyo/pkg/meiyo/match"
	"github.com/cognicore/meiyo/pkg/meiyo/rules"
)

// Config is the full settings document.
type Config struct {
	Data      Data      `yaml:"data"`
	Matching  Matching  `yaml:"matching"`
	Rules     Rules     `yaml:"rules"`
	Normalize Normalize `yaml:"normalize"`
	Cache     Cache     `yaml:"cache"`
	History   History   `yaml:"history"`
	Server    Server    `yaml:"server"`
	Sentiment Sentiment `yaml:"sentiment"`
}

// Data points at the dictionary sources.
type Data struct {
	Dictionary string `yaml:"dictionary"`
	Whitelist  string `yaml:"whitelist"`
	Surnames   string `yaml:"surnames"`
}

// Matching mirrors match.Thresholds.
type Matching struct {
	TokenThreshold     int            `yaml:"token_threshold"`
	WholeThreshold     int            `yaml:"whole_threshold"`
	ShortTokenLen      int            `yaml:"short_token_len"`
	Partial            bool           `yaml:"partial"`
	PartialThreshold   int            `yaml:"partial_threshold"`
	CategoryThresholds map[string]int `yaml:"category_thresholds"`
}

// Rules overrides the keyword heuristics. Empty lists keep the defaults.
type Rules struct {
	FuzzyThreshold   int      `yaml:"fuzzy_threshold"`
	ExclamationLimit int      `yaml:"exclamation_limit"`
	Violence         []string `yaml:"violence"`
	Harassment       []string `yaml:"harassment"`
	Threats          []string `yaml:"threats"`
	Pronouns         []string `yaml:"pronouns"`
	Organizations    []string `yaml:"organizations"`
}

type Normalize struct {
	KanjiReading bool `yaml:"kanji_reading"`
}

type Cache struct {
	Capacity          int           `yaml:"capacity"`
	TokenizerCapacity int           `yaml:"tokenizer_capacity"`
	RedisAddr         string        `yaml:"redis_addr"`
	RedisDB           int           `yaml:"redis_db"`
	RedisTTL          time.Duration `yaml:"redis_ttl"`
	RedisPrefix       string        `yaml:"redis_prefix"`
}

type History struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type Server struct {
	Addr       string `yaml:"addr"`
	MaxTextLen int    `yaml:"max_text_len"`
	// AdminToken guards the admin routes. Empty keeps them locked.
	AdminToken string `yaml:"admin_token"`
}

type Sentiment struct {
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	th := match.DefaultThresholds()
	return &Config{
		Matching: Matching{
			TokenThreshold:   th.TokenThreshold,
			WholeThreshold:   th.WholeThreshold,
			ShortTokenLen:    th.ShortTokenLen,
			PartialThreshold: th.PartialThreshold,
		},
		Rules: Rules{
			ExclamationLimit: rules.DefaultExclamationLimit,
		},
		Cache: Cache{
			Capacity:          1000,
			TokenizerCapacity: 1000,
			RedisTTL:          24 * time.Hour,
			RedisPrefix:       "meiyo",
		},
		Server: Server{
			Addr:       ":8080",
			MaxTextLen: 2000,
		},
		Sentiment: Sentiment{
			Timeout:   5 * time.Second,
			CacheSize: 100,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot use.
func (c *Config) Validate() error {
	scores := map[string]int{
		"matching.token_threshold":   c.Matching.TokenThreshold,
		"matching.whole_threshold":   c.Matching.WholeThreshold,
		"matching.partial_threshold": c.Matching.PartialThreshold,
		"rules.fuzzy_threshold":      c.Rules.FuzzyThreshold,
	}
	for cat, v := range c.Matching.CategoryThresholds {
		scores["matching.category_thresholds."+cat] = v
	}
	for name, v := range scores {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s must be within 0..100, got %d", internalerr.ErrInvalidConfig, name, v)
		}
	}
	if c.Matching.ShortTokenLen < 0 {
		return fmt.Errorf("%w: matching.short_token_len must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Cache.Capacity < 0 || c.Cache.TokenizerCapacity < 0 {
		return fmt.Errorf("%w: cache capacities must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Server.MaxTextLen < 0 {
		return fmt.Errorf("%w: server.max_text_len must not be negative", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Thresholds converts the matching section.
func (c *Config) Thresholds() match.Thresholds {
	th := match.Thresholds{
		TokenThreshold:   c.Matching.TokenThreshold,
		ShortTokenLen:    c.Matching.ShortTokenLen,
		WholeThreshold:   c.Matching.WholeThreshold,
		Partial:          c.Matching.Partial,
		PartialThreshold: c.Matching.PartialThreshold,
	}
	if len(c.Matching.CategoryThresholds) > 0 {
		th.CategoryThresholds = make(map[dictionary.Category]int, len(c.Matching.CategoryThresholds))
		for cat, v := range c.Matching.CategoryThresholds {
			th.CategoryThresholds[dictionary.Category(cat)] = v
		}
	}
	return th
}

// RulesConfig converts the rules section. Empty keyword lists fall back to
// the built-in sets.
func (c *Config) RulesConfig() rules.Config {
	return rules.Config{
		Violence:         orNil(c.Rules.Violence),
		Harassment:       orNil(c.Rules.Harassment),
		Threats:          orNil(c.Rules.Threats),
		Pronouns:         orNil(c.Rules.Pronouns),
		Organizations:    orNil(c.Rules.Organizations),
		FuzzyThreshold:   c.Rules.FuzzyThreshold,
		ExclamationLimit: c.Rules.ExclamationLimit,
	}
}

// EngineFingerprint digests the sections that change verdicts for a given
// dictionary. Instances sharing a Redis tier only share entries when their
// fingerprints agree.
func (c *Config) EngineFingerprint() string {
	raw, err := yaml.Marshal(struct {
		Matching  Matching  `yaml:"matching"`
		Rules     Rules     `yaml:"rules"`
		Normalize Normalize `yaml:"normalize"`
	}{c.Matching, c.Rules, c.Normalize})
	if err != nil {
		// Plain structs always marshal.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:6])
}

// Loader returns a Loader for the data section.
func (c *Config) Loader() *Loader {
	return &Loader{
		DictionaryPath: c.Data.Dictionary,
		WhitelistPath:  c.Data.Whitelist,
		SurnamesPath:   c.Data.Surnames,
	}
}

func orNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
