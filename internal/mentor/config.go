package mentor

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Config holds every recognized option from the external interface
// section: thresholds, weights, and allow/deny lists. It is loaded once
// at startup and may be hot-reloaded; callers always read a consistent
// snapshot via Core.config.Load().
type Config struct {
	StaticThreshold float64 `toml:"static_threshold"`
	HybridThreshold float64 `toml:"hybrid_threshold"`

	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
	CacheCapacity   int `toml:"cache_capacity"`

	RateCapacity         int `toml:"rate_capacity"`
	RateRefillPerMinute  int `toml:"rate_refill_per_minute"`
	RateMaxBuckets       int `toml:"rate_max_buckets"`
	RateRetainBuckets    int `toml:"rate_retain_buckets"`

	BreakerFailureThreshold int `toml:"breaker_failure_threshold"`
	BreakerRecoverySeconds  int `toml:"breaker_recovery_seconds"`
	BreakerProbeRequired    int `toml:"breaker_probe_required"`
	BreakerProbeCapacity    int `toml:"breaker_probe_capacity"`

	MaxTokens                int     `toml:"max_tokens"`
	GenerationTimeoutSeconds int     `toml:"generation_timeout_seconds"`
	Temperature              float64 `toml:"temperature"`

	RelevanceMinScore   float64 `toml:"relevance_min_score"`
	RelevanceMinMatches int     `toml:"relevance_min_matches"`

	WorkspaceRoot       string   `toml:"workspace_root"`
	AllowedExtensions   []string `toml:"allowed_extensions"`
	DeniedPathPatterns  []string `toml:"denied_path_patterns"`
	MaxFileBytes        int64    `toml:"max_file_bytes"`
	FileReadBudgetMS    int64    `toml:"file_read_budget_ms"`

	PromptInjectionPhrases []string `toml:"prompt_injection_phrases"`

	// DynamicDisabled forces the static-only mode described in §6
	// ("force static-only mode by setting static_threshold to 0" is the
	// caller-visible knob; this flag additionally disables the generative
	// path entirely, e.g. for environments with no LLM host configured).
	DynamicDisabled bool `toml:"dynamic_disabled"`
}

// DefaultConfig returns the documented defaults from the external
// interface section.
func DefaultConfig() Config {
	return Config{
		StaticThreshold: 0.7,
		HybridThreshold: 0.4,

		CacheTTLSeconds: 3600,
		CacheCapacity:   100,

		RateCapacity:        10,
		RateRefillPerMinute: 60,
		RateMaxBuckets:      10_000,
		RateRetainBuckets:   2_000,

		BreakerFailureThreshold: 5,
		BreakerRecoverySeconds:  60,
		BreakerProbeRequired:    2,
		BreakerProbeCapacity:    2,

		MaxTokens:                1000,
		GenerationTimeoutSeconds: 30,
		Temperature:              0.7,

		RelevanceMinScore:   0.3,
		RelevanceMinMatches: 2,

		WorkspaceRoot:      ".",
		AllowedExtensions:  []string{".go", ".md", ".txt", ".yaml", ".yml", ".json", ".toml"},
		DeniedPathPatterns: []string{".git/", ".ssh/", ".aws/", ".env", "id_rsa", "id_ed25519", ".netrc"},
		MaxFileBytes:       10 * 1024 * 1024,
		FileReadBudgetMS:   200,

		PromptInjectionPhrases: []string{
			"ignore previous instructions",
			"ignore all previous instructions",
			"disregard the above",
			"you are now",
			"act as",
			"system prompt:",
			"new instructions:",
		},
	}
}

func (c Config) refillRate() float64 {
	return float64(c.RateRefillPerMinute) / 60.0
}

func (c Config) cacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) breakerRecovery() time.Duration {
	return time.Duration(c.BreakerRecoverySeconds) * time.Second
}

func (c Config) generationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// LoadConfigFile reads a TOML file over the defaults. Missing file is not
// an error — defaults are returned unchanged, matching the teacher's
// "config > env > file > defaults" layered-load idiom.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// configSnapshot is the atomically-swapped config holder described in the
// concurrency model: readers never see a partially-written config.
type configSnapshot struct {
	ptr atomic.Pointer[Config]
}

func newConfigSnapshot(cfg Config) *configSnapshot {
	s := &configSnapshot{}
	s.Store(cfg)
	return s
}

func (s *configSnapshot) Load() Config {
	return *s.ptr.Load()
}

func (s *configSnapshot) Store(cfg Config) {
	c := cfg
	s.ptr.Store(&c)
}

// WatchConfigFile watches path for writes and swaps the Core's config
// snapshot atomically on each change. Modeled on the teacher's fsnotify
// watch loop; errors reading the changed file are logged and the
// previous snapshot is kept in place rather than torn down.
func (c *Core) WatchConfigFile(path string) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadConfigFile(path)
				if err != nil {
					c.logger.Warn("config reload failed, keeping previous snapshot", zap.Error(err))
					continue
				}
				c.config.Store(cfg)
				c.logger.Info("config reloaded", zap.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	return watcher.Close, nil
}
