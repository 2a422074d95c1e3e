package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research service.
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Research ResearchConfig `mapstructure:"research"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Trust    TrustConfig    `mapstructure:"trust"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// LLMConfig contains completion-service settings.
type LLMConfig struct {
	APIKey  string           `mapstructure:"api_key"`
	BaseURL string           `mapstructure:"base_url"`
	Timeout time.Duration    `mapstructure:"timeout"`
	Routing LLMRoutingConfig `mapstructure:"routing"`
}

// LLMRoutingConfig defines which model each pipeline stage uses.
type LLMRoutingConfig struct {
	Planning  string `mapstructure:"planning"`
	Analysis  string `mapstructure:"analysis"`
	Synthesis string `mapstructure:"synthesis"`
	Reporting string `mapstructure:"reporting"`
}

// ResearchConfig tunes the orchestration pipeline.
type ResearchConfig struct {
	// SubQueries maps a depth tier to the number of planned sub-queries.
	SubQueries map[string]int `mapstructure:"sub_queries"`
	// AnalysisTopK maps a depth tier to how many ranked sources the
	// analysis stage reads in full.
	AnalysisTopK map[string]int `mapstructure:"analysis_top_k"`
	// PolitenessDelay is the pause between sub-query fan-outs. Courtesy
	// pacing only, not a rate limiter.
	PolitenessDelay   time.Duration `mapstructure:"politeness_delay"`
	MaxResultsPerCall int           `mapstructure:"max_results_per_call"`
	EventBuffer       int           `mapstructure:"event_buffer"`
	MinQueryLength    int           `mapstructure:"min_query_length"`
}

// SourcesConfig enables and configures the search adapters.
type SourcesConfig struct {
	Brave      BraveConfig   `mapstructure:"brave"`
	Serper     SerperConfig  `mapstructure:"serper"`
	Wikipedia  ToggleConfig  `mapstructure:"wikipedia"`
	Arxiv      ToggleConfig  `mapstructure:"arxiv"`
	HackerNews ToggleConfig  `mapstructure:"hackernews"`
	GitHub     GitHubConfig  `mapstructure:"github"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// BraveConfig contains Brave web search settings.
type BraveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// SerperConfig contains Serper web search settings.
type SerperConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// GitHubConfig contains GitHub code search settings.
type GitHubConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// ToggleConfig covers adapters that need no credentials.
type ToggleConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TrustConfig externalizes the reliability classification tables so the
// classifier stays a pure function over data.
type TrustConfig struct {
	HighDomains   []string           `mapstructure:"high_domains"`
	MediumDomains []string           `mapstructure:"medium_domains"`
	HighSuffixes  []string           `mapstructure:"high_suffixes"`
	TierWeights   map[string]float64 `mapstructure:"tier_weights"`
	TypeWeights   map[string]float64 `mapstructure:"type_weights"`
}

// ExtractConfig bounds the content extractor.
type ExtractConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRedirects   int           `mapstructure:"max_redirects"`
	MinRegionChars int           `mapstructure:"min_region_chars"`
	MinBodyChars   int           `mapstructure:"min_body_chars"`
	MaxChars       int           `mapstructure:"max_chars"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// ServerConfig contains HTTP boundary settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// StorageConfig contains result persistence settings.
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("deepresearch")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEEPRESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.default_timeout", "30s")

	v.SetDefault("llm.timeout", "2m")
	v.SetDefault("llm.routing.planning", "gpt-4o")
	v.SetDefault("llm.routing.analysis", "gpt-4o-mini")
	v.SetDefault("llm.routing.synthesis", "gpt-4o")
	v.SetDefault("llm.routing.reporting", "gpt-4o")

	v.SetDefault("research.sub_queries", map[string]int{
		"quick": 4, "standard": 6, "deep": 10,
	})
	v.SetDefault("research.analysis_top_k", map[string]int{
		"quick": 8, "standard": 10, "deep": 12,
	})
	v.SetDefault("research.politeness_delay", "300ms")
	v.SetDefault("research.max_results_per_call", 5)
	v.SetDefault("research.event_buffer", 256)
	v.SetDefault("research.min_query_length", 3)

	v.SetDefault("sources.timeout", "15s")
	v.SetDefault("sources.wikipedia.enabled", true)
	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.hackernews.enabled", true)
	v.SetDefault("sources.github.enabled", true)
	v.SetDefault("sources.brave.enabled", false)
	v.SetDefault("sources.serper.enabled", false)

	v.SetDefault("trust.high_domains", []string{
		"nature.com", "science.org", "acm.org", "ieee.org",
		"nist.gov", "who.int", "reuters.com", "apnews.com",
	})
	v.SetDefault("trust.medium_domains", []string{
		"medium.com", "substack.com", "stackoverflow.com",
		"news.ycombinator.com", "github.com", "wired.com", "arstechnica.com",
	})
	v.SetDefault("trust.high_suffixes", []string{".gov", ".edu"})
	v.SetDefault("trust.tier_weights", map[string]float64{
		"high": 3.0, "medium": 2.0, "baseline": 1.0,
	})
	v.SetDefault("trust.type_weights", map[string]float64{
		"academic": 2.0, "encyclopedia": 1.5, "web": 1.0,
		"code": 0.9, "discussion": 0.8,
	})

	v.SetDefault("extract.timeout", "20s")
	v.SetDefault("extract.max_redirects", 5)
	v.SetDefault("extract.min_region_chars", 250)
	v.SetDefault("extract.min_body_chars", 200)
	v.SetDefault("extract.max_chars", 8000)
	v.SetDefault("extract.user_agent", "deepresearch/1.0 (+https://github.com/quorralabs/deepresearch)")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("storage.redis.addr", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.ttl", "72h")
}

// overrideFromEnv maps well-known environment variables for sensitive data.
func overrideFromEnv(v *viper.Viper) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		v.Set("llm.api_key", key)
	}
	if key := os.Getenv("BRAVE_SEARCH_KEY"); key != "" {
		v.Set("sources.brave.api_key", key)
		v.Set("sources.brave.enabled", true)
	}
	if key := os.Getenv("SERPER_API_KEY"); key != "" {
		v.Set("sources.serper.api_key", key)
		v.Set("sources.serper.enabled", true)
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		v.Set("sources.github.token", token)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		v.Set("storage.redis.addr", addr)
	}
}

func validateConfig(cfg *Config) error {
	for _, depth := range []string{"quick", "standard", "deep"} {
		if cfg.Research.SubQueries[depth] <= 0 {
			return fmt.Errorf("research.sub_queries.%s must be positive", depth)
		}
		if cfg.Research.AnalysisTopK[depth] <= 0 {
			return fmt.Errorf("research.analysis_top_k.%s must be positive", depth)
		}
	}
	if cfg.Extract.MaxChars <= 0 {
		return fmt.Errorf("extract.max_chars must be positive")
	}
	if cfg.Research.EventBuffer <= 0 {
		return fmt.Errorf("research.event_buffer must be positive")
	}
	return nil
}
