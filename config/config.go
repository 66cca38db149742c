// Package config loads govcrawl settings from defaults, an optional YAML
// file, GOVCRAWL_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/gaurav-prasanna/govcrawl/core/dispatch"
	"github.com/gaurav-prasanna/govcrawl/core/extract"
	"github.com/gaurav-prasanna/govcrawl/core/fetch"
	"github.com/gaurav-prasanna/govcrawl/core/ledger"
	"github.com/gaurav-prasanna/govcrawl/core/output"
	"github.com/gaurav-prasanna/govcrawl/core/render"
	"github.com/gaurav-prasanna/govcrawl/crawl"
	"github.com/gaurav-prasanna/govcrawl/logging"
	"github.com/spf13/viper"
)

// ErrInvalid marks configuration that fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Renderers.
const (
	RendererHTTP    = "http"
	RendererBrowser = "browser"
)

// EnvPrefix prefixes every environment override, e.g. GOVCRAWL_FETCH_BATCH_SIZE.
const EnvPrefix = "GOVCRAWL"

// Config stores all configuration for the application.
type Config struct {
	WorkDir   string          `mapstructure:"work_dir"`
	UserAgent string          `mapstructure:"user_agent"`
	Log       logging.Options `mapstructure:"log"`
	Origins   []core.Origin   `mapstructure:"origins"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Combine   CombineConfig   `mapstructure:"combine"`
}

// SeedConfig controls URL discovery.
type SeedConfig struct {
	Source       string        `mapstructure:"source"`
	MaxURLs      int           `mapstructure:"max_urls"`
	Concurrency  int           `mapstructure:"concurrency"`
	MaxLinkPages int           `mapstructure:"max_link_pages"`
	CollInfoURL  string        `mapstructure:"collinfo_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// FetchConfig controls the content fetcher.
type FetchConfig struct {
	BatchSize        int           `mapstructure:"batch_size"`
	BatchDelay       time.Duration `mapstructure:"batch_delay"`
	PDFDelay         time.Duration `mapstructure:"pdf_delay"`
	OriginDelay      time.Duration `mapstructure:"origin_delay"`
	PageTimeout      time.Duration `mapstructure:"page_timeout"`
	PDFTimeout       time.Duration `mapstructure:"pdf_timeout"`
	Parallelism      int           `mapstructure:"parallelism"`
	Renderer         string        `mapstructure:"renderer"`
	Reverse          bool          `mapstructure:"reverse"`
	Resume           bool          `mapstructure:"resume"`
	MinContentLength int           `mapstructure:"min_content_length"`
	ExcludedTags     []string      `mapstructure:"excluded_tags"`
	Source           string        `mapstructure:"source"`
	Prune            PruneConfig   `mapstructure:"prune"`
}

// PruneConfig tunes the text-density pruning filter.
type PruneConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	Dynamic   bool    `mapstructure:"dynamic"`
	MinWords  int     `mapstructure:"min_words"`
}

// RateLimitConfig sets politeness delays and retry backoff for HTML requests.
type RateLimitConfig struct {
	BaseDelayMin time.Duration `mapstructure:"base_delay_min"`
	BaseDelayMax time.Duration `mapstructure:"base_delay_max"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	MaxRetries   int           `mapstructure:"max_retries"`
	Codes        []int         `mapstructure:"codes"`
}

// LedgerConfig selects where processed URLs are recorded.
type LedgerConfig struct {
	Kind        string `mapstructure:"kind"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// MirrorConfig enables optional database copies of every document.
type MirrorConfig struct {
	PostgresURL     string `mapstructure:"postgres_url"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection"`
}

// MetricsConfig sets the Prometheus listen address; empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// CombineConfig names the merged corpus file.
type CombineConfig struct {
	Output string `mapstructure:"output"`
}

// DefaultOrigins are the ten provincial government portals.
var DefaultOrigins = []core.Origin{
	{Name: "British_Columbia", URL: "https://www2.gov.bc.ca/gov/content/home"},
	{Name: "Alberta", URL: "https://www.alberta.ca/"},
	{Name: "Saskatchewan", URL: "https://www.saskatchewan.ca/"},
	{Name: "Manitoba", URL: "https://manitoba.ca/"},
	{Name: "Ontario", URL: "https://www.ontario.ca/"},
	{Name: "Quebec", URL: "https://www.quebec.ca/en"},
	{Name: "New_Brunswick", URL: "https://www.gnb.ca/index.html"},
	{Name: "Prince_Edward_Island", URL: "https://www.princeedwardisland.ca/en"},
	{Name: "Nova_Scotia", URL: "https://novascotia.ca/"},
	{Name: "Newfoundland_and_Labrador", URL: "https://www.gov.nl.ca/"},
}

// New returns a viper instance with defaults, environment binding and, when
// present, the config file loaded. An empty configFile looks for
// govcrawl.yaml in the working directory and is optional.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName("govcrawl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("work_dir", ".")
	v.SetDefault("user_agent", fetch.DefaultUserAgent)
	v.SetDefault("origins", DefaultOrigins)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 15)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("seed.source", crawl.SourceSitemap+"+"+crawl.SourceCommonCrawl)
	v.SetDefault("seed.max_urls", 50000)
	v.SetDefault("seed.concurrency", 100)
	v.SetDefault("seed.max_link_pages", crawl.DefaultMaxLinkPages)
	v.SetDefault("seed.collinfo_url", crawl.DefaultCollInfoURL)
	v.SetDefault("seed.timeout", "60s")

	v.SetDefault("fetch.batch_size", 50)
	v.SetDefault("fetch.batch_delay", "2s")
	v.SetDefault("fetch.pdf_delay", "2s")
	v.SetDefault("fetch.origin_delay", "5s")
	v.SetDefault("fetch.page_timeout", "30s")
	v.SetDefault("fetch.pdf_timeout", "45s")
	v.SetDefault("fetch.parallelism", 20)
	v.SetDefault("fetch.renderer", RendererHTTP)
	v.SetDefault("fetch.reverse", false)
	v.SetDefault("fetch.resume", false)
	v.SetDefault("fetch.min_content_length", 50)
	v.SetDefault("fetch.excluded_tags", extract.DefaultExcludedTags)
	v.SetDefault("fetch.source", render.DefaultSource)
	v.SetDefault("fetch.prune.threshold", extract.DefaultThreshold)
	v.SetDefault("fetch.prune.dynamic", true)
	v.SetDefault("fetch.prune.min_words", extract.DefaultMinWords)

	v.SetDefault("rate_limit.base_delay_min", dispatch.DefaultBaseDelayMin.String())
	v.SetDefault("rate_limit.base_delay_max", dispatch.DefaultBaseDelayMax.String())
	v.SetDefault("rate_limit.max_delay", dispatch.DefaultMaxDelay.String())
	v.SetDefault("rate_limit.max_retries", dispatch.DefaultMaxRetries)
	v.SetDefault("rate_limit.codes", dispatch.DefaultRetryCodes)

	v.SetDefault("ledger.kind", ledger.KindFile)
	v.SetDefault("ledger.redis_addr", "localhost:6379")
	v.SetDefault("ledger.redis_prefix", "govcrawl")

	v.SetDefault("mirror.postgres_url", "")
	v.SetDefault("mirror.mongo_uri", "")
	v.SetDefault("mirror.mongo_database", "govcrawl")
	v.SetDefault("mirror.mongo_collection", "rag_documents")

	v.SetDefault("metrics.addr", "")
	v.SetDefault("combine.output", output.CombinedName)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if len(c.Origins) == 0 {
		invalid("at least one origin is required")
	}
	names := make(map[string]bool, len(c.Origins))
	for i, o := range c.Origins {
		if o.Name == "" || o.URL == "" {
			invalid("origin %d needs both name and url", i)
			continue
		}
		if names[strings.ToLower(o.Name)] {
			invalid("duplicate origin %q", o.Name)
		}
		names[strings.ToLower(o.Name)] = true
	}

	if _, err := crawl.ParseSources(c.Seed.Source); err != nil {
		invalid("seed.source: %v", err)
	}
	if c.Seed.Concurrency <= 0 {
		invalid("seed.concurrency must be positive")
	}
	if c.Fetch.BatchSize <= 0 {
		invalid("fetch.batch_size must be positive")
	}
	if c.Fetch.Parallelism <= 0 {
		invalid("fetch.parallelism must be positive")
	}
	if c.Fetch.Renderer != RendererHTTP && c.Fetch.Renderer != RendererBrowser {
		invalid("fetch.renderer must be %q or %q, got %q", RendererHTTP, RendererBrowser, c.Fetch.Renderer)
	}
	if c.Fetch.MinContentLength < 0 {
		invalid("fetch.min_content_length must not be negative")
	}
	if c.RateLimit.BaseDelayMax < c.RateLimit.BaseDelayMin {
		invalid("rate_limit.base_delay_max is below base_delay_min")
	}
	if c.RateLimit.MaxRetries < 0 {
		invalid("rate_limit.max_retries must not be negative")
	}
	switch c.Ledger.Kind {
	case ledger.KindFile:
	case ledger.KindRedis:
		if c.Ledger.RedisAddr == "" {
			invalid("ledger.redis_addr is required for the redis ledger")
		}
	default:
		invalid("ledger.kind must be %q or %q, got %q", ledger.KindFile, ledger.KindRedis, c.Ledger.Kind)
	}

	return errors.Join(errs...)
}

// SelectOrigins returns the configured origins named in names (matched
// case-insensitively), or all of them when names is empty.
func (c *Config) SelectOrigins(names []string) ([]core.Origin, error) {
	if len(names) == 0 {
		return c.Origins, nil
	}
	var selected []core.Origin
	for _, name := range names {
		found := false
		for _, o := range c.Origins {
			if strings.EqualFold(o.Name, name) {
				selected = append(selected, o)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown origin %q", name)
		}
	}
	return selected, nil
}
