package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Source types understood by the adapter registry.
const (
	SourceHN             = "hn"
	SourceYC             = "yc"
	SourceWellfound      = "wellfound"
	SourceRemoteOK       = "remoteok"
	SourceWeWorkRemotely = "weworkremotely"
	SourceGreenhouse     = "greenhouse"
	SourceLever          = "lever"
	SourceA16Z           = "a16z"
	SourceWorkAtAStartup = "workatastartup"
)

// Render modes for HTML sources.
const (
	RenderHTTP    = "http"
	RenderBrowser = "browser"
)

// Output formats for published copies.
const (
	FormatObject = "object"
	FormatLegacy = "legacy"
)

var knownSourceTypes = map[string]bool{
	SourceHN:             true,
	SourceYC:             true,
	SourceWellfound:      true,
	SourceRemoteOK:       true,
	SourceWeWorkRemotely: true,
	SourceGreenhouse:     true,
	SourceLever:          true,
	SourceA16Z:           true,
	SourceWorkAtAStartup: true,
}

// Config is the root configuration for the aggregator.
type Config struct {
	Schedule     string
	Fetch        FetchConfig
	Sources      []SourceConfig
	Scoring      ScoringConfig
	Dedup        DedupConfig
	Output       OutputConfig
	Notification NotificationConfig
	Mirror       MirrorConfig
	Store        StoreConfig
	Browse       BrowseConfig
}

// FetchConfig controls how source adapters talk to the network.
type FetchConfig struct {
	Timeout    time.Duration // per-source budget; a timeout means zero results from that source
	Parallel   int           // max adapters running at once
	Retries    int           // additional attempts after a transient failure
	RetryDelay time.Duration // base backoff delay, doubled per attempt
	MinDelay   time.Duration // minimum gap between requests to the same site
	UserAgent  string
}

// SourceConfig describes one job site or thread to scrape.
type SourceConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	URL        string `yaml:"url"`
	BoardToken string `yaml:"board_token"` // greenhouse / lever
	Company    string `yaml:"company"`     // greenhouse / lever display name
	Render     string `yaml:"render"`      // "http" (default) or "browser"
	Enabled    bool   `yaml:"enabled"`
}

// ScoringConfig holds the hidden-score policy constants.
type ScoringConfig struct {
	DefaultWeight int
	DayBonus      int
	WeekBonus     int
	Weights       map[string]int // keyed by lower-cased source name
}

// DedupConfig holds fuzzy duplicate thresholds. CompanyThreshold may be 0,
// which turns the secondary company-and-title rule off; the others are in (0, 1].
type DedupConfig struct {
	Threshold        float64 // company|title key similarity
	CompanyThreshold float64 // company-only similarity for the secondary rule, 0 = off
	TitleThreshold   float64 // title similarity required alongside CompanyThreshold
}

// OutputConfig controls where and how the artifact is written.
type OutputConfig struct {
	Path           string
	IncludeRawText bool
	Copies         []CopyConfig
}

// CopyConfig is an additional published file (legacy or location-specific).
type CopyConfig struct {
	Path     string `yaml:"path"`
	Format   string `yaml:"format"`   // "object" (default) or "legacy"
	Location string `yaml:"location"` // optional case-insensitive location substring
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	MaxJobs    int    `yaml:"max_jobs"`    // cap on postings per alert
}

// MirrorConfig enables optional copies of the artifact in Redis and Postgres.
type MirrorConfig struct {
	RedisURL    string `yaml:"redis_url"`
	RedisKey    string `yaml:"redis_key"`
	PostgresURL string `yaml:"postgres_url"`
}

// StoreConfig locates the saved-jobs database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// BrowseConfig controls the terminal browser.
type BrowseConfig struct {
	PageSize int `yaml:"page_size"`
}

// DefaultWeights is the source weight table. Entries in scoring.weights
// override or extend it. Forum threads rank highest, curated boards lower,
// generic aggregators lowest.
var DefaultWeights = map[string]int{
	"hn":              90,
	"hackernews":      90,
	"hn who's hiring": 90,
	"yc":              80,
	"ycombinator":     80,
	"workatastartup":  80,
	"wellfound":       70,
	"angellist":       70,
	"a16z":            70,
	"remoteok":        60,
	"weworkremotely":  50,
	"greenhouse":      40,
	"lever":           40,
}

const (
	defaultSchedule      = "@every 6h"
	defaultUserAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultOutputPath    = "jobs.json"
	defaultRedisKey      = "hiddenjobs:artifact"
	defaultStorePath     = "saved.db"
	defaultPageSize      = 20
	defaultMaxNotify     = 10
	defaultDefaultWeight = 20
	defaultDayBonus      = 10
	defaultWeekBonus     = 5
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Schedule     string             `yaml:"schedule"`
	Fetch        rawFetchConfig     `yaml:"fetch"`
	Sources      []SourceConfig     `yaml:"sources"`
	Scoring      rawScoringConfig   `yaml:"scoring"`
	Dedup        rawDedupConfig     `yaml:"dedup"`
	Output       rawOutputConfig    `yaml:"output"`
	Notification NotificationConfig `yaml:"notification"`
	Mirror       MirrorConfig       `yaml:"mirror"`
	Store        StoreConfig        `yaml:"store"`
	Browse       BrowseConfig       `yaml:"browse"`
}

type rawFetchConfig struct {
	Timeout    string `yaml:"timeout"`
	Parallel   int    `yaml:"parallel"`
	Retries    *int   `yaml:"retries"`
	RetryDelay string `yaml:"retry_delay"`
	MinDelay   string `yaml:"min_delay"`
	UserAgent  string `yaml:"user_agent"`
}

type rawScoringConfig struct {
	DefaultWeight *int           `yaml:"default_weight"`
	DayBonus      *int           `yaml:"day_bonus"`
	WeekBonus     *int           `yaml:"week_bonus"`
	Weights       map[string]int `yaml:"weights"`
}

type rawDedupConfig struct {
	Threshold        float64  `yaml:"threshold"`
	CompanyThreshold *float64 `yaml:"company_threshold"`
	TitleThreshold   float64  `yaml:"title_threshold"`
}

type rawOutputConfig struct {
	Path           string       `yaml:"path"`
	IncludeRawText bool         `yaml:"include_raw_text"`
	Copies         []CopyConfig `yaml:"copies"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// A .env file next to the working directory is loaded first so ${VAR} references resolve.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes, expanding environment variables.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	fetch, err := buildFetch(raw.Fetch)
	if err != nil {
		return nil, err
	}

	schedule := raw.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}

	sources := make([]SourceConfig, len(raw.Sources))
	for i, s := range raw.Sources {
		s.Type = strings.ToLower(strings.TrimSpace(s.Type))
		if s.Name == "" {
			s.Name = s.Type
		}
		if s.Render == "" {
			s.Render = RenderHTTP
		}
		sources[i] = s
	}

	copies := make([]CopyConfig, len(raw.Output.Copies))
	for i, c := range raw.Output.Copies {
		if c.Format == "" {
			c.Format = FormatObject
		}
		copies[i] = c
	}

	outputPath := raw.Output.Path
	if outputPath == "" {
		outputPath = defaultOutputPath
	}

	notification := raw.Notification
	if notification.Type == "" {
		notification.Type = "log"
	}
	if notification.MaxJobs == 0 {
		notification.MaxJobs = defaultMaxNotify
	}

	mirror := raw.Mirror
	if mirror.RedisKey == "" {
		mirror.RedisKey = defaultRedisKey
	}

	storeCfg := raw.Store
	if storeCfg.Path == "" {
		storeCfg.Path = defaultStorePath
	}

	browse := raw.Browse
	if browse.PageSize == 0 {
		browse.PageSize = defaultPageSize
	}

	cfg := &Config{
		Schedule: schedule,
		Fetch:    fetch,
		Sources:  sources,
		Scoring:  buildScoring(raw.Scoring),
		Dedup: DedupConfig{
			Threshold:        orDefault(raw.Dedup.Threshold, 0.85),
			CompanyThreshold: derefOr(raw.Dedup.CompanyThreshold, 0),
			TitleThreshold:   orDefault(raw.Dedup.TitleThreshold, 0.70),
		},
		Output: OutputConfig{
			Path:           outputPath,
			IncludeRawText: raw.Output.IncludeRawText,
			Copies:         copies,
		},
		Notification: notification,
		Mirror:       mirror,
		Store:        storeCfg,
		Browse:       browse,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func buildFetch(raw rawFetchConfig) (FetchConfig, error) {
	var err error

	timeout := 30 * time.Second
	if raw.Timeout != "" {
		timeout, err = time.ParseDuration(raw.Timeout)
		if err != nil {
			return FetchConfig{}, fmt.Errorf("parse fetch.timeout %q: %w", raw.Timeout, err)
		}
	}

	retryDelay := 5 * time.Second
	if raw.RetryDelay != "" {
		retryDelay, err = time.ParseDuration(raw.RetryDelay)
		if err != nil {
			return FetchConfig{}, fmt.Errorf("parse fetch.retry_delay %q: %w", raw.RetryDelay, err)
		}
	}

	minDelay := 1 * time.Second
	if raw.MinDelay != "" {
		minDelay, err = time.ParseDuration(raw.MinDelay)
		if err != nil {
			return FetchConfig{}, fmt.Errorf("parse fetch.min_delay %q: %w", raw.MinDelay, err)
		}
	}

	retries := 2
	if raw.Retries != nil {
		retries = *raw.Retries
	}

	parallel := raw.Parallel
	if parallel == 0 {
		parallel = 4
	}

	userAgent := raw.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return FetchConfig{
		Timeout:    timeout,
		Parallel:   parallel,
		Retries:    retries,
		RetryDelay: retryDelay,
		MinDelay:   minDelay,
		UserAgent:  userAgent,
	}, nil
}

func buildScoring(raw rawScoringConfig) ScoringConfig {
	weights := make(map[string]int, len(DefaultWeights)+len(raw.Weights))
	for k, v := range DefaultWeights {
		weights[k] = v
	}
	for k, v := range raw.Weights {
		weights[strings.ToLower(strings.TrimSpace(k))] = v
	}

	sc := ScoringConfig{
		DefaultWeight: defaultDefaultWeight,
		DayBonus:      defaultDayBonus,
		WeekBonus:     defaultWeekBonus,
		Weights:       weights,
	}
	if raw.DefaultWeight != nil {
		sc.DefaultWeight = *raw.DefaultWeight
	}
	if raw.DayBonus != nil {
		sc.DayBonus = *raw.DayBonus
	}
	if raw.WeekBonus != nil {
		sc.WeekBonus = *raw.WeekBonus
	}
	return sc
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func derefOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func validate(cfg *Config) error {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}

	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.Parallel < 1 {
		return fmt.Errorf("fetch.parallel must be at least 1, got %d", cfg.Fetch.Parallel)
	}
	if cfg.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must not be negative, got %d", cfg.Fetch.Retries)
	}

	enabled := 0
	for _, s := range cfg.Sources {
		if !knownSourceTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q", s.Name, s.Type)
		}
		if s.Render != RenderHTTP && s.Render != RenderBrowser {
			return fmt.Errorf("source %q: render must be %q or %q, got %q", s.Name, RenderHTTP, RenderBrowser, s.Render)
		}
		switch s.Type {
		case SourceHN:
			if s.URL == "" {
				return fmt.Errorf("source %q: url is required for hn threads", s.Name)
			}
		case SourceGreenhouse, SourceLever:
			if s.BoardToken == "" || s.Company == "" {
				return fmt.Errorf("source %q: board_token and company are required for %s", s.Name, s.Type)
			}
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	for name, w := range cfg.Scoring.Weights {
		if w < 0 || w > 100 {
			return fmt.Errorf("scoring.weights[%q] must be between 0 and 100, got %d", name, w)
		}
	}
	if cfg.Scoring.DefaultWeight < 0 || cfg.Scoring.DefaultWeight > 100 {
		return fmt.Errorf("scoring.default_weight must be between 0 and 100, got %d", cfg.Scoring.DefaultWeight)
	}
	// A posting from the last day must never score below an older one.
	if cfg.Scoring.WeekBonus < 0 || cfg.Scoring.DayBonus < cfg.Scoring.WeekBonus {
		return fmt.Errorf("scoring bonuses need day_bonus >= week_bonus >= 0, got day %d, week %d",
			cfg.Scoring.DayBonus, cfg.Scoring.WeekBonus)
	}

	if v := cfg.Dedup.CompanyThreshold; v < 0 || v > 1 {
		return fmt.Errorf("dedup.company_threshold must be in [0, 1], got %v", v)
	}
	for name, v := range map[string]float64{
		"dedup.threshold":       cfg.Dedup.Threshold,
		"dedup.title_threshold": cfg.Dedup.TitleThreshold,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}

	for _, c := range cfg.Output.Copies {
		if c.Path == "" {
			return fmt.Errorf("output.copies: path is required")
		}
		if c.Format != FormatObject && c.Format != FormatLegacy {
			return fmt.Errorf("output.copies[%q]: format must be %q or %q, got %q", c.Path, FormatObject, FormatLegacy, c.Format)
		}
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.Browse.PageSize < 1 {
		return fmt.Errorf("browse.page_size must be at least 1, got %d", cfg.Browse.PageSize)
	}

	return nil
}

// EnabledSources returns the sources with enabled: true, in config order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
