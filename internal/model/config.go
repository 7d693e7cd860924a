package model

import "time"

// Config is the complete finsent configuration
type Config struct {
	Ingestion    IngestionConfig    `mapstructure:"ingestion"     yaml:"ingestion"`
	Search       SearchConfig       `mapstructure:"search"        yaml:"search"`
	HTTP         HTTPConfig         `mapstructure:"http"          yaml:"http"`
	Cache        CacheConfig        `mapstructure:"cache"         yaml:"cache"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency"   yaml:"concurrency"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Sentiment    SentimentConfig    `mapstructure:"sentiment"     yaml:"sentiment"`
	LLM          LLMConfig          `mapstructure:"llm"           yaml:"llm"`
	Database     DatabaseConfig     `mapstructure:"database"      yaml:"database"`
	Queue        QueueConfig        `mapstructure:"queue"         yaml:"queue"`
	Artifacts    ArtifactsConfig    `mapstructure:"artifacts"     yaml:"artifacts"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"      yaml:"schedule"`
	API          APIConfig          `mapstructure:"api"           yaml:"api"`
	Logging      LoggingConfig      `mapstructure:"logging"       yaml:"logging"`
}

// IngestionConfig controls what gets searched by default
type IngestionConfig struct {
	RootDir       string   `mapstructure:"root_dir"       yaml:"root_dir"`
	Queries       []string `mapstructure:"queries"        yaml:"queries"`
	FallbackQuery string   `mapstructure:"fallback_query" yaml:"fallback_query"`
	Country       string   `mapstructure:"country"        yaml:"country"`
	Category      string   `mapstructure:"category"       yaml:"category"`
	Language      string   `mapstructure:"language"       yaml:"language"`
	Limit         int      `mapstructure:"limit"          yaml:"limit"`
	FanOut        bool     `mapstructure:"fan_out"        yaml:"fan_out"` // One search per term instead of one OR query
}

// SearchConfig selects and configures the search backend
type SearchConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider"` // newsdata, rss
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey   string        `mapstructure:"api_key"  yaml:"api_key,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout"  yaml:"timeout"`
	Feeds    []string      `mapstructure:"feeds"    yaml:"feeds"`
}

// HTTPConfig controls article page fetching
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"     yaml:"user_agent"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	InsecureTLS   bool          `mapstructure:"insecure_tls"   yaml:"insecure_tls"`
	HTTPProxy     string        `mapstructure:"http_proxy"     yaml:"http_proxy"`
	HTTPSProxy    string        `mapstructure:"https_proxy"    yaml:"https_proxy"`
	NoProxy       string        `mapstructure:"no_proxy"       yaml:"no_proxy"`
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	Renderer      string        `mapstructure:"renderer"       yaml:"renderer"` // http, browser
	BrowserBin    string        `mapstructure:"browser_bin"    yaml:"browser_bin"`
}

// CacheConfig controls the search/page cache
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"    yaml:"enabled"`
	Dir       string        `mapstructure:"dir"        yaml:"dir"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl"   yaml:"disk_ttl"`
}

// ConcurrencyConfig bounds per-item parallelism
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// RateLimitingConfig is applied per article domain
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst"               yaml:"burst"`
}

// SentimentConfig configures the classification model
type SentimentConfig struct {
	ModelName string        `mapstructure:"model_name" yaml:"model_name"`
	MaxLength int           `mapstructure:"max_length" yaml:"max_length"`
	Backend   string        `mapstructure:"backend"    yaml:"backend"` // lexicon, huggingface
	BaseURL   string        `mapstructure:"base_url"   yaml:"base_url"`
	APIToken  string        `mapstructure:"api_token"  yaml:"api_token,omitempty"`
	Timeout   time.Duration `mapstructure:"timeout"    yaml:"timeout"`
	RootDir   string        `mapstructure:"root_dir"   yaml:"root_dir"`
}

// LLMConfig configures the optional explanation stage
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"    yaml:"provider"` // openai, anthropic, ollama, gemini; empty disables
	Model       string        `mapstructure:"model"       yaml:"model"`
	APIKey      string        `mapstructure:"api_key"     yaml:"api_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url"    yaml:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"     yaml:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
}

// DatabaseConfig configures the persistence adapter
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"   yaml:"enabled"`
	Driver   string `mapstructure:"driver"    yaml:"driver"` // postgres, sqlite
	DSN      string `mapstructure:"dsn"       yaml:"dsn,omitempty"`
	Host     string `mapstructure:"host"      yaml:"host"`
	Port     int    `mapstructure:"port"      yaml:"port"`
	Name     string `mapstructure:"name"      yaml:"name"`
	User     string `mapstructure:"user"      yaml:"user"`
	Password string `mapstructure:"password"  yaml:"password,omitempty"`
	SSLMode  string `mapstructure:"ssl_mode"  yaml:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size" yaml:"pool_size"`
}

// QueueConfig configures the Redis scoring queue
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"  yaml:"enabled"`
	Addr     string `mapstructure:"addr"     yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db"       yaml:"db"`
	Key      string `mapstructure:"key"      yaml:"key"`
}

// ArtifactsConfig selects where JSON artifacts are written
type ArtifactsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Backend string `mapstructure:"backend" yaml:"backend"` // local, gcs
	Bucket  string `mapstructure:"bucket"  yaml:"bucket"`
	Prefix  string `mapstructure:"prefix"  yaml:"prefix"`
}

// ScheduleConfig configures periodic runs
type ScheduleConfig struct {
	Cron string `mapstructure:"cron" yaml:"cron"`
}

// APIConfig configures the HTTP surface
type APIConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Ingestion: IngestionConfig{
			RootDir:       "artifacts/data_ingestion",
			FallbackQuery: "finance",
			Country:       "in",
			Category:      "business",
			Language:      "en",
			Limit:         5,
		},
		Search: SearchConfig{
			Provider: "newsdata",
			BaseURL:  "https://newsdata.io/api/1",
			Timeout:  20 * time.Second,
			Feeds: []string{
				"https://www.moneycontrol.com/rss/marketreports.xml",
				"https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms",
				"https://www.livemint.com/rss/markets",
				"https://www.business-standard.com/rss/markets-106.rss",
			},
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Mozilla/5.0 (compatible; finsent/0.3; +https://github.com/ppiankov/finsent)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			Renderer:      "http",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".finsent-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Sentiment: SentimentConfig{
			ModelName: "ProsusAI/finbert",
			MaxLength: 512,
			Backend:   "lexicon",
			BaseURL:   "https://api-inference.huggingface.co",
			Timeout:   30 * time.Second,
			RootDir:   "artifacts/sentiment_analysis",
		},
		LLM: LLMConfig{
			Timeout:     60 * time.Second,
			MaxTokens:   1000,
			Temperature: 0.1,
		},
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			Name:     "finews",
			User:     "finews",
			SSLMode:  "disable",
			PoolSize: 5,
		},
		Queue: QueueConfig{
			Addr: "localhost:6379",
			Key:  "finsent:score",
		},
		Artifacts: ArtifactsConfig{
			Enabled: true,
			Backend: "local",
		},
		Schedule: ScheduleConfig{
			Cron: "*/30 * * * *",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
