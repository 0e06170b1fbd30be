package configuration

import (
	"time"
)

type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Kie         KieConfig         `yaml:"kie"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Locking     LockingConfig     `yaml:"locking"`
	Idempotency IdempotencyConfig `yaml:"idempotency"`
	Proxy       ProxyConfig       `yaml:"proxy"`
	Network     NetworkConfig     `yaml:"network"`
	Throttler   ThrottlerConfig   `yaml:"throttler"`
	Features    FeaturesConfig    `yaml:"features"`
}

type ServiceConfig struct {
	StartupPort            int `yaml:"startup_port"`
	SystemMetricsPort      int `yaml:"system_metrics_port"`
	ApplicationMetricsPort int `yaml:"application_metrics_port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"time_zone"`
}

type RedisConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type TelegramConfig struct {
	BotToken          string   `yaml:"bot_token"`
	APIEndpoint       string   `yaml:"api_endpoint"`
	PollerTimeout     int      `yaml:"poller_timeout"`
	AllowedUpdates    []string `yaml:"allowed_updates"`
	DiplomatChunkSize int      `yaml:"diplomat_chunk_size"`
	AdminIDs          []int64  `yaml:"admin_ids"`
}

type KieConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxPollTime    time.Duration `yaml:"max_poll_time"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type PricingConfig struct {
	Markup          string `yaml:"markup"`
	UsdToRubRate    string `yaml:"usd_to_rub_rate"`
	CreditsToUsd    string `yaml:"credits_to_usd"`
	FreeTierSize    int    `yaml:"free_tier_size"`
	ReferralMaxRub  string `yaml:"referral_max_rub"`
	ReserveBalance  bool   `yaml:"reserve_balance"`
}

type CatalogConfig struct {
	SourcePath string `yaml:"source_path"`
}

type LockingConfig struct {
	LeaseTTL        time.Duration `yaml:"lease_ttl"`
	Heartbeat       time.Duration `yaml:"heartbeat"`
	AcquireRetries  int           `yaml:"acquire_retries"`
	AcquireInterval time.Duration `yaml:"acquire_interval"`
	StandbyInterval time.Duration `yaml:"standby_interval"`
}

type IdempotencyConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
}

type ProxyConfig struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type NetworkConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type ThrottlerConfig struct {
	Limit time.Duration `yaml:"limit"`
}

type FeaturesConfig struct {
	UnleashAPIURL     string `yaml:"unleash_api_url"`
	UnleashAppName    string `yaml:"unleash_app_name"`
	UnleashInstanceID string `yaml:"unleash_instance_id"`
	RefreshInterval   int    `yaml:"refresh_interval"`
}
