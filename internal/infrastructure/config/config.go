package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "PMDESK_"

type Config struct {
	APIURL    string `env:"API_URL,    default=http://localhost:8080/api"`
	BrokerURL string `env:"BROKER_URL, default=ws://localhost:8080/ws/websocket"`
	LogLevel  string `env:"LOG_LEVEL,  default=warn"`
	LogPretty bool   `env:"LOG_PRETTY, default=true"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=0"`
	RateLimit      float64       `env:"RATE_LIMIT,      default=10"`
	RateBurst      int           `env:"RATE_BURST,      default=20"`
	ReconnectDelay time.Duration `env:"RECONNECT_DELAY, default=5s"`

	CompanyClaimPolicy string `env:"COMPANY_CLAIM_POLICY, default=keep"`
	MarkReadPolicy     string `env:"MARK_READ_POLICY,     default=optimistic"`

	Storage StorageConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	Status  StatusConfig
}

type StorageConfig struct {
	Kind   string `env:"STORAGE,        default=file"`
	Path   string `env:"STORAGE_PATH"`
	Secret string `env:"STORAGE_SECRET"`
}

type RedisConfig struct {
	Addr   string `env:"REDIS_ADDR,   default=localhost:6379"`
	DB     int    `env:"REDIS_DB,     default=0"`
	Prefix string `env:"REDIS_PREFIX, default=pmdesk:session:"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI,        default=mongodb://localhost:27017"`
	Database   string `env:"MONGO_DB,         default=pmdesk"`
	Collection string `env:"MONGO_COLLECTION, default=session"`
}

type StatusConfig struct {
	Addr  string `env:"STATUS_ADDR"`
	Token string `env:"STATUS_TOKEN"`
}

// Load reads configuration from PMDESK_* environment variables.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l, which sees names with the prefix.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(Prefix, l),
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath()
	}
	return &cfg, nil
}

// Validate checks the enumerated settings. Call it again after overriding
// fields from flags.
func (c *Config) Validate() error {
	switch c.Storage.Kind {
	case "file", "memory", "redis", "mongo":
	default:
		return fmt.Errorf("config: unknown storage %q", c.Storage.Kind)
	}
	switch c.CompanyClaimPolicy {
	case "keep", "clear":
	default:
		return fmt.Errorf("config: unknown company claim policy %q", c.CompanyClaimPolicy)
	}
	switch c.MarkReadPolicy {
	case "optimistic", "rollback":
	default:
		return fmt.Errorf("config: unknown mark-read policy %q", c.MarkReadPolicy)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("config: rate limit and burst must not be negative")
	}
	return nil
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pmdesk", "session.json")
}
