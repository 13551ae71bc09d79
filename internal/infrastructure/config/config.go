package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// CredentialSalt is mixed into credential hashes. Changing it invalidates
	// every stored hash.
	CredentialSalt string `env:"CREDENTIAL_SALT, default=dev-salt"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Tuning TuningConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=civic_reputation"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

// TuningConfig holds the process-wide defaults for the scoring pipeline.
// Each value may be overridden live through the shared parameter store.
type TuningConfig struct {
	ConfidenceThreshold int     `env:"CONFIDENCE_THRESHOLD, default=30"`
	GlobalMean          float64 `env:"GLOBAL_MEAN,          default=3.0"`
	VolumeSaturation    int     `env:"VOLUME_SATURATION,    default=100"`
	TerritorialBonus    float64 `env:"TERRITORIAL_BONUS,    default=1.5"`
	ShadowBanThreshold  float64 `env:"SHADOW_BAN_THRESHOLD, default=0.2"`
	VoteWorkers         int     `env:"VOTE_WORKERS,         default=8"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
