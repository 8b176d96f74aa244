package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	Auth           AuthConfig `mapstructure:"auth"`
	Storage        StorageConfig
	Tracing        TracingConfig `mapstructure:"tracing"`
	Redis          RedisConfig
	Log            LogConfig `mapstructure:"log"`
	QuestionSource QuestionSourceConfig `mapstructure:"question_source"`
	Quiz           QuizConfig           `mapstructure:"quiz"`
	CORS           CORSConfig           `mapstructure:"cors"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string // mysql | postgres | sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode   string `mapstructure:"sslmode"`
	Path      string // sqlite 文件路径
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// AuthConfig 网关模式下信任上游注入的 X-User-UUID 头；
// InternalToken 为空时 /internal 路由全部拒绝
type AuthConfig struct {
	TrustGatewayHeader bool   `mapstructure:"trust_gateway_header"`
	InternalToken      string `mapstructure:"internal_token"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"` // none | local | minio
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int `mapstructure:"pool_size"`
}

// LogConfig Level 为空时 debug 模式用 debug，其余用 info
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // 为空时只输出到控制台
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type QuestionSourceConfig struct {
	Type         string        `mapstructure:"type"` // ai_server | openai
	BaseURL      string        `mapstructure:"base_url"`
	Token        string        `mapstructure:"token"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	Language     string        `mapstructure:"language"`
	NumQuestions int           `mapstructure:"num_questions"`
	MaxOptions   int           `mapstructure:"max_options"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type QuizConfig struct {
	PassScore        int           `mapstructure:"pass_score"`
	MaxAttempts      int           `mapstructure:"max_attempts"`       // 0 表示不限
	DefaultTimeLimit int           `mapstructure:"default_time_limit"` // 秒，0 表示不限时
	LeaveClockSkew   time.Duration `mapstructure:"leave_clock_skew"`
	StartLockTTL     time.Duration `mapstructure:"start_lock_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "quiz.db")

	v.SetDefault("redis.pool_size", 50)

	v.SetDefault("log.file", "logs/quiz.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.local_path", "archive")

	v.SetDefault("question_source.type", "ai_server")
	v.SetDefault("question_source.base_url", "http://localhost:8000")
	v.SetDefault("question_source.language", "ko")
	v.SetDefault("question_source.num_questions", 5)
	v.SetDefault("question_source.max_options", 4)
	v.SetDefault("question_source.timeout", 60*time.Second)

	v.SetDefault("quiz.pass_score", 80)
	v.SetDefault("quiz.max_attempts", 2)
	v.SetDefault("quiz.default_time_limit", 900)
	v.SetDefault("quiz.leave_clock_skew", 30*time.Second)
	v.SetDefault("quiz.start_lock_ttl", 2*time.Minute)

	v.SetDefault("rate_limit.max_requests", 100000)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("QUIZ")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// 服务间调用
	v.BindEnv("auth.internal_token", "INTERNAL_TOKEN")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("log.level", "LOG_LEVEL")

	// 出题服务
	v.BindEnv("question_source.type", "QUESTION_SOURCE_TYPE")
	v.BindEnv("question_source.base_url", "QUESTION_SOURCE_BASE_URL")
	v.BindEnv("question_source.token", "QUESTION_SOURCE_TOKEN")
	v.BindEnv("question_source.api_key", "QUESTION_SOURCE_API_KEY")
	v.BindEnv("question_source.model", "QUESTION_SOURCE_MODEL")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Quiz.PassScore < 0 || c.Quiz.PassScore > 100 {
		return fmt.Errorf("quiz.pass_score must be within [0,100], got %d", c.Quiz.PassScore)
	}
	if c.Quiz.MaxAttempts < 0 {
		return fmt.Errorf("quiz.max_attempts must not be negative, got %d", c.Quiz.MaxAttempts)
	}
	if c.QuestionSource.NumQuestions <= 0 {
		return fmt.Errorf("question_source.num_questions must be positive, got %d", c.QuestionSource.NumQuestions)
	}

	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && !c.Auth.TrustGatewayHeader && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	return nil
}
