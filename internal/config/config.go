// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Session   SessionConfig   `mapstructure:"session"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Tika      TikaConfig      `mapstructure:"tika"`
	LLM       LLMConfig       `mapstructure:"llm"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// SessionConfig 控制会话令牌与会话状态的存放位置。
type SessionConfig struct {
	Secret      string        `mapstructure:"secret"`
	TokenExpire time.Duration `mapstructure:"token_expire"`
	// Store 取值 "redis" 或 "memory"。
	Store string        `mapstructure:"store"`
	TTL   time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。DSN 为空时不建立对比报告索引。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Timeout    time.Duration       `mapstructure:"timeout"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
	RateLimit  RateLimitConfig     `mapstructure:"rate_limit"`
}

// LLMGenerationConfig 配置生成相关参数（可选，零值不下发）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// RateLimitConfig 限制每个会话调用模型的频率，RPS <= 0 表示不限制。
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ArtifactsConfig 决定对比报告 HTML 写到哪里。
type ArtifactsConfig struct {
	// Backend 取值 "local"（静态目录）或 "minio"。
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// CorpusConfig 控制上传批次的处理策略。
type CorpusConfig struct {
	MaxFiles    int   `mapstructure:"max_files"`
	MaxFileSize int64 `mapstructure:"max_file_size"`
	// RetainUploads 为 true 时原始 PDF 以 storageId 为名保存到 MinIO，否则处理完即丢弃。
	RetainUploads         bool `mapstructure:"retain_uploads"`
	ExtractionConcurrency int  `mapstructure:"extraction_concurrency"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// setDefaults 注册所有配置项的默认值，配置文件缺省的键使用这些值。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("session.token_expire", 24*time.Hour)
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("tika.server_url", "http://localhost:9998")
	v.SetDefault("tika.timeout", 60*time.Second)
	v.SetDefault("session.secret", "change-me")
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("minio.bucket_name", "pdf-chatbot")
	v.SetDefault("artifacts.backend", "local")
	v.SetDefault("artifacts.dir", "./dashboards")
	v.SetDefault("corpus.max_files", 10)
	v.SetDefault("corpus.max_file_size", 20*1024*1024)
	v.SetDefault("corpus.retain_uploads", false)
	v.SetDefault("corpus.extraction_concurrency", 4)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "pdf-chatbot-events")
}

// Load 从指定路径读取 YAML 配置，环境变量（前缀 PDFCHAT_）优先于文件。
// configPath 为空时只使用默认值与环境变量。
func Load(configPath string) (*viper.Viper, Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PDFCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return v, cfg, nil
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// onChange 非空时监听配置文件变化并回调新配置。
func Init(configPath string, onChange func(Config)) {
	v, cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg

	if onChange == nil || configPath == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		var next Config
		if err := v.Unmarshal(&next); err != nil {
			return
		}
		onChange(next)
	})
	v.WatchConfig()
}
