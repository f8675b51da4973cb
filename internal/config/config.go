package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	AI       AIConfig
	Routing  RoutingConfig
	Chunk    ChunkConfig
	Chat     ChatConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	MaxUploadMB  int
}

// DatabaseConfig 数据库配置
// URL 非空时优先使用（兼容 DATABASE_URL）
type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// AIConfig 模型服务配置（OpenAI 兼容接口，默认 Groq）
type AIConfig struct {
	APIKey  string
	BaseURL string
	Timeout int
}

// RouteConfig 单个任务类别的模型配置
type RouteConfig struct {
	Model       string
	Fallback    string
	Temperature float32
	MaxTokens   int
}

// RoutingConfig 任务类别到模型的映射
type RoutingConfig struct {
	Vision   RouteConfig
	Document RouteConfig
	Chat     RouteConfig
}

// ChunkConfig 文本分块配置
type ChunkConfig struct {
	Size          int
	ContextWindow int
}

// ChatConfig 聊天动作配置
type ChatConfig struct {
	// HistoryLimit get_history 返回最近的消息数，0 表示全部
	HistoryLimit int
}

// Load 加载配置
// path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("NEXT_CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 兼容旧的环境变量名
	if err := v.BindEnv("ai.apikey", "NEXT_CHAT_AI_APIKEY", "GROQ_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}
	if err := v.BindEnv("database.url", "NEXT_CHAT_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.WriteTimeout = max(cfg.Server.WriteTimeout, cfg.MinWriteTimeout())

	return &cfg, nil
}

// writeTimeoutHeadroom 模型调用之外留给数据库与文本提取的时间（秒）
const writeTimeoutHeadroom = 30

// MinWriteTimeout 主模型与备用模型各自超时后仍能写回错误响应所需的最小写超时（秒）
func (c *Config) MinWriteTimeout() int {
	return 2*c.AI.Timeout + writeTimeoutHeadroom
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "next-chat")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "2.0.0")
	v.SetDefault("app.debug", false)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 150)
	v.SetDefault("server.maxUploadMB", 32)

	// Database
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "next_chat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 30)
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.maxLifetime", 300)

	// AI
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.baseUrl", "https://api.groq.com/openai/v1")
	v.SetDefault("ai.timeout", 60)

	// Routing
	v.SetDefault("routing.vision.model", "meta-llama/llama-4-scout-17b-16e-instruct")
	v.SetDefault("routing.vision.fallback", "meta-llama/llama-4-maverick-17b-128e-instruct")
	v.SetDefault("routing.vision.temperature", 0.3)
	v.SetDefault("routing.vision.maxTokens", 500)

	v.SetDefault("routing.document.model", "llama-3.3-70b-versatile")
	v.SetDefault("routing.document.fallback", "llama-3.1-70b-versatile")
	v.SetDefault("routing.document.temperature", 0.2)
	v.SetDefault("routing.document.maxTokens", 1000)

	v.SetDefault("routing.chat.model", "llama-3.1-8b-instant")
	v.SetDefault("routing.chat.fallback", "llama-3.3-70b-versatile")
	v.SetDefault("routing.chat.temperature", 0.7)
	v.SetDefault("routing.chat.maxTokens", 500)

	// Chunk
	v.SetDefault("chunk.size", 500)
	v.SetDefault("chunk.contextWindow", 3)

	// Chat
	v.SetDefault("chat.historyLimit", 0)
}
