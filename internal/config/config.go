// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找；敏感字段可由 .env / 环境变量覆盖
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
	"github.com/joho/godotenv"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName  string `toml:"appName"`  // 应用名称，用于日志标识等
	Host     string `toml:"host"`     // 服务器监听地址，如 "0.0.0.0"
	Port     int    `toml:"port"`     // 服务器监听端口，如 8000
	Mode     string `toml:"mode"`     // dev | release
	ForceTLS bool   `toml:"forceTLS"` // 是否启用 TLS 跳转中间件
	CertFile string `toml:"certFile"` // 证书路径，为空则以 HTTP 运行
	KeyFile  string `toml:"keyFile"`
}

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	Driver       string `toml:"driver"`       // mysql | postgres | sqlite
	Host         string `toml:"host"`         // 服务器地址
	Port         int    `toml:"port"`         // 端口
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称；sqlite 下为文件路径
	MaxOpenConns int    `toml:"maxOpenConns"`
	MaxIdleConns int    `toml:"maxIdleConns"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 会话事件总线配置
type KafkaConfig struct {
	MessageMode string        `toml:"messageMode"` // 消息模式："channel" 或 "kafka"
	HostPort    string        `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	EventTopic  string        `toml:"eventTopic"`  // 会话事件主题
	GroupID     string        `toml:"groupId"`     // 审计投影消费组
	Partition   int           `toml:"partition"`   // 分区数
	Timeout     time.Duration `toml:"timeout"`     // 超时时间
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`            // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // Access Token 有效期（分钟）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 雪花算法节点 ID，范围 0-1023
}

// SessionConfig 会话、在线状态与计费
type SessionConfig struct {
	PresenceTTL          time.Duration `toml:"presenceTTL"`          // 心跳过期时间
	MailboxTTL           time.Duration `toml:"mailboxTTL"`           // 未被消费的通知保留时间
	DurationFloorSeconds int           `toml:"durationFloorSeconds"` // 计费时长下限
	RatePerMinute        int64         `toml:"ratePerMinute"`        // 主播每分钟收益
}

// GiftConfig 礼物相关
type GiftConfig struct {
	RequestExpiry time.Duration `toml:"requestExpiry"` // 礼物请求有效期
	TokenSecret   string        `toml:"tokenSecret"`   // 安全令牌共享密钥
	TokenMaxAge   time.Duration `toml:"tokenMaxAge"`   // 令牌最长有效期
	CatalogTTL    time.Duration `toml:"catalogTTL"`    // 礼物目录缓存时间
}

// AgentConfig 客户端核心（pair_chat_agent）的各个节奏参数
type AgentConfig struct {
	BaseURL            string        `toml:"baseURL"`
	HeartbeatActive    time.Duration `toml:"heartbeatActive"`    // 会话中心跳间隔
	HeartbeatIdle      time.Duration `toml:"heartbeatIdle"`      // 空闲心跳间隔，0 表示空闲时不发
	MailboxBase        time.Duration `toml:"mailboxBase"`        // 信箱轮询基准间隔
	MailboxStep        time.Duration `toml:"mailboxStep"`        // 退避步长
	MailboxMax         time.Duration `toml:"mailboxMax"`         // 退避上限
	MailboxBackoffN    int           `toml:"mailboxBackoffN"`    // 连续空轮询多少次后退避一次
	MessageSync        time.Duration `toml:"messageSync"`        // 会话消息同步间隔
	PendingGifts       time.Duration `toml:"pendingGifts"`       // 待处理礼物请求刷新间隔
	Presence           time.Duration `toml:"presence"`           // 在线列表刷新间隔
	Search             time.Duration `toml:"search"`             // 匹配轮询间隔
	CallTimeout        time.Duration `toml:"callTimeout"`        // 状态变更类调用超时
	DisconnectGrace    time.Duration `toml:"disconnectGrace"`    // 断线后等待通知的宽限期
	EndingCountdown    time.Duration `toml:"endingCountdown"`    // 结束原因展示时长
	DurationFloorSecs  int           `toml:"durationFloorSecs"`  // 计费时长下限
	AutoRestartOnEnded bool          `toml:"autoRestartOnEnded"` // 对方结束后自动重新匹配
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`      // 主配置
	DatabaseConfig  `toml:"databaseConfig"`  // 数据库配置
	RedisConfig     `toml:"redisConfig"`     // Redis 配置
	LogConfig       `toml:"logConfig"`       // 日志配置
	KafkaConfig     `toml:"kafkaConfig"`     // Kafka 配置
	JWTConfig       `toml:"jwtConfig"`       // JWT 配置
	SnowflakeConfig `toml:"snowflakeConfig"` // 雪花算法配置
	SessionConfig   `toml:"sessionConfig"`
	GiftConfig      `toml:"giftConfig"`
	AgentConfig     `toml:"agentConfig"`
}

// 候选配置文件路径（优先加载本地配置）
var searchPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml", // 从子目录运行时的路径
	"../../configs/config.toml",
}

var (
	config   *Config
	loadOnce sync.Once
)

// LoadConfig 加载配置：path 非空时只读该文件，否则按候选路径查找第一个可用文件
// 随后加载 .env 并应用环境变量覆盖，最后补齐默认值
func LoadConfig(path string) (*Config, error) {
	c := new(Config)
	var err error
	if path != "" {
		_, err = toml.DecodeFile(path, c)
	} else {
		err = fmt.Errorf("could not find configuration file in any of the search paths")
		for _, p := range searchPaths {
			if _, e := toml.DecodeFile(p, c); e == nil {
				err = nil
				break
			}
		}
	}
	// .env 不存在时忽略
	_ = godotenv.Load()
	applyEnv(c)
	c.ApplyDefaults()
	return c, err
}

// applyEnv 敏感字段不落配置文件
func applyEnv(c *Config) {
	if v := os.Getenv("PAIR_JWT_SECRET"); v != "" {
		c.JWTConfig.Secret = v
	}
	if v := os.Getenv("PAIR_GIFT_TOKEN_SECRET"); v != "" {
		c.GiftConfig.TokenSecret = v
	}
	if v := os.Getenv("PAIR_MYSQL_PASSWORD"); v != "" {
		c.DatabaseConfig.Password = v
	}
	if v := os.Getenv("PAIR_REDIS_PASSWORD"); v != "" {
		c.RedisConfig.Password = v
	}
}

// ApplyDefaults 为未配置的字段填充默认值
func (c *Config) ApplyDefaults() {
	if c.MainConfig.AppName == "" {
		c.MainConfig.AppName = "pair_chat"
	}
	if c.MainConfig.Host == "" {
		c.MainConfig.Host = "0.0.0.0"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.MainConfig.Mode == "" {
		c.MainConfig.Mode = "dev"
	}
	if c.DatabaseConfig.Driver == "" {
		c.DatabaseConfig.Driver = "mysql"
	}
	if c.RedisConfig.Port == 0 {
		c.RedisConfig.Host, c.RedisConfig.Port = "127.0.0.1", 6379
	}
	if c.LogConfig.LogPath == "" {
		c.LogConfig.LogPath = "./logs"
	}
	if c.KafkaConfig.MessageMode == "" {
		c.KafkaConfig.MessageMode = "channel"
	}
	if c.KafkaConfig.EventTopic == "" {
		c.KafkaConfig.EventTopic = "pair_session_events"
	}
	if c.KafkaConfig.GroupID == "" {
		c.KafkaConfig.GroupID = "pair_audit"
	}
	if c.KafkaConfig.Timeout == 0 {
		c.KafkaConfig.Timeout = 10 * time.Second
	}
	if c.JWTConfig.AccessTokenExpiry == 0 {
		c.JWTConfig.AccessTokenExpiry = 60
	}

	s := &c.SessionConfig
	if s.PresenceTTL == 0 {
		s.PresenceTTL = 45 * time.Second
	}
	if s.MailboxTTL == 0 {
		s.MailboxTTL = 10 * time.Minute
	}
	if s.DurationFloorSeconds == 0 {
		s.DurationFloorSeconds = 30
	}
	if s.RatePerMinute == 0 {
		s.RatePerMinute = 60
	}

	g := &c.GiftConfig
	if g.RequestExpiry == 0 {
		g.RequestExpiry = 2 * time.Minute
	}
	if g.TokenMaxAge == 0 {
		g.TokenMaxAge = 10 * time.Minute
	}
	if g.CatalogTTL == 0 {
		g.CatalogTTL = 5 * time.Minute
	}

	a := &c.AgentConfig
	if a.BaseURL == "" {
		a.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", c.MainConfig.Port)
	}
	if a.HeartbeatActive == 0 {
		a.HeartbeatActive = 15 * time.Second
	}
	if a.HeartbeatIdle == 0 {
		a.HeartbeatIdle = 60 * time.Second
	}
	if a.MailboxBase == 0 {
		a.MailboxBase = 3 * time.Second
	}
	if a.MailboxStep == 0 {
		a.MailboxStep = time.Second
	}
	if a.MailboxMax == 0 {
		a.MailboxMax = 8 * time.Second
	}
	if a.MailboxBackoffN == 0 {
		a.MailboxBackoffN = 3
	}
	if a.MessageSync == 0 {
		a.MessageSync = 3 * time.Second
	}
	if a.PendingGifts == 0 {
		a.PendingGifts = 5 * time.Second
	}
	if a.Presence == 0 {
		a.Presence = 30 * time.Second
	}
	if a.Search == 0 {
		a.Search = 2 * time.Second
	}
	if a.CallTimeout == 0 {
		a.CallTimeout = 12 * time.Second
	}
	if a.DisconnectGrace == 0 {
		a.DisconnectGrace = 2 * time.Second
	}
	if a.EndingCountdown == 0 {
		a.EndingCountdown = 3 * time.Second
	}
	if a.DurationFloorSecs == 0 {
		a.DurationFloorSecs = s.DurationFloorSeconds
	}
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，找不到文件时使用默认值
func GetConfig() *Config {
	loadOnce.Do(func() {
		config, _ = LoadConfig("")
	})
	return config
}

// SetConfig 替换全局配置，命令行指定配置文件时使用
func SetConfig(c *Config) {
	loadOnce.Do(func() {})
	config = c
}
