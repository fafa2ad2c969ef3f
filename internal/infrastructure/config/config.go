package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xiebiao/flashorder/pkg/logger"
	"github.com/xiebiao/flashorder/pkg/tracing"
)

// envPrefix 环境变量前缀，如 FLASHORDER_REDIS_HOST 覆盖 redis.host
const envPrefix = "FLASHORDER"

// Config 全局配置结构
// YAML文件提供默认值，环境变量覆盖
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Lock           LockConfig           `mapstructure:"lock"`
	Idempotency    IdempotencyConfig    `mapstructure:"idempotency"`
	Order          OrderConfig          `mapstructure:"order"`
	Log            logger.Config        `mapstructure:"log"`
	Tracing        tracing.Config       `mapstructure:"tracing"`
	MQ             MQConfig             `mapstructure:"mq"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// 存储驱动
const (
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN 生成MySQL连接字符串
// loc参数需要URL编码（Asia/Shanghai → Asia%2FShanghai）
func (d DatabaseConfig) DSN() string {
	loc := url.QueryEscape(d.Loc)
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.ParseTime, loc)
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig 共享缓存（KV与分布式锁）
type CacheConfig struct {
	Driver       string        `mapstructure:"driver"` // redis | memory
	InventoryTTL time.Duration `mapstructure:"inventory_ttl"`
	OrderTTL     time.Duration `mapstructure:"order_ttl"`
	SweepEvery   time.Duration `mapstructure:"sweep_every"` // 内存存储的过期清理周期
}

type LockConfig struct {
	InventoryWait  time.Duration `mapstructure:"inventory_wait"`
	InventoryLease time.Duration `mapstructure:"inventory_lease"`
	CallbackLease  time.Duration `mapstructure:"callback_lease"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type IdempotencyConfig struct {
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	RecordTTL     time.Duration `mapstructure:"record_ttl"`
	ProcessingTTL time.Duration `mapstructure:"processing_ttl"`
}

type OrderConfig struct {
	CreateTimeout time.Duration `mapstructure:"create_timeout"`
}

type MQConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	URL          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange_type"`
}

type RateLimitConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Requests   int64         `mapstructure:"requests"` // 每个窗口允许的请求数
	Window     time.Duration `mapstructure:"window"`
	SweepEvery time.Duration `mapstructure:"sweep_every"`
}

// CORSConfig 跨域配置，allow_origins为*时不能携带凭证
type CORSConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
	AllowMethods []string      `mapstructure:"allow_methods"`
	AllowHeaders []string      `mapstructure:"allow_headers"`
	MaxAge       time.Duration `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

// Load 从 ./config/config.yaml 或 ./config.yaml 加载配置
// FLASHORDER_ENV=prod 时加载 config.prod.yaml
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	_ = v.BindEnv("env")
	if env := v.GetString("env"); env != "" {
		v.SetConfigName("config." + env)
	}

	return load(v)
}

// LoadFile 从指定文件加载配置
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 环境变量绑定：FLASHORDER_DATABASE_PASSWORD → database.password
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.loc", "Local")
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("cache.driver", DriverRedis)
	v.SetDefault("cache.inventory_ttl", time.Minute)
	v.SetDefault("cache.order_ttl", time.Minute)
	v.SetDefault("cache.sweep_every", time.Minute)

	v.SetDefault("lock.inventory_wait", 10*time.Second)
	v.SetDefault("lock.inventory_lease", 30*time.Second)
	v.SetDefault("lock.callback_lease", 15*time.Second)
	v.SetDefault("lock.poll_interval", 50*time.Millisecond)

	v.SetDefault("idempotency.token_ttl", 10*time.Minute)
	v.SetDefault("idempotency.record_ttl", 30*time.Minute)
	v.SetDefault("idempotency.processing_ttl", time.Minute)

	v.SetDefault("order.create_timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("tracing.service_name", "flashorder")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("mq.exchange", "flashorder.events")
	v.SetDefault("mq.exchange_type", "topic")

	v.SetDefault("rate_limit.requests", 20)
	v.SetDefault("rate_limit.window", time.Second)
	v.SetDefault("rate_limit.sweep_every", time.Minute)

	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 10*time.Second)
	v.SetDefault("circuit_breaker.consecutive_failures", 5)

	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("cors.allow_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allow_headers", []string{"Content-Type", "X-User-ID", "X-Request-ID"})
	v.SetDefault("cors.max_age", 12*time.Hour)
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	switch cfg.Database.Driver {
	case DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("无效的数据库驱动: %q", cfg.Database.Driver)
	}

	switch cfg.Cache.Driver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("无效的缓存驱动: %q", cfg.Cache.Driver)
	}

	// 多实例部署时内存锁不能互斥
	if cfg.Server.Mode == "release" && cfg.Cache.Driver == DriverMemory {
		return fmt.Errorf("release模式必须使用redis作为缓存与锁")
	}

	if cfg.Lock.InventoryWait <= 0 || cfg.Lock.InventoryLease <= 0 || cfg.Lock.CallbackLease <= 0 {
		return fmt.Errorf("锁等待时间和租约必须大于0")
	}
	if cfg.Idempotency.TokenTTL <= 0 || cfg.Idempotency.RecordTTL <= 0 || cfg.Idempotency.ProcessingTTL <= 0 {
		return fmt.Errorf("幂等TTL必须大于0")
	}
	if cfg.MQ.Enabled && cfg.MQ.URL == "" {
		return fmt.Errorf("启用消息队列时必须配置mq.url")
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0) {
		return fmt.Errorf("无效的限流配置")
	}
	return nil
}
