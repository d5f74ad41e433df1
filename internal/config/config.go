package config

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Log        LogConfig        `mapstructure:"log"`
	MySQL      MySQLConfig      `mapstructure:"mysql"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Email      EmailConfig      `mapstructure:"email"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Mode string `mapstructure:"mode"` // debug / release
	Port int    `mapstructure:"port"`
	// DefaultAvatar 新用户默认头像，%s 替换为用户名
	DefaultAvatar string `mapstructure:"default_avatar"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type MySQLConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type ModerationConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Keywords []string `mapstructure:"keywords"`
}

type RateLimitConfig struct {
	AuthPerMinute  int `mapstructure:"auth_per_minute"`
	EmailPerMinute int `mapstructure:"email_per_minute"`
}

var (
	mu      sync.RWMutex
	current *Config
	onMod   []func(ModerationConfig)
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ufresher")
	v.SetDefault("app.mode", "debug")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.default_avatar", "https://api.dicebear.com/7.x/avataaars/svg?seed=%s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.filename", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.max_backups", 7)

	v.SetDefault("mysql.dsn", "user:password@tcp(127.0.0.1:3306)/ufresher?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("mysql.max_open_conns", 50)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.auto_migrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("jwt.access_secret", "secret-key")
	v.SetDefault("jwt.refresh_secret", "refresh-key")
	v.SetDefault("jwt.access_ttl", 30*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 24*time.Hour)

	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "UFresher <no-reply@ufresher.app>")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "ufresher-events")

	v.SetDefault("moderation.enabled", true)
	v.SetDefault("moderation.keywords", []string{})

	v.SetDefault("rate_limit.auth_per_minute", 10)
	v.SetDefault("rate_limit.email_per_minute", 1)
}

// Load 读取 config.yaml（可选）并叠加 UFRESHER_ 前缀的环境变量
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("UFRESHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	mu.Lock()
	current = cfg
	mu.Unlock()

	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			reload(v, e)
		})
		v.WatchConfig()
	}
	return cfg, nil
}

// 只有 moderation 关键词支持热更新，其余配置需重启生效
func reload(v *viper.Viper, e fsnotify.Event) {
	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		zap.L().Error("config reload failed", zap.String("file", e.Name), zap.Error(err))
		return
	}

	mu.Lock()
	current.Moderation = next.Moderation
	hooks := append([]func(ModerationConfig){}, onMod...)
	mu.Unlock()

	zap.L().Info("config reloaded", zap.String("file", e.Name))
	for _, fn := range hooks {
		fn(next.Moderation)
	}
}

// OnModerationChange 注册关键词热更新回调
func OnModerationChange(fn func(ModerationConfig)) {
	mu.Lock()
	defer mu.Unlock()
	onMod = append(onMod, fn)
}

// Current 返回最近一次加载的配置
func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
