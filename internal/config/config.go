package config

import (
	"fmt"
	"time"

	"focusflow/pkg/config"
)

type RecurrenceConfig struct {
	Timezone         string        `yaml:"timezone"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	RateLimitWindow  time.Duration `yaml:"rate_limit_window"`
	AnchorHour       int           `yaml:"anchor_hour"`
	SlotIncrement    time.Duration `yaml:"slot_increment"`
	TaskDuration     time.Duration `yaml:"task_duration"`
	AllowUnscheduled bool          `yaml:"allow_unscheduled"`
}

type GoalsConfig struct {
	RecalcInterval   time.Duration `yaml:"recalc_interval"`
	BootstrapOnStart bool          `yaml:"bootstrap_on_start"`
}

type CheckStateConfig struct {
	Backend string        `yaml:"backend"` // redis | memory
	Key     string        `yaml:"key"`
	TTL     time.Duration `yaml:"ttl"`
}

type OutboxConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
}

type Config struct {
	DB         config.DBConfig     `yaml:"db"`
	MQ         config.MQConfig     `yaml:"mq"`
	Redis      config.RedisConfig  `yaml:"redis"`
	JWT        config.JWTConfig    `yaml:"jwt"`
	Server     config.ServerConfig `yaml:"server"`
	OTel       config.OTelConfig   `yaml:"otel"`
	Recurrence RecurrenceConfig    `yaml:"recurrence"`
	Goals      GoalsConfig         `yaml:"goals"`
	CheckState CheckStateConfig    `yaml:"check_state"`
	Outbox     OutboxConfig        `yaml:"outbox"`
}

// Load 使用统一配置中心加载 recurrence-runner / recurctl 的配置
func Load() (*Config, error) {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 先填默认值，YAML 中缺省的键保持默认
	cfg := Default()
	if err := config.Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖（优先级最高）
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideOTelFromEnv(&cfg.OTel)

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 未配置时使用的值
func Default() Config {
	return Config{
		Recurrence: RecurrenceConfig{
			Timezone:         "UTC",
			SweepInterval:    15 * time.Minute,
			AnchorHour:       9,
			SlotIncrement:    time.Hour,
			TaskDuration:     time.Hour,
			AllowUnscheduled: true,
		},
		Goals:      GoalsConfig{RecalcInterval: 30 * time.Minute},
		CheckState: CheckStateConfig{Backend: "redis", Key: "focusflow:recurrence:last_check", TTL: 48 * time.Hour},
		Outbox:     OutboxConfig{Interval: time.Second, BatchSize: 100, MaxRetries: 5},
		Server:     config.ServerConfig{Port: "8090"},
		OTel:       config.OTelConfig{ServiceName: "recurrence-runner"},
	}
}

// applyDefaults 修正显式配置成空值或非法值的字段
func (c *Config) applyDefaults() {
	r := &c.Recurrence
	if r.Timezone == "" {
		r.Timezone = "UTC"
	}
	if r.SweepInterval <= 0 {
		r.SweepInterval = 15 * time.Minute
	}
	if r.RateLimitWindow < 0 {
		r.RateLimitWindow = 0
	}
	if r.SlotIncrement <= 0 {
		r.SlotIncrement = time.Hour
	}
	if r.TaskDuration <= 0 {
		r.TaskDuration = time.Hour
	}

	if c.Goals.RecalcInterval <= 0 {
		c.Goals.RecalcInterval = 30 * time.Minute
	}

	if c.CheckState.Backend == "" {
		c.CheckState.Backend = "redis"
	}
	if c.CheckState.Key == "" {
		c.CheckState.Key = "focusflow:recurrence:last_check"
	}
	if c.CheckState.TTL <= 0 {
		c.CheckState.TTL = 48 * time.Hour
	}

	if c.Outbox.Interval <= 0 {
		c.Outbox.Interval = time.Second
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.MaxRetries <= 0 {
		c.Outbox.MaxRetries = 5
	}

	if c.Server.Port == "" {
		c.Server.Port = "8090"
	}
	if c.OTel.ServiceName == "" {
		c.OTel.ServiceName = "recurrence-runner"
	}
}

// Validate 校验不能靠默认值修正的配置
func (c *Config) Validate() error {
	if _, err := c.Recurrence.Location(); err != nil {
		return err
	}
	if c.Recurrence.AnchorHour < 0 || c.Recurrence.AnchorHour > 23 {
		return fmt.Errorf("recurrence.anchor_hour must be in [0, 23], got %d", c.Recurrence.AnchorHour)
	}
	switch c.CheckState.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("check_state.backend must be redis or memory, got %q", c.CheckState.Backend)
	}
	return nil
}

// Location 参考时区，星期判断和日界都以它为准
func (r RecurrenceConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence.timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}
