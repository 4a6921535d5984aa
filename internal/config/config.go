package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pixelperfect/internal/slots"
)

type Config struct {
	HTTP struct {
		Address           string  `yaml:"address"`
		ReadTimeoutSec    int     `yaml:"read_timeout_seconds"`
		WriteTimeoutSec   int     `yaml:"write_timeout_seconds"`
		RequestTimeoutSec int     `yaml:"request_timeout_seconds"`
		RateLimitPerSec   float64 `yaml:"rate_limit_per_second"`
		RateLimitBurst    int     `yaml:"rate_limit_burst"`
	} `yaml:"http"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		ConflictCheck      bool `yaml:"conflict_check"`
		FlowTimeoutMinutes int  `yaml:"flow_timeout_minutes"`
		CleanupIntervalSec int  `yaml:"cleanup_interval_seconds"`
	} `yaml:"booking"`

	Schedule struct {
		Times []string `yaml:"times"`
	} `yaml:"schedule"`

	Payment struct {
		DelayMillis *int  `yaml:"delay_ms"`
		NodeID      int64 `yaml:"node_id"`
	} `yaml:"payment"`

	Auth struct {
		AdminEmail      string `yaml:"admin_email"`
		DelayMillis     *int   `yaml:"delay_ms"`
		SessionTTLHours int    `yaml:"session_ttl_hours"`
	} `yaml:"auth"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
		Buffer  int      `yaml:"buffer"`
	} `yaml:"kafka"`

	Telegram struct {
		BotToken string  `yaml:"bot_token"`
		Debug    bool    `yaml:"debug"`
		Managers []int64 `yaml:"managers"`
	} `yaml:"telegram"`

	Catalog struct {
		Path               string `yaml:"path"`
		ReloadIntervalSecs int    `yaml:"reload_interval_seconds"`
	} `yaml:"catalog"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	if len(c.Schedule.Times) > 0 {
		if err := slots.ValidateTimes(c.Schedule.Times); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) HTTPAddress() string {
	if c.HTTP.Address == "" {
		return ":8080"
	}
	return c.HTTP.Address
}

func (c *Config) ReadTimeout() time.Duration {
	if c.HTTP.ReadTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HTTP.ReadTimeoutSec) * time.Second
}

// WriteTimeout must outlast the mocked payment delay.
func (c *Config) WriteTimeout() time.Duration {
	if c.HTTP.WriteTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HTTP.WriteTimeoutSec) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	if c.HTTP.RequestTimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.HTTP.RequestTimeoutSec) * time.Second
}

func (c *Config) RateLimit() (perSecond float64, burst int) {
	perSecond, burst = c.HTTP.RateLimitPerSec, c.HTTP.RateLimitBurst
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return perSecond, burst
}

func (c *Config) HealthCheckPort() int {
	if c.Monitoring.HealthCheckPort == 0 {
		return 8090
	}
	return c.Monitoring.HealthCheckPort
}

func (c *Config) PrometheusPort() int {
	if c.Monitoring.PrometheusPort == 0 {
		return 9090
	}
	return c.Monitoring.PrometheusPort
}

func (c *Config) FlowTimeout() time.Duration {
	if c.Booking.FlowTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.FlowTimeoutMinutes) * time.Minute
}

func (c *Config) CleanupInterval() time.Duration {
	if c.Booking.CleanupIntervalSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Booking.CleanupIntervalSec) * time.Second
}

// PaymentDelay defaults to two seconds; an explicit 0 disables it.
func (c *Config) PaymentDelay() time.Duration {
	if c.Payment.DelayMillis == nil || *c.Payment.DelayMillis < 0 {
		return 2 * time.Second
	}
	return time.Duration(*c.Payment.DelayMillis) * time.Millisecond
}

// AuthDelay defaults to one second; an explicit 0 disables it.
func (c *Config) AuthDelay() time.Duration {
	if c.Auth.DelayMillis == nil || *c.Auth.DelayMillis < 0 {
		return time.Second
	}
	return time.Duration(*c.Auth.DelayMillis) * time.Millisecond
}

func (c *Config) SessionTTL() time.Duration {
	if c.Auth.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Auth.SessionTTLHours) * time.Hour
}

func (c *Config) AdminEmail() string {
	if c.Auth.AdminEmail == "" {
		return "admin@pixelperfect.com"
	}
	return c.Auth.AdminEmail
}

func (c *Config) KafkaTopic() string {
	if c.Kafka.Topic == "" {
		return "studio.bookings"
	}
	return c.Kafka.Topic
}

func (c *Config) CatalogPath() string {
	return c.Catalog.Path
}

func (c *Config) CatalogReloadInterval() time.Duration {
	if c.Catalog.ReloadIntervalSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.ReloadIntervalSecs) * time.Second
}
