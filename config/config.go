package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Quotes   QuotesConfig   `yaml:"quotes"`
	Fees     FeesConfig     `yaml:"fees"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	PaymentTTLMinutes int    `yaml:"payment_ttl_minutes"`
	LockTTLSeconds    int    `yaml:"lock_ttl_seconds"`
	ExpirySweepSpec   string `yaml:"expiry_sweep_spec"`
}

func (b BookingConfig) PaymentTTL() time.Duration {
	return time.Duration(b.PaymentTTLMinutes) * time.Minute
}

func (b BookingConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

type AlertsConfig struct {
	SweepSpec       string `yaml:"sweep_spec"`
	LeaseTTLSeconds int    `yaml:"lease_ttl_seconds"`
}

func (a AlertsConfig) LeaseTTL() time.Duration {
	return time.Duration(a.LeaseTTLSeconds) * time.Second
}

type QuotesConfig struct {
	BaseURL         string `yaml:"base_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

func (q QuotesConfig) Timeout() time.Duration {
	return time.Duration(q.TimeoutSeconds) * time.Second
}

func (q QuotesConfig) CacheTTL() time.Duration {
	return time.Duration(q.CacheTTLSeconds) * time.Second
}

type FeesConfig struct {
	CancellationFlat float64 `yaml:"cancellation_flat"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
