package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Billing   BillingConfig   `toml:"billing"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Notifier  NotifierConfig  `toml:"notifier"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки метрик Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Path        string `toml:"path"`
}

// BillingConfig бизнес-параметры выставления счетов
type BillingConfig struct {
	DueDateGraceDays   int     `toml:"due_date_grace_days"`  // срок оплаты = дата выставления + N дней
	DefaultTaxRate     float64 `toml:"default_tax_rate"`     // ставка НДС по умолчанию, %
	ServiceFeePercent  float64 `toml:"service_fee_percent"`  // сервисный сбор, % от суммы позиций
	ReminderCeiling    int     `toml:"reminder_ceiling"`     // максимум напоминаний по просроченному счёту
	GatewaySuccessRate float64 `toml:"gateway_success_rate"` // вероятность успеха симуляции карты/PayPal
}

// SchedulerConfig интервалы фоновых задач
type SchedulerConfig struct {
	Enabled               bool `toml:"enabled"`
	OverdueSweepHours     int  `toml:"overdue_sweep_hours"`      // период проверки просроченных счетов
	AutoGenerateSweepMins int  `toml:"auto_generate_sweep_mins"` // период генерации пропущенных счетов
}

// NotifierConfig настройки клиента сервиса уведомлений
type NotifierConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults подставляет значения по умолчанию для незаполненных полей
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Billing.DueDateGraceDays == 0 {
		cfg.Billing.DueDateGraceDays = 30
	}
	if cfg.Billing.DefaultTaxRate == 0 {
		cfg.Billing.DefaultTaxRate = 20.0
	}
	if cfg.Billing.ServiceFeePercent == 0 {
		cfg.Billing.ServiceFeePercent = 5.0
	}
	if cfg.Billing.ReminderCeiling == 0 {
		cfg.Billing.ReminderCeiling = 3
	}
	if cfg.Billing.GatewaySuccessRate == 0 {
		cfg.Billing.GatewaySuccessRate = 0.95
	}
	if cfg.Scheduler.OverdueSweepHours == 0 {
		cfg.Scheduler.OverdueSweepHours = 24
	}
	if cfg.Scheduler.AutoGenerateSweepMins == 0 {
		cfg.Scheduler.AutoGenerateSweepMins = 60
	}
	if cfg.Notifier.Timeout == 0 {
		cfg.Notifier.Timeout = 10
	}
}
