package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	PostgresConn string `mapstructure:"POSTGRES_CONN"`
	PostgresUser string `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost string `mapstructure:"POSTGRES_HOST"`
	PostgresPort string `mapstructure:"POSTGRES_PORT"`
	PostgresDB   string `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL string `mapstructure:"MIGRATION_URL"`

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	SchedulerToken string `mapstructure:"SCHEDULER_TOKEN"`

	SchedulerEnabled     bool   `mapstructure:"SCHEDULER_ENABLED"`
	SchedulerCron        string `mapstructure:"SCHEDULER_CRON"`
	ReminderBusinessDays int    `mapstructure:"REMINDER_BUSINESS_DAYS"`
	ReminderSelection    string `mapstructure:"REMINDER_SELECTION"`
	Timezone             string `mapstructure:"TIMEZONE"`
	PortalURL            string `mapstructure:"PORTAL_URL"`

	SMTPTimeout time.Duration `mapstructure:"SMTP_TIMEOUT"`

	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL   string `mapstructure:"S3_PUBLIC_BASE_URL"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":         "0.0.0.0:8080",
	"REQUEST_TIMEOUT":        5 * time.Second,
	"POSTGRES_CONN":          "",
	"POSTGRES_USERNAME":      "",
	"POSTGRES_PASSWORD":      "",
	"POSTGRES_HOST":          "",
	"POSTGRES_PORT":          "5432",
	"POSTGRES_DATABASE":      "",
	"MIGRATION_URL":          "file://migrations",
	"JWT_SECRET":             "",
	"SCHEDULER_TOKEN":        "",
	"SCHEDULER_ENABLED":      true,
	"SCHEDULER_CRON":         "0 8 * * *",
	"REMINDER_BUSINESS_DAYS": 2,
	"REMINDER_SELECTION":     "window",
	"TIMEZONE":               "UTC",
	"PORTAL_URL":             "http://localhost:3000",
	"SMTP_TIMEOUT":           15 * time.Second,
	"S3_BUCKET":              "",
	"S3_REGION":              "",
	"S3_ACCESS_KEY_ID":       "",
	"S3_SECRET_ACCESS_KEY":   "",
	"S3_PUBLIC_BASE_URL":     "",
}

// LoadConfig загружает конфигурацию из файла app.env, переменные окружения имеют приоритет.
// Файл необязателен: без него используются окружение и значения по умолчанию.
func LoadConfig(path string) (cfg Config, err error) {
	// .env подхватывается так же, как в docker-compose; его отсутствие не ошибка.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	err = cfg.Validate()
	return
}

// Validate проверяет значения, без которых сервис не запустится корректно.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ReminderBusinessDays < 1 {
		return fmt.Errorf("REMINDER_BUSINESS_DAYS must be at least 1, got %d", c.ReminderBusinessDays)
	}
	if c.ReminderSelection != "window" && c.ReminderSelection != "exact" {
		return fmt.Errorf("REMINDER_SELECTION must be window or exact, got %q", c.ReminderSelection)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location возвращает часовой пояс планировщика.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL возвращает строку подключения: POSTGRES_CONN или собранную из частей.
func (c Config) DatabaseURL() string {
	if c.PostgresConn != "" {
		return c.PostgresConn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// S3Enabled сообщает, настроено ли хранилище вложений.
func (c Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}
