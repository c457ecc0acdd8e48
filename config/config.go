package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"tulsiarena"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Optional: notifications are skipped when unset.
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"10080"`

	// When both are set the service runs payment-gated; otherwise
	// bookings confirm directly without a gateway order.
	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET"`
}

func Load() (*Config, error) {
	// .env is optional; real deployments rely on the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) PaymentEnabled() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}
