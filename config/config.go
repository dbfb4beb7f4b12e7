package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"firefight-platform/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port           string   `validate:"required,numeric"`
	DBDriver       string   `validate:"oneof=postgres sqlite"`
	DatabaseURL    string   `validate:"required"`
	GatewayToken   string   `validate:"required"`
	AllowedOrigins []string `validate:"min=1,dive,required"`

	// Local uploads, used when R2 is not configured.
	UploadDir     string `validate:"required"`
	PublicBaseURL string `validate:"required"`
	R2            utils.R2Config

	WithdrawalMinAmount decimal.Decimal
	SchedulerInterval   time.Duration `validate:"required"`
	AuditInterval       time.Duration `validate:"required"`
}

// R2Enabled reports whether uploads go to R2 instead of local disk.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.Bucket != ""
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	port := getEnvOrDefault("PORT", "5200")
	cfg := &Config{
		Port:          port,
		DBDriver:      getEnvOrDefault("DB_DRIVER", "postgres"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		GatewayToken:  os.Getenv("GAME_SERVICE_TOKEN"),
		UploadDir:     getEnvOrDefault("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:"+port+"/uploads"),
		R2: utils.R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
	}

	for _, origin := range strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	var err error
	if cfg.WithdrawalMinAmount, err = decimal.NewFromString(getEnvOrDefault("WITHDRAWAL_MIN_AMOUNT", "100")); err != nil {
		return nil, fmt.Errorf("WITHDRAWAL_MIN_AMOUNT: %w", err)
	}
	if !cfg.WithdrawalMinAmount.IsPositive() {
		return nil, fmt.Errorf("WITHDRAWAL_MIN_AMOUNT must be positive")
	}
	if cfg.SchedulerInterval, err = time.ParseDuration(getEnvOrDefault("TOURNAMENT_SCHEDULER_INTERVAL", "1m")); err != nil {
		return nil, fmt.Errorf("TOURNAMENT_SCHEDULER_INTERVAL: %w", err)
	}
	if cfg.AuditInterval, err = time.ParseDuration(getEnvOrDefault("LEDGER_AUDIT_INTERVAL", "15m")); err != nil {
		return nil, fmt.Errorf("LEDGER_AUDIT_INTERVAL: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
