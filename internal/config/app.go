package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type AppConfig struct {
	Port                string        `validate:"required,numeric"`
	Env                 string        `validate:"required,oneof=development production test"`
	DetectionServiceURL string        `validate:"required,url"`
	DetectionTimeout    time.Duration `validate:"gt=0"`
	MaxUploadSize       int64         `validate:"gte=1024"`
	PreviewMaxDimension uint          `validate:"lte=4096"`
	CORSAllowOrigins    []string      `validate:"omitempty,dive,required"`
	RateLimitRPS        float64       `validate:"gt=0"`
	RateLimitBurst      int           `validate:"gt=0"`
}

func NewValidator() *validator.Validate {
	return validator.New()
}

// LoadAppConfig reads the configuration from the environment. Call godotenv.Load
// first when a .env file should be honoured.
func LoadAppConfig(validate *validator.Validate) (*AppConfig, error) {
	timeout, err := getEnvAsDurationOrDefault("DETECTION_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Port:                getEnvOrDefault("APP_PORT", "3000"),
		Env:                 getEnvOrDefault("APP_ENV", "development"),
		DetectionServiceURL: getEnvOrDefault("DETECTION_SERVICE_URL", "http://localhost:8000/predict"),
		DetectionTimeout:    timeout,
		MaxUploadSize:       getEnvAsInt64OrDefault("MAX_UPLOAD_SIZE", 10*1024*1024),
		PreviewMaxDimension: uint(getEnvAsInt64OrDefault("PREVIEW_MAX_DIMENSION", 512)),
		CORSAllowOrigins:    splitList(getEnvOrDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		RateLimitRPS:        getEnvAsFloatOrDefault("RATE_LIMIT_RPS", 50),
		RateLimitBurst:      int(getEnvAsInt64OrDefault("RATE_LIMIT_BURST", 100)),
	}

	if validate == nil {
		validate = NewValidator()
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDurationOrDefault accepts Go durations ("90s") and plain seconds ("90").
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, valueStr, err)
	}

	return value, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
