package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lungscreen/lungscreen/internal/inference"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTIssuer      string        `mapstructure:"JWT_ISSUER"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	AdminUsername  string        `mapstructure:"ADMIN_USERNAME"`
	AdminPassword  string        `mapstructure:"ADMIN_PASSWORD"`
	UsageEventsMax int           `mapstructure:"USAGE_EVENTS_MAX"`

	ONNXRuntimeLib      string `mapstructure:"ONNXRUNTIME_LIB"`
	TabularModelPath    string `mapstructure:"TABULAR_MODEL_PATH"`
	TabularModelClasses string `mapstructure:"TABULAR_MODEL_CLASSES"`
	TabularInputName    string `mapstructure:"TABULAR_INPUT_NAME"`
	TabularOutputName   string `mapstructure:"TABULAR_OUTPUT_NAME"`
	ImageModelPath      string `mapstructure:"IMAGE_MODEL_PATH"`
	ImageInputName      string `mapstructure:"IMAGE_INPUT_NAME"`
	ImageOutputName     string `mapstructure:"IMAGE_OUTPUT_NAME"`
	MaxUploadBytes      int64  `mapstructure:"MAX_UPLOAD_BYTES"`
}

var keys = []string{
	"PORT", "ENV", "JWT_SECRET", "JWT_ISSUER", "SESSION_TTL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT", "REQUEST_TIMEOUT",
	"ADMIN_USERNAME", "ADMIN_PASSWORD", "USAGE_EVENTS_MAX",
	"ONNXRUNTIME_LIB", "TABULAR_MODEL_PATH", "TABULAR_MODEL_CLASSES",
	"TABULAR_INPUT_NAME", "TABULAR_OUTPUT_NAME",
	"IMAGE_MODEL_PATH", "IMAGE_INPUT_NAME", "IMAGE_OUTPUT_NAME", "MAX_UPLOAD_BYTES",
}

// Load reads configuration from the environment. Values in envFiles (default
// ".env") are loaded first and never override variables already set.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// A missing file is fine.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("JWT_ISSUER", "lungscreen")
	v.SetDefault("SESSION_TTL", "8h")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin")
	v.SetDefault("USAGE_EVENTS_MAX", 10000)
	v.SetDefault("TABULAR_MODEL_CLASSES", "High,Low,Medium")
	v.SetDefault("TABULAR_INPUT_NAME", "float_input")
	v.SetDefault("TABULAR_OUTPUT_NAME", "output_label")
	v.SetDefault("IMAGE_INPUT_NAME", "input")
	v.SetDefault("IMAGE_OUTPUT_NAME", "output")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" && !c.IsDev() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
	}
	if c.IsProduction() && c.AdminPassword == "admin" {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be changed in production"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}
	if c.DBMinConns > c.DBMaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns))
	}
	if c.TabularModelPath != "" && len(inference.ParseClasses(c.TabularModelClasses)) == 0 {
		errs = append(errs, errors.New("TABULAR_MODEL_CLASSES is required when TABULAR_MODEL_PATH is set"))
	}
	return errors.Join(errs...)
}

// SigningSecret returns the JWT secret. Development falls back to a fixed
// key so the server runs without setup.
func (c *Config) SigningSecret() []byte {
	if c.JWTSecret == "" && c.IsDev() {
		return []byte("lungscreen-development-secret")
	}
	return []byte(c.JWTSecret)
}

// Inference maps the model settings onto the loader's config.
func (c *Config) Inference() inference.LoadConfig {
	return inference.LoadConfig{
		RuntimeLib: c.ONNXRuntimeLib,
		Tabular: inference.TabularConfig{
			Path:       c.TabularModelPath,
			InputName:  c.TabularInputName,
			OutputName: c.TabularOutputName,
			Classes:    inference.ParseClasses(c.TabularModelClasses),
		},
		Image: inference.ImageConfig{
			Path:       c.ImageModelPath,
			InputName:  c.ImageInputName,
			OutputName: c.ImageOutputName,
		},
	}
}
