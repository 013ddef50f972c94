package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
		Mode string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret  string
		TokenTTL   time.Duration
		BcryptCost int
		Issuer     string
	}
	Storage struct {
		Bucket         string
		KeyPrefix      string
		Region         string
		Endpoint       string
		PresignTTL     time.Duration
		MaxUploadBytes int64
	}
	AWS struct {
		Profile string
	}
	Revocation struct {
		Driver   string
		Capacity int
	}
	Redis struct {
		URL string
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
		Burst    int
	}
	Log struct {
		Level  string
		Format string
	}
	Metrics struct {
		Enabled bool
	}
	Admin struct {
		Email    string
		Password string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("LOAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.path", "data/loan-portal.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", "168h")
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("auth.issuer", "loan-portal")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "loan-documents")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.presignttl", "15m")
	v.SetDefault("storage.maxuploadbytes", 10<<20)
	v.SetDefault("aws.profile", "")
	v.SetDefault("revocation.driver", "memory")
	v.SetDefault("revocation.capacity", 10000)
	v.SetDefault("redis.url", "")
	v.SetDefault("ratelimit.requests", 10)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")

	// the unprefixed names are what existing deployments already export
	_ = v.BindEnv("auth.jwtsecret", "LOAN_AUTH_JWTSECRET", "JWT_SECRET")
	_ = v.BindEnv("storage.bucket", "LOAN_STORAGE_BUCKET", "S3_BUCKET_NAME")
	_ = v.BindEnv("storage.region", "LOAN_STORAGE_REGION", "AWS_REGION")
	_ = v.BindEnv("admin.email", "LOAN_ADMIN_EMAIL", "ADMIN_EMAIL")
	_ = v.BindEnv("admin.password", "LOAN_ADMIN_PASSWORD", "ADMIN_PASSWORD")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports settings the server cannot safely start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown server mode %q", c.Server.Mode))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth jwt secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth token ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	switch c.Revocation.Driver {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis url is required for the redis revocation driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown revocation driver %q", c.Revocation.Driver))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit requests and window must be positive"))
	}
	return errors.Join(errs...)
}

func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
