// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is the environment prefix for core keys (e.g. SKMS_HTTP_PORT).
const EnvPrefix = "SKMS"

// HTTPConfig groups listener ports, protocol and server timeouts.
type HTTPConfig struct {
	HTTPPort  int  `mapstructure:"http_port"`
	HTTPSPort int  `mapstructure:"https_port"`
	UseHTTPS  bool `mapstructure:"use_https"`

	// Timeouts are parsed separately (see durationKeys) so that plain
	// seconds ("30") are accepted alongside "30s".
	ReadTimeout       time.Duration `mapstructure:"-"`
	ReadHeaderTimeout time.Duration `mapstructure:"-"`
	WriteTimeout      time.Duration `mapstructure:"-"`
	IdleTimeout       time.Duration `mapstructure:"-"`
	ShutdownTimeout   time.Duration `mapstructure:"-"`
}

// TLSConfig holds manual certificate settings used when UseHTTPS is true.
type TLSConfig struct {
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// CORSConfig applies to the operational routes only. The contact endpoint
// sets its own fixed cross-origin headers.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// SecurityConfig toggles the browser security headers on site responses.
type SecurityConfig struct {
	EnableSecurityHeaders bool   `mapstructure:"enable_security_headers"`
	ContentSecurityPolicy string `mapstructure:"content_security_policy"`
}

// CoreConfig holds the server-level configuration.
type CoreConfig struct {
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	HTTP     HTTPConfig     `mapstructure:",squash"`
	TLS      TLSConfig      `mapstructure:",squash"`
	CORS     CORSConfig     `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`

	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
	EnableCompression   bool  `mapstructure:"enable_compression"`
}

// IsProd reports whether the server runs in the production environment.
func (c CoreConfig) IsProd() bool { return c.Env == "prod" }

// Dump returns indented JSON of the config for debug logging.
// CoreConfig carries no secrets; app secrets live in AppConfigValues.
func (c CoreConfig) Dump() string {
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

type durationKey struct {
	name string
	def  time.Duration
	dst  func(*CoreConfig) *time.Duration
}

var durationKeys = []durationKey{
	{"read_timeout", 15 * time.Second, func(c *CoreConfig) *time.Duration { return &c.HTTP.ReadTimeout }},
	{"read_header_timeout", 10 * time.Second, func(c *CoreConfig) *time.Duration { return &c.HTTP.ReadHeaderTimeout }},
	{"write_timeout", 60 * time.Second, func(c *CoreConfig) *time.Duration { return &c.HTTP.WriteTimeout }},
	{"idle_timeout", 120 * time.Second, func(c *CoreConfig) *time.Duration { return &c.HTTP.IdleTimeout }},
	{"shutdown_timeout", 15 * time.Second, func(c *CoreConfig) *time.Duration { return &c.HTTP.ShutdownTimeout }},
}

var listKeys = []string{
	"cors_allowed_origins",
	"cors_allowed_methods",
	"cors_allowed_headers",
}

// Load reads the core config and the given app keys from the process
// command line and environment. See LoadFrom for precedence.
func Load(logger *zap.Logger, appPrefix string, appKeys []AppKey) (*CoreConfig, AppConfigValues, error) {
	return LoadFrom(logger, pflag.CommandLine, os.Args[1:], appPrefix, appKeys)
}

// LoadFrom merges defaults → .env → config.* file → env vars → explicit
// flags into one CoreConfig plus the app values. Highest wins:
// flags(explicit) > env > config file > .env > defaults.
//
// appPrefix is the env prefix for app keys; an empty prefix maps a key
// like "smtp_user" straight to SMTP_USER.
func LoadFrom(logger *zap.Logger, fs *pflag.FlagSet, args []string, appPrefix string, appKeys []AppKey) (*CoreConfig, AppConfigValues, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// .env never overrides variables that are already set.
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	registerCoreFlags(fs)
	if err := registerAppFlags(fs, appKeys); err != nil {
		return nil, nil, err
	}
	if !fs.Parsed() {
		if err := fs.Parse(args); err != nil {
			return nil, nil, fmt.Errorf("parse flags: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range coreKeys() {
		_ = v.BindEnv(k)
	}

	mergeConfigFile(logger, v)
	setDefaults(v)

	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed && isCoreKey(f.Name) {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	if err := normalizeListKeys(logger, v, listKeys...); err != nil {
		return nil, nil, err
	}

	var cfg CoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unable to decode core config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	for _, dk := range durationKeys {
		d, err := parseDurationFlexible(v.Get(dk.name), dk.def)
		if err != nil {
			logger.Warn("invalid duration; using default",
				zap.String("key", dk.name),
				zap.Any("value", v.Get(dk.name)),
				zap.Duration("default", dk.def),
				zap.Error(err))
		}
		*dk.dst(&cfg) = d
	}

	if err := validateCoreConfig(cfg); err != nil {
		return nil, nil, err
	}

	appVals := loadAppConfig(logger, v, fs, appPrefix, appKeys)
	return &cfg, appVals, nil
}

// mergeConfigFile merges the first readable config.{yaml,yml,json,toml}
// in the working directory.
func mergeConfigFile(logger *zap.Logger, v *viper.Viper) {
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		b, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			continue
		}
		logger.Info("loaded config file", zap.String("file", file))
		return
	}
}

func registerCoreFlags(fs *pflag.FlagSet) {
	if fs.Lookup("env") != nil {
		return
	}
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "debug", "Log level")

	fs.Int("http_port", 8080, "HTTP port")
	fs.Int("https_port", 443, "HTTPS port")
	fs.Bool("use_https", false, "Serve HTTPS with cert_file/key_file")
	fs.String("cert_file", "", "TLS certificate file")
	fs.String("key_file", "", "TLS key file")

	fs.String("read_timeout", "15s", "HTTP read timeout")
	fs.String("read_header_timeout", "10s", "HTTP read header timeout")
	fs.String("write_timeout", "60s", "HTTP write timeout")
	fs.String("idle_timeout", "120s", "HTTP keep-alive idle timeout")
	fs.String("shutdown_timeout", "15s", "Graceful shutdown window")

	fs.Bool("enable_compression", true, "Enable HTTP compression")
	fs.Bool("enable_security_headers", true, "Send browser security headers")
	fs.String("content_security_policy", "", "Content-Security-Policy header value")

	fs.Bool("enable_cors", false, "Enable CORS on operational routes")
	fs.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://skms.co.za"]'`)
	fs.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["GET"]'`)
	fs.String("cors_allowed_headers", "", `JSON array of headers, e.g. '["Accept"]'`)
	fs.Bool("cors_allow_credentials", false, "CORS: allow credentials")
	fs.Int("cors_max_age", 0, "CORS: max age seconds (0 disables cache)")

	fs.Int64("max_request_body_bytes", 64<<10, "Max HTTP request body size in bytes (0 = unlimited)")
}

func coreKeys() []string {
	keys := []string{
		"env", "log_level",
		"http_port", "https_port", "use_https",
		"cert_file", "key_file",
		"enable_compression",
		"enable_security_headers", "content_security_policy",
		"enable_cors",
		"cors_allowed_origins", "cors_allowed_methods", "cors_allowed_headers",
		"cors_allow_credentials", "cors_max_age",
		"max_request_body_bytes",
	}
	for _, dk := range durationKeys {
		keys = append(keys, dk.name)
	}
	return keys
}

func isCoreKey(name string) bool {
	for _, k := range coreKeys() {
		if k == name {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 8080)
	v.SetDefault("https_port", 443)
	v.SetDefault("use_https", false)
	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")

	for _, dk := range durationKeys {
		v.SetDefault(dk.name, dk.def.String())
	}

	v.SetDefault("enable_compression", true)
	v.SetDefault("enable_security_headers", true)
	v.SetDefault("content_security_policy", "")

	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("cors_allowed_methods", []string{})
	v.SetDefault("cors_allowed_headers", []string{})
	v.SetDefault("cors_allow_credentials", false)
	v.SetDefault("cors_max_age", 0)

	v.SetDefault("max_request_body_bytes", int64(64<<10))
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		switch t := v.Get(key).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				v.Set(key, []string{})
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []any:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
		default:
			logger.Warn("unexpected type for list key; expected JSON array/string",
				zap.String("key", key), zap.Any("value", t))
		}
	}
	return nil
}

func validateCoreConfig(cfg CoreConfig) error {
	var missing, invalid []string

	if cfg.Env != "dev" && cfg.Env != "prod" {
		invalid = append(invalid, `env must be "dev" or "prod"`)
	}

	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.UseHTTPS {
		if cfg.HTTP.HTTPSPort <= 0 || cfg.HTTP.HTTPSPort > 65535 {
			invalid = append(invalid, "https_port must be in 1..65535")
		}
		if cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
			invalid = append(invalid, "http_port and https_port cannot be equal when use_https=true")
		}
		if strings.TrimSpace(cfg.TLS.CertFile) == "" || strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			missing = append(missing, "SKMS_CERT_FILE and SKMS_KEY_FILE (or --cert_file/--key_file) for HTTPS")
		}
	}

	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "cors_max_age must be >= 0")
		}
	}

	if cfg.MaxRequestBodyBytes < 0 {
		invalid = append(invalid, "max_request_body_bytes must be >= 0")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("core configuration errors: %s", strings.Join(parts, " | "))
}
