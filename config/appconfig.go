// config/appconfig.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey defines a configuration key owned by the application rather than
// the core server. App keys load with the same precedence as core keys.
type AppKey struct {
	// Name is used as-is for config files and CLI flags. For env vars it
	// is uppercased and prefixed (no prefix: "smtp_user" → SMTP_USER).
	Name string

	// Default is the value when nothing else sets the key.
	// Supported types: string, int, int64, bool.
	Default any

	// Desc is a short description for --help output.
	Desc string

	// Secret redacts the value from startup logs. Keys whose name looks
	// like a credential are redacted even when Secret is false.
	Secret bool
}

// AppConfigValues holds the loaded app configuration values by key name.
type AppConfigValues map[string]any

// String returns a string value or "" if not found/wrong type.
func (a AppConfigValues) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an int value or 0 if not found/wrong type.
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Bool returns a bool value or false if not found/wrong type.
func (a AppConfigValues) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

// Duration parses a duration value such as "30s", "2m" or plain seconds.
// It returns def when the key is missing, empty or invalid.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw, ok := a[key]
	if !ok || raw == nil {
		return def
	}
	d, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return d
}

// registerAppFlags registers command-line flags for app keys.
// Must run before the flag set is parsed.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}
		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}

// loadAppConfig resolves each app key: explicit flag > env > config file > default.
// Values are cast to the type of the key's default, since env vars always
// arrive as strings.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, envPrefix string, keys []AppKey) AppConfigValues {
	result := make(AppConfigValues, len(keys))
	if len(keys) == 0 {
		return result
	}

	appV := viper.New()
	appV.SetEnvPrefix(envPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		appV.SetDefault(key.Name, key.Default)
		_ = appV.BindEnv(key.Name)

		// Config files were merged into the core viper instance.
		if v != nil && v.InConfig(key.Name) {
			appV.SetDefault(key.Name, v.Get(key.Name))
		}
		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	for _, key := range keys {
		switch key.Default.(type) {
		case int:
			result[key.Name] = appV.GetInt(key.Name)
		case int64:
			result[key.Name] = appV.GetInt64(key.Name)
		case bool:
			result[key.Name] = appV.GetBool(key.Name)
		default:
			result[key.Name] = strings.TrimSpace(appV.GetString(key.Name))
		}
	}

	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		if key.Secret || looksSecret(key.Name) {
			if result.String(key.Name) == "" {
				fields = append(fields, zap.String(key.Name, ""))
			} else {
				fields = append(fields, zap.String(key.Name, "[REDACTED]"))
			}
			continue
		}
		fields = append(fields, zap.Any(key.Name, result[key.Name]))
	}
	logger.Info("app config loaded", fields...)

	return result
}

func looksSecret(name string) bool {
	n := strings.ToLower(name)
	for _, marker := range []string{"secret", "pass", "token", "key"} {
		if strings.Contains(n, marker) {
			return true
		}
	}
	return false
}
