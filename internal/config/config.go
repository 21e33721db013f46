// Package config loads the pipebuilder runtime configuration.
//
// Values come, in increasing priority, from built-in defaults, an optional
// YAML file, PIPEBUILDER_* environment variables and command-line flags
// bound by the caller.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PIPEBUILDER_HTTP_PORT.
const EnvPrefix = "PIPEBUILDER"

// Store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	// DefinitionsDir is a Loam directory of component definitions.
	DefinitionsDir string        `mapstructure:"definitions_dir"`
	Debounce       time.Duration `mapstructure:"debounce" validate:"gte=0"`

	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	MCP      MCPConfig      `mapstructure:"mcp"`
	Store    StoreConfig    `mapstructure:"store"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Security SecurityConfig `mapstructure:"security"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
	// Watch streams definition changes from the definitions directory at /events.
	Watch bool `mapstructure:"watch"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport" validate:"oneof=stdio sse"`
	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
}

type StoreConfig struct {
	Driver  string        `mapstructure:"driver" validate:"oneof=memory redis"`
	LockTTL time.Duration `mapstructure:"lock_ttl" validate:"gte=0"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Enabled  bool          `mapstructure:"-"`
}

// BackendConfig points the definition catalog at a remote API instead of a local directory.
type BackendConfig struct {
	BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
	AccessToken string `mapstructure:"access_token" validate:"required_with=BaseURL"`
	Retries     int    `mapstructure:"retries" validate:"gte=0,lte=10"`
}

// SecurityConfig enables the recipe store middlewares.
type SecurityConfig struct {
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string   `mapstructure:"encryption_key" validate:"omitempty,base64"`
	FallbackKeys  []string `mapstructure:"fallback_keys" validate:"dive,base64"`
	// MaskKeys are regular expressions of configuration keys masked before saving.
	MaskKeys []string `mapstructure:"mask_keys"`
}

// ErrInvalidKey is returned when an encryption key does not decode to 32 bytes.
var ErrInvalidKey = errors.New("encryption key must decode to 32 bytes")

// Keys decodes the active and fallback encryption keys.
// It returns a nil active key when encryption is disabled.
func (s SecurityConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for _, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("definitions_dir", "")
	v.SetDefault("debounce", 5*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.watch", false)
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.port", 8081)
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.lock_ttl", 10*time.Second)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "pipebuilder:")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.ttl", time.Duration(0))
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.access_token", "")
	v.SetDefault("backend.retries", 3)
	v.SetDefault("security.encryption_key", "")
	v.SetDefault("security.fallback_keys", []string{})
	v.SetDefault("security.mask_keys", []string{})
}

// Load reads the configuration from v.
// When file is not empty it is merged over the defaults before the environment is applied.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Store.Redis.Enabled = cfg.Store.Driver == StoreRedis

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the encryption keys.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, _, err := c.Security.Keys(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
