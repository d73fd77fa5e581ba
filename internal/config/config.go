package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding/ianaindex"

	"symdex/internal/syntax"
)

// EnvPrefix prefixes every environment override, e.g. SYMDEX_SERVER_PORT.
const EnvPrefix = "SYMDEX"

// FileName is the config file name looked up when no explicit path is given.
const FileName = "symdex"

// Config represents the complete symdex configuration
type Config struct {
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Parser  ParserConfig  `toml:"parser" mapstructure:"parser"`
	Logging LoggingConfig `toml:"logging" mapstructure:"logging"`
}

// ServerConfig contains listener and per-connection limits
type ServerConfig struct {
	Host            string   `toml:"host" mapstructure:"host"`
	Port            int      `toml:"port" mapstructure:"port"`
	MaxPayloadBytes int64    `toml:"max_payload_bytes" mapstructure:"max_payload_bytes"`
	ReadTimeout     Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	MaxConnections  int      `toml:"max_connections" mapstructure:"max_connections"`
}

// ParserConfig selects the grammar and the payload charset
type ParserConfig struct {
	Language string `toml:"language" mapstructure:"language"`
	Encoding string `toml:"encoding" mapstructure:"encoding"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSize    string `toml:"max_size" mapstructure:"max_size"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
}

// Duration is a time.Duration that reads and writes as "30s" in config files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            5002,
			MaxPayloadBytes: 8 << 20,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			MaxConnections:  0,
		},
		Parser: ParserConfig{
			Language: string(syntax.LangJava),
			Encoding: "utf-8",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from path, or from symdex.{toml,yaml,json}
// in the working directory and the user config directory when path is empty.
// A missing config file yields the defaults. SYMDEX_* environment variables
// override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "symdex"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_payload_bytes", d.Server.MaxPayloadBytes)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout.Std().String())
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout.Std().String())
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("parser.language", d.Parser.Language)
	v.SetDefault("parser.encoding", d.Parser.Encoding)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gotoml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the configuration as TOML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Check strictly decodes a TOML config file. It returns the decoded config
// and the dotted names of any keys symdex does not know.
func Check(path string) (*Config, []string, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, nil, err
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return cfg, unknown, nil
}

var validLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "silent": true, "off": true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: fmt.Sprintf("%d is not a valid port", c.Server.Port)}
	}
	if c.Server.MaxPayloadBytes <= 0 {
		return &ConfigError{Field: "server.max_payload_bytes", Message: "must be positive"}
	}
	if c.Server.ReadTimeout < 0 {
		return &ConfigError{Field: "server.read_timeout", Message: "must not be negative"}
	}
	if c.Server.WriteTimeout < 0 {
		return &ConfigError{Field: "server.write_timeout", Message: "must not be negative"}
	}
	if c.Server.MaxConnections < 0 {
		return &ConfigError{Field: "server.max_connections", Message: "must not be negative"}
	}

	if _, err := syntax.ParseLanguage(c.Parser.Language); err != nil {
		return &ConfigError{Field: "parser.language", Message: err.Error()}
	}
	if enc, err := ianaindex.IANA.Encoding(c.Parser.Encoding); err != nil || enc == nil {
		return &ConfigError{Field: "parser.encoding", Message: fmt.Sprintf("unsupported charset %q", c.Parser.Encoding)}
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.max_backups", Message: "must not be negative"}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
