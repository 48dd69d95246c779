// Package config loads nanosockets settings from a YAML/JSON/TOML file and
// NANOSOCKETS_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/OpenListTeam/nanosockets/address"
	"github.com/OpenListTeam/nanosockets/logger"
	"github.com/OpenListTeam/nanosockets/udp"
)

const (
	Name      = "nanosockets"
	EnvPrefix = "NANOSOCKETS"
)

type LogConfig struct {
	Output   string           `yaml:",omitempty" json:"output,omitempty"`
	Level    string           `yaml:",omitempty" json:"level,omitempty"`
	Format   string           `yaml:",omitempty" json:"format,omitempty"`
	Rotation *logger.Rotation `yaml:",omitempty" json:"rotation,omitempty"`
}

type SocketsConfig struct {
	SendBufferSize    int    `yaml:"sendBufferSize,omitempty" json:"sendBufferSize,omitempty"`
	ReceiveBufferSize int    `yaml:"receiveBufferSize,omitempty" json:"receiveBufferSize,omitempty"`
	LockMode          string `yaml:"lockMode,omitempty" json:"lockMode,omitempty"`
}

type ResolverConfig struct {
	// Nameserver switches hostname lookups from the system resolver to
	// direct DNS queries against host[:port].
	Nameserver string        `yaml:",omitempty" json:"nameserver,omitempty"`
	Timeout    time.Duration `yaml:",omitempty" json:"timeout,omitempty"`
}

type MetricsConfig struct {
	Addr string `yaml:",omitempty" json:"addr,omitempty"`
	Path string `yaml:",omitempty" json:"path,omitempty"`
}

type Config struct {
	Log      LogConfig      `yaml:",omitempty" json:"log,omitempty"`
	Sockets  SocketsConfig  `yaml:",omitempty" json:"sockets,omitempty"`
	Resolver ResolverConfig `yaml:",omitempty" json:"resolver,omitempty"`
	Metrics  MetricsConfig  `yaml:",omitempty" json:"metrics,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.level", string(logger.InfoLevel))
	v.SetDefault("log.format", string(logger.TextFormat))
	v.SetDefault("sockets.sendBufferSize", 0)
	v.SetDefault("sockets.receiveBufferSize", 0)
	v.SetDefault("sockets.lockMode", string(udp.LockPerHandle))
	v.SetDefault("resolver.nameserver", "")
	v.SetDefault("resolver.timeout", 5*time.Second)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file, or searches /etc/nanosockets, $HOME/.nanosockets and the
// working directory for nanosockets.{yaml,json,toml} when file is empty.
// A missing file is not an error in search mode.
func Load(file string) (*Config, error) {
	v := newViper()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName(Name)
		v.AddConfigPath("/etc/nanosockets/")
		v.AddConfigPath("$HOME/.nanosockets/")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}
	return unmarshal(v)
}

// Read parses configuration of the given format ("yaml", "json", ...)
// from r, with the environment still taking precedence.
func Read(r io.Reader, format string) (*Config, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Write(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case "yaml":
		fallthrough
	default:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		enc.SetIndent(2)

		return enc.Encode(c)
	}
}

// Logger builds the logger described by c.Log.
func (c *Config) Logger(name string) (logger.Logger, error) {
	out, err := logger.OpenOutput(c.Log.Output, c.Log.Rotation)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return logger.Nop(), nil
	}
	return logger.NewLogger(
		logger.NameOption(name),
		logger.OutputOption(out),
		logger.FormatOption(logger.LogFormat(c.Log.Format)),
		logger.LevelOption(logger.LogLevel(c.Log.Level)),
	), nil
}

// HostResolver returns the resolver described by c.Resolver.
func (c *Config) HostResolver() address.Resolver {
	if c.Resolver.Nameserver == "" {
		return &address.SystemResolver{}
	}
	return address.NewDNSResolver(c.Resolver.Nameserver, c.Resolver.Timeout)
}

// HostOptions translates c into udp.NewHost options.
func (c *Config) HostOptions(log logger.Logger) []udp.Option {
	return []udp.Option{
		udp.LoggerOption(log),
		udp.ResolverOption(c.HostResolver()),
		udp.LockModeOption(udp.LockMode(c.Sockets.LockMode)),
	}
}
