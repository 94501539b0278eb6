// Package config handles loading and validating the voxtap configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the voxtap daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Automation AutomationConfig `mapstructure:"automation"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health and metrics server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each instruction intake.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
	MQTT MQTTConfig `mapstructure:"mqtt"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// MQTTConfig configures the MQTT transcript subscriber.
type MQTTConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Broker     string `mapstructure:"broker"`
	Topic      string `mapstructure:"topic"`       // transcripts published by speech capture devices
	ReplyTopic string `mapstructure:"reply_topic"` // outcomes are published here when set
	ClientID   string `mapstructure:"client_id"`
}

// AutomationConfig selects the platform and the automation backend.
type AutomationConfig struct {
	Platform string `mapstructure:"platform"` // only "android" has a backend
	Backend  string `mapstructure:"backend"`  // "adb" or "bridge"

	// CallTimeout bounds each backend call. Zero means no bound: a hung call
	// keeps the coordinator busy until it returns.
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	ADB    ADBConfig    `mapstructure:"adb"`
	Bridge BridgeConfig `mapstructure:"bridge"`
}

// ADBConfig holds Android Debug Bridge settings.
type ADBConfig struct {
	Path          string        `mapstructure:"path"`
	Serial        string        `mapstructure:"serial"`  // device serial; empty uses the only attached device
	Service       string        `mapstructure:"service"` // accessibility service component, e.g. "com.voxtap/.AutomationService"
	SwipeDuration time.Duration `mapstructure:"swipe_duration"`
}

// BridgeConfig holds settings for the on-device accessibility bridge HTTP API.
type BridgeConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SpeechConfig configures the Whisper-compatible transcription endpoint used
// for audio posted to the HTTP transport.
type SpeechConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Type      string `mapstructure:"type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	Model     string `mapstructure:"model"`
	Language  string `mapstructure:"language"` // ISO-639-1
	VADFilter bool   `mapstructure:"vad_filter"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./voxtap.yaml, ./configs/voxtap.yaml, /etc/voxtap/voxtap.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voxtap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/voxtap")
	}

	// Environment variables: VOXTAP_AUTOMATION_BACKEND, VOXTAP_TRANSPORTS_HTTP_PORT, etc.
	v.SetEnvPrefix("VOXTAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Automation.Bridge.Token = resolveEnvRef(cfg.Automation.Bridge.Token)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.mqtt.enabled", false)
	v.SetDefault("transports.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("transports.mqtt.topic", "voxtap/transcripts")
	v.SetDefault("transports.mqtt.reply_topic", "voxtap/outcomes")
	v.SetDefault("transports.mqtt.client_id", "voxtap")
	v.SetDefault("automation.platform", "android")
	v.SetDefault("automation.backend", "adb")
	v.SetDefault("automation.call_timeout", "0s")
	v.SetDefault("automation.adb.path", "adb")
	v.SetDefault("automation.adb.swipe_duration", "300ms")
	v.SetDefault("automation.bridge.endpoint", "http://localhost:8765")
	v.SetDefault("automation.bridge.timeout", "0s")
	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("speech.type", "openai")
	v.SetDefault("speech.language", "en")
	v.SetDefault("speech.vad_filter", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate reports settings that would leave the daemon unable to start.
func (c *Config) Validate() error {
	switch c.Automation.Backend {
	case "adb", "bridge":
	default:
		return fmt.Errorf("unknown automation backend %q (want adb or bridge)", c.Automation.Backend)
	}
	if c.Automation.CallTimeout < 0 {
		return fmt.Errorf("automation.call_timeout must not be negative")
	}
	if c.Automation.Backend == "bridge" && c.Automation.Bridge.Endpoint == "" {
		return fmt.Errorf("automation.bridge.endpoint is required for the bridge backend")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
