package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Voice backends.
const (
	VoiceGeminiLive = "gemini-live"
	VoiceText       = "text"
)

// Storage backends.
const (
	StorageGCS   = "gcs"
	StorageLocal = "local"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Models    ModelsConfig    `yaml:"models"`
	Voice     VoiceConfig     `yaml:"voice"`
	Session   SessionConfig   `yaml:"session"`
	Storage   StorageConfig   `yaml:"storage"`
	Prompts   PromptsConfig   `yaml:"prompts"`
	Questions QuestionsConfig `yaml:"questions"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	HTTPAddr       string        `yaml:"http_addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	StartTimeout   time.Duration `yaml:"-"`

	StartTimeoutRaw string `yaml:"start_timeout"`
}

// ProviderConfig selects the model provider for the capabilities.
type ProviderConfig struct {
	Name     string `yaml:"name"`
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
	APIKey   string `yaml:"api_key"`
}

// ModelsConfig names the model used by each capability.
type ModelsConfig struct {
	Diagnoser   string `yaml:"diagnoser"`
	Evaluator   string `yaml:"evaluator"`
	Ranker      string `yaml:"ranker"`
	Advisor     string `yaml:"advisor"`
	Highlighter string `yaml:"highlighter"`
	Trigger     string `yaml:"trigger"`
}

// VoiceConfig selects how the nurse and patient speak.
type VoiceConfig struct {
	Backend      string `yaml:"backend"`
	Model        string `yaml:"model"`
	NurseVoice   string `yaml:"nurse_voice"`
	PatientVoice string `yaml:"patient_voice"`
}

// SessionConfig holds the timing of an interview session.
type SessionConfig struct {
	PollInterval      time.Duration `yaml:"-"`
	DeliveryTimeout   time.Duration `yaml:"-"`
	TurnGap           time.Duration `yaml:"-"`
	AudioYield        time.Duration `yaml:"-"`
	CapabilityTimeout time.Duration `yaml:"-"`
	TriggerGate       bool          `yaml:"trigger_gate"`
	WakeOnAppend      bool          `yaml:"wake_on_append"`
	MaxCycles         int           `yaml:"max_cycles"`

	// Raw string values for YAML unmarshaling
	PollIntervalRaw      string `yaml:"poll_interval"`
	DeliveryTimeoutRaw   string `yaml:"delivery_timeout"`
	TurnGapRaw           string `yaml:"turn_gap"`
	AudioYieldRaw        string `yaml:"audio_yield"`
	CapabilityTimeoutRaw string `yaml:"capability_timeout"`
}

// StorageConfig locates patient profiles.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Root    string `yaml:"root"`
}

// PromptsConfig locates the capability instruction files.
type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

// QuestionsConfig locates the seed question bank.
type QuestionsConfig struct {
	Bank string `yaml:"bank"`
}

// ArchiveConfig enables the session archive. An empty path disables it.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used for every unset field.
func Default() *Config {
	const logicModel = "gemini-2.5-flash-lite"
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			AllowedOrigins:  []string{"*"},
			StartTimeoutRaw: "30s",
		},
		Provider: ProviderConfig{Name: ProviderGemini, Location: "us-central1"},
		Models: ModelsConfig{
			Diagnoser:   logicModel,
			Evaluator:   logicModel,
			Ranker:      logicModel,
			Advisor:     logicModel,
			Highlighter: logicModel,
			Trigger:     logicModel,
		},
		Voice: VoiceConfig{
			Backend:      VoiceGeminiLive,
			Model:        "gemini-live-2.5-flash-preview-native-audio-09-2025",
			NurseVoice:   "Aoede",
			PatientVoice: "Puck",
		},
		Session: SessionConfig{
			PollIntervalRaw:      "1s",
			DeliveryTimeoutRaw:   "1s",
			TurnGapRaw:           "500ms",
			AudioYieldRaw:        "5ms",
			CapabilityTimeoutRaw: "60s",
		},
		Storage: StorageConfig{Backend: StorageGCS, Bucket: "clinic_sim", Prefix: "patient_profile", Root: "./data"},
		Prompts: PromptsConfig{Dir: "./prompts"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads a configuration file and returns a parsed Config. Fields
// absent from the file keep their Default values. Environment variables
// in the format ${VAR_NAME} are expanded. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to "".
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks that the configuration is usable. It returns the first
// failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return errors.New("server.http_addr is required")
	}
	switch c.Provider.Name {
	case ProviderGemini:
		if c.Provider.APIKey == "" && c.Provider.Project == "" {
			return errors.New("provider.project or provider.api_key is required for gemini")
		}
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("provider.name %q is not supported", c.Provider.Name)
	}
	switch c.Voice.Backend {
	case VoiceGeminiLive:
		if c.Provider.Name != ProviderGemini {
			return errors.New("voice.backend gemini-live requires provider.name gemini")
		}
	case VoiceText:
	default:
		return fmt.Errorf("voice.backend %q is not supported", c.Voice.Backend)
	}
	switch c.Storage.Backend {
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for gcs")
		}
	case StorageLocal:
		if c.Storage.Root == "" {
			return errors.New("storage.root is required for local")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	if c.Session.MaxCycles < 0 {
		return errors.New("session.max_cycles must not be negative")
	}
	if c.Session.PollInterval <= 0 {
		return errors.New("session.poll_interval must be positive")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.start_timeout", cfg.Server.StartTimeoutRaw, &cfg.Server.StartTimeout},
		{"session.poll_interval", cfg.Session.PollIntervalRaw, &cfg.Session.PollInterval},
		{"session.delivery_timeout", cfg.Session.DeliveryTimeoutRaw, &cfg.Session.DeliveryTimeout},
		{"session.turn_gap", cfg.Session.TurnGapRaw, &cfg.Session.TurnGap},
		{"session.audio_yield", cfg.Session.AudioYieldRaw, &cfg.Session.AudioYield},
		{"session.capability_timeout", cfg.Session.CapabilityTimeoutRaw, &cfg.Session.CapabilityTimeout},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
