// Package config provides configuration loading for contractlens.
// It supports a layered configuration approach with priority:
// CLI flags > environment variables (CONTRACTLENS_*) > config file (~/.contractlens.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/buemura/contractlens/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "CONTRACTLENS"

// AIConfig describes the external analysis service.
type AIConfig struct {
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	Model       string `mapstructure:"model" yaml:"model"`
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	// ContextFile points at a YAML project description sent with AI requests.
	ContextFile string `mapstructure:"context_file" yaml:"context_file"`
}

// Config holds all contractlens configuration options.
type Config struct {
	Engine       Engine   `mapstructure:",squash" yaml:",inline"`
	AI           AIConfig `mapstructure:"ai" yaml:"ai"`
	OutputFormat string   `mapstructure:"output_format" yaml:"output_format"`
	LogLevel     string   `mapstructure:"log_level" yaml:"log_level"`
	FailOn       string   `mapstructure:"fail_on" yaml:"fail_on"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Engine:       DefaultEngine(),
		AI:           AIConfig{Model: "gpt-4o-mini"},
		OutputFormat: "table",
		LogLevel:     "warn",
		FailOn:       "high",
	}
}

// Load reads configuration from ~/.contractlens.yaml and environment variables.
// It does NOT apply CLI flag overrides; call ApplyFlags for that.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName(".contractlens")
	v.SetConfigType("yaml")

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return decode(v)
}

// ApplyFlags overrides config values with any CLI flags that were explicitly set.
func ApplyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()

	if flags.Changed("output") {
		val, _ := flags.GetString("output")
		cfg.OutputFormat = val
	}
	if flags.Changed("threshold") {
		val, _ := flags.GetString("threshold")
		sev, err := types.ParseSeverity(val)
		if err != nil {
			return fmt.Errorf("--threshold: %w", err)
		}
		cfg.Engine.SeverityThreshold = sev
	}
	if flags.Changed("debounce") {
		val, _ := flags.GetDuration("debounce")
		cfg.Engine.DebounceMs = int(val / time.Millisecond)
	}
	if flags.Changed("max-code-length") {
		val, _ := flags.GetInt("max-code-length")
		cfg.Engine.MaxCodeLength = val
	}
	if flags.Changed("ai") {
		val, _ := flags.GetBool("ai")
		cfg.Engine.EnableAIAnalysis = val
	}
	if flags.Changed("verbose") {
		if val, _ := flags.GetBool("verbose"); val {
			cfg.LogLevel = "debug"
		}
	}
	if flags.Changed("fail-on") {
		val, _ := flags.GetString("fail-on")
		cfg.FailOn = val
	}

	return cfg.Engine.Validate()
}

// ConfigFilePath returns the default config file path (~/.contractlens.yaml).
func ConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".contractlens.yaml"
	}
	return filepath.Join(home, ".contractlens.yaml")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("enable_realtime", d.Engine.EnableRealtime)
	v.SetDefault("enable_ai_analysis", d.Engine.EnableAIAnalysis)
	v.SetDefault("enable_pattern_matching", d.Engine.EnablePatternMatching)
	v.SetDefault("debounce_ms", d.Engine.DebounceMs)
	v.SetDefault("severity_threshold", string(d.Engine.SeverityThreshold))
	v.SetDefault("max_code_length", d.Engine.MaxCodeLength)
	v.SetDefault("enable_auto_fix", d.Engine.EnableAutoFix)
	v.SetDefault("detector_budget", d.Engine.DetectorBudget)
	v.SetDefault("ai_timeout", d.Engine.AITimeout)
	v.SetDefault("cache_size", d.Engine.CacheSize)
	v.SetDefault("score_filtered_issues", d.Engine.ScoreFilteredIssues)
	v.SetDefault("ai.endpoint", d.AI.Endpoint)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.api_key", d.AI.APIKey)
	v.SetDefault("ai.context_file", d.AI.ContextFile)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("fail_on", d.FailOn)
}
