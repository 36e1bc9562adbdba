// Package config provides configuration management for the trap terminal.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Keyboard controls synthetic key injection
	Keyboard KeyboardConfig `yaml:"keyboard" json:"keyboard"`

	// Automation controls the periodic trap typing cycle
	Automation AutomationConfig `yaml:"automation" json:"automation"`

	// Players is the roster used by the switch command, 1-indexed on the keyboard
	Players []string `yaml:"players" json:"players"`

	// Radars is the roster used by the ping and flash commands
	Radars []string `yaml:"radars" json:"radars"`

	// General contains general application settings
	General GeneralConfig `yaml:"general" json:"general"`
}

// KeyboardConfig contains key injection timings
type KeyboardConfig struct {
	// InputDelay is how long each synthetic key is held down
	InputDelay time.Duration `yaml:"input_delay" json:"input_delay"`

	// PaceFactor scales InputDelay to estimate the real cost of one key
	// when the automation pass paces itself against the injector
	PaceFactor float64 `yaml:"pace_factor" json:"pace_factor"`

	// PollInterval is how long the injector idles on an empty queue
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// AutomationConfig contains scheduler timings
type AutomationConfig struct {
	// CycleDuration is the period between the starts of two trap passes
	CycleDuration time.Duration `yaml:"cycle_duration" json:"cycle_duration"`

	// GracePeriod is waited once per session before the first pass
	GracePeriod time.Duration `yaml:"grace_period" json:"grace_period"`

	// PollInterval is how often an idle scheduler re-checks the mode
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFile receives the application log; the terminal belongs to the status screen
	LogFile string `yaml:"log_file" json:"log_file"`

	// UIEnabled shows the terminal status screen
	UIEnabled bool `yaml:"ui_enabled" json:"ui_enabled"`

	// TrayEnabled shows the system tray indicator
	TrayEnabled bool `yaml:"tray_enabled" json:"tray_enabled"`

	// APIEnabled enables the local HTTP status API
	APIEnabled bool `yaml:"api_enabled" json:"api_enabled"`

	// APIPort is the port for the API server
	APIPort int `yaml:"api_port" json:"api_port"`

	// APIToken is an optional bearer token for API requests
	APIToken string `yaml:"api_token,omitempty" json:"api_token,omitempty"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Keyboard: KeyboardConfig{
			InputDelay:   20 * time.Millisecond,
			PaceFactor:   1.3,
			PollInterval: 10 * time.Millisecond,
		},
		Automation: AutomationConfig{
			CycleDuration: 30 * time.Second,
			GracePeriod:   time.Second,
			PollInterval:  100 * time.Millisecond,
		},
		Players: []string{},
		Radars:  []string{},
		General: GeneralConfig{
			LogLevel:  "info",
			LogFile:   "lethalterm.log",
			UIEnabled: true,
			APIPort:   18090,
		},
	}
}

// Validate checks the configuration for values the runtime cannot work with
func (c *Config) Validate() error {
	if c.Keyboard.InputDelay < 0 {
		return fmt.Errorf("keyboard.input_delay must not be negative")
	}
	if c.Keyboard.PaceFactor < 1 {
		return fmt.Errorf("keyboard.pace_factor must be at least 1, got %v", c.Keyboard.PaceFactor)
	}
	if c.Automation.CycleDuration <= 0 {
		return fmt.Errorf("automation.cycle_duration must be positive")
	}
	if c.Automation.GracePeriod < 0 {
		return fmt.Errorf("automation.grace_period must not be negative")
	}
	if c.General.APIEnabled && (c.General.APIPort <= 0 || c.General.APIPort > 65535) {
		return fmt.Errorf("general.api_port out of range: %d", c.General.APIPort)
	}
	if _, err := ParseLevel(c.General.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a config log level onto slog
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// legacyConfig is the flat JSON layout used by the first prototype.
// Delays are in seconds.
type legacyConfig struct {
	KeyboardInputDelay *float64 `json:"KEYBOARD_INPUT_DELAY"`
	TrapTimerDuration  *float64 `json:"TRAP_TIMER_DURATION"`
	Players            []string `json:"PLAYERS"`
	Radars             []string `json:"RADARS"`
	LogLevel           string   `json:"LOG_LEVEL"`
}

func (l *legacyConfig) apply(c *Config) {
	if l.KeyboardInputDelay != nil {
		c.Keyboard.InputDelay = seconds(*l.KeyboardInputDelay)
	}
	if l.TrapTimerDuration != nil {
		c.Automation.CycleDuration = seconds(*l.TrapTimerDuration)
	}
	if l.Players != nil {
		c.Players = l.Players
	}
	if l.Radars != nil {
		c.Radars = l.Radars
	}
	if l.LogLevel != "" {
		c.General.LogLevel = strings.ToLower(l.LogLevel)
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a configuration manager for path. An empty path
// resolves to $CONFIG_FILE or the per-user config directory.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return nil, err
		}
	}

	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	if env := os.Getenv("CONFIG_FILE"); env != "" {
		return env, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "lethalterm")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "lethalterm")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "lethalterm")
	}

	return filepath.Join(configDir, "config.yaml"), nil
}

// Path returns the file the manager reads and writes
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file keeps the defaults.
func (m *Manager) Load() error {
	m.mu.Lock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(m.configPath, data, cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("parse %s: %w", m.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}

	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return err
		}
		_, hasDelay := probe["KEYBOARD_INPUT_DELAY"]
		_, hasTimer := probe["TRAP_TIMER_DURATION"]
		if hasDelay || hasTimer {
			var legacy legacyConfig
			if err := json.Unmarshal(data, &legacy); err != nil {
				return err
			}
			legacy.apply(cfg)
			return nil
		}
		return json.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Save writes the configuration to disk as YAML
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set replaces the configuration
func (m *Manager) Set(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = config
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
	return nil
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}

// Player returns the roster entry for a 0-based index
func (m *Manager) Player(index int) (string, bool) {
	return lookup(m.Get().Players, index)
}

// Radar returns the radar entry for a 0-based index
func (m *Manager) Radar(index int) (string, bool) {
	return lookup(m.Get().Radars, index)
}

func lookup(roster []string, index int) (string, bool) {
	if index < 0 || index >= len(roster) || roster[index] == "" {
		return "", false
	}
	return roster[index], true
}
