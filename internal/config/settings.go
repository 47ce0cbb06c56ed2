package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/spf13/cast"
)

const (
	DefaultMaxBodyLength      = 2000
	DefaultModel              = "gpt-4o-mini"
	DefaultMaxTokens          = 200
	DefaultTitleTemperature   = float32(0)
	DefaultContentTemperature = float32(0.7)
)

// Settings are the user-editable options persisted in settings.json.
type Settings struct {
	APIKey             string  `json:"api_key"`
	MaxBodyLength      int     `json:"max_body_length"`
	Model              string  `json:"model"`
	BaseURL            string  `json:"base_url,omitempty"`
	MaxTokens          int     `json:"max_tokens"`
	TitleTemperature   float32 `json:"title_temperature"`
	ContentTemperature float32 `json:"content_temperature"`
	RepairJSON         bool    `json:"repair_json"`
}

// DefaultSettings returns the documented defaults. The API key is empty.
func DefaultSettings() Settings {
	return Settings{
		MaxBodyLength:      DefaultMaxBodyLength,
		Model:              DefaultModel,
		MaxTokens:          DefaultMaxTokens,
		TitleTemperature:   DefaultTitleTemperature,
		ContentTemperature: DefaultContentTemperature,
	}
}

// WithDefaults fills values that are unset or out of range.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.MaxBodyLength <= 0 {
		s.MaxBodyLength = d.MaxBodyLength
	}
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = d.MaxTokens
	}
	if s.TitleTemperature < 0 || s.TitleTemperature > 2 {
		s.TitleTemperature = d.TitleTemperature
	}
	if s.ContentTemperature < 0 || s.ContentTemperature > 2 {
		s.ContentTemperature = d.ContentTemperature
	}
	return s
}

// HasAPIKey reports whether a credential is configured.
func (s Settings) HasAPIKey() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// Temperature returns the sampling temperature used for mode.
func (s Settings) Temperature(mode domain.Mode) float32 {
	if mode == domain.ModeContent {
		return s.ContentTemperature
	}
	return s.TitleTemperature
}

// MaskedAPIKey hides all but the last four characters of the key.
func (s Settings) MaskedAPIKey() string {
	if s.APIKey == "" {
		return ""
	}
	if len(s.APIKey) <= 8 {
		return "****"
	}
	return s.APIKey[:3] + "..." + s.APIKey[len(s.APIKey)-4:]
}

var settingKeys = map[string]func(s *Settings, value string) error{
	"api_key": func(s *Settings, v string) error {
		s.APIKey = strings.TrimSpace(v)
		return nil
	},
	"max_body_length": func(s *Settings, v string) error {
		n, err := cast.ToIntE(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("max_body_length must be a positive integer")
		}
		s.MaxBodyLength = n
		return nil
	},
	"model": func(s *Settings, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("model cannot be empty")
		}
		s.Model = strings.TrimSpace(v)
		return nil
	},
	"base_url": func(s *Settings, v string) error {
		s.BaseURL = strings.TrimSpace(v)
		return nil
	},
	"max_tokens": func(s *Settings, v string) error {
		n, err := cast.ToIntE(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("max_tokens must be a positive integer")
		}
		s.MaxTokens = n
		return nil
	},
	"title_temperature": func(s *Settings, v string) error {
		return setTemperature(&s.TitleTemperature, "title_temperature", v)
	},
	"content_temperature": func(s *Settings, v string) error {
		return setTemperature(&s.ContentTemperature, "content_temperature", v)
	},
	"repair_json": func(s *Settings, v string) error {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("repair_json must be true or false")
		}
		s.RepairJSON = b
		return nil
	},
}

func setTemperature(dst *float32, name, v string) error {
	f, err := cast.ToFloat32E(v)
	if err != nil || f < 0 || f > 2 {
		return fmt.Errorf("%s must be a number between 0 and 2", name)
	}
	*dst = f
	return nil
}

// SettingKeys lists the keys accepted by Set.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value and assigns it to the setting named key.
func (s *Settings) Set(key, value string) error {
	set, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(SettingKeys(), ", "))
	}
	return set(s, value)
}

var getConfigDirFunc = defaultGetConfigDir

func defaultGetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "aliasgen"), nil
}

// DefaultSettingsPath returns the platform-specific settings.json location.
func DefaultSettingsPath() (string, error) {
	dir, err := getConfigDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// LoadSettings reads settings from path. A missing file yields the defaults;
// keys absent from the file keep their default values.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings file: %w", err)
	}

	return settings.WithDefaults(), nil
}

// SaveSettings writes settings to path with 0600 permissions.
func SaveSettings(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// Store loads and saves settings at a fixed path and resolves them against
// the environment.
type Store struct {
	path string
	env  *Config
}

// NewStore creates a Store. An empty path selects DefaultSettingsPath.
func NewStore(path string, env *Config) (*Store, error) {
	if path == "" {
		p, err := DefaultSettingsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if env == nil {
		env = &Config{}
	}
	return &Store{path: path, env: env}, nil
}

// Path returns the settings file location.
func (st *Store) Path() string {
	return st.path
}

// Load returns the file settings without environment overrides.
func (st *Store) Load() (Settings, error) {
	return LoadSettings(st.path)
}

// Save persists s.
func (st *Store) Save(s Settings) error {
	return SaveSettings(st.path, s)
}

// Current returns the effective settings: file values with environment
// overrides applied. It is read on every invocation so edits take effect
// without a restart.
func (st *Store) Current() (Settings, error) {
	s, err := st.Load()
	if err != nil {
		return s, err
	}
	return Resolve(st.env, s), nil
}

// Resolve applies environment overrides to s and backfills defaults.
func Resolve(env *Config, s Settings) Settings {
	if env != nil {
		s = env.Apply(s)
	}
	return s.WithDefaults()
}
