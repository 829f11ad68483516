package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envAPIURL   = "HRASSIST_API_URL"
	envUserID   = "HRASSIST_USER_ID"
	envAdminKey = "HRASSIST_ADMIN_API_KEY"

	defaultAPIURL = "http://localhost:8080"
)

// GlobalConfig is the per-user settings file written by `hrassist login`.
type GlobalConfig struct {
	APIURL   string `json:"api_url"`
	UserID   string `json:"user_id,omitempty"`
	AdminKey string `json:"admin_key,omitempty"`
}

// Settings are what a client command runs with once every source is merged.
type Settings struct {
	APIURL   string
	UserID   string
	AdminKey string
}

// getConfigPathFunc is swapped out by tests.
var getConfigPathFunc = func() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, "hrassist", "config.json"), nil
}

// GetConfigPath returns where login stores its settings.
func GetConfigPath() (string, error) {
	return getConfigPathFunc()
}

// ResolveSettings takes each value from the first source that has it: the
// command's flag, the environment (a .env file included), the saved global
// config, then the built-in default. cmd may be nil.
func ResolveSettings(cmd *cobra.Command) (Settings, error) {
	_ = godotenv.Load()

	flag := func(name string) string {
		if cmd == nil {
			return ""
		}
		v, _ := cmd.Flags().GetString(name)
		return strings.TrimSpace(v)
	}

	s := Settings{
		APIURL:   firstNonEmpty(flag("api-url"), os.Getenv(envAPIURL)),
		UserID:   firstNonEmpty(flag("user"), os.Getenv(envUserID)),
		AdminKey: firstNonEmpty(flag("admin-key"), os.Getenv(envAdminKey)),
	}

	if s.APIURL == "" || s.UserID == "" || s.AdminKey == "" {
		saved, err := LoadGlobalConfig()
		if err != nil {
			return Settings{}, err
		}
		if saved != nil {
			s.APIURL = firstNonEmpty(s.APIURL, saved.APIURL)
			s.UserID = firstNonEmpty(s.UserID, saved.UserID)
			s.AdminKey = firstNonEmpty(s.AdminKey, saved.AdminKey)
		}
	}

	s.APIURL = strings.TrimRight(firstNonEmpty(s.APIURL, defaultAPIURL), "/")
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadGlobalConfig reads the saved settings. No file means no settings, not
// an error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg GlobalConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveGlobalConfig writes the settings readable by the owner only, since they
// may hold the admin key.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DeleteGlobalConfig removes the saved settings, if any.
func DeleteGlobalConfig() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}
