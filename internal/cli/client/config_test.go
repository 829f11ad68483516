package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useConfigPath points the global config at a temp file for one test.
func useConfigPath(t *testing.T) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "nested", "config.json")

	oldGetConfigPath := getConfigPathFunc
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	t.Cleanup(func() { getConfigPathFunc = oldGetConfigPath })
	return configPath
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.True(t, strings.HasSuffix(path, filepath.Join("hrassist", "config.json")))
}

func TestLoadGlobalConfig_FileNotExists(t *testing.T) {
	useConfigPath(t)

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestLoadGlobalConfig_InvalidJSON(t *testing.T) {
	configPath := useConfigPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte("{invalid json}"), 0600))

	config, err := LoadGlobalConfig()
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSaveGlobalConfig_RoundTrip(t *testing.T) {
	configPath := useConfigPath(t)

	want := &GlobalConfig{APIURL: "http://hr.internal:8080", UserID: "EMP001234"}
	require.NoError(t, SaveGlobalConfig(want))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveGlobalConfig_NilConfig(t *testing.T) {
	assert.Error(t, SaveGlobalConfig(nil))
}

func TestDeleteGlobalConfig(t *testing.T) {
	configPath := useConfigPath(t)

	// missing file is fine
	require.NoError(t, DeleteGlobalConfig())

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: defaultAPIURL}))
	require.NoError(t, DeleteGlobalConfig())

	_, err := os.Stat(configPath)
	assert.True(t, os.IsNotExist(err))
}

func TestNewAPIClientWithCmd_Cascade(t *testing.T) {
	useConfigPath(t)
	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://from-config", UserID: "EMP000001"}))

	t.Setenv(envAPIURL, "")
	t.Setenv(envUserID, "EMP000002")
	t.Setenv(envAdminKey, "")

	api, err := NewAPIClientWithCmd(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://from-config", api.baseURL)
	assert.Equal(t, "EMP000002", api.UserID())

	t.Setenv(envAPIURL, "http://from-env/")
	api, err = NewAPIClientWithCmd(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", api.baseURL)
}

func TestNewAPIClientWithCmd_Default(t *testing.T) {
	useConfigPath(t)
	t.Setenv(envAPIURL, "")
	t.Setenv(envUserID, "")
	t.Setenv(envAdminKey, "")

	api, err := NewAPIClientWithCmd(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, api.baseURL)
	assert.Empty(t, api.UserID())
}

func TestResolveSettings_FlagsWin(t *testing.T) {
	useConfigPath(t)
	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://from-config", UserID: "EMP000001", AdminKey: "saved"}))
	t.Setenv(envAPIURL, "http://from-env")
	t.Setenv(envUserID, "")
	t.Setenv(envAdminKey, "")

	cmd := &cobra.Command{Use: "ask"}
	cmd.Flags().String("api-url", "", "")
	cmd.Flags().String("user", "", "")
	cmd.Flags().String("admin-key", "", "")
	require.NoError(t, cmd.Flags().Set("user", " EMP000009 "))

	s, err := ResolveSettings(cmd)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", s.APIURL)
	assert.Equal(t, "EMP000009", s.UserID)
	assert.Equal(t, "saved", s.AdminKey)
}
