package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nested", FileName))
	require.NoError(t, err)

	assert.False(t, s.LoggedIn())
	assert.Equal(t, "", s.APIKey())
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestLoginPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", FileName)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Login("  secret-key  "))
	require.NoError(t, s.SetTheme(ThemeDark))
	assert.Equal(t, "secret-key", s.APIKey())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_key: secret-key")

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.True(t, reopened.LoggedIn())
	assert.Equal(t, "secret-key", reopened.APIKey())
	assert.Equal(t, ThemeDark, reopened.Theme())

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestLogoutRewritesWithoutKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Login("secret-key"))
	require.NoError(t, s.SetTheme(ThemeDark))

	require.NoError(t, s.Logout())

	assert.False(t, s.LoggedIn())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "api_key")
	assert.NotContains(t, string(data), "secret-key")

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.False(t, reopened.LoggedIn())
	assert.Equal(t, ThemeDark, reopened.Theme(), "preferences survive logout")
}

func TestLoginRejectsEmptyKey(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)

	assert.Error(t, s.Login("   "))
	assert.False(t, s.LoggedIn())
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("api_key: [unterminated"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpenUnknownThemeFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("api_key: k\ntheme: neon\n"), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "k", s.APIKey())
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestParseTheme(t *testing.T) {
	theme, err := ParseTheme(" Dark ")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)
	assert.Equal(t, ThemeLight, theme.Toggle())
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())

	_, err = ParseTheme("neon")
	assert.Error(t, err)

	s, err := Open(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Error(t, s.SetTheme("neon"))
}
