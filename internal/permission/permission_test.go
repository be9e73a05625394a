package permission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsDenied(t *testing.T) {
	t.Setenv(EnvOverride, "")
	c := NewFileChecker(t.TempDir())
	g, err := c.Status()
	require.NoError(t, err)
	assert.False(t, g.Granted)
	assert.Equal(t, "default", g.Source)
	assert.False(t, c.Granted())
}

func TestGrantAndRevokePersist(t *testing.T) {
	t.Setenv(EnvOverride, "")
	dir := filepath.Join(t.TempDir(), "state")
	c := NewFileChecker(dir)

	require.NoError(t, c.Grant())
	assert.True(t, c.Granted())
	assert.True(t, NewFileChecker(dir).Granted(), "a second reader sees the grant")

	info, err := os.Stat(filepath.Join(dir, grantFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, c.Revoke())
	g, err := c.Status()
	require.NoError(t, err)
	assert.False(t, g.Granted)
	assert.Equal(t, "file", g.Source)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	c := NewFileChecker(dir)
	require.NoError(t, c.Grant())

	t.Setenv(EnvOverride, "denied")
	assert.False(t, c.Granted())

	t.Setenv(EnvOverride, "granted")
	require.NoError(t, c.Revoke())
	g, err := c.Status()
	require.NoError(t, err)
	assert.True(t, g.Granted)
	assert.Equal(t, "env", g.Source)
}

func TestCorruptFileIsDenied(t *testing.T) {
	t.Setenv(EnvOverride, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, grantFileName), []byte("{"), 0o600))
	c := NewFileChecker(dir)
	_, err := c.Status()
	assert.Error(t, err)
	assert.False(t, c.Granted())
}

func TestStatic(t *testing.T) {
	var c Checker = Static(true)
	assert.True(t, c.Granted())
	assert.False(t, Static(false).Granted())
}
