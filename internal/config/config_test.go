package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, time.Minute, cfg.Reminders.IntervalUnit)
	assert.Equal(t, 10, cfg.Reminders.FallbackInterval)
	assert.Equal(t, 1, cfg.Reminders.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.Reminders.PreviewDelay)
	assert.Equal(t, RepeatPreview, cfg.Reminders.RepeatMode)
	assert.Equal(t, "checklist", cfg.NATS.SubjectPrefix)
	assert.True(t, cfg.Store.Watch)
}

func TestLoadCanDisableWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  watch: false\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Store.Watch)
}

func TestLoadExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHECKLIST_TEST_DIR", dir)
	path := filepath.Join(dir, "config.yaml")
	raw := `
state_dir: ${CHECKLIST_TEST_DIR}/state
store:
  backend: JSON
reminders:
  repeat_mode: calendar
  interval_unit: 1s
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state"), cfg.StateDir)
	assert.Equal(t, BackendJSON, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "state", "checklist.json"), cfg.StorePath())
	assert.Equal(t, RepeatCalendar, cfg.Reminders.RepeatMode)
	assert.Equal(t, time.Second, cfg.Reminders.IntervalUnit)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cases := map[string]func(*Config){
		"backend": func(c *Config) { c.Store.Backend = "bolt" },
		"repeat":  func(c *Config) { c.Reminders.RepeatMode = "cron" },
		"tz":      func(c *Config) { c.Reminders.Timezone = "Mars/Olympus" },
		"format":  func(c *Config) { c.Logging.Format = "xml" },
		"binding": func(c *Config) { c.UI.Binding = "archive" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestMemoryPathIsNotResolved(t *testing.T) {
	c := Default()
	c.Store.Path = ":memory:"
	assert.Equal(t, ":memory:", c.StorePath())
}
