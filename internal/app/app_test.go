package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/checklist/internal/config"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/policy"
)

func testConfig(t *testing.T, backend config.StoreBackend) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StateDir = t.TempDir()
	cfg.Store.Backend = backend
	cfg.Store.Path = ""
	cfg.Store.Watch = false
	cfg.Metrics.Enabled = false
	cfg.NATS.Enabled = false
	if backend == config.BackendJSON {
		cfg.Store.Path = "checklist.json"
	} else {
		cfg.Store.Path = "checklist.db"
	}
	return cfg
}

func TestOpenStoreBackends(t *testing.T) {
	for _, backend := range []config.StoreBackend{config.BackendSQLite, config.BackendJSON} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend)
			st, err := OpenStore(ctx, cfg)
			require.NoError(t, err)
			defer st.Close()

			id, err := st.Insert(ctx, model.NewItem("Buy milk"))
			require.NoError(t, err)
			items, err := st.All(ctx)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, id, items[0].ID)
		})
	}

	cfg := testConfig(t, config.BackendSQLite)
	cfg.Store.Backend = "redis"
	_, err := OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestPolicyOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Reminders.RepeatMode = config.RepeatCalendar
	opt := PolicyOptions(cfg)
	assert.Equal(t, time.Minute, opt.Unit)
	assert.Equal(t, 10, opt.Fallback)
	assert.Equal(t, policy.RepeatMode("calendar"), opt.RepeatMode)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, config.LoggingConfig{Level: "info", Format: config.LogFormatJSON}, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Reminders active", slog.Int("items", 2))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Reminders active", rec["msg"])
	assert.EqualValues(t, 2, rec["items"])
}

func TestStartRemindersFollowsStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendSQLite)

	a, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Perm.Grant())

	require.NoError(t, a.StartReminders(ctx))
	sched := a.Scheduler()
	require.NotNil(t, sched)

	it, err := a.Service.Add(ctx, "Buy milk")
	require.NoError(t, err)
	_, err = a.Service.SetCompleted(ctx, it.ID, true)
	require.NoError(t, err)

	key := policy.IntervalKey(it.ID)
	assert.Eventually(t, func() bool { return sched.Has(key) }, 5*time.Second, 10*time.Millisecond)

	_, err = a.Service.Delete(ctx, it.ID)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return !sched.Has(key) }, 5*time.Second, 10*time.Millisecond)
}

func TestSecondProcessStandsBy(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendSQLite)

	owner, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = owner.Close() })
	require.NoError(t, owner.StartReminders(ctx))
	require.NotNil(t, owner.Scheduler())

	other, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })
	require.NoError(t, other.StartReminders(ctx))
	assert.Nil(t, other.Scheduler())
}

func TestCompleteFromNotificationWithoutScheduler(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, config.BackendJSON), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	it, err := a.Service.Add(ctx, "Water plants")
	require.NoError(t, err)
	require.NoError(t, a.CompleteFromNotification(ctx, it.ID))

	got, err := a.Store.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	assert.True(t, got.IsMarkedComplete)

	// unknown ids are ignored
	assert.NoError(t, a.CompleteFromNotification(ctx, 999))
}
