package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/checklist/internal/ui"
)

type runner struct {
	t      *testing.T
	config string
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	yaml := "state_dir: " + dir + "\nstore:\n  backend: json\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(yaml), 0o600))

	r := &runner{t: t, config: cfg, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	ui.SetOutput(r.out, r.errOut)
	t.Cleanup(func() {
		ui.SetOutput(os.Stdout, os.Stderr)
		ui.SetColorForcing(false, false)
		ui.SetTheme("classic")
	})
	return r
}

// run executes one command line and returns its exit code.
func (r *runner) run(args ...string) int {
	r.out.Reset()
	r.errOut.Reset()
	full := append([]string{"--config", r.config, "--theme", "mono", "--no-color"}, args...)
	return Execute(context.Background(), full)
}

func TestAddAndList(t *testing.T) {
	r := newRunner(t)

	require.Equal(t, ExitOK, r.run("add", "Buy", "milk"))
	assert.Contains(t, r.out.String(), "added #1")

	require.Equal(t, ExitOK, r.run("ls"))
	assert.Contains(t, r.out.String(), "My Checklist")
	assert.Contains(t, r.out.String(), "#1   [ ] Buy milk")
}

func TestDoneWithoutPermissionHints(t *testing.T) {
	r := newRunner(t)
	require.Equal(t, ExitOK, r.run("add", "Buy milk"))

	require.Equal(t, ExitOK, r.run("done", "#1"))
	assert.Contains(t, r.out.String(), "completed #1")
	assert.Contains(t, r.errOut.String(), "checklist notify grant")

	require.Equal(t, ExitOK, r.run("ls"))
	assert.Contains(t, r.out.String(), "[x] Buy milk  @ every 10m")
	assert.Contains(t, r.out.String(), "Reminders are off")
}

func TestUsageErrors(t *testing.T) {
	r := newRunner(t)

	assert.Equal(t, ExitUsage, r.run("add"))
	assert.Equal(t, ExitUsage, r.run("done", "abc"))
	assert.Equal(t, ExitUsage, r.run("done"))
	assert.Equal(t, ExitUsage, r.run("frobnicate"))
	assert.Equal(t, ExitUsage, r.run("ls", "--bogus"))
	assert.Equal(t, ExitUsage, r.run("notify", "maybe"))
}

func TestMissingItem(t *testing.T) {
	r := newRunner(t)

	assert.Equal(t, ExitUsage, r.run("done", "9"))
	assert.Contains(t, r.errOut.String(), "no item #9")
	assert.Contains(t, r.errOut.String(), "checklist ls")

	assert.Equal(t, ExitUsage, r.run("complete", "9"))
}

func TestSetReminderSettings(t *testing.T) {
	r := newRunner(t)
	require.Equal(t, ExitOK, r.run("add", "Water plants"))

	assert.Equal(t, ExitUsage, r.run("set", "1"))
	assert.Equal(t, ExitUsage, r.run("set", "1", "--at", "25:00"))
	assert.Equal(t, ExitUsage, r.run("set", "1", "--repeat", "hourly"))

	require.Equal(t, ExitOK, r.run("set", "1", "--interval", "5", "--repeat", "daily", "--at", "09:30"))
	assert.Contains(t, r.out.String(), "updated #1")

	require.Equal(t, ExitOK, r.run("ls"))
	assert.Contains(t, r.out.String(), "~ daily 09:30")
}

func TestCrossCompleteAndRemove(t *testing.T) {
	r := newRunner(t)
	require.Equal(t, ExitOK, r.run("add", "Buy milk"))

	require.Equal(t, ExitOK, r.run("cross", "1"))
	assert.Contains(t, r.out.String(), "nothing to cross out")

	require.Equal(t, ExitOK, r.run("complete", "1"))
	require.Equal(t, ExitOK, r.run("ls", "--group"))
	assert.Contains(t, r.out.String(), "Done")
	assert.Contains(t, r.out.String(), "[x] Buy milk")

	require.Equal(t, ExitOK, r.run("cross", "1"))
	assert.Contains(t, r.out.String(), "restored #1")

	require.Equal(t, ExitOK, r.run("rm", "1"))
	require.Equal(t, ExitOK, r.run("ls"))
	assert.Contains(t, r.out.String(), "Nothing here yet")
}

func TestNotifyGrantAndStatus(t *testing.T) {
	t.Setenv("CHECKLIST_NOTIFICATIONS", "")
	r := newRunner(t)

	require.Equal(t, ExitOK, r.run("notify", "status"))
	assert.Contains(t, r.out.String(), "notifications denied (default)")

	require.Equal(t, ExitOK, r.run("notify", "grant"))
	require.Equal(t, ExitOK, r.run("notify", "status"))
	assert.Contains(t, r.out.String(), "notifications granted (file)")

	require.Equal(t, ExitOK, r.run("notify", "revoke"))
	require.Equal(t, ExitOK, r.run("notify", "status"))
	assert.Contains(t, r.out.String(), "notifications denied (file)")
}

func TestParseClock(t *testing.T) {
	h, m, err := parseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 5, m)

	_, _, err = parseClock("7")
	assert.Error(t, err)
}
