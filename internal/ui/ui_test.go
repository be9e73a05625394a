package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/checklist/internal/model"
)

func useMono(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetTheme("mono")
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		SetColorForcing(false, false)
		SetTheme("classic")
	})
	return &out, &errOut
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "░░░░░   0%", ProgressBar(0, 0, 1))
	assert.Equal(t, "█████ 300%", ProgressBar(9, 3, 5))
}

func TestPanelPadsToWidestLine(t *testing.T) {
	out, _ := useMono(t)
	Panel([]string{"ab", "abcd"})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "+------+", lines[0])
	assert.Equal(t, "| ab   |", lines[1])
	assert.Equal(t, "| abcd |", lines[2])
	assert.Equal(t, "+------+", lines[3])
}

func TestItemLine(t *testing.T) {
	useMono(t)

	it := model.NewItem("Buy milk")
	it.ID = 3
	assert.Equal(t, "#3   [ ] Buy milk", ItemLine(it))

	it.IsCompleted = true
	it.RepeatType = model.RepeatDaily
	assert.Equal(t, "#3   [x] Buy milk  @ every 10m  ~ daily 09:00", ItemLine(it))

	it.IsMarkedComplete = true
	assert.Equal(t, "#3   [x] Buy milk  ~ daily 09:00", ItemLine(it))
}

func TestOKAndFail(t *testing.T) {
	out, errOut := useMono(t)
	OK("added")
	Fail("nope")
	assert.Equal(t, "x added\n", out.String())
	assert.Equal(t, "! nope\n", errOut.String())
}

func TestStats(t *testing.T) {
	a, b := model.NewItem("a"), model.NewItem("b")
	b.IsCompleted = true
	d, p := Stats([]model.Item{a, b})
	assert.Equal(t, 1, d)
	assert.Equal(t, 1, p)
}
