package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/checklist/internal/checklist"
	"github.com/idilsaglam/checklist/internal/model"
)

const (
	fieldInterval = iota
	fieldRepeat
	fieldHour
	fieldMinute
	fieldCount
)

// settingsForm edits the reminder settings of one item.
type settingsForm struct {
	id     int64
	text   string
	focus  int
	repeat model.RepeatType
	// interval, hour, minute
	inputs [3]textinput.Model
	err    string
}

func newSettingsForm(it model.Item) *settingsForm {
	f := &settingsForm{id: it.ID, text: it.Text, repeat: it.RepeatType}
	values := [3]int{it.EffectiveIntervalMinutes(), it.RepeatHour, it.RepeatMinute}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 4
		ti.Width = 6
		ti.SetValue(strconv.Itoa(values[i]))
		f.inputs[i] = ti
	}
	f.setFocus(fieldInterval)
	return f
}

func (f *settingsForm) input(field int) *textinput.Model {
	switch field {
	case fieldInterval:
		return &f.inputs[0]
	case fieldHour:
		return &f.inputs[1]
	case fieldMinute:
		return &f.inputs[2]
	}
	return nil
}

func (f *settingsForm) setFocus(field int) {
	f.focus = (field + fieldCount) % fieldCount
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if in := f.input(f.focus); in != nil {
		in.Focus()
		in.CursorEnd()
	}
}

func (f *settingsForm) cycleRepeat(step int) {
	n := len(model.RepeatTypes)
	idx := 0
	for i, r := range model.RepeatTypes {
		if r == f.repeat {
			idx = i
		}
	}
	f.repeat = model.RepeatTypes[(idx+step+n)%n]
}

func (f *settingsForm) settings() (checklist.Settings, error) {
	parse := func(field int, name string, lo, hi int) (int, error) {
		v, err := strconv.Atoi(strings.TrimSpace(f.input(field).Value()))
		if err != nil || v < lo || v > hi {
			return 0, fmt.Errorf("%s must be between %d and %d", name, lo, hi)
		}
		return v, nil
	}
	interval, err := parse(fieldInterval, "interval", 1, 10080)
	if err != nil {
		return checklist.Settings{}, err
	}
	hour, err := parse(fieldHour, "hour", 0, 23)
	if err != nil {
		return checklist.Settings{}, err
	}
	minute, err := parse(fieldMinute, "minute", 0, 59)
	if err != nil {
		return checklist.Settings{}, err
	}
	return checklist.Settings{IntervalMinutes: interval, Repeat: f.repeat, Hour: hour, Minute: minute}, nil
}

// update handles keys other than enter/esc.
func (f *settingsForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return nil
	case "left", "right":
		if f.focus == fieldRepeat {
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			f.cycleRepeat(step)
			return nil
		}
	}
	if in := f.input(f.focus); in != nil {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		return cmd
	}
	return nil
}

func (f *settingsForm) view() string {
	label := func(field int, name string) string {
		if f.focus == field {
			return focusStyle.Render("> " + name)
		}
		return "  " + name
	}
	repeat := f.repeat.String()
	if f.focus == fieldRepeat {
		repeat = focusStyle.Render("< " + repeat + " >")
	}
	lines := []string{
		titleStyle.Render("Reminder settings") + "  " + mutedStyle.Render(f.text),
		fmt.Sprintf("%-22s %s min", label(fieldInterval, "Interval"), f.inputs[0].View()),
		fmt.Sprintf("%-22s %s", label(fieldRepeat, "Repeat"), repeat),
		fmt.Sprintf("%-22s %s", label(fieldHour, "Hour"), f.inputs[1].View()),
		fmt.Sprintf("%-22s %s", label(fieldMinute, "Minute"), f.inputs[2].View()),
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	lines = append(lines, helpStyle.Render("tab next · ←/→ repeat · enter save · esc cancel"))
	return inputBox(strings.Join(lines, "\n"))
}
