// Package tui is the interactive checklist: a live list with swipeable
// rows, an inline add row, a reminder settings dialog and banners for the
// notification permission and delivered reminders.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/checklist/internal/checklist"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/notify"
	"github.com/idilsaglam/checklist/internal/policy"
	"github.com/idilsaglam/checklist/internal/swipe"
)

// Permission is the notification grant as the TUI sees it.
type Permission interface {
	Granted() bool
	Grant() error
}

type Options struct {
	Service    *checklist.Service
	Permission Permission
	// Tray is optional; without it no reminder banner is shown.
	Tray    *notify.Tray
	Binding checklist.Binding
	// Updates is the store's Observe stream.
	Updates <-chan []model.Item
	// Complete handles the banner's "mark as completed" action. It defaults
	// to Service.CompleteFromNotification.
	Complete func(ctx context.Context, id int64) error
}

type itemsMsg []model.Item

type updatesClosedMsg struct{}

type trayMsg struct{}

type settleMsg struct{ id int64 }

const (
	settleDelay   = 150 * time.Millisecond
	maxReminders  = 3
	defaultWidth  = 80
	defaultHeight = 24
)

type dragState struct {
	id    int64
	lastX int
}

type Model struct {
	ctx      context.Context
	svc      *checklist.Service
	perm     Permission
	tray     *notify.Tray
	binding  checklist.Binding
	updates  <-chan []model.Item
	complete func(ctx context.Context, id int64) error

	items  []model.Item
	cursor int
	offset int
	swipes map[int64]swipe.State
	drag   *dragState
	width  int
	height int

	// inline add
	adding bool
	input  textinput.Model
	addErr string

	form *settingsForm

	needPermission bool
	reminders      []notify.Notification
	status         string

	// single-level undo of the last delete
	undo *model.Item
}

func New(ctx context.Context, opt Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New item..."
	ti.CharLimit = 200

	m := Model{
		ctx:     ctx,
		svc:     opt.Service,
		perm:    opt.Permission,
		tray:    opt.Tray,
		binding: opt.Binding,
		updates: opt.Updates,
		swipes:  map[int64]swipe.State{},
		input:   ti,
		width:   defaultWidth,
		height:  defaultHeight,
	}
	m.complete = opt.Complete
	if m.complete == nil {
		m.complete = opt.Service.CompleteFromNotification
	}
	if m.tray != nil {
		m.reminders = m.tray.Visible()
	}
	return m
}

func waitForItems(ch <-chan []model.Item) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		items, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return itemsMsg(items)
	}
}

func (m Model) waitForTray() tea.Cmd {
	if m.tray == nil {
		return nil
	}
	ch := m.tray.Changes()
	return func() tea.Msg {
		<-ch
		return trayMsg{}
	}
}

func settleAfter(id int64) tea.Cmd {
	return tea.Tick(settleDelay, func(time.Time) tea.Msg { return settleMsg{id: id} })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForItems(m.updates), m.waitForTray())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ensureVisible()
		return m, nil

	case itemsMsg:
		m.setItems(msg)
		return m, waitForItems(m.updates)

	case updatesClosedMsg:
		return m, nil

	case trayMsg:
		m.reminders = m.tray.Visible()
		return m, m.waitForTray()

	case settleMsg:
		if s, ok := m.swipes[msg.id]; ok && s.Committed() {
			m.swipes[msg.id] = swipe.Reduce(m.swipeConfig(), s, swipe.Settle{}, nil)
		}
		return m, nil

	case tea.MouseMsg:
		if m.adding || m.form != nil {
			return m, nil
		}
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		switch {
		case m.adding:
			return m, m.updateAdd(msg)
		case m.form != nil:
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}

	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setItems(items []model.Item) {
	m.items = items
	live := make(map[int64]bool, len(items))
	for _, it := range items {
		live[it.ID] = true
	}
	for id := range m.swipes {
		if !live[id] {
			delete(m.swipes, id)
		}
	}
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *Model) selected() (model.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.Item{}, false
	}
	return m.items[m.cursor], true
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case " ", "space":
		if it, ok := m.selected(); ok {
			_, err := m.svc.SetCompleted(m.ctx, it.ID, !it.IsCompleted)
			m.report(err)
		}
	case "shift+right", "x":
		if it, ok := m.selected(); ok {
			return m.swipeFully(it.ID, 1)
		}
	case "shift+left", "d":
		if it, ok := m.selected(); ok {
			return m.swipeFully(it.ID, -1)
		}
	case "a":
		m.adding = true
		m.addErr = ""
		m.input.SetValue("")
		m.input.Focus()
		return textinput.Blink
	case "s":
		if it, ok := m.selected(); ok {
			m.form = newSettingsForm(it)
			return textinput.Blink
		}
	case "p":
		if m.needPermission {
			m.grantPermission()
		}
	case "c":
		if len(m.reminders) > 0 {
			n := m.reminders[0]
			m.report(m.complete(m.ctx, n.ItemID))
			if m.tray != nil {
				m.reminders = m.tray.Visible()
			}
		}
	case "u":
		if m.undo != nil {
			_, err := m.svc.Restore(m.ctx, *m.undo)
			m.undo = nil
			if err == nil || policy.OnlyNeedsPermission(err) {
				m.status = "Restored"
			}
			m.report(err)
		}
	}
	return nil
}

func (m *Model) move(step int) {
	if len(m.items) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+step, 0), len(m.items)-1)
	m.ensureVisible()
}

// report surfaces err in the status line; a missing permission raises the banner.
func (m *Model) report(err error) {
	if err == nil {
		return
	}
	if policy.OnlyNeedsPermission(err) {
		m.needPermission = true
		return
	}
	m.status = errorStyle.Render(err.Error())
}

func (m *Model) grantPermission() {
	if err := m.perm.Grant(); err != nil {
		m.status = errorStyle.Render("grant: " + err.Error())
		return
	}
	m.needPermission = false
	m.status = successStyle.Render("Notifications enabled")
	// re-arm everything that wanted a reminder while we had no grant
	m.report(m.svc.Reconcile(m.ctx))
}

func (m *Model) updateAdd(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.addErr = "Text cannot be empty"
			return nil
		}
		if _, err := m.svc.Add(m.ctx, text); err != nil {
			m.addErr = err.Error()
			return nil
		}
		m.input.SetValue("")
		m.addErr = ""
		return nil
	case "esc":
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.form = nil
		return nil
	case "enter":
		set, err := m.form.settings()
		if err != nil {
			m.form.err = err.Error()
			return nil
		}
		_, err = m.svc.UpdateSettings(m.ctx, m.form.id, set)
		m.form = nil
		m.report(err)
		return nil
	}
	return m.form.update(msg)
}

func (m *Model) listWidth() int {
	// border and padding on both sides
	return max(m.width-4, 10)
}

func (m *Model) swipeConfig() swipe.Config {
	return swipe.NewConfig(float64(m.listWidth()))
}

// feed runs ev through the row's reducer. A Release asks the service
// through the configured binding.
func (m *Model) feed(id int64, ev swipe.Event) tea.Cmd {
	var (
		out     checklist.Outcome
		confirm swipe.Confirm
	)
	if _, ok := ev.(swipe.Release); ok {
		confirm = m.svc.Confirmer(m.ctx, m.binding, id, &out)
	}
	next := swipe.Reduce(m.swipeConfig(), m.swipes[id], ev, confirm)
	m.swipes[id] = next
	m.absorb(out)
	if next.Committed() {
		return settleAfter(id)
	}
	return nil
}

// swipeFully is the keyboard gesture: drag all the way, then release.
func (m *Model) swipeFully(id int64, sign float64) tea.Cmd {
	m.feed(id, swipe.Drag{Delta: sign * m.swipeConfig().Threshold})
	return m.feed(id, swipe.Release{})
}

func (m *Model) absorb(out checklist.Outcome) {
	if out.NeedsPermission {
		m.needPermission = true
	}
	switch {
	case out.Err != nil:
		m.status = errorStyle.Render(out.Err.Error())
	case out.Deleted:
		it := out.Item
		m.undo = &it
		m.status = fmt.Sprintf("Deleted %q. Press u to undo.", it.Text)
	case out.Value == swipe.DismissedToEnd && out.Item.IsMarkedComplete:
		m.status = "Crossed out"
	case out.Value == swipe.DismissedToEnd:
		m.status = "Back on the list"
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.move(-1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.move(1)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if idx, ok := m.rowAt(msg.Y); ok {
			m.cursor = idx
			m.drag = &dragState{id: m.items[idx].ID, lastX: msg.X}
		}
	case msg.Action == tea.MouseActionMotion && m.drag != nil:
		delta := msg.X - m.drag.lastX
		m.drag.lastX = msg.X
		if delta != 0 {
			return m.feed(m.drag.id, swipe.Drag{Delta: float64(delta)})
		}
	case msg.Action == tea.MouseActionRelease && m.drag != nil:
		id := m.drag.id
		m.drag = nil
		return m.feed(id, swipe.Release{})
	}
	return nil
}

// rowAt maps a screen row to an item index.
func (m *Model) rowAt(y int) (int, bool) {
	idx := y - m.listTop() + m.offset
	if idx < 0 || idx >= len(m.items) || idx >= m.offset+m.visibleRows() {
		return 0, false
	}
	return idx, true
}

// listTop is the screen row of the first list row: the panel's top border,
// the header and the blank line under it.
func (m *Model) listTop() int { return 2 + len(m.header()) }

func (m *Model) visibleRows() int {
	footer := strings.Count(m.footer(), "\n") + 1
	return max(m.height-3-len(m.header())-footer, 1)
}

func (m *Model) ensureVisible() {
	vis := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+vis {
		m.offset = m.cursor - vis + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) header() []string {
	done, pending := 0, 0
	for _, it := range m.items {
		if it.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	lines := []string{
		fmt.Sprintf("%s   %s %d  %s %d  %s %d",
			titleStyle.Render("My Checklist"),
			successStyle.Render("✔"), done,
			pendingStyle.Render("•"), pending,
			accentStyle.Render("Total"), len(m.items)),
		mutedStyle.Render(progressBar(done, len(m.items), 28)),
	}
	if m.needPermission {
		lines = append(lines, warnStyle.Render("Notifications are off. Press p to allow reminders."))
	}
	for i, n := range m.reminders {
		if i == maxReminders {
			break
		}
		line := fmt.Sprintf("⏰ %s: %s", n.Title, n.Text)
		if i == 0 {
			line += "  (c: mark as completed)"
		}
		lines = append(lines, bannerStyle.Render(line))
	}
	return lines
}

func (m Model) footer() string {
	var parts []string
	switch {
	case m.adding:
		title := "Add new item"
		if m.addErr != "" {
			title += ": " + errorStyle.Render(m.addErr)
		}
		parts = append(parts, inputBox(title+"\n"+m.input.View()))
	case m.form != nil:
		parts = append(parts, m.form.view())
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, helpStyle.Render("space remind · shift+→ "+m.endLabel(false)+" · shift+← delete · a add · s settings · u undo · q quit"))
	return strings.Join(parts, "\n")
}

func (m Model) endLabel(marked bool) string {
	switch {
	case marked:
		return "undo"
	case m.binding == checklist.DeleteOrComplete:
		return "complete"
	}
	return "cross out"
}

func (m Model) renderRow(i int, it model.Item) string {
	prefix := "  "
	if i == m.cursor {
		prefix = selectedStyle.Render("> ")
	}
	box := mutedStyle.Render(boxUnchecked)
	if it.IsCompleted {
		box = successStyle.Render(boxChecked)
	}
	text := it.Text
	if it.IsMarkedComplete {
		text = crossedStyle.Render(text)
	}
	line := prefix + box + " " + text + accentStyle.Render(reminderSuffix(it))

	st, ok := m.swipes[it.ID]
	if !ok || st.Offset == 0 {
		return line
	}
	n := int(st.Offset)
	if n < 0 {
		n = -n
	}
	color, label := restColor, "✖ delete"
	if st.Offset > 0 {
		label = "✔ " + m.endLabel(it.IsMarkedComplete)
	}
	switch st.Target {
	case swipe.DismissedToStart:
		color = deleteColor
	case swipe.DismissedToEnd:
		color = completeColor
		if it.IsMarkedComplete {
			color = undoColor
		}
	}
	strip := lipgloss.NewStyle().Background(color).Foreground(lipgloss.Color("15")).
		Width(n).MaxWidth(n).Render(label)
	if st.Offset > 0 {
		return strip + line
	}
	return line + " " + strip
}

func reminderSuffix(it model.Item) string {
	var parts []string
	if it.Reminding() {
		parts = append(parts, fmt.Sprintf("⏰ %dm", it.EffectiveIntervalMinutes()))
	}
	if it.RepeatType != model.RepeatNone {
		parts = append(parts, fmt.Sprintf("↻ %s %s", it.RepeatType, it.RepeatTime()))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, " ")
}

func (m Model) View() string {
	lines := m.header()
	lines = append(lines, "")
	if len(m.items) == 0 {
		lines = append(lines, mutedStyle.Render("  Nothing here yet. Press a to add an item."))
	}
	end := min(m.offset+m.visibleRows(), len(m.items))
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(i, m.items[i]))
	}
	lines = append(lines, m.footer())
	return panelString(strings.Join(lines, "\n"))
}
