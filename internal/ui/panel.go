package ui

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/idilsaglam/checklist/internal/model"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiRegexp.ReplaceAllString(s, "") }

func visibleWidth(s string) int { return utf8.RuneCountInString(stripANSI(s)) }

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel draws a framed box using the current theme.
func Panel(lines []string) {
	t := Current()
	maxw := 0
	for _, ln := range lines {
		if w := visibleWidth(ln); w > maxw {
			maxw = w
		}
	}
	pad := func(s string) string {
		if vis := visibleWidth(s); vis < maxw {
			s += strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	fmt.Fprintln(stdout, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		fmt.Fprintln(stdout, t.V+" "+pad(ln)+" "+t.V)
	}
	fmt.Fprintln(stdout, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// ItemLine is the one-line rendering of an item used by `ls`.
func ItemLine(it model.Item) string {
	t := Current()
	box, paint := t.BoxUnchecked, t.Muted
	if it.IsCompleted {
		box, paint = t.BoxChecked, t.Success
	}
	text := it.Text
	if utf8.RuneCountInString(text) > 60 {
		text = string([]rune(text)[:57]) + "..."
	}
	if it.IsMarkedComplete {
		text = t.Crossed.Render(text)
	}
	return fmt.Sprintf("%s %s %s%s", t.Muted.Render(fmt.Sprintf("#%-3d", it.ID)), paint.Render(box), text, ReminderSuffix(it))
}

// ReminderSuffix describes an item's active reminders, or "".
func ReminderSuffix(it model.Item) string {
	t := Current()
	var parts []string
	if it.Reminding() {
		parts = append(parts, fmt.Sprintf("%s every %dm", t.SymBell, it.EffectiveIntervalMinutes()))
	}
	if it.RepeatType != model.RepeatNone {
		parts = append(parts, fmt.Sprintf("%s %s %s", t.SymRepeat, it.RepeatType, it.RepeatTime()))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + t.Accent.Render(strings.Join(parts, "  "))
}

// Stats counts completed and pending items.
func Stats(items []model.Item) (done, pending int) {
	for _, it := range items {
		if it.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	return
}
