package ui

import "strings"

// Theme bundles palette, symbols and box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name                                          string
	Title, Muted, Accent, Success, Error, Pending Paint
	Crossed                                       Paint
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymDone, SymFail, SymPending, SymBell         string
	SymRepeat                                     string
}

var current = classic()

func classic() Theme {
	return Theme{
		Name:    "classic",
		Title:   Paint{Bold: true},
		Muted:   Paint{Fg: "8"},
		Accent:  Paint{Fg: "4"},
		Success: Paint{Fg: "2"},
		Error:   Paint{Fg: "1", Bold: true},
		Pending: Paint{Fg: "3"},
		Crossed: Paint{Faint: true, CrossOut: true},

		BoxUnchecked: "☐", BoxChecked: "☑",
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		SymDone: "✔", SymFail: "✖", SymPending: "•", SymBell: "⏰", SymRepeat: "↻",
	}
}

func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		t := classic()
		t.Name = "neon"
		t.Title = Paint{Fg: "13", Bold: true}
		t.Accent = Paint{Fg: "14"}
		t.Pending = Paint{Fg: "11"}
		t.BoxUnchecked, t.BoxChecked = "◻", "◼"
		t.CornerTL, t.CornerTR, t.CornerBL, t.CornerBR = "╭", "╮", "╰", "╯"
		current = t
	case "mono":
		SetColorForcing(false, true)
		current = Theme{
			Name:         "mono",
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymDone: "x", SymFail: "!", SymPending: "-", SymBell: "@", SymRepeat: "~",
		}
	default:
		current = classic()
	}
}

// Current is the active theme.
func Current() Theme { return current }
