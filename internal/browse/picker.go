package browse

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

type pickerItem struct {
	value string
	count int
}

type pickerOutcome int

const (
	pickerPending pickerOutcome = iota
	pickerApplied
	pickerCancelled
)

// pickerModel selects technologies (multi) or a location (single) from the
// values present in the loaded jobs.
type pickerModel struct {
	title    string
	items    []pickerItem
	multi    bool
	cursor   int
	offset   int
	height   int
	selected map[string]bool
}

func newPicker(title string, items []pickerItem, multi bool, selected []string, height int) pickerModel {
	sel := make(map[string]bool, len(selected))
	for _, s := range selected {
		sel[strings.ToLower(s)] = true
	}
	return pickerModel{
		title:    title,
		items:    items,
		multi:    multi,
		height:   max(height, 3),
		selected: sel,
	}
}

// update handles one key and reports whether the picker is finished.
func (m pickerModel) update(msg tea.KeyMsg) (pickerModel, pickerOutcome) {
	switch msg.String() {
	case "esc", "q":
		return m, pickerCancelled
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ", "x":
		if m.multi && len(m.items) > 0 {
			m.toggle(m.items[m.cursor].value)
		}
	case "enter":
		if !m.multi {
			m.selected = map[string]bool{}
			if len(m.items) > 0 {
				m.selected[strings.ToLower(m.items[m.cursor].value)] = true
			}
		}
		return m, pickerApplied
	}

	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	return m, pickerPending
}

func (m *pickerModel) toggle(value string) {
	key := strings.ToLower(value)
	if m.selected[key] {
		delete(m.selected, key)
	} else {
		m.selected[key] = true
	}
}

// choices returns the selected values in item order.
func (m pickerModel) choices() []string {
	var out []string
	for _, it := range m.items {
		if m.selected[strings.ToLower(it.value)] {
			out = append(out, it.value)
		}
	}
	return out
}

func (m pickerModel) view() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(m.title))
	b.WriteByte('\n')

	if len(m.items) == 0 {
		b.WriteString(pickerItemStyle.Render("(nothing to choose from)") + "\n")
	}

	end := min(m.offset+m.height, len(m.items))
	for i := m.offset; i < end; i++ {
		it := m.items[i]
		name := it.value
		if name == "" {
			name = "any"
		}
		label := fmt.Sprintf("%s (%d)", name, it.count)
		if m.multi {
			mark := "[ ]"
			if m.selected[strings.ToLower(it.value)] {
				mark = "[x]"
			}
			label = mark + " " + label
		}
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString(pickerItemStyle.Render(label) + "\n")
		}
	}

	hint := "↑/↓ navigate  enter select  esc cancel"
	if m.multi {
		hint = "↑/↓ navigate  space toggle  enter apply  esc cancel"
	}
	b.WriteString(pickerHintStyle.Render(hint))
	return b.String()
}
