// Package picker is the interactive rewrite menu.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/jmacedoit/reright/internal/command"
)

// DefaultLabel names the entry that runs the configured base command.
const DefaultLabel = "Default rewrite"

// ErrAborted is returned when the menu is closed without a choice.
var ErrAborted = errors.New("no rewrite selected")

// Item is one menu entry.
type Item struct {
	Label string
	Word  string
}

// Items lists the default rewrite followed by every catalog entry.
func Items(catalog command.Catalog, baseCommand string) []Item {
	items := make([]Item, 0, len(catalog)+1)
	items = append(items, Item{Label: DefaultLabel, Word: baseCommand})
	for _, cmd := range catalog {
		label := cmd.Name
		if label == "" {
			label = cmd.Word
		}
		items = append(items, Item{Label: label, Word: cmd.Word})
	}
	return items
}

// Model is the bubbletea model behind the menu.
type Model struct {
	items    []Item
	filtered []Item
	cursor   int
	search   textinput.Model

	chosen  *Item
	aborted bool
}

// New returns a model with the search input focused.
func New(items []Item) *Model {
	search := textinput.New()
	search.Placeholder = "Filter rewrites..."
	search.Prompt = "› "
	search.Focus()

	return &Model{
		items:    items,
		filtered: items,
		search:   search,
	}
}

// Choice returns the selected command word once the menu has closed.
func (m *Model) Choice() (string, error) {
	if m.chosen == nil {
		return "", ErrAborted
	}
	return m.chosen.Word, nil
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit

	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "ctrl+n", "tab":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if len(m.filtered) == 0 {
			return m, nil
		}
		item := m.filtered[m.cursor]
		m.chosen = &item
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filter()
	return m, cmd
}

func (m *Model) filter() {
	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		m.filtered = m.items
		m.cursor = min(m.cursor, max(0, len(m.filtered)-1))
		return
	}

	targets := make([]string, len(m.items))
	for i, item := range m.items {
		targets[i] = item.Label + " " + item.Word
	}

	matches := fuzzy.Find(query, targets)
	m.filtered = make([]Item, len(matches))
	for i, match := range matches {
		m.filtered[i] = m.items[match.Index]
	}
	m.cursor = min(m.cursor, max(0, len(m.filtered)-1))
}

func (m *Model) View() string {
	if m.chosen != nil || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("reright"))
	b.WriteString("\n\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(emptyStyle.Render("No matching rewrites."))
		b.WriteString("\n")
	}
	for i, item := range m.filtered {
		prefix, style := "  ", normalStyle
		if i == m.cursor {
			prefix, style = "▸ ", selectedStyle
		}
		b.WriteString(style.Render(prefix + item.Label))
		if item.Word != "" {
			b.WriteString(wordStyle.Render("  " + item.Word))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHelp())
	return appStyle.Render(b.String())
}

func renderHelp() string {
	keys := []struct{ key, desc string }{
		{"enter", "rewrite"},
		{"↑/↓", "move"},
		{"esc", "cancel"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k.key)+" "+helpStyle.Render(k.desc))
	}
	return strings.Join(parts, "  ")
}

// Run shows the menu on the given terminal streams and returns the chosen
// command word.
func Run(ctx context.Context, items []Item, in io.Reader, out io.Writer) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("no rewrites to choose from")
	}

	model := New(items)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := program.Run(); err != nil {
		return "", fmt.Errorf("run picker: %w", err)
	}
	return model.Choice()
}
