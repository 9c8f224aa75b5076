package walletpicker

import (
	"strings"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/helpers"
	"charm-dapp-connect/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SelectedMsg is emitted when the user picks an account.
type SelectedMsg struct {
	AccountID string
}

// BackMsg is emitted when the user leaves without picking.
type BackMsg struct{}

// Model lists every account; disabled rows are shown with their reason but
// can never receive the cursor.
type Model struct {
	candidates []accounts.Candidate
	cursor     int
	width      int
}

// New places the cursor on the selected account, or the first enabled one.
func New(candidates []accounts.Candidate) Model {
	m := Model{candidates: candidates, cursor: -1}
	for i, c := range candidates {
		if c.Selected && !c.Disabled {
			m.cursor = i
			return m
		}
	}
	m.cursor = m.next(-1, 1)
	return m
}

// SetWidth sets the render width.
func (m *Model) SetWidth(w int) { m.width = w }

// Cursor returns the focused row, -1 when no row is selectable.
func (m Model) Cursor() int { return m.cursor }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "up", "k", "shift+tab":
		if i := m.next(m.cursor, -1); i >= 0 {
			m.cursor = i
		}
	case "down", "j", "tab":
		if i := m.next(m.cursor, 1); i >= 0 {
			m.cursor = i
		}
	case "enter", " ":
		if m.cursor < 0 {
			return m, nil
		}
		id := m.candidates[m.cursor].Account.ID
		return m, func() tea.Msg { return SelectedMsg{AccountID: id} }
	case "esc", "backspace":
		return m, func() tea.Msg { return BackMsg{} }
	}
	return m, nil
}

// next returns the first enabled row after from in direction dir, or -1.
func (m Model) next(from, dir int) int {
	for i := from + dir; i >= 0 && i < len(m.candidates); i += dir {
		if !m.candidates[i].Disabled {
			return i
		}
	}
	return -1
}

func (m Model) View() string {
	h := styles.TitleStyle.Render("Choose Wallet")
	if len(m.candidates) == 0 {
		return h + "\n\n" + lipgloss.NewStyle().Foreground(styles.CMuted).Render("No accounts configured.")
	}

	var rows []string
	for i, c := range m.candidates {
		name := c.Account.DisplayName()
		addr, _ := c.Account.Address(accounts.ChainTon)

		var marker string
		var nameStyle lipgloss.Style
		switch {
		case c.Disabled:
			marker = "  "
			nameStyle = lipgloss.NewStyle().Foreground(styles.CMuted).Faint(true)
		case i == m.cursor:
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("▶ ")
			nameStyle = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true)
		default:
			marker = "  "
			nameStyle = lipgloss.NewStyle().Foreground(styles.CText)
		}
		if c.Selected {
			name = "✓ " + name
		}
		line := marker + nameStyle.Render(name)
		if c.Account.Type != accounts.Normal {
			line += " " + lipgloss.NewStyle().Foreground(styles.CAccent).Render("["+c.Account.Type.String()+"]")
		}
		if c.Account.IsMultichain() {
			line += " " + lipgloss.NewStyle().Foreground(styles.CMuted).Render("multichain")
		}

		detail := helpers.ShortenAddr(addr)
		if c.Disabled {
			detail = c.Reason
		}
		rows = append(rows, line+"\n    "+lipgloss.NewStyle().Foreground(styles.CMuted).Render(detail))
	}
	return h + "\n\n" + strings.Join(rows, "\n\n")
}

// Nav returns the navigation bar for the picker
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " move",
		styles.Key("Enter") + " choose",
		styles.Key("Esc") + " back",
	}, "   ")
	return styles.NavStyle.Width(width).Render(left)
}
