package walletpicker

import (
	"testing"

	"charm-dapp-connect/accounts"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(selected string) []accounts.Candidate {
	return accounts.Eligible([]accounts.Account{
		{ID: "V1", Name: "Watch", Type: accounts.View, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQV1"}},
		{ID: "A1", Name: "Main", Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQA1"}},
		{ID: "E1", Name: "Eth", Addresses: map[accounts.Chain]string{accounts.ChainEthereum: "0xE1"}},
		{ID: "A2", Name: "Second", Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQA2"}},
	}, selected, []accounts.Chain{accounts.ChainTon})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCursorStartsOnSelected(t *testing.T) {
	assert.Equal(t, 3, New(candidates("A2")).Cursor())
	// a disabled selection falls back to the first enabled row
	assert.Equal(t, 1, New(candidates("V1")).Cursor())
}

func TestCursorSkipsDisabledRows(t *testing.T) {
	m := New(candidates("A1"))
	m, _ = m.Update(key("down"))
	assert.Equal(t, 3, m.Cursor(), "E1 has no TON address")
	m, _ = m.Update(key("down"))
	assert.Equal(t, 3, m.Cursor())
	m, _ = m.Update(key("up"))
	assert.Equal(t, 1, m.Cursor())
	m, _ = m.Update(key("up"))
	assert.Equal(t, 1, m.Cursor(), "V1 is view-only")
}

func TestEnterSelects(t *testing.T) {
	m := New(candidates("A1"))
	m, _ = m.Update(key("j"))
	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedMsg{AccountID: "A2"}, cmd())
}

func TestEscGoesBack(t *testing.T) {
	_, cmd := New(candidates("A1")).Update(key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestNothingSelectable(t *testing.T) {
	m := New(accounts.Eligible([]accounts.Account{
		{ID: "V1", Type: accounts.View, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQV1"}},
	}, "V1", []accounts.Chain{accounts.ChainTon}))
	assert.Equal(t, -1, m.Cursor())
	_, cmd := m.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "view-only account")
}
