package home

import (
	"fmt"
	"strings"

	"charm-dapp-connect/styles"

	"github.com/charmbracelet/huh"
)

// TempSelection stores the home menu selection
var TempSelection string

// Summary is what the menu shows next to its entries
type Summary struct {
	ActiveAccount string
	Waiting       int // connect requests not answered yet
	Dapps         int
	RelayUp       bool
}

// CreateForm creates the home menu form
func CreateForm(s Summary) *huh.Form {
	TempSelection = ""

	accountsLabel := "Accounts"
	if s.ActiveAccount != "" {
		accountsLabel += " (active: " + s.ActiveAccount + ")"
	}
	dappsLabel := fmt.Sprintf("Connected dApps (%d)", s.Dapps)
	settingsLabel := "Relay & RPC"
	if !s.RelayUp {
		settingsLabel += " (relay down)"
	}

	description := "No requests waiting"
	if s.Waiting > 0 {
		description = fmt.Sprintf("%d connect request(s) waiting for approval", s.Waiting)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Options(
					huh.NewOption(accountsLabel, "accounts"),
					huh.NewOption(dappsLabel, "dapps"),
					huh.NewOption(settingsLabel, "settings"),
				).
				Title("dApp connect").
				Description(description).
				Value(&TempSelection),
		),
	).WithTheme(huh.ThemeCatppuccin())

	form.Init()
	return form
}

// Render renders the home view
func Render(form *huh.Form) string {
	if form != nil {
		return form.View()
	}
	return "Loading menu..."
}

// Nav returns the navigation bar for home view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("Enter") + " open",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " accounts",
		styles.Key("q") + " quit",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}
