package log

import (
	"testing"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/stretchr/testify/assert"
)

func TestRenderShowsRelayAndOpenRequests(t *testing.T) {
	vp := viewport.New(60, 5)
	vp.SetContent("12:00:00 INFO relay connected")

	out := Render(Panel{Width: 80, Height: 40, Ready: true, RelayUp: false, Open: 2}, vp)
	assert.Contains(t, out, "Activity")
	assert.Contains(t, out, "relay ○")
	assert.Contains(t, out, "2 open")
	assert.Contains(t, out, "relay connected")

	out = Render(Panel{Width: 80, Height: 40, Ready: true, RelayUp: true}, vp)
	assert.Contains(t, out, "relay ●")
	assert.NotContains(t, out, "open")
}

func TestRenderBeforeReady(t *testing.T) {
	out := Render(Panel{Width: 80, Height: 40, Spinner: "*"}, viewport.New(60, 5))
	assert.Contains(t, out, "initializing")
}
