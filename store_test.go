package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"charm-dapp-connect/config"
	"charm-dapp-connect/connect"
	"charm-dapp-connect/relay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStoreUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := newConfigStore(path, config.DefaultConfig())

	err := store.update(func(c *config.Config) {
		c.ActiveAccount = "watch"
		c.AddDapp(config.DApp{Name: "Getgems", URL: "https://getgems.io", AccountID: "watch", ConnectedAt: time.Now()})
	})
	require.NoError(t, err)

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "watch", saved.ActiveAccount)
	require.Len(t, saved.Dapps, 1)
	assert.Equal(t, "https://getgems.io", saved.Dapps[0].URL)

	snap := store.snapshot()
	snap.Dapps[0].Name = "changed"
	assert.Equal(t, "Getgems", store.snapshot().Dapps[0].Name)
}

func TestRelayLinkWithoutConnection(t *testing.T) {
	link := &relayLink{}
	ctx := context.Background()

	_, err := link.current()
	assert.ErrorIs(t, err, relay.ErrClosed)

	assert.ErrorIs(t, link.CancelDappRequest(ctx, "p1", "rejected"), relay.ErrClosed)
	assert.ErrorIs(t, link.ConfirmDappRequestConnect(ctx, "p1", connect.ConfirmParams{}), relay.ErrClosed)
	assert.ErrorIs(t, link.ActivateAccount(ctx, "main"), relay.ErrClosed)
	assert.Nil(t, link.set(nil))
}

func TestLogSink(t *testing.T) {
	sink := &logSink{}

	n, err := sink.Write([]byte("dropped\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Zero(t, sink.Len())

	sink.enabled.Store(true)
	_, _ = sink.Write([]byte("kept\n"))
	assert.Equal(t, "kept\n", sink.String())

	sink.Reset()
	assert.Zero(t, sink.Len())
}
