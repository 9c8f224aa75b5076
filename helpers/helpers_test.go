package helpers

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortenAddr(t *testing.T) {
	assert.Equal(t, "0x1234", ShortenAddr("0x1234"))
	assert.Equal(t, "UQAAAA…AJKZ", ShortenAddr("UQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAJKZ"))
}

func TestFormatToken(t *testing.T) {
	assert.Equal(t, "0 TON", FormatToken(nil, 9, "TON"))
	assert.Equal(t, "1.5000 TON", FormatToken(big.NewInt(1_500_000_000), 9, "TON"))
	assert.Equal(t, "0.000001 ETH", FormatETH(big.NewInt(1_000_000_000_000)))
}

func TestLoadedAt(t *testing.T) {
	assert.Equal(t, "loading…", LoadedAt(time.Now(), true))
	assert.Equal(t, "never", LoadedAt(time.Time{}, false))
	assert.Equal(t, "13:04:05", LoadedAt(time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC), false))
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, 3, Max(3, -1))
	assert.Equal(t, -1, Min(3, -1))
}
