package hardware

import (
	"strings"
	"testing"

	"charm-dapp-connect/approval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadAndQR(t *testing.T) {
	req := approval.SignRequest{CorrelationID: "p1", AccountID: "H1", Payload: []byte{0xab, 0xcd}}
	assert.Equal(t, "sign:p1:0xabcd", Payload(req))

	qr := QR(req)
	assert.NotEmpty(t, qr)
	assert.Greater(t, strings.Count(qr, "\n"), 5)
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature(" 0xcafe\n")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, sig)

	sig, err = ParseSignature("beef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xbe, 0xef}, sig)

	_, err = ParseSignature("")
	assert.Error(t, err)
	_, err = ParseSignature("0xzz")
	assert.ErrorContains(t, err, "not hex")
}
