package hardware

import (
	"strings"

	"charm-dapp-connect/approval"
	"charm-dapp-connect/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/errors"
)

// Payload is the text encoded into the QR code for the signing device.
func Payload(req approval.SignRequest) string {
	return "sign:" + req.CorrelationID + ":" + hexutil.Encode(req.Payload)
}

// ParseSignature decodes a signature pasted from the device. The 0x prefix is
// optional.
func ParseSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("clipboard is empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	sig, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "signature is not hex")
	}
	return sig, nil
}

// QR renders the payload as a half-block QR code
func QR(req approval.SignRequest) string {
	var b strings.Builder
	qrterminal.GenerateHalfBlock(Payload(req), qrterminal.L, &b)
	return b.String()
}

// Nav returns the navigation bar for the hardware screen
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("c") + " copy request",
		styles.Key("p") + " paste signature",
		styles.Key("Esc") + " abort",
	}, "   ")
	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the signing request with its QR code
func Render(req approval.SignRequest, qr string, status string) string {
	h := styles.TitleStyle.Render("Sign on your device")
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)

	lines := []string{
		h,
		lipgloss.NewStyle().Foreground(styles.CText).Render(req.Description),
		muted.Render("Account: " + req.AccountID),
		"",
		qr,
		muted.Render("Scan the code with the device, then copy its signature and press ") + styles.Key("p"),
	}
	if status != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(styles.CWarn).Render(status))
	}
	return strings.Join(lines, "\n")
}
