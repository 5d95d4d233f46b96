package upi

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Filename returns the download name for a payee's card, e.g.
// "Jane Doe" -> "upi-qr-Jane-Doe.png".
func Filename(payeeName string) string {
	name := nonAlphanumeric.ReplaceAllString(strings.TrimSpace(payeeName), "-")
	if name == "" {
		name = "payment"
	}
	return "upi-qr-" + name + ".png"
}
