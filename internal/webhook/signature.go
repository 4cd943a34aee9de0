// Package webhook handles Mercado Pago webhook notifications: signature
// verification and the ack-then-process coordination pipeline.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var v1Pattern = regexp.MustCompile(`v1=([0-9a-fA-F]+)`)

// VerifySignature checks that the raw payload was signed with the shared
// secret: HMAC-SHA256 over the exact received bytes, hex encoded, compared
// in constant time. Malformed input is a verification failure, never a panic.
//
// The header may carry the bare hex digest or Mercado Pago's
// "ts=<timestamp>,v1=<signature>" form; in the latter case the v1 component
// is used.
func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}

	provided := extractSignature(signatureHeader)
	got, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := mac.Sum(nil)

	return hmac.Equal(got, want)
}

// extractSignature pulls the hex digest out of the x-signature header.
func extractSignature(header string) string {
	if match := v1Pattern.FindStringSubmatch(header); len(match) > 1 {
		return match[1]
	}
	return strings.TrimSpace(header)
}
