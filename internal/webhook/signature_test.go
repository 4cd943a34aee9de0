package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"type":"payment","data":{"id":"123"}}`)
	secret := "super-secret"

	if !VerifySignature(payload, sign(payload, secret), secret) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifySignatureV1Header(t *testing.T) {
	payload := []byte(`{"type":"payment","data":{"id":"123"}}`)
	secret := "super-secret"
	header := "ts=1704908010,v1=" + sign(payload, secret)

	if !VerifySignature(payload, header, secret) {
		t.Fatal("expected v1 header form to verify")
	}
}

func TestVerifySignatureTamperedPayload(t *testing.T) {
	payload := []byte(`{"type":"payment","data":{"id":"123"}}`)
	secret := "super-secret"
	header := sign(payload, secret)

	tampered := append([]byte{}, payload...)
	tampered[0] = '['
	if VerifySignature(tampered, header, secret) {
		t.Fatal("expected tampered payload to fail verification")
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	payload := []byte(`{"type":"payment","data":{"id":"123"}}`)

	if VerifySignature(payload, sign(payload, "other-secret"), "super-secret") {
		t.Fatal("expected signature from another secret to fail")
	}
}

func TestVerifySignatureMalformedInput(t *testing.T) {
	payload := []byte("body")
	cases := []struct {
		name   string
		header string
		secret string
	}{
		{"empty header", "", "secret"},
		{"empty secret", sign(payload, "secret"), ""},
		{"not hex", "zzzz-not-hex", "secret"},
		{"truncated digest", sign(payload, "secret")[:10], "secret"},
		{"arbitrary string", "hello world", "secret"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if VerifySignature(payload, tc.header, tc.secret) {
				t.Error("expected verification to fail")
			}
		})
	}
}
