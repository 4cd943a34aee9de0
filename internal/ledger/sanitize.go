package ledger

import "regexp"

// Raw payment IDs originate from untrusted webhook bodies and must never be
// used verbatim as a filesystem path or document key.
var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeKey strips every character outside [a-zA-Z0-9_-] from a raw
// payment ID, yielding a key safe to use as a filename or document ID.
func SanitizeKey(raw string) string {
	return unsafeKeyChars.ReplaceAllString(raw, "")
}
