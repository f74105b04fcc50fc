// Package answer canonicalizes and hashes security-question answers so that
// comparisons ignore accents, letter case and spacing.
package answer

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the canonical form of s: diacritics stripped after NFD
// decomposition, lowercased, trimmed, inner whitespace runs collapsed.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		// The chain only fails on invalid transformer state; fall back to
		// the undecomposed input rather than dropping characters.
		stripped = s
	}

	// strings.Fields trims and splits on any run of Unicode whitespace.
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// Hash returns the hex SHA-256 digest of the normalized form of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(Normalize(s)))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether raw hashes to storedHash. The comparison runs in
// constant time.
func Matches(storedHash, raw string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(Hash(raw))) == 1
}
