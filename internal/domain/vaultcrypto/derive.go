package vaultcrypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const documentKeyInfo = "keycausa/questions/v1"

// DeriveDocumentKey expands an application secret into an AES-256 key for
// the question document.
func DeriveDocumentKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("derive document key: empty secret")
	}

	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(documentKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive document key: %w", err)
	}
	return key, nil
}
