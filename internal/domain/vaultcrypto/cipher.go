// Package vaultcrypto implements the authenticated encryption used by the
// vault. All functions take the key explicitly; nothing here holds state.
package vaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the GCM initialization vector length in bytes (96 bits).
	NonceSize = 12
	// TagSize is the GCM authentication tag length in bytes (128 bits).
	TagSize = 16
)

// ErrInvalidKey is returned when a key is not exactly KeySize bytes.
var ErrInvalidKey = errors.New("invalid key length: expected 32 bytes")

// Seal encrypts plaintext with AES-256-GCM under a fresh random IV and
// returns IV, tag and ciphertext as independent base64 strings.
func Seal(key []byte, plaintext string) (model.SealedSecret, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return model.SealedSecret{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return model.SealedSecret{}, fmt.Errorf("rand nonce: %w", err)
	}

	// Seal returns ciphertext || tag.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	return model.SealedSecret{
		IV:   base64.StdEncoding.EncodeToString(nonce),
		Tag:  base64.StdEncoding.EncodeToString(tag),
		Data: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// Open verifies and decrypts a sealed secret. Any encoding defect or tag
// mismatch returns an error wrapping model.ErrAuthentication.
func Open(key []byte, s model.SealedSecret) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce, err := base64.StdEncoding.DecodeString(s.IV)
	if err != nil || len(nonce) != NonceSize {
		return "", fmt.Errorf("%w: malformed iv", model.ErrAuthentication)
	}
	tag, err := base64.StdEncoding.DecodeString(s.Tag)
	if err != nil || len(tag) != TagSize {
		return "", fmt.Errorf("%w: malformed tag", model.ErrAuthentication)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(s.Data)
	if err != nil {
		return "", fmt.Errorf("%w: malformed data", model.ErrAuthentication)
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrAuthentication, err)
	}
	return string(plaintext), nil
}

// SealBlob encrypts a whole document and returns base64(nonce || ciphertext || tag).
func SealBlob(key, plaintext []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenBlob reverses SealBlob. Failures wrap model.ErrAuthentication.
func OpenBlob(key []byte, encoded string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode: %v", model.ErrAuthentication, err)
	}
	if len(data) < NonceSize+TagSize {
		return nil, fmt.Errorf("%w: ciphertext too short", model.ErrAuthentication)
	}

	nonce, ciphertext := data[:NonceSize], data[NonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAuthentication, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
