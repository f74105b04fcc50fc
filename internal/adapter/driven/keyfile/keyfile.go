// Package keyfile persists the vault master key as a raw 32-byte file.
package keyfile

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
	"github.com/ericfisherdev/keycausa/internal/domain/port/driven"
	"github.com/ericfisherdev/keycausa/internal/domain/vaultcrypto"
)

// FileMode restricts the key file to its owner.
const FileMode fs.FileMode = 0o600

// Compile-time interface satisfaction check.
var _ driven.KeyStore = (*Store)(nil)

// Store is the file-backed KeyStore.
type Store struct {
	path string
}

// New creates a Store for the key file at path. Nothing is read until
// GetOrCreate is called.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the key file location.
func (s *Store) Path() string {
	return s.path
}

// GetOrCreate returns the stored key, generating one on first use.
// All failures wrap model.ErrIO.
func (s *Store) GetOrCreate() ([]byte, error) {
	key, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if len(key) != vaultcrypto.KeySize {
			return nil, fmt.Errorf("%w: key file %s has %d bytes, expected %d",
				model.ErrIO, s.path, len(key), vaultcrypto.KeySize)
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: read key file: %v", model.ErrIO, err)
	}

	key = make([]byte, vaultcrypto.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}

	// atomic.WriteFile stages into a 0600 temp file and renames it in place.
	if err := atomic.WriteFile(s.path, bytes.NewReader(key)); err != nil {
		return nil, fmt.Errorf("%w: write key file: %v", model.ErrIO, err)
	}
	if err := os.Chmod(s.path, FileMode); err != nil {
		return nil, fmt.Errorf("%w: chmod key file: %v", model.ErrIO, err)
	}

	return key, nil
}
