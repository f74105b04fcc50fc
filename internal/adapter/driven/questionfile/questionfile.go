// Package questionfile stores the security questions as a single encrypted
// document. The whole list is decrypted on load and rewritten on every change.
package questionfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
	"github.com/ericfisherdev/keycausa/internal/domain/port/driven"
	"github.com/ericfisherdev/keycausa/internal/domain/vaultcrypto"
)

// appSecret protects the question document. It is a fixed application
// secret, not derived from anything the user knows; replace it per build with
//
//	-ldflags "-X github.com/ericfisherdev/keycausa/internal/adapter/driven/questionfile.appSecret=..."
var appSecret = "keycausa-question-store"

// FileMode restricts the question document to its owner.
const FileMode fs.FileMode = 0o600

// Compile-time interface satisfaction check.
var _ driven.QuestionStore = (*Store)(nil)

// Store is the file-backed QuestionStore. The decrypted list is cached after
// the first load; a Store must be discarded when the file is replaced
// underneath it.
type Store struct {
	path string
	key  []byte

	mu     sync.Mutex
	cache  []model.SecurityQuestion
	loaded bool
}

// New creates a Store for the document at path using the built-in secret.
func New(path string) (*Store, error) {
	return NewWithSecret(path, appSecret)
}

// NewWithSecret creates a Store whose document key is derived from secret.
func NewWithSecret(path, secret string) (*Store, error) {
	key, err := vaultcrypto.DeriveDocumentKey(secret)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, key: key}, nil
}

// Load returns a copy of the question list, creating an empty document when
// none exists.
func (s *Store) Load(ctx context.Context) ([]model.SecurityQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return slices.Clone(questions), nil
}

// Update runs fn on a copy of the current list and persists the result as a
// new document. The mutex is held for the whole read-modify-write.
func (s *Store) Update(ctx context.Context, fn func([]model.SecurityQuestion) ([]model.SecurityQuestion, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked()
	if err != nil {
		return err
	}

	next, err := fn(slices.Clone(current))
	if err != nil {
		return err
	}

	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.cache = slices.Clone(next)
	return nil
}

func (s *Store) loadLocked() ([]model.SecurityQuestion, error) {
	if s.loaded {
		return s.cache, nil
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		empty := []model.SecurityQuestion{}
		if err := s.persistLocked(empty); err != nil {
			return nil, err
		}
		s.cache, s.loaded = empty, true
		return s.cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read question document: %v", model.ErrIO, err)
	}

	plaintext, err := vaultcrypto.OpenBlob(s.key, strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("open question document: %w", err)
	}

	var questions []model.SecurityQuestion
	if err := json.Unmarshal(plaintext, &questions); err != nil {
		return nil, fmt.Errorf("%w: decode question document: %v", model.ErrIO, err)
	}
	if questions == nil {
		questions = []model.SecurityQuestion{}
	}

	s.cache, s.loaded = questions, true
	return s.cache, nil
}

func (s *Store) persistLocked(questions []model.SecurityQuestion) error {
	if questions == nil {
		questions = []model.SecurityQuestion{}
	}

	plaintext, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("encode question document: %w", err)
	}

	blob, err := vaultcrypto.SealBlob(s.key, plaintext)
	if err != nil {
		return fmt.Errorf("seal question document: %w", err)
	}

	if err := atomic.WriteFile(s.path, strings.NewReader(blob)); err != nil {
		return fmt.Errorf("%w: write question document: %v", model.ErrIO, err)
	}
	if err := os.Chmod(s.path, FileMode); err != nil {
		return fmt.Errorf("%w: chmod question document: %v", model.ErrIO, err)
	}
	return nil
}
