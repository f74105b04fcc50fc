package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
	"github.com/ericfisherdev/keycausa/internal/domain/port/driven"
	"github.com/ericfisherdev/keycausa/internal/domain/vaultcrypto"
)

// RevealedCredential is a credential with its password decrypted.
type RevealedCredential struct {
	ID        int64
	Service   string
	Username  string
	Password  string
	Category  string
	IconData  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VaultService implements credential CRUD and search on top of the credential
// store. Passwords are sealed with the master key before they reach the store
// and opened only on Reveal.
type VaultService struct {
	store driven.CredentialStore
	key   []byte
}

// NewVaultService creates a VaultService. key is the 32-byte master key held
// for the lifetime of the runtime.
func NewVaultService(store driven.CredentialStore, key []byte) *VaultService {
	return &VaultService{
		store: store,
		key:   key,
	}
}

// List returns credential summaries matching query. An empty query lists
// everything.
func (s *VaultService) List(ctx context.Context, query string) ([]model.CredentialSummary, error) {
	return s.store.List(ctx, query)
}

// Reveal loads a credential and decrypts its password. A failed integrity
// check is returned as model.ErrAuthentication and never masked.
func (s *VaultService) Reveal(ctx context.Context, id int64) (*RevealedCredential, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	password, err := vaultcrypto.Open(s.key, rec.Secret)
	if err != nil {
		return nil, fmt.Errorf("open credential %d: %w", id, err)
	}

	return &RevealedCredential{
		ID:        rec.ID,
		Service:   rec.Service,
		Username:  rec.Username,
		Password:  password,
		Category:  rec.Category,
		IconData:  rec.IconData,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Add validates and stores a new credential, returning its id.
func (s *VaultService) Add(ctx context.Context, in model.NewCredential) (int64, error) {
	service := strings.TrimSpace(in.Service)
	username := strings.TrimSpace(in.Username)

	switch {
	case service == "":
		return 0, fmt.Errorf("service is required: %w", model.ErrValidation)
	case username == "":
		return 0, fmt.Errorf("username is required: %w", model.ErrValidation)
	case in.Password == "":
		return 0, fmt.Errorf("password is required: %w", model.ErrValidation)
	}
	if err := validateIcon(in.IconData); err != nil {
		return 0, err
	}

	sealed, err := vaultcrypto.Seal(s.key, in.Password)
	if err != nil {
		return 0, fmt.Errorf("seal password: %w", err)
	}

	return s.store.Insert(ctx, model.CredentialRecord{
		Service:  service,
		Username: username,
		Secret:   sealed,
		Category: strings.TrimSpace(in.Category),
		IconData: in.IconData,
	})
}

// Update applies a partial update. Fields left nil keep their stored value; a
// nil or empty password keeps the stored ciphertext byte for byte. A patch
// with no fields only checks that the credential exists.
func (s *VaultService) Update(ctx context.Context, patch model.CredentialPatch) error {
	current, err := s.store.Get(ctx, patch.ID)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	upd := model.CredentialUpdate{
		ID:       current.ID,
		Service:  current.Service,
		Username: current.Username,
		Category: current.Category,
		IconData: current.IconData,
	}

	if patch.Service != nil {
		upd.Service = strings.TrimSpace(*patch.Service)
		if upd.Service == "" {
			return fmt.Errorf("service cannot be empty: %w", model.ErrValidation)
		}
	}
	if patch.Username != nil {
		upd.Username = strings.TrimSpace(*patch.Username)
		if upd.Username == "" {
			return fmt.Errorf("username cannot be empty: %w", model.ErrValidation)
		}
	}
	if patch.Category != nil {
		if name := strings.TrimSpace(*patch.Category); name != "" {
			upd.Category = name
		}
	}
	if patch.IconData != nil {
		if err := validateIcon(*patch.IconData); err != nil {
			return err
		}
		upd.IconData = *patch.IconData
	}
	if patch.Password != nil && *patch.Password != "" {
		sealed, err := vaultcrypto.Seal(s.key, *patch.Password)
		if err != nil {
			return fmt.Errorf("seal password: %w", err)
		}
		upd.Secret = &sealed
	}

	return s.store.Update(ctx, upd)
}

// Delete removes a credential. Deleting a missing id is not an error.
func (s *VaultService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// Categories lists every category created so far.
func (s *VaultService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}

func validateIcon(icon string) error {
	if icon != "" && !model.IsValidIconData(icon) {
		return fmt.Errorf("icon must be a %s data URI: %w", model.IconDataPrefix, model.ErrValidation)
	}
	return nil
}
