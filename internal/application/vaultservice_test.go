package application

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
	"github.com/ericfisherdev/keycausa/internal/domain/vaultcrypto"
)

func strPtr(s string) *string { return &s }

func newTestVault(t *testing.T) (*VaultService, *mockCredentialStore) {
	t.Helper()
	key := make([]byte, vaultcrypto.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	store := newMockCredentialStore()
	return NewVaultService(store, key), store
}

func TestVaultService_AddAndReveal(t *testing.T) {
	svc, store := newTestVault(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, model.NewCredential{
		Service:  "  GitHub ",
		Username: "alice",
		Password: "s3cr3t",
		Category: " Work ",
	})
	require.NoError(t, err)

	stored := store.records[id]
	assert.Equal(t, "GitHub", stored.Service)
	assert.Equal(t, "Work", stored.Category)
	assert.NotContains(t, stored.Secret.Data, "s3cr3t")

	got, err := svc.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", got.Service)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "s3cr3t", got.Password)
	assert.Equal(t, "Work", got.Category)
}

func TestVaultService_AddValidation(t *testing.T) {
	svc, store := newTestVault(t)

	tests := []struct {
		name string
		in   model.NewCredential
	}{
		{name: "empty service", in: model.NewCredential{Service: " ", Username: "u", Password: "p"}},
		{name: "empty username", in: model.NewCredential{Service: "s", Username: "", Password: "p"}},
		{name: "empty password", in: model.NewCredential{Service: "s", Username: "u", Password: ""}},
		{name: "icon not a data uri", in: model.NewCredential{Service: "s", Username: "u", Password: "p", IconData: "/tmp/icon.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tt.in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
	assert.Empty(t, store.records, "nothing may be stored on validation failure")
}

func TestVaultService_RevealMissing(t *testing.T) {
	svc, _ := newTestVault(t)

	_, err := svc.Reveal(context.Background(), 7)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestVaultService_RevealTamperedSecret(t *testing.T) {
	svc, store := newTestVault(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, model.NewCredential{Service: "s", Username: "u", Password: "p"})
	require.NoError(t, err)

	rec := store.records[id]
	rec.Secret.Tag = "AAAAAAAAAAAAAAAAAAAAAA=="
	store.records[id] = rec

	_, err = svc.Reveal(ctx, id)
	assert.ErrorIs(t, err, model.ErrAuthentication)
}

func TestVaultService_UpdateWithoutPasswordKeepsCiphertext(t *testing.T) {
	svc, store := newTestVault(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, model.NewCredential{Service: "GitHub", Username: "alice", Password: "pw", Category: "Work"})
	require.NoError(t, err)
	before := store.records[id].Secret

	err = svc.Update(ctx, model.CredentialPatch{ID: id, Username: strPtr("bob"), Password: strPtr("")})
	require.NoError(t, err)

	require.Len(t, store.updates, 1)
	assert.Nil(t, store.updates[0].Secret, "store must be told to keep the ciphertext")
	assert.Equal(t, before, store.records[id].Secret)

	got, err := svc.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, "GitHub", got.Service)
	assert.Equal(t, "Work", got.Category)
	assert.Equal(t, "pw", got.Password)
}

func TestVaultService_UpdatePasswordReseals(t *testing.T) {
	svc, store := newTestVault(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, model.NewCredential{Service: "s", Username: "u", Password: "old"})
	require.NoError(t, err)
	before := store.records[id].Secret

	require.NoError(t, svc.Update(ctx, model.CredentialPatch{ID: id, Password: strPtr("new")}))

	after := store.records[id].Secret
	assert.NotEqual(t, before.IV, after.IV, "a new password gets a fresh IV")

	got, err := svc.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Password)
}

func TestVaultService_UpdateEmptyPatchIsNoop(t *testing.T) {
	svc, store := newTestVault(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, model.NewCredential{Service: "s", Username: "u", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, model.CredentialPatch{ID: id}))
	assert.Empty(t, store.updates)
}

func TestVaultService_UpdateMissing(t *testing.T) {
	svc, _ := newTestVault(t)

	err := svc.Update(context.Background(), model.CredentialPatch{ID: 42, Service: strPtr("x")})
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = svc.Update(context.Background(), model.CredentialPatch{ID: 42})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestVaultService_UpdateValidation(t *testing.T) {
	svc, store := newTestVault(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, model.NewCredential{Service: "s", Username: "u", Password: "p"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch model.CredentialPatch
	}{
		{name: "blank service", patch: model.CredentialPatch{ID: id, Service: strPtr("  ")}},
		{name: "blank username", patch: model.CredentialPatch{ID: id, Username: strPtr("")}},
		{name: "bad icon", patch: model.CredentialPatch{ID: id, IconData: strPtr("https://example.com/x.png")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Update(ctx, tt.patch), model.ErrValidation)
		})
	}
	assert.Empty(t, store.updates)
}

func TestVaultService_UpdateCategoryAndIcon(t *testing.T) {
	svc, store := newTestVault(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, model.NewCredential{
		Service: "s", Username: "u", Password: "p", Category: "Old", IconData: "data:image/png;base64,AA==",
	})
	require.NoError(t, err)

	// An empty category keeps the current one; an empty icon clears it.
	require.NoError(t, svc.Update(ctx, model.CredentialPatch{ID: id, Category: strPtr(""), IconData: strPtr("")}))
	assert.Equal(t, "Old", store.records[id].Category)
	assert.Empty(t, store.records[id].IconData)

	require.NoError(t, svc.Update(ctx, model.CredentialPatch{ID: id, Category: strPtr(" New ")}))
	assert.Equal(t, "New", store.records[id].Category)
}

func TestVaultService_DeleteAndCategories(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, model.NewCredential{Service: "s", Username: "u", Password: "p", Category: "Work"})
	require.NoError(t, err)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Work", categories[0].Name)

	require.NoError(t, svc.Delete(ctx, id))
	require.NoError(t, svc.Delete(ctx, id), "second delete is a no-op")

	creds, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestVaultService_ListNeverCarriesPasswords(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, model.NewCredential{Service: "GitHub", Username: "alice", Password: "hunter2"})
	require.NoError(t, err)

	creds, err := svc.List(ctx, "Git")
	require.NoError(t, err)
	require.Len(t, creds, 1)

	var buf bytes.Buffer
	for _, c := range creds {
		buf.WriteString(c.Service + c.Username + c.Category + c.IconData)
	}
	assert.NotContains(t, buf.String(), "hunter2")
}
