package model

import (
	"strings"
	"time"
)

// IconDataPrefix is the only accepted form for an icon payload: an inline
// base64 image data URI.
const IconDataPrefix = "data:image/"

// SealedSecret is the authenticated-encryption bundle stored for a password.
// Each part is standard base64. It is persisted as the JSON triple
// {"iv","tag","data"} in the passwords.enc_data column.
type SealedSecret struct {
	IV   string `json:"iv"`
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

// CredentialRecord is one stored secret as held by the credential store.
// Secret is always ciphertext; plaintext passwords never reach the store.
type CredentialRecord struct {
	ID        int64
	Service   string
	Username  string
	Secret    SealedSecret
	Category  string // Empty when the record has no category.
	IconData  string // Empty when no icon was provided.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialSummary is the list view of a record. It deliberately has no
// password field.
type CredentialSummary struct {
	ID       int64
	Service  string
	Username string
	IconData string
	Category string
}

// NewCredential is the input for creating a credential.
type NewCredential struct {
	Service  string
	Username string
	Password string
	Category string
	IconData string
}

// CredentialPatch is a partial update. A nil field keeps the stored value.
type CredentialPatch struct {
	ID       int64
	Service  *string
	Username *string
	Password *string
	Category *string
	IconData *string
}

// IsEmpty reports whether the patch carries no field at all.
func (p CredentialPatch) IsEmpty() bool {
	return p.Service == nil && p.Username == nil && p.Password == nil &&
		p.Category == nil && p.IconData == nil
}

// CredentialUpdate is a fully resolved update as handed to the store. Secret
// is nil when the password is unchanged, so the stored ciphertext is kept as is.
type CredentialUpdate struct {
	ID       int64
	Service  string
	Username string
	Secret   *SealedSecret
	Category string
	IconData string
}

// Category groups credentials by a user-chosen name.
type Category struct {
	ID   int64
	Name string
}

// IsValidIconData reports whether s is an acceptable icon payload.
func IsValidIconData(s string) bool {
	return strings.HasPrefix(s, IconDataPrefix)
}
