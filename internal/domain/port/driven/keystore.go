package driven

// KeyStore owns the master key used for credential encryption.
type KeyStore interface {
	// GetOrCreate returns the persisted 32-byte key, generating and
	// persisting a new random one on first use.
	GetOrCreate() ([]byte, error)
}
