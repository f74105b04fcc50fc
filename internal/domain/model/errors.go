package model

import "errors"

// Caller-visible failures. Adapters and services wrap these with context;
// driving adapters match them with errors.Is.
var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested credential or question does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a security question with the same text already exists.
	ErrDuplicate = errors.New("already exists")

	// ErrAuthentication indicates ciphertext failed its integrity check.
	// It signals corruption or tampering and must never be swallowed.
	ErrAuthentication = errors.New("ciphertext authentication failed")

	// ErrIO indicates a filesystem failure on the key, question or backup files.
	ErrIO = errors.New("vault file i/o failed")
)

// Policy and lifecycle failures.
var (
	// ErrLastQuestion is returned when removing a question would leave the
	// entry gate with no question at all.
	ErrLastQuestion = errors.New("at least one security question must remain")

	// ErrVaultUnavailable is returned while a restore is swapping the vault files.
	ErrVaultUnavailable = errors.New("vault is restarting")
)
