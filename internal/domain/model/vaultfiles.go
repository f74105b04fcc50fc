package model

import "path/filepath"

// Canonical artifact names inside the data directory and inside a backup.
const (
	DatabaseFileName  = "vault.db"
	KeyFileName       = "vault.key"
	QuestionsFileName = "questions.enc"
)

// VaultFiles locates the three persisted artifacts of a vault.
type VaultFiles struct {
	Database  string
	Key       string
	Questions string
}

// VaultFilesIn returns the canonical artifact paths inside dir.
func VaultFilesIn(dir string) VaultFiles {
	return VaultFiles{
		Database:  filepath.Join(dir, DatabaseFileName),
		Key:       filepath.Join(dir, KeyFileName),
		Questions: filepath.Join(dir, QuestionsFileName),
	}
}

// ByName returns the artifacts keyed by canonical file name, in a stable order.
func (f VaultFiles) ByName() []NamedFile {
	return []NamedFile{
		{Name: DatabaseFileName, Path: f.Database},
		{Name: KeyFileName, Path: f.Key},
		{Name: QuestionsFileName, Path: f.Questions},
	}
}

// NamedFile pairs a canonical artifact name with its path.
type NamedFile struct {
	Name string
	Path string
}
