package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
	"github.com/ericfisherdev/keycausa/internal/domain/port/driven"
	"github.com/ericfisherdev/keycausa/internal/domain/vaultcrypto"
)

// backupFileMode matches the mode of the live vault files.
const backupFileMode fs.FileMode = 0o600

// Restarter rebuilds the runtime from the files on disk. It is invoked once
// the restored files are in place.
type Restarter interface {
	Restart(ctx context.Context) error
}

// RestarterFunc adapts a plain function to the Restarter interface.
type RestarterFunc func(ctx context.Context) error

// Restart calls f(ctx).
func (f RestarterFunc) Restart(ctx context.Context) error { return f(ctx) }

// BackupService exports and restores the three vault artifacts as opaque
// files. It never decrypts anything.
type BackupService struct {
	files     model.VaultFiles
	db        driven.DatabaseFile
	gate      *Gate
	restarter Restarter
	logger    *slog.Logger
}

// NewBackupService creates a BackupService for the live files. db may be nil
// when no database handle is open (nothing to checkpoint).
func NewBackupService(files model.VaultFiles, db driven.DatabaseFile, gate *Gate, restarter Restarter, logger *slog.Logger) *BackupService {
	return &BackupService{
		files:     files,
		db:        db,
		gate:      gate,
		restarter: restarter,
		logger:    logger,
	}
}

// Export copies the live artifacts into dir under their canonical names and
// returns the names actually copied. Artifacts that do not exist yet are
// skipped.
func (s *BackupService) Export(ctx context.Context, dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("export directory is required: %w", model.ErrValidation)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("export target %q is not a directory: %w", dir, model.ErrValidation)
	}

	release, err := s.gate.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if s.db != nil {
		if err := s.db.Checkpoint(ctx); err != nil {
			return nil, fmt.Errorf("%w: checkpoint before export: %v", model.ErrIO, err)
		}
	}

	copied := make([]string, 0, 3)
	for _, f := range s.files.ByName() {
		data, err := os.ReadFile(f.Path)
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("vault file missing, skipped in export", "file", f.Name)
			continue
		}
		if err != nil {
			return copied, fmt.Errorf("%w: read %s: %v", model.ErrIO, f.Name, err)
		}

		if err := writeVaultFile(filepath.Join(dir, f.Name), data); err != nil {
			return copied, err
		}
		copied = append(copied, f.Name)
	}

	s.logger.Info("vault exported", "dir", dir, "files", copied)
	return copied, nil
}

// Import replaces the live artifacts with the files in paths, identified by
// base name; extra files are ignored. Every source is read and checked before
// the first live file is touched. Once any live file has been replaced the
// runtime is restarted, even if a later write fails, and the gate stays
// closed until the replacement runtime takes over.
func (s *BackupService) Import(ctx context.Context, paths []string) ([]string, error) {
	byName := make(map[string]string, len(paths))
	for _, p := range paths {
		byName[filepath.Base(p)] = p
	}

	var missing []string
	for _, f := range s.files.ByName() {
		if _, ok := byName[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required files %s: %w", strings.Join(missing, ", "), model.ErrValidation)
	}

	contents := make(map[string][]byte, 3)
	for _, f := range s.files.ByName() {
		data, err := os.ReadFile(byName[f.Name])
		if err != nil {
			return nil, fmt.Errorf("%w: read backup %s: %v", model.ErrIO, f.Name, err)
		}
		contents[f.Name] = data
	}
	if n := len(contents[model.KeyFileName]); n != vaultcrypto.KeySize {
		return nil, fmt.Errorf("backup %s holds %d bytes, want %d: %w",
			model.KeyFileName, n, vaultcrypto.KeySize, model.ErrValidation)
	}

	reopen := s.gate.Close()

	if s.db != nil {
		if err := s.db.Checkpoint(ctx); err != nil {
			reopen()
			return nil, fmt.Errorf("%w: checkpoint before import: %v", model.ErrIO, err)
		}
	}

	restored := make([]string, 0, 3)
	for _, f := range s.files.ByName() {
		if err := writeVaultFile(f.Path, contents[f.Name]); err != nil {
			s.logger.Error("restore failed", "file", f.Name, "restored", restored, "error", err)
			if len(restored) == 0 {
				reopen()
				return restored, err
			}
			// Live files are now mixed. Hand over to a runtime rebuilt from
			// disk; if it cannot open them the server stops with that error.
			if restartErr := s.restarter.Restart(ctx); restartErr != nil {
				return restored, errors.Join(err, fmt.Errorf("restart after partial import: %w", restartErr))
			}
			return restored, err
		}
		restored = append(restored, f.Name)
	}

	s.logger.Info("vault files restored, restarting", "files", restored)
	if err := s.restarter.Restart(ctx); err != nil {
		return restored, fmt.Errorf("restart after import: %w", err)
	}
	return restored, nil
}

func writeVaultFile(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: write %s: %v", model.ErrIO, filepath.Base(path), err)
	}
	if err := os.Chmod(path, backupFileMode); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", model.ErrIO, filepath.Base(path), err)
	}
	return nil
}
