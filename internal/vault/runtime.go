// Package vault assembles the process-scoped runtime: the master key, the
// database handles, the question store and the services built on them. A
// runtime is opened once per serve cycle and discarded after a restore.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ericfisherdev/keycausa/internal/adapter/driven/keyfile"
	"github.com/ericfisherdev/keycausa/internal/adapter/driven/questionfile"
	sqliteadapter "github.com/ericfisherdev/keycausa/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/keycausa/internal/application"
	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// dataDirMode restricts the data directory to its owner.
const dataDirMode os.FileMode = 0o700

// Runtime holds every open resource of one vault instance.
type Runtime struct {
	Files     model.VaultFiles
	Gate      *application.Gate
	Vault     *application.VaultService
	Questions *application.QuestionService

	db     *sqliteadapter.DB
	key    []byte
	logger *slog.Logger
}

// Open loads (or creates) the vault stored at files. The master key is read
// once and kept in memory until Close.
func Open(ctx context.Context, files model.VaultFiles, logger *slog.Logger) (*Runtime, error) {
	if err := os.MkdirAll(filepath.Dir(files.Database), dataDirMode); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", model.ErrIO, err)
	}

	key, err := keyfile.New(files.Key).GetOrCreate()
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}

	db, err := sqliteadapter.NewDB(ctx, files.Database)
	if err != nil {
		return nil, err
	}
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("database ready", "path", files.Database, "schema_version", version)

	questionStore, err := questionfile.New(files.Questions)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	// Surface a corrupt or foreign question document at startup rather than
	// on the first challenge.
	questions, err := questionStore.Load(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load security questions: %w", err)
	}

	logger.Info("vault opened", "data_dir", filepath.Dir(files.Database), "questions", len(questions))

	return &Runtime{
		Files:     files,
		Gate:      application.NewGate(),
		Vault:     application.NewVaultService(sqliteadapter.NewCredentialRepo(db), key),
		Questions: application.NewQuestionService(questionStore, nil),
		db:        db,
		key:       key,
		logger:    logger,
	}, nil
}

// Backup returns a BackupService bound to this runtime's files, database and
// gate. restarter is invoked after a successful import.
func (r *Runtime) Backup(restarter application.Restarter) *application.BackupService {
	return application.NewBackupService(r.Files, r.db, r.Gate, restarter, r.logger)
}

// Close releases the database handles and wipes the in-memory key.
func (r *Runtime) Close() error {
	clear(r.key)
	var errs []error
	if err := r.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
