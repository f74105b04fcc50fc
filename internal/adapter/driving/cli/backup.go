package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/keycausa/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/keycausa/internal/application"
	"github.com/ericfisherdev/keycausa/internal/domain/model"
	"github.com/ericfisherdev/keycausa/internal/domain/port/driven"
)

func newBackupCommand(a *app) *cobra.Command {
	backup := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the vault files",
		Long: `Copies the three vault files (vault.db, vault.key, questions.enc) to or
from a directory. These commands work on the files directly; stop a running
server first, or use the HTTP backup endpoints instead.`,
	}

	backup.AddCommand(&cobra.Command{
		Use:   "export <directory>",
		Short: "Copy the vault files into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.exportBackup(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	})

	backup.AddCommand(&cobra.Command{
		Use:   "import <file>...",
		Short: "Replace the vault files with a backup",
		Long: `Replaces the live vault files with the given backup files. All three of
vault.db, vault.key and questions.enc must be present; other files are ignored.
Nothing is modified unless every file can be read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importBackup(cmd.Context(), cmd.OutOrStdout(), args)
		},
	})

	return backup
}

func (a *app) exportBackup(ctx context.Context, out io.Writer, dir string) error {
	svc, done, err := a.offlineBackup(ctx)
	if err != nil {
		return err
	}
	defer done()

	copied, err := svc.Export(ctx, dir)
	if err != nil {
		fmt.Fprintln(out, color.RedString("✗")+" Export failed: "+err.Error())
		return err
	}

	fmt.Fprintln(out, color.GreenString("✓")+" Exported "+color.CyanString(strings.Join(copied, ", "))+" to "+color.YellowString(dir))
	if len(copied) < len(model.VaultFilesIn(dir).ByName()) {
		fmt.Fprintln(out, color.YellowString("!")+" Some vault files did not exist yet and were skipped")
	}
	return nil
}

func (a *app) importBackup(ctx context.Context, out io.Writer, paths []string) error {
	svc, done, err := a.offlineBackup(ctx)
	if err != nil {
		return err
	}
	defer done()

	restored, err := svc.Import(ctx, paths)
	if err != nil {
		fmt.Fprintln(out, color.RedString("✗")+" Import failed: "+err.Error())
		return err
	}

	fmt.Fprintln(out, color.GreenString("✓")+" Restored "+color.CyanString(strings.Join(restored, ", "))+" into "+color.YellowString(a.cfg.DataDir))
	return nil
}

// offlineBackup builds a BackupService over the files in the data directory.
// When a database exists it is opened so pending WAL pages get checkpointed.
func (a *app) offlineBackup(ctx context.Context) (*application.BackupService, func(), error) {
	files := a.cfg.Files()
	if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("%w: create data directory: %v", model.ErrIO, err)
	}

	var (
		dbFile driven.DatabaseFile
		done   = func() {}
	)
	if _, err := os.Stat(files.Database); err == nil {
		db, err := sqliteadapter.NewDB(ctx, files.Database)
		if err != nil {
			return nil, nil, err
		}
		dbFile = db
		done = func() {
			if err := db.Close(); err != nil {
				a.logger.Error("error closing database", "error", err)
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: stat database: %v", model.ErrIO, err)
	}

	// Offline there is no runtime to rebuild; the next serve picks up the files.
	noRestart := application.RestarterFunc(func(context.Context) error { return nil })

	return application.NewBackupService(files, dbFile, application.NewGate(), noRestart, a.logger), done, nil
}
