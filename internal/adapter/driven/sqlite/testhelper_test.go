package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// setupTestDB creates a named shared in-memory vault database with the schema
// applied. Writer and reader share the database via cache=shared; the name is
// derived from t.Name() so parallel tests stay isolated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape(t.Name()),
	)

	open := func(maxConns int) *sql.DB {
		conn, err := sql.Open("sqlite", dsn)
		require.NoError(t, err, "open test db")
		conn.SetMaxOpenConns(maxConns)
		require.NoError(t, conn.PingContext(context.Background()), "ping test db")
		return conn
	}

	db := &DB{Writer: open(1), Reader: open(4), path: dsn}
	t.Cleanup(func() { _ = db.Close() })

	_, err := RunMigrations(db.Writer)
	require.NoError(t, err, "run migrations")

	return db
}

// sealedFor returns a recognisable fake sealed secret; the repository never
// interprets its contents.
func sealedFor(label string) model.SealedSecret {
	return model.SealedSecret{IV: "iv-" + label, Tag: "tag-" + label, Data: "data-" + label}
}

// insertCredential stores a record and returns its id.
func insertCredential(t *testing.T, repo *CredentialRepo, service, username, category string) int64 {
	t.Helper()
	id, err := repo.Insert(context.Background(), model.CredentialRecord{
		Service:  service,
		Username: username,
		Secret:   sealedFor(service + "/" + username),
		Category: category,
	})
	require.NoError(t, err)
	return id
}

// rawRow reads the stored columns of a password row verbatim.
func rawRow(t *testing.T, db *DB, id int64) (encData string, categoryID sql.NullInt64, iconPath sql.NullString, updatedAt string) {
	t.Helper()
	err := db.Reader.QueryRowContext(context.Background(),
		`SELECT enc_data, category_id, icon_path, updated_at FROM passwords WHERE id = ?`, id,
	).Scan(&encData, &categoryID, &iconPath, &updatedAt)
	require.NoError(t, err)
	return encData, categoryID, iconPath, updatedAt
}
