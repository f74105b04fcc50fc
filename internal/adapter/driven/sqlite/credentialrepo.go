package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
	"github.com/ericfisherdev/keycausa/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// It stores sealed secrets as the JSON triple {iv, tag, data} in passwords.enc_data
// and never sees a plaintext password.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

const summarySelect = `
	SELECT p.id, p.service, p.username, IFNULL(p.icon_path, ''), IFNULL(c.name, '')
	FROM passwords p
	LEFT JOIN categories c ON c.id = p.category_id`

const summaryOrder = ` ORDER BY p.service ASC, p.created_at ASC, p.id ASC`

// List returns credential summaries ordered by service, then creation order.
// A non-empty query is matched with LIKE '%query%' against service, username
// and category name; SQLite LIKE ignores ASCII letter case.
func (r *CredentialRepo) List(ctx context.Context, query string) ([]model.CredentialSummary, error) {
	query = strings.TrimSpace(query)

	var (
		rows *sql.Rows
		err  error
	)
	if query == "" {
		rows, err = r.db.Reader.QueryContext(ctx, summarySelect+summaryOrder)
	} else {
		pattern := "%" + query + "%"
		rows, err = r.db.Reader.QueryContext(ctx,
			summarySelect+` WHERE p.service LIKE ? OR p.username LIKE ? OR IFNULL(c.name, '') LIKE ?`+summaryOrder,
			pattern, pattern, pattern,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	creds := make([]model.CredentialSummary, 0)
	for rows.Next() {
		var c model.CredentialSummary
		if err := rows.Scan(&c.ID, &c.Service, &c.Username, &c.IconData, &c.Category); err != nil {
			return nil, fmt.Errorf("scan credential summary: %w", err)
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Get retrieves a full credential record. Returns model.ErrNotFound if the id
// does not exist.
func (r *CredentialRepo) Get(ctx context.Context, id int64) (*model.CredentialRecord, error) {
	const query = `
		SELECT p.id, p.service, p.username, p.enc_data, IFNULL(c.name, ''), IFNULL(p.icon_path, ''),
		       p.created_at, p.updated_at
		FROM passwords p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`

	var (
		rec       model.CredentialRecord
		encData   string
		createdAt string
		updatedAt string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Service, &rec.Username, &encData, &rec.Category, &rec.IconData,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get credential %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %d: %w", id, err)
	}

	if err := json.Unmarshal([]byte(encData), &rec.Secret); err != nil {
		return nil, fmt.Errorf("decode enc_data for credential %d: %w", id, model.ErrAuthentication)
	}

	rec.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for credential %d: %w", id, err)
	}
	rec.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for credential %d: %w", id, err)
	}

	return &rec, nil
}

// Insert stores a new credential and returns its id. The category is resolved
// (and created if needed) in the same transaction as the insert.
func (r *CredentialRepo) Insert(ctx context.Context, rec model.CredentialRecord) (int64, error) {
	encData, err := json.Marshal(rec.Secret)
	if err != nil {
		return 0, fmt.Errorf("encode enc_data: %w", err)
	}

	now := rec.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	ts := formatTime(now)

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert credential: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	categoryID, err := resolveCategory(ctx, tx, rec.Category)
	if err != nil {
		return 0, err
	}

	const query = `
		INSERT INTO passwords (service, username, enc_data, category_id, icon_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, query,
		rec.Service, rec.Username, string(encData), categoryID, nullIfEmpty(rec.IconData), ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("insert credential %q: %w", rec.Service, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted credential id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert credential: %w", err)
	}
	return id, nil
}

// Update overwrites a credential. When upd.Secret is nil the enc_data column
// is left exactly as stored. Returns model.ErrNotFound if the id does not exist.
func (r *CredentialRepo) Update(ctx context.Context, upd model.CredentialUpdate) error {
	var encData any // NULL keeps the stored value via COALESCE.
	if upd.Secret != nil {
		raw, err := json.Marshal(upd.Secret)
		if err != nil {
			return fmt.Errorf("encode enc_data: %w", err)
		}
		encData = string(raw)
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update credential %d: %w", upd.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	categoryID, err := resolveCategory(ctx, tx, upd.Category)
	if err != nil {
		return err
	}

	const query = `
		UPDATE passwords
		SET service = ?, username = ?, enc_data = COALESCE(?, enc_data), category_id = ?,
		    icon_path = ?, updated_at = ?
		WHERE id = ?`
	res, err := tx.ExecContext(ctx, query,
		upd.Service, upd.Username, encData, categoryID, nullIfEmpty(upd.IconData),
		formatTime(time.Now().UTC()), upd.ID,
	)
	if err != nil {
		return fmt.Errorf("update credential %d: %w", upd.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update credential %d: %w", upd.ID, model.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update credential %d: %w", upd.ID, err)
	}
	return nil
}

// Delete removes the credential. No-op if the id does not exist.
func (r *CredentialRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM passwords WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete credential %d: %w", id, err)
	}
	return nil
}

// ListCategories returns all category names in alphabetical order.
func (r *CredentialRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	const query = `SELECT id, name FROM categories WHERE name IS NOT NULL ORDER BY name`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// resolveCategory returns the id of the named category, creating it if
// needed. A name that already exists is neither an error nor a second row.
// An empty name resolves to NULL.
func resolveCategory(ctx context.Context, tx *sql.Tx, name string) (sql.NullInt64, error) {
	if name == "" {
		return sql.NullInt64{}, nil
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
		return sql.NullInt64{}, fmt.Errorf("insert category %q: %w", name, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id); err != nil {
		return sql.NullInt64{}, fmt.Errorf("resolve category %q: %w", name, err)
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
