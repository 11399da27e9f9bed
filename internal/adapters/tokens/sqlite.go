package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tokenbot/internal/domain/token"

	"github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS tokens (
		id TEXT PRIMARY KEY,
		address TEXT UNIQUE NOT NULL,
		symbol TEXT NOT NULL,
		icon TEXT,
		decimals INTEGER NOT NULL,
		default_slippage INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tokens_address ON tokens(address);
`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newRepository(db), nil
}

func newRepository(db *sql.DB) *SQLiteRepository {
	// sqlite has a single writer; one connection also keeps ":memory:" databases intact.
	db.SetMaxOpenConns(1)
	return &SQLiteRepository{db: db}
}

// InitSchema creates the tokens table if it does not exist yet.
func (r *SQLiteRepository) InitSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// List returns all tokens ordered by case-insensitive symbol.
func (r *SQLiteRepository) List(ctx context.Context) ([]*token.Record, error) {
	query := `
		SELECT id, address, symbol, icon, decimals, default_slippage, created_at, updated_at
		FROM tokens
		ORDER BY LOWER(symbol) ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var records []*token.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}

	return records, nil
}

func (r *SQLiteRepository) GetByAddress(ctx context.Context, address string) (*token.Record, error) {
	query := `
		SELECT id, address, symbol, icon, decimals, default_slippage, created_at, updated_at
		FROM tokens
		WHERE address = ?
	`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: address=%s", token.ErrTokenNotFound, address)
		}
		return nil, err
	}
	return rec, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, address string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens WHERE address = ?`, address).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *token.Record) error {
	query := `
		INSERT INTO tokens (id, address, symbol, icon, decimals, default_slippage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAtStr := rec.CreatedAt.Format(time.RFC3339)
	if rec.CreatedAt.IsZero() {
		createdAtStr = time.Now().Format(time.RFC3339)
	}
	updatedAtStr := rec.UpdatedAt.Format(time.RFC3339)
	if rec.UpdatedAt.IsZero() {
		updatedAtStr = createdAtStr
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Address,
		rec.Symbol,
		nullString(rec.Icon),
		rec.Decimals,
		rec.DefaultSlippage,
		createdAtStr,
		updatedAtStr,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: address=%s", token.ErrTokenExists, rec.Address)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// Save persists icon and default slippage of rec. The write runs on a dedicated
// connection inside a transaction; both are released on every return path.
func (r *SQLiteRepository) Save(ctx context.Context, rec *token.Record) (err error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		UPDATE tokens
		SET icon = ?, default_slippage = ?, updated_at = ?
		WHERE address = ?
	`

	updatedAt := time.Now()
	res, err := tx.ExecContext(ctx, query,
		nullString(rec.Icon),
		rec.DefaultSlippage,
		updatedAt.Format(time.RFC3339),
		rec.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: address=%s", token.ErrTokenNotFound, rec.Address)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	rec.UpdatedAt = updatedAt
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, address string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE address = ?`, address)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: address=%s", token.ErrTokenNotFound, address)
	}

	return nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*token.Record, error) {
	var rec token.Record
	var icon sql.NullString
	var createdAtStr, updatedAtStr string

	if err := row.Scan(
		&rec.ID,
		&rec.Address,
		&rec.Symbol,
		&icon,
		&rec.Decimals,
		&rec.DefaultSlippage,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan token: %w", err)
	}

	if icon.Valid {
		rec.Icon = &icon.String
	}

	createdAt, err := parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	rec.CreatedAt = createdAt

	updatedAt, err := parseTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	rec.UpdatedAt = updatedAt

	return &rec, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Try parsing as datetime format if RFC3339 fails
		return time.Parse("2006-01-02 15:04:05", s)
	}
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
