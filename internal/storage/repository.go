package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/records"
	"finboard/internal/remote"

	_ "modernc.org/sqlite"
)

var _ remote.Store = (*SQLiteRepository)(nil)

// ErrNotFound is returned when deleting an id that does not exist.
var ErrNotFound = errors.New("transaction not found")

// SQLiteRepository is a self-hosted transaction store. It answers List with
// the same {"transactions": [...]} envelope the hosted API uses.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// List implements remote.Lister.
func (r *SQLiteRepository) List(ctx context.Context, kind core.Kind) (any, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, label, amount, date, icon, created_at FROM transactions WHERE kind = ? ORDER BY date, created_at`,
		kind.String())
	if err != nil {
		return nil, fmt.Errorf("query %s transactions: %w", kind, err)
	}
	defer rows.Close()

	list := make([]any, 0)
	for rows.Next() {
		var id, label, amount, date, icon, createdAt string
		if err := rows.Scan(&id, &label, &amount, &date, &icon, &createdAt); err != nil {
			return nil, fmt.Errorf("scan %s transaction: %w", kind, err)
		}
		list = append(list, map[string]any{
			"_id":           id,
			kind.LabelKey(): label,
			"amount":        json.Number(amount),
			"date":          date,
			"icon":          icon,
			"createdAt":     createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s transactions: %w", kind, err)
	}

	return map[string]any{"transactions": list}, nil
}

// Create implements remote.Creator.
func (r *SQLiteRepository) Create(ctx context.Context, kind core.Kind, c core.Candidate) error {
	if err := c.Validate(kind); err != nil {
		return err
	}
	amount, err := core.ParseAmount(c.Amount)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, kind, label, amount, date, icon, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, kind.String(), strings.TrimSpace(c.Label), amount.String(), strings.TrimSpace(c.Date), c.Icon,
		r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"kind", kind,
		"label", c.Label,
		"amount", amount.String())
	return nil
}

// Delete implements remote.Deleter.
func (r *SQLiteRepository) Delete(ctx context.Context, kind core.Kind, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND kind = ?`, id, kind.String())
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s %s: %w", kind, id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id, "kind", kind)
	return nil
}

// Export implements remote.Exporter.
func (r *SQLiteRepository) Export(ctx context.Context, kind core.Kind) ([]byte, error) {
	payload, err := r.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	env := records.Normalize(payload)
	txs := records.NewResolver(r.now()).Transactions(kind, env.Records)
	return export.Workbook(kind, txs)
}
