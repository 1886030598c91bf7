package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"economoney/internal/core"
	"economoney/internal/ledger"

	_ "modernc.org/sqlite"
)

var (
	_ ledger.Store = (*SQLiteRepository)(nil)
	_ ledger.Tx    = (*sqliteTx)(nil)
)

type SQLiteRepository struct {
	reader
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		reader: reader{queries: New(db)},
		db:     db,
	}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WithTx implements ledger.Store
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&sqliteTx{reader: reader{queries: r.queries.WithTx(tx)}}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqliteTx struct {
	reader
}

func (t *sqliteTx) InsertSnapshot(ctx context.Context, userID int64, day core.Day, balance core.Money) (core.BalanceSnapshot, error) {
	b, err := t.queries.CreateBalance(ctx, userID, day.String(), balance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BalanceSnapshot{}, fmt.Errorf("insert snapshot for user %d on %s: %w", userID, day, core.ErrDuplicate)
	}
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return toSnapshot(b)
}

func (t *sqliteTx) AdjustSnapshot(ctx context.Context, userID int64, day core.Day, delta core.Money) (core.Money, error) {
	balances, err := t.queries.AdjustBalance(ctx, delta.Cents, userID, day.String())
	if err != nil {
		return core.Money{}, fmt.Errorf("adjust snapshot: %w", err)
	}
	if len(balances) != 1 {
		return core.Money{}, &core.ConsistencyError{
			Op:       "adjust snapshot",
			UserID:   userID,
			Day:      day,
			Affected: int64(len(balances)),
		}
	}
	return core.Money{Cents: balances[0]}, nil
}

func (t *sqliteTx) InsertExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	category := sql.NullString{String: e.Category, Valid: strings.TrimSpace(e.Category) != ""}
	id, err := t.queries.CreateExpense(ctx, e.UserID, e.Amount.Cents, e.Day.String(), category)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("create expense: %w", err)
	}
	e.ID = id

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"user_id", e.UserID,
		"amount", e.Amount.String(),
		"day", e.Day.String())

	return e, nil
}

// reader implements ledger.Reader on top of Queries, for both the pool and a tx.
type reader struct {
	queries *Queries
}

func (r reader) SnapshotOn(ctx context.Context, userID int64, day core.Day) (core.BalanceSnapshot, error) {
	b, err := r.queries.GetBalance(ctx, userID, day.String())
	if errors.Is(err, sql.ErrNoRows) {
		return core.BalanceSnapshot{}, core.ErrNotFound
	}
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return toSnapshot(b)
}

func (r reader) LatestSnapshot(ctx context.Context, userID int64) (core.BalanceSnapshot, error) {
	b, err := r.queries.GetLatestBalance(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BalanceSnapshot{}, core.ErrNotFound
	}
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("get latest snapshot: %w", err)
	}
	return toSnapshot(b)
}

func (r reader) SnapshotsBetween(ctx context.Context, userID int64, from, to core.Day) ([]core.BalanceSnapshot, error) {
	rows, err := r.queries.ListBalancesBetween(ctx, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]core.BalanceSnapshot, 0, len(rows))
	for _, b := range rows {
		s, err := toSnapshot(b)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r reader) SumByCategory(ctx context.Context, userID int64, from, to core.Day) ([]core.CategoryAmount, error) {
	sums, err := r.queries.GetCategorySums(ctx, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("get category sums: %w", err)
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for _, cs := range sums {
		out = append(out, core.CategoryAmount{
			Category: cs.Category,
			Amount:   core.Money{Cents: cs.TotalAmount},
		})
	}
	return out, nil
}

func (r reader) SumByDayCategory(ctx context.Context, userID int64, from, to core.Day) ([]core.DayCategoryAmount, error) {
	sums, err := r.queries.GetDayCategorySums(ctx, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("get day category sums: %w", err)
	}
	out := make([]core.DayCategoryAmount, 0, len(sums))
	for _, s := range sums {
		day, err := core.ParseDay(s.Day)
		if err != nil {
			return nil, err
		}
		out = append(out, core.DayCategoryAmount{
			Day:      day,
			Category: s.Category,
			Amount:   core.Money{Cents: s.TotalAmount},
		})
	}
	return out, nil
}

func (r reader) SumExpenses(ctx context.Context, userID int64, from, to core.Day) (core.Money, error) {
	total, err := r.queries.GetExpenseTotal(ctx, userID, from.String(), to.String())
	if err != nil {
		return core.Money{}, fmt.Errorf("get expense total: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func (r reader) ListExpenses(ctx context.Context, userID int64, from, to core.Day) ([]core.ExpenseRecord, error) {
	rows, err := r.queries.ListExpensesBetween(ctx, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.ExpenseRecord, 0, len(rows))
	for _, e := range rows {
		day, err := core.ParseDay(e.Day)
		if err != nil {
			return nil, err
		}
		out = append(out, core.ExpenseRecord{
			ID:       e.ID,
			UserID:   e.UserID,
			Amount:   core.Money{Cents: e.AmountCents},
			Day:      day,
			Category: e.Category.String,
		})
	}
	return out, nil
}

func toSnapshot(b Balance) (core.BalanceSnapshot, error) {
	day, err := core.ParseDay(b.Day)
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("snapshot %d: %w", b.ID, err)
	}
	return core.BalanceSnapshot{
		ID:      b.ID,
		UserID:  b.UserID,
		Day:     day,
		Balance: core.Money{Cents: b.BalanceCents},
	}, nil
}
