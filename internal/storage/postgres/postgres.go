// Package postgres implements the ledger store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"economoney/internal/core"
	"economoney/internal/ledger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	_ ledger.Store = (*Repository)(nil)
	_ ledger.Tx    = (*pgTx)(nil)
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	reader
	pool *pgxpool.Pool
}

// NewRepository connects to databaseURL, applies migrations and returns a
// ready store.
func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{reader: reader{q: pool}, pool: pool}, nil
}

func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{reader: reader{q: tx}})
	})
}

type pgTx struct {
	reader
}

func (t *pgTx) InsertSnapshot(ctx context.Context, userID int64, day core.Day, balance core.Money) (core.BalanceSnapshot, error) {
	row := t.q.QueryRow(ctx, `
		INSERT INTO balances (user_id, day, balance_cents) VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT balances_user_day_key DO NOTHING
		RETURNING id, user_id, day, balance_cents`,
		userID, day.Time, balance.Cents)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.BalanceSnapshot{}, fmt.Errorf("insert snapshot for user %d on %s: %w", userID, day, core.ErrDuplicate)
	}
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return snap, nil
}

func (t *pgTx) AdjustSnapshot(ctx context.Context, userID int64, day core.Day, delta core.Money) (core.Money, error) {
	rows, err := t.q.Query(ctx, `
		UPDATE balances
		SET balance_cents = balance_cents + $1, updated_at = now()
		WHERE user_id = $2 AND day = $3
		RETURNING balance_cents`,
		delta.Cents, userID, day.Time)
	if err != nil {
		return core.Money{}, fmt.Errorf("adjust snapshot: %w", err)
	}
	balances, err := pgx.CollectRows(rows, pgx.RowTo[int64])
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

func (t *pgTx) InsertExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	var category *string
	if strings.TrimSpace(e.Category) != "" {
		category = &e.Category
	}
	err := t.q.QueryRow(ctx, `
		INSERT INTO expenses (user_id, amount_cents, day, category) VALUES ($1, $2, $3, $4)
		RETURNING id`,
		e.UserID, e.Amount.Cents, e.Day.Time, category).Scan(&e.ID)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to PostgreSQL",
		"id", e.ID,
		"user_id", e.UserID,
		"amount", e.Amount.String(),
		"day", e.Day.String())

	return e, nil
}

type reader struct {
	q querier
}

func (r reader) SnapshotOn(ctx context.Context, userID int64, day core.Day) (core.BalanceSnapshot, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, user_id, day, balance_cents FROM balances
		WHERE user_id = $1 AND day = $2`, userID, day.Time)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.BalanceSnapshot{}, core.ErrNotFound
	}
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

func (r reader) LatestSnapshot(ctx context.Context, userID int64) (core.BalanceSnapshot, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, user_id, day, balance_cents FROM balances
		WHERE user_id = $1
		ORDER BY day DESC
		LIMIT 1`, userID)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.BalanceSnapshot{}, core.ErrNotFound
	}
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap, nil
}

func (r reader) SnapshotsBetween(ctx context.Context, userID int64, from, to core.Day) ([]core.BalanceSnapshot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, user_id, day, balance_cents FROM balances
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day`, userID, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.BalanceSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (r reader) SumByCategory(ctx context.Context, userID int64, from, to core.Day) ([]core.CategoryAmount, error) {
	rows, err := r.q.Query(ctx, `
		SELECT COALESCE(category, '') AS cat, SUM(amount_cents) AS total
		FROM expenses
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		GROUP BY cat
		ORDER BY total DESC, cat`, userID, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("get category sums: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var (
			cat   string
			total int64
		)
		if err := rows.Scan(&cat, &total); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, core.CategoryAmount{Category: cat, Amount: core.Money{Cents: total}})
	}
	return out, rows.Err()
}

func (r reader) SumByDayCategory(ctx context.Context, userID int64, from, to core.Day) ([]core.DayCategoryAmount, error) {
	rows, err := r.q.Query(ctx, `
		SELECT day, COALESCE(category, '') AS cat, SUM(amount_cents) AS total
		FROM expenses
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		GROUP BY day, cat
		ORDER BY day, total DESC, cat`, userID, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("get day category sums: %w", err)
	}
	defer rows.Close()

	var out []core.DayCategoryAmount
	for rows.Next() {
		var (
			day   time.Time
			cat   string
			total int64
		)
		if err := rows.Scan(&day, &cat, &total); err != nil {
			return nil, fmt.Errorf("scan day category sum: %w", err)
		}
		out = append(out, core.DayCategoryAmount{Day: core.DayOf(day), Category: cat, Amount: core.Money{Cents: total}})
	}
	return out, rows.Err()
}

func (r reader) SumExpenses(ctx context.Context, userID int64, from, to core.Day) (core.Money, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)::BIGINT FROM expenses
		WHERE user_id = $1 AND day >= $2 AND day <= $3`, userID, from.Time, to.Time).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("get expense total: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func (r reader) ListExpenses(ctx context.Context, userID int64, from, to core.Day) ([]core.ExpenseRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, user_id, amount_cents, day, COALESCE(category, '')
		FROM expenses
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day, id`, userID, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseRecord
	for rows.Next() {
		var (
			e   core.ExpenseRecord
			day time.Time
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &day, &e.Category); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Day = core.DayOf(day)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanSnapshot(row pgx.Row) (core.BalanceSnapshot, error) {
	var (
		s   core.BalanceSnapshot
		day time.Time
	)
	if err := row.Scan(&s.ID, &s.UserID, &day, &s.Balance.Cents); err != nil {
		return core.BalanceSnapshot{}, err
	}
	s.Day = core.DayOf(day)
	return s, nil
}
