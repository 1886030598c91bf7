package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Balance struct {
	ID           int64
	UserID       int64
	Day          string
	BalanceCents int64
}

type Expense struct {
	ID          int64
	UserID      int64
	AmountCents int64
	Day         string
	Category    sql.NullString
}

type CategorySum struct {
	Category    string
	TotalAmount int64
}

type DayCategorySum struct {
	Day         string
	Category    string
	TotalAmount int64
}

const getBalance = `-- name: GetBalance :one
SELECT id, user_id, day, balance_cents FROM balances
WHERE user_id = ? AND day = ?`

func (q *Queries) GetBalance(ctx context.Context, userID int64, day string) (Balance, error) {
	row := q.db.QueryRowContext(ctx, getBalance, userID, day)
	var b Balance
	err := row.Scan(&b.ID, &b.UserID, &b.Day, &b.BalanceCents)
	return b, err
}

const getLatestBalance = `-- name: GetLatestBalance :one
SELECT id, user_id, day, balance_cents FROM balances
WHERE user_id = ?
ORDER BY day DESC
LIMIT 1`

func (q *Queries) GetLatestBalance(ctx context.Context, userID int64) (Balance, error) {
	row := q.db.QueryRowContext(ctx, getLatestBalance, userID)
	var b Balance
	err := row.Scan(&b.ID, &b.UserID, &b.Day, &b.BalanceCents)
	return b, err
}

const listBalancesBetween = `-- name: ListBalancesBetween :many
SELECT id, user_id, day, balance_cents FROM balances
WHERE user_id = ? AND day >= ? AND day <= ?
ORDER BY day`

func (q *Queries) ListBalancesBetween(ctx context.Context, userID int64, from, to string) ([]Balance, error) {
	rows, err := q.db.QueryContext(ctx, listBalancesBetween, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.ID, &b.UserID, &b.Day, &b.BalanceCents); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// Conflicts return no row, so callers see sql.ErrNoRows.
const createBalance = `-- name: CreateBalance :one
INSERT INTO balances (user_id, day, balance_cents) VALUES (?, ?, ?)
ON CONFLICT (user_id, day) DO NOTHING
RETURNING id, user_id, day, balance_cents`

func (q *Queries) CreateBalance(ctx context.Context, userID int64, day string, cents int64) (Balance, error) {
	row := q.db.QueryRowContext(ctx, createBalance, userID, day, cents)
	var b Balance
	err := row.Scan(&b.ID, &b.UserID, &b.Day, &b.BalanceCents)
	return b, err
}

const adjustBalance = `-- name: AdjustBalance :many
UPDATE balances
SET balance_cents = balance_cents + ?, updated_at = CURRENT_TIMESTAMP
WHERE user_id = ? AND day = ?
RETURNING balance_cents`

// AdjustBalance returns the new balances of every updated row.
func (q *Queries) AdjustBalance(ctx context.Context, deltaCents, userID int64, day string) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, adjustBalance, deltaCents, userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var cents int64
		if err := rows.Scan(&cents); err != nil {
			return nil, err
		}
		items = append(items, cents)
	}
	return items, rows.Err()
}

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (user_id, amount_cents, day, category) VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateExpense(ctx context.Context, userID, cents int64, day string, category sql.NullString) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createExpense, userID, cents, day, category).Scan(&id)
	return id, err
}

const listExpensesBetween = `-- name: ListExpensesBetween :many
SELECT id, user_id, amount_cents, day, category FROM expenses
WHERE user_id = ? AND day >= ? AND day <= ?
ORDER BY day, id`

func (q *Queries) ListExpensesBetween(ctx context.Context, userID int64, from, to string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesBetween, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.AmountCents, &e.Day, &e.Category); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const getCategorySums = `-- name: GetCategorySums :many
SELECT COALESCE(category, '') AS category, SUM(amount_cents) AS total_amount
FROM expenses
WHERE user_id = ? AND day >= ? AND day <= ?
GROUP BY COALESCE(category, '')
ORDER BY total_amount DESC, category`

func (q *Queries) GetCategorySums(ctx context.Context, userID int64, from, to string) ([]CategorySum, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySums, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategorySum
	for rows.Next() {
		var cs CategorySum
		if err := rows.Scan(&cs.Category, &cs.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, cs)
	}
	return items, rows.Err()
}

const getDayCategorySums = `-- name: GetDayCategorySums :many
SELECT day, COALESCE(category, '') AS category, SUM(amount_cents) AS total_amount
FROM expenses
WHERE user_id = ? AND day >= ? AND day <= ?
GROUP BY day, COALESCE(category, '')
ORDER BY day, total_amount DESC, category`

func (q *Queries) GetDayCategorySums(ctx context.Context, userID int64, from, to string) ([]DayCategorySum, error) {
	rows, err := q.db.QueryContext(ctx, getDayCategorySums, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DayCategorySum
	for rows.Next() {
		var s DayCategorySum
		if err := rows.Scan(&s.Day, &s.Category, &s.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const getExpenseTotal = `-- name: GetExpenseTotal :one
SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
WHERE user_id = ? AND day >= ? AND day <= ?`

func (q *Queries) GetExpenseTotal(ctx context.Context, userID int64, from, to string) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, getExpenseTotal, userID, from, to).Scan(&total)
	return total, err
}
