package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mossfirth/hearthward/internal/model"
)

// LedgerStore is the sole writer and reader of point_transactions. The table
// is append-only: balances are always recomputed as sums, never stored.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const transactionCols = `id, member_id, household_id, amount, reason, reference_id, created_at`

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.PointTransaction, error) {
	var t model.PointTransaction
	var refID sql.NullInt64

	err := scanner.Scan(&t.ID, &t.MemberID, &t.HouseholdID, &t.Amount, &t.Reason, &refID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if refID.Valid {
		t.ReferenceID = &refID.Int64
	}
	return &t, nil
}

// appendTransaction inserts one ledger row on the given connection or
// transaction, so causally linked writes (redemption + spend, deny + refund)
// share one atomic unit with their state change.
func appendTransaction(q dbtx, memberID, householdID int64, amount int, reason model.TransactionReason, referenceID *int64) (int64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	if !reason.Valid() {
		return 0, ErrInvalidReason
	}

	var refID sql.NullInt64
	if referenceID != nil {
		refID = sql.NullInt64{Int64: *referenceID, Valid: true}
	}

	result, err := q.Exec(
		`INSERT INTO point_transactions (member_id, household_id, amount, reason, reference_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		memberID, householdID, amount, string(reason), refID, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ledgerBalance sums all transactions for the member. Used both by reads and,
// inside the redemption transaction, as the authoritative pre-commit check.
func ledgerBalance(q dbtx, memberID, householdID int64) (int, error) {
	var sum sql.NullInt64
	err := q.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM point_transactions WHERE member_id = ? AND household_id = ?`,
		memberID, householdID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return int(sum.Int64), nil
}

// Append records one point movement. Fails with ErrInvalidAmount on zero
// amounts and ErrInvalidReason on reasons outside the closed set.
func (s *LedgerStore) Append(memberID, householdID int64, amount int, reason model.TransactionReason, referenceID *int64) (*model.PointTransaction, error) {
	id, err := appendTransaction(s.db, memberID, householdID, amount, reason, referenceID)
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *LedgerStore) GetByID(id int64) (*model.PointTransaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM point_transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Balance is the sum of every transaction for the member. This is the source
// of truth; no cached total exists to drift from it.
func (s *LedgerStore) Balance(memberID, householdID int64) (int, error) {
	return ledgerBalance(s.db, memberID, householdID)
}

// SumSince returns the net point activity (earns and refunds positive,
// spends negative) from the given instant onward.
func (s *LedgerStore) SumSince(memberID, householdID int64, since time.Time) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM point_transactions
		 WHERE member_id = ? AND household_id = ? AND created_at >= ?`,
		memberID, householdID, since.UTC(),
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions since: %w", err)
	}
	return int(sum.Int64), nil
}

// TransactionsInRange lists transactions in [from, to), oldest first.
func (s *LedgerStore) TransactionsInRange(memberID, householdID int64, from, to time.Time) ([]model.PointTransaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM point_transactions
		 WHERE member_id = ? AND household_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC, id ASC`,
		memberID, householdID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	defer rows.Close()

	var transactions []model.PointTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// ListByMember returns the most recent transactions for history views.
func (s *LedgerStore) ListByMember(memberID, householdID int64, limit int) ([]model.PointTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM point_transactions
		 WHERE member_id = ? AND household_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		memberID, householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.PointTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}
