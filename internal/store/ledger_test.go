package store

import (
	"errors"
	"testing"
	"time"

	"github.com/mossfirth/hearthward/internal/model"
)

func TestLedgerAppendAndBalance(t *testing.T) {
	db := testDB(t)
	hid, mid := testHousehold(t, db)
	ls := NewLedgerStore(db)

	if _, err := ls.Append(mid, hid, 50, model.ReasonChoreCompleted, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := ls.Append(mid, hid, 30, model.ReasonTaskCompleted, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := ls.Append(mid, hid, -20, model.ReasonRedemptionSpend, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	balance, err := ls.Balance(mid, hid)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 60 {
		t.Errorf("balance = %d, want 60", balance)
	}

	// Balance must always equal the sum of the listed transactions.
	txs, err := ls.TransactionsInRange(mid, hid, time.Unix(0, 0), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("transactions in range: %v", err)
	}
	sum := 0
	for _, tx := range txs {
		sum += tx.Amount
	}
	if sum != balance {
		t.Errorf("sum of transactions = %d, balance = %d", sum, balance)
	}
}

func TestLedgerRejectsZeroAmount(t *testing.T) {
	db := testDB(t)
	hid, mid := testHousehold(t, db)
	ls := NewLedgerStore(db)

	_, err := ls.Append(mid, hid, 0, model.ReasonChoreCompleted, nil)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestLedgerRejectsUnknownReason(t *testing.T) {
	db := testDB(t)
	hid, mid := testHousehold(t, db)
	ls := NewLedgerStore(db)

	_, err := ls.Append(mid, hid, 10, model.TransactionReason("bribe"), nil)
	if !errors.Is(err, ErrInvalidReason) {
		t.Errorf("err = %v, want ErrInvalidReason", err)
	}
}

func TestLedgerRangeOrderedAscending(t *testing.T) {
	db := testDB(t)
	hid, mid := testHousehold(t, db)
	ls := NewLedgerStore(db)

	for i := 0; i < 5; i++ {
		if _, err := ls.Append(mid, hid, 10, model.ReasonChoreCompleted, nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	txs, err := ls.TransactionsInRange(mid, hid, time.Unix(0, 0), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("transactions in range: %v", err)
	}
	if len(txs) != 5 {
		t.Fatalf("got %d transactions, want 5", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].CreatedAt.Before(txs[i-1].CreatedAt) {
			t.Errorf("transactions not in ascending order at index %d", i)
		}
		if txs[i].ID <= txs[i-1].ID {
			t.Errorf("transaction ids not increasing at index %d", i)
		}
	}
}

func TestLedgerSumSinceAndHistory(t *testing.T) {
	db := testDB(t)
	hid, mid := testHousehold(t, db)
	ls := NewLedgerStore(db)

	if _, err := ls.Append(mid, hid, 25, model.ReasonChoreCompleted, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := ls.Append(mid, hid, -10, model.ReasonRedemptionSpend, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	sum, err := ls.SumSince(mid, hid, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sum since: %v", err)
	}
	if sum != 15 {
		t.Errorf("net sum = %d, want 15", sum)
	}

	sum, err = ls.SumSince(mid, hid, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sum since: %v", err)
	}
	if sum != 0 {
		t.Errorf("future-window sum = %d, want 0", sum)
	}

	history, err := ls.ListByMember(mid, hid, 10)
	if err != nil {
		t.Fatalf("list by member: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d transactions, want 2", len(history))
	}
	// Newest first for history views.
	if history[0].Amount != -10 {
		t.Errorf("first history entry amount = %d, want -10", history[0].Amount)
	}
}

func TestLedgerBalanceScopedToMemberAndHousehold(t *testing.T) {
	db := testDB(t)
	hid, mid := testHousehold(t, db)
	other, err := NewMemberStore(db).Create(hid, "Tam", "🐢")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	ls := NewLedgerStore(db)

	if _, err := ls.Append(mid, hid, 40, model.ReasonChoreCompleted, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := ls.Append(other.ID, hid, 15, model.ReasonChoreCompleted, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	balance, err := ls.Balance(mid, hid)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 40 {
		t.Errorf("balance = %d, want 40", balance)
	}
}
