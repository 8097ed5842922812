package core

import (
	"testing"
)

func tx(amount int64, typ TransactionType, date Date) Transaction {
	return Transaction{
		ID:          "t",
		Amount:      Money{Cents: amount},
		Description: "test",
		Category:    "General",
		Type:        typ,
		Date:        date,
	}
}

func TestSummarizeScenario(t *testing.T) {
	// 100 income in January, 40 expense in February, viewed on 2024-02-20.
	txns := []Transaction{
		tx(10000, Income, NewDate(2024, 1, 15)),
		tx(4000, Expense, NewDate(2024, 2, 10)),
	}
	s := Summarize(txns, NewDate(2024, 2, 20))

	if s.OpeningBalance.Cents != 10000 {
		t.Fatalf("opening: expected 10000, got %d", s.OpeningBalance.Cents)
	}
	if s.MonthIncome.Cents != 0 {
		t.Fatalf("income: expected 0, got %d", s.MonthIncome.Cents)
	}
	if s.MonthExpense.Cents != 4000 {
		t.Fatalf("expense: expected 4000, got %d", s.MonthExpense.Cents)
	}
	if s.ClosingBalance.Cents != 6000 {
		t.Fatalf("closing: expected 6000, got %d", s.ClosingBalance.Cents)
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	cases := [][]Transaction{
		nil,
		{tx(100, Income, NewDate(2024, 3, 1))},
		{
			tx(12345, Income, NewDate(2023, 11, 30)),
			tx(678, Expense, NewDate(2024, 1, 2)),
			tx(900, Expense, NewDate(2024, 3, 15)),
			tx(5000, Income, NewDate(2024, 3, 31)),
		},
	}
	asOf := NewDate(2024, 3, 20)
	for i, txns := range cases {
		s := Summarize(txns, asOf)
		want := s.OpeningBalance.Cents + s.MonthIncome.Cents - s.MonthExpense.Cents
		if s.ClosingBalance.Cents != want {
			t.Fatalf("case %d: closing %d != opening+income-expense %d", i, s.ClosingBalance.Cents, want)
		}
	}
}

func TestSummarizeFirstOfMonthIsCurrentMonth(t *testing.T) {
	// Dated on the first day of the asOf month: excluded from opening,
	// included in the current-month sums.
	txns := []Transaction{tx(500, Income, NewDate(2024, 2, 1))}
	s := Summarize(txns, NewDate(2024, 2, 20))

	if s.OpeningBalance.Cents != 0 {
		t.Fatalf("opening: expected 0, got %d", s.OpeningBalance.Cents)
	}
	if s.MonthIncome.Cents != 500 {
		t.Fatalf("income: expected 500, got %d", s.MonthIncome.Cents)
	}
}

func TestSummarizeInputOrderIrrelevant(t *testing.T) {
	a := []Transaction{
		tx(100, Income, NewDate(2024, 1, 1)),
		tx(200, Expense, NewDate(2024, 2, 2)),
		tx(300, Income, NewDate(2024, 2, 3)),
	}
	b := []Transaction{a[2], a[0], a[1]}
	asOf := NewDate(2024, 2, 10)
	if Summarize(a, asOf).ClosingBalance != Summarize(b, asOf).ClosingBalance {
		t.Fatal("summaries differ under reordering")
	}
}

func TestTrendAlwaysSixEntries(t *testing.T) {
	asOf := NewDate(2024, 6, 15)

	for _, txns := range [][]Transaction{nil, {tx(100, Income, asOf)}} {
		points := Trend(txns, asOf)
		if len(points) != TrendMonths {
			t.Fatalf("expected %d entries, got %d", TrendMonths, len(points))
		}
	}
}

func TestTrendEmptyMonthsAreZero(t *testing.T) {
	// Only one transaction, three months back.
	txns := []Transaction{tx(1000, Income, NewDate(2024, 3, 10))}
	points := Trend(txns, NewDate(2024, 6, 15))

	// Window is Jan..Jun 2024.
	for i, p := range points {
		if p.Year == 2024 && p.Month == 3 {
			if p.Income.Cents != 1000 || p.Expense.Cents != 0 {
				t.Fatalf("march: got income=%d expense=%d", p.Income.Cents, p.Expense.Cents)
			}
			continue
		}
		if p.Income.Cents != 0 || p.Expense.Cents != 0 {
			t.Fatalf("entry %d (%d-%d): expected zero sums, got income=%d expense=%d",
				i, p.Year, p.Month, p.Income.Cents, p.Expense.Cents)
		}
	}
}

func TestTrendRunningBalanceSeededAtZero(t *testing.T) {
	txns := []Transaction{
		// Before the window: must not leak into the running balance.
		tx(99999, Income, NewDate(2023, 1, 1)),
		tx(1000, Income, NewDate(2024, 2, 5)),
		tx(400, Expense, NewDate(2024, 3, 5)),
	}
	points := Trend(txns, NewDate(2024, 6, 15))

	if points[0].Year != 2024 || points[0].Month != 1 {
		t.Fatalf("window start: got %d-%d", points[0].Year, points[0].Month)
	}
	if points[0].Balance.Cents != 0 {
		t.Fatalf("january balance: expected 0, got %d", points[0].Balance.Cents)
	}
	if points[1].Balance.Cents != 1000 {
		t.Fatalf("february balance: expected 1000, got %d", points[1].Balance.Cents)
	}
	if points[2].Balance.Cents != 600 {
		t.Fatalf("march balance: expected 600, got %d", points[2].Balance.Cents)
	}
	if last := points[5]; last.Balance.Cents != 600 {
		t.Fatalf("june balance: expected 600, got %d", last.Balance.Cents)
	}
}

func TestTrendCrossesYearBoundary(t *testing.T) {
	points := Trend(nil, NewDate(2024, 2, 1))
	if points[0].Year != 2023 || points[0].Month != 9 {
		t.Fatalf("expected window to start at 2023-09, got %d-%d", points[0].Year, points[0].Month)
	}
	if points[5].Year != 2024 || points[5].Month != 2 {
		t.Fatalf("expected window to end at 2024-02, got %d-%d", points[5].Year, points[5].Month)
	}
}
