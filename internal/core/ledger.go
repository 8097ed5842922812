package core

import "time"

// TrendMonths is the fixed length of the trend series.
const TrendMonths = 6

type (
	// TrendPoint holds one calendar month of the trend series. Balance is a
	// running balance seeded at zero at the start of the window; it is a
	// display convenience, not the true balance before the window.
	TrendPoint struct {
		Year    int        `json:"year"`
		Month   time.Month `json:"month"`
		Label   string     `json:"label"` // short month name, e.g. "Feb"
		Income  Money      `json:"income"`
		Expense Money      `json:"expense"`
		Balance Money      `json:"balance"`
	}

	// LedgerSnapshot is the derived view of a transaction list as of a given
	// date. It is recomputed from scratch on every call and never persisted.
	LedgerSnapshot struct {
		OpeningBalance Money        `json:"openingBalance"`
		MonthIncome    Money        `json:"monthIncome"`
		MonthExpense   Money        `json:"monthExpense"`
		ClosingBalance Money        `json:"closingBalance"`
		Trend          []TrendPoint `json:"trend"`
	}
)

// Summarize derives the ledger snapshot for the asOf month from a full
// transaction list. Input order does not matter; the whole list is re-scanned
// on every call. Records are assumed well-formed (validated on the way in).
//
// The opening balance covers everything dated strictly before the first day
// of the asOf month: a transaction dated on the 1st belongs to the current
// month, never to the opening balance.
func Summarize(txns []Transaction, asOf Date) LedgerSnapshot {
	monthStart := asOf.MonthStart()

	var opening, income, expense int64
	for _, t := range txns {
		if t.Date.UTC().Before(monthStart) {
			opening += t.Signed().Cents
			continue
		}
		if t.Date.SameMonth(asOf) {
			if t.Type == Income {
				income += t.Amount.Cents
			} else {
				expense += t.Amount.Cents
			}
		}
	}

	return LedgerSnapshot{
		OpeningBalance: Money{Cents: opening},
		MonthIncome:    Money{Cents: income},
		MonthExpense:   Money{Cents: expense},
		ClosingBalance: Money{Cents: opening + income - expense},
		Trend:          Trend(txns, asOf),
	}
}

// Trend builds the 6-entry series of monthly income/expense sums ending at
// the asOf month, oldest first. Months without transactions contribute zero
// sums; the series always has exactly TrendMonths entries.
func Trend(txns []Transaction, asOf Date) []TrendPoint {
	points := make([]TrendPoint, 0, TrendMonths)
	var running int64
	for i := TrendMonths - 1; i >= 0; i-- {
		month := DateOf(asOf.MonthStart().AddDate(0, -i, 0))
		var income, expense int64
		for _, t := range txns {
			if !t.Date.SameMonth(month) {
				continue
			}
			if t.Type == Income {
				income += t.Amount.Cents
			} else {
				expense += t.Amount.Cents
			}
		}
		running += income - expense
		points = append(points, TrendPoint{
			Year:    month.Year(),
			Month:   month.Month(),
			Label:   month.Format("Jan"),
			Income:  Money{Cents: income},
			Expense: Money{Cents: expense},
			Balance: Money{Cents: running},
		})
	}
	return points
}
