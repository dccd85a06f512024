// Package analytics holds the transaction analytics and risk-scoring engine:
// pure, deterministic functions over an immutable ledger slice. Nothing in
// this package reads the wall clock, draws random numbers, or mutates its
// input; every caller for one analytics view must pass the same filtered
// slice to each component so the derived tables stay mutually consistent.
package analytics

import (
	"time"

	"biasharaflow/backend/internal/domain"
)

// Filter selects a ledger subset. Zero-valued fields match everything, so an
// empty Filter passes the whole ledger through. A zero HourTo means end of
// day, so HourFrom alone selects every hour from that point on.
type Filter struct {
	From         time.Time
	To           time.Time
	OutletIDs    []string
	Categories   []string
	CashierIDs   []string
	PaymentTypes []string
	Shifts       []string
	HourFrom     int
	HourTo       int
}

// Apply returns the ledger lines matching the filter, preserving input
// order. The result shares no backing array with future appends by callers.
func (f Filter) Apply(ledger []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(ledger))
	for _, tx := range ledger {
		if f.matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (f Filter) matches(tx domain.Transaction) bool {
	if !f.From.IsZero() && tx.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !tx.Timestamp.Before(f.To) {
		return false
	}
	if !matchesAny(tx.OutletID, f.OutletIDs) {
		return false
	}
	if !matchesAny(tx.Category, f.Categories) {
		return false
	}
	if !matchesAny(tx.CashierID, f.CashierIDs) {
		return false
	}
	if !matchesAny(tx.PaymentType, f.PaymentTypes) {
		return false
	}
	if !matchesAny(tx.Shift, f.Shifts) {
		return false
	}
	if f.HourFrom != 0 || f.HourTo != 0 {
		hour := tx.Timestamp.Hour()
		to := f.HourTo
		if to == 0 {
			to = 23
		}
		if hour < f.HourFrom || hour > to {
			return false
		}
	}
	return true
}

func matchesAny(value string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}

// SalesSlice drops voided and returned lines. All sales/profit/basket
// aggregates run on this slice; the fraud scorer runs on the full slice
// because void and return activity is itself a signal.
func SalesSlice(ledger []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(ledger))
	for _, tx := range ledger {
		if tx.Voided || tx.Return {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// pct computes numerator/denominator*100, defaulting to 0 on a zero
// denominator. Every rate in the engine goes through this guard.
func pct(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator * 100
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
