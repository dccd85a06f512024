package analytics

import (
	"sort"

	"biasharaflow/backend/internal/domain"
)

// VarianceThresholds maps a payment method to the absolute variance (cents)
// above which a row is flagged for investigation. Methods without an entry
// are never flagged.
type VarianceThresholds map[string]int64

// DefaultVarianceThresholds reflect operational tolerances: KES 5,000 for
// M-Pesa settlement and KES 2,000 for the cash count.
var DefaultVarianceThresholds = VarianceThresholds{
	domain.PaymentMpesa: 500000,
	domain.PaymentCash:  200000,
}

// Reconcile pivots the sales slice into per-date per-method recorded totals
// and compares them against externally supplied settlement statements.
// variance = statement − recorded. Rows for settled methods with no
// statement report "insufficient data"; the engine never invents a figure.
// Methods outside settledMethods are omitted (they clear through channels
// that reconcile elsewhere).
func Reconcile(
	sales []domain.Transaction,
	statements []domain.SettlementStatement,
	settledMethods []string,
	thresholds VarianceThresholds,
) domain.ReconciliationReport {
	settled := map[string]bool{}
	for _, m := range settledMethods {
		settled[m] = true
	}

	type key struct{ date, method string }
	recorded := map[key]int64{}
	for _, tx := range sales {
		if !settled[tx.PaymentType] {
			continue
		}
		recorded[key{dateKey(tx.Timestamp), tx.PaymentType}] += tx.TotalPriceCents
	}

	stated := map[key]int64{}
	for _, s := range statements {
		if !settled[s.Method] {
			continue
		}
		stated[key{s.Date, s.Method}] += s.AmountCents
	}

	// A statement for a date with no recorded sales is still a row: the
	// whole statement amount is unexplained.
	keys := map[key]bool{}
	for k := range recorded {
		keys[k] = true
	}
	for k := range stated {
		keys[k] = true
	}
	ordered := make([]key, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].date != ordered[j].date {
			return ordered[i].date < ordered[j].date
		}
		return ordered[i].method < ordered[j].method
	})

	report := domain.ReconciliationReport{
		PeriodVarianceCents: map[string]int64{},
	}
	for _, k := range ordered {
		row := domain.ReconciliationRow{
			Date:          k.date,
			Method:        k.method,
			RecordedCents: recorded[k],
		}
		amount, ok := stated[k]
		if !ok {
			row.Status = domain.VarianceInsufficientData
			report.Rows = append(report.Rows, row)
			continue
		}
		row.StatementCents = &amount
		row.VarianceCents = amount - row.RecordedCents
		row.Status = domain.VarianceNormal
		if limit, has := thresholds[k.method]; has && abs64(row.VarianceCents) > limit {
			row.Status = domain.VarianceInvestigate
		}
		report.PeriodVarianceCents[k.method] += row.VarianceCents
		report.Rows = append(report.Rows, row)
	}
	return report
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
