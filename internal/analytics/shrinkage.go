package analytics

import (
	"fmt"
	"sort"

	"biasharaflow/backend/internal/domain"
)

// Shrinkage attributes unexplained stock loss. Per line:
//
//	expected_after = stock_before − quantity
//	shrinkage      = expected_after − actual_after
//
// Units and rates aggregate at four granularities, each sorted descending by
// rate to surface hotspots. The optional physical counts compare the latest
// recorded stock-after per SKU against an authoritative count; SKUs with no
// count report "insufficient data" rather than a guessed figure.
func Shrinkage(sales []domain.Transaction, counts []domain.StockCount) domain.ShrinkageReport {
	type accum struct {
		label     string
		shrinkage int
		before    int
	}
	bySKU := map[string]*accum{}
	byCashier := map[string]*accum{}
	byOutlet := map[string]*accum{}
	byHour := map[string]*accum{}

	add := func(m map[string]*accum, key, label string, shrinkage, before int) {
		acc, ok := m[key]
		if !ok {
			acc = &accum{label: label}
			m[key] = acc
		}
		acc.shrinkage += shrinkage
		acc.before += before
	}

	latestAfter := map[string]domain.Transaction{}
	for _, tx := range sales {
		expected := tx.StockBefore - tx.Quantity
		shrinkage := expected - tx.StockAfter
		hour := fmt.Sprintf("%02d", tx.Timestamp.Hour())

		add(bySKU, tx.SKU, tx.SKU, shrinkage, tx.StockBefore)
		add(byCashier, tx.CashierID, tx.CashierID, shrinkage, tx.StockBefore)
		add(byOutlet, tx.OutletID, tx.OutletID, shrinkage, tx.StockBefore)
		add(byHour, hour, hour+":00", shrinkage, tx.StockBefore)

		if last, ok := latestAfter[tx.SKU]; !ok || tx.Timestamp.After(last.Timestamp) {
			latestAfter[tx.SKU] = tx
		}
	}

	rows := func(m map[string]*accum) []domain.ShrinkageRow {
		out := make([]domain.ShrinkageRow, 0, len(m))
		for key, acc := range m {
			out = append(out, domain.ShrinkageRow{
				Key:            key,
				Label:          acc.label,
				ShrinkageUnits: acc.shrinkage,
				StockBefore:    acc.before,
				RatePct:        pct(float64(acc.shrinkage), float64(acc.before)),
			})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].RatePct != out[j].RatePct {
				return out[i].RatePct > out[j].RatePct
			}
			return out[i].Key < out[j].Key
		})
		return out
	}

	report := domain.ShrinkageReport{
		BySKU:     rows(bySKU),
		ByCashier: rows(byCashier),
		ByOutlet:  rows(byOutlet),
		ByHour:    rows(byHour),
	}

	counted := map[string]domain.StockCount{}
	for _, c := range counts {
		counted[c.SKU] = c
	}
	skus := make([]string, 0, len(latestAfter))
	for sku := range latestAfter {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	for _, sku := range skus {
		recorded := latestAfter[sku].StockAfter
		variance := domain.StockCountVariance{
			SKU:           sku,
			RecordedAfter: recorded,
		}
		if count, ok := counted[sku]; ok {
			variance.Counted = count.Counted
			variance.ShrinkageUnits = recorded - count.Counted
			variance.Status = domain.VarianceNormal
		} else {
			variance.Status = domain.VarianceInsufficientData
		}
		report.Counts = append(report.Counts, variance)
	}
	return report
}
