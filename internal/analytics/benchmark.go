package analytics

import (
	"sort"

	"biasharaflow/backend/internal/domain"
)

// BenchmarkOutlets aggregates the sales slice per outlet and assigns two
// independent rankings: by sales and by profit, both descending with ties
// broken by ascending outlet id so repeated runs order identically. Target
// achievement scales the monthly target by the number of distinct calendar
// months the filtered range touches (minimum one month).
func BenchmarkOutlets(sales []domain.Transaction, outlets []domain.Outlet) []domain.OutletBenchmark {
	info := make(map[string]domain.Outlet, len(outlets))
	for _, o := range outlets {
		info[o.ID] = o
	}

	type accum struct {
		sales  int64
		profit int64
		txns   int
		units  int
	}
	byOutlet := map[string]*accum{}
	months := map[string]bool{}
	for _, tx := range sales {
		acc, ok := byOutlet[tx.OutletID]
		if !ok {
			acc = &accum{}
			byOutlet[tx.OutletID] = acc
		}
		acc.sales += tx.TotalPriceCents
		acc.profit += tx.ProfitCents
		acc.txns++
		acc.units += tx.Quantity
		months[tx.Timestamp.UTC().Format("2006-01")] = true
	}

	monthSpan := int64(len(months))
	if monthSpan < 1 {
		monthSpan = 1
	}

	rows := make([]domain.OutletBenchmark, 0, len(byOutlet))
	for id, acc := range byOutlet {
		row := domain.OutletBenchmark{
			OutletID:     id,
			Name:         info[id].Name,
			Locality:     info[id].Locality,
			SalesCents:   acc.sales,
			ProfitCents:  acc.profit,
			MarginPct:    pct(float64(acc.profit), float64(acc.sales)),
			Transactions: acc.txns,
			UnitsSold:    acc.units,
			TargetPct:    pct(float64(acc.sales), float64(info[id].MonthlyTargetCents*monthSpan)),
		}
		if acc.txns > 0 {
			row.AverageBasketCents = acc.sales / int64(acc.txns)
		}
		rows = append(rows, row)
	}

	rankBy(rows, func(b domain.OutletBenchmark) int64 { return b.SalesCents }, func(b *domain.OutletBenchmark, rank int) {
		b.SalesRank = rank
	})
	rankBy(rows, func(b domain.OutletBenchmark) int64 { return b.ProfitCents }, func(b *domain.OutletBenchmark, rank int) {
		b.ProfitRank = rank
	})

	sort.Slice(rows, func(i, j int) bool { return rows[i].SalesRank < rows[j].SalesRank })
	return rows
}

func rankBy(rows []domain.OutletBenchmark, value func(domain.OutletBenchmark) int64, assign func(*domain.OutletBenchmark, int)) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ri, rj := rows[order[a]], rows[order[b]]
		if value(ri) != value(rj) {
			return value(ri) > value(rj)
		}
		return ri.OutletID < rj.OutletID
	})
	for rank, idx := range order {
		assign(&rows[idx], rank+1)
	}
}
