package analytics

import (
	"sort"

	"biasharaflow/backend/internal/domain"
)

// KPISummary aggregates the headline figures over a sales slice. An empty
// slice yields zero totals and zero percentages; no division is attempted
// against an empty or zero denominator.
func KPISummary(sales []domain.Transaction) domain.KPISummary {
	summary := domain.KPISummary{}
	byPayment := map[string]int64{}

	for _, tx := range sales {
		summary.TotalSalesCents += tx.TotalPriceCents
		summary.TotalProfitCents += tx.ProfitCents
		summary.UnitsSold += tx.Quantity
		byPayment[tx.PaymentType] += tx.TotalPriceCents
	}
	summary.Transactions = len(sales)
	summary.MarginPct = pct(float64(summary.TotalProfitCents), float64(summary.TotalSalesCents))
	if summary.Transactions > 0 {
		summary.AverageBasketCents = summary.TotalSalesCents / int64(summary.Transactions)
	}

	methods := make([]string, 0, len(byPayment))
	for method := range byPayment {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	for _, method := range methods {
		summary.PaymentMix = append(summary.PaymentMix, domain.PaymentShare{
			Method:     method,
			SalesCents: byPayment[method],
			SharePct:   pct(float64(byPayment[method]), float64(summary.TotalSalesCents)),
		})
	}
	return summary
}

// DailySalesVsTarget groups the sales slice by calendar date and reports
// achievement against a fixed daily target. Rows come out in date order.
func DailySalesVsTarget(sales []domain.Transaction, dailyTargetCents int64) []domain.DailyTargetRow {
	byDate := map[string]int64{}
	for _, tx := range sales {
		byDate[dateKey(tx.Timestamp)] += tx.TotalPriceCents
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	rows := make([]domain.DailyTargetRow, 0, len(dates))
	for _, date := range dates {
		rows = append(rows, domain.DailyTargetRow{
			Date:           date,
			SalesCents:     byDate[date],
			TargetCents:    dailyTargetCents,
			AchievementPct: pct(float64(byDate[date]), float64(dailyTargetCents)),
		})
	}
	return rows
}
