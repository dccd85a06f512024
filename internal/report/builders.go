package report

import (
	"biasharaflow/backend/internal/domain"
)

func KPITable(summary domain.KPISummary, daily []domain.DailyTargetRow) Table {
	t := Table{
		Name:    "kpi_summary",
		Columns: []string{"metric", "value"},
	}
	t.AddRow("total_sales", Money(summary.TotalSalesCents))
	t.AddRow("total_profit", Money(summary.TotalProfitCents))
	t.AddRow("margin_pct", Percent(summary.MarginPct))
	t.AddRow("transactions", Int(summary.Transactions))
	t.AddRow("units_sold", Int(summary.UnitsSold))
	t.AddRow("average_basket", Money(summary.AverageBasketCents))
	for _, share := range summary.PaymentMix {
		t.AddRow("payment_mix_"+share.Method, Percent(share.SharePct))
	}
	for _, row := range daily {
		t.AddRow("daily_"+row.Date+"_achievement_pct", Percent(row.AchievementPct))
	}
	return t
}

func FraudTable(scores []domain.FraudScore) Table {
	t := Table{
		Name: "fraud_scorecard",
		Columns: []string{
			"cashier_id", "cashier_name", "outlet_id", "transactions",
			"voids", "void_rate_pct", "returns", "return_rate_pct",
			"mean_discount_pct", "negative_profit", "negative_profit_pct",
			"score", "risk_level",
		},
	}
	for _, s := range scores {
		t.AddRow(
			s.CashierID, s.CashierName, s.OutletID, Int(s.Transactions),
			Int(s.Voids), Percent(s.VoidRatePct), Int(s.Returns), Percent(s.ReturnRatePct),
			Percent(s.MeanDiscountPct), Int(s.NegativeProfit), Percent(s.NegativeProfitPct),
			Int(s.Score), s.RiskLevel,
		)
	}
	return t
}

func ReconciliationTable(rep domain.ReconciliationReport) Table {
	t := Table{
		Name:    "reconciliation",
		Columns: []string{"date", "method", "recorded", "statement", "variance", "status"},
	}
	for _, row := range rep.Rows {
		statement := "N/A"
		variance := "N/A"
		if row.StatementCents != nil {
			statement = Money(*row.StatementCents)
			variance = Money(row.VarianceCents)
		}
		t.AddRow(row.Date, row.Method, Money(row.RecordedCents), statement, variance, row.Status)
	}
	return t
}

func ShrinkageTable(name string, rows []domain.ShrinkageRow) Table {
	t := Table{
		Name:    "shrinkage_" + name,
		Columns: []string{"key", "label", "shrinkage_units", "stock_before", "rate_pct"},
	}
	for _, row := range rows {
		t.AddRow(row.Key, row.Label, Int(row.ShrinkageUnits), Int(row.StockBefore), Percent(row.RatePct))
	}
	return t
}

func StockCountTable(rows []domain.StockCountVariance) Table {
	t := Table{
		Name:    "shrinkage_stock_counts",
		Columns: []string{"sku", "recorded_after", "counted", "shrinkage_units", "status"},
	}
	for _, row := range rows {
		counted := "N/A"
		units := "N/A"
		if row.Status != domain.VarianceInsufficientData {
			counted = Int(row.Counted)
			units = Int(row.ShrinkageUnits)
		}
		t.AddRow(row.SKU, Int(row.RecordedAfter), counted, units, row.Status)
	}
	return t
}

func ExpiryTable(rows []domain.ExpiryRiskRow) Table {
	t := Table{
		Name: "expiry_risk",
		Columns: []string{
			"sku", "name", "category", "current_stock",
			"days_to_expiry", "risk_level", "action", "value_at_risk",
		},
	}
	for _, row := range rows {
		t.AddRow(
			row.SKU, row.Name, row.Category, Int(row.CurrentStock),
			Int(row.DaysToExpiry), row.RiskLevel, row.Action, Money(row.ValueAtRiskCents),
		)
	}
	return t
}

func ForecastTable(series domain.ForecastSeries) Table {
	t := Table{
		Name:    "forecast_" + series.SKU,
		Columns: []string{"date", "quantity", "moving_average", "kind"},
	}
	for _, p := range series.Points {
		t.AddRow(p.Date, Percent(p.Quantity), Percent(p.MovingAverage), p.Kind)
	}
	return t
}

func BenchmarkTable(rows []domain.OutletBenchmark) Table {
	t := Table{
		Name: "outlet_ranking",
		Columns: []string{
			"outlet_id", "name", "locality", "sales", "profit", "margin_pct",
			"average_basket", "transactions", "units_sold", "target_pct",
			"sales_rank", "profit_rank",
		},
	}
	for _, row := range rows {
		t.AddRow(
			row.OutletID, row.Name, row.Locality, Money(row.SalesCents), Money(row.ProfitCents),
			Percent(row.MarginPct), Money(row.AverageBasketCents), Int(row.Transactions),
			Int(row.UnitsSold), Percent(row.TargetPct), Int(row.SalesRank), Int(row.ProfitRank),
		)
	}
	return t
}

func ScorecardTable(cards []domain.CashierScorecard) Table {
	t := Table{
		Name: "cashier_scorecard",
		Columns: []string{
			"rank", "cashier_id", "name", "outlet", "sales", "profit",
			"transactions", "units_sold", "avg_txn", "void_rate_pct",
			"mean_discount_pct", "risk_level",
		},
	}
	for _, c := range cards {
		t.AddRow(
			Int(c.SalesRank), c.CashierID, c.Name, c.OutletName, Money(c.SalesCents),
			Money(c.ProfitCents), Int(c.Transactions), Int(c.UnitsSold), Money(c.AvgTxnCents),
			Percent(c.VoidRatePct), Percent(c.MeanDiscountPct), c.RiskLevel,
		)
	}
	return t
}
