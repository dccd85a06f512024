package analytics

import (
	"testing"
	"time"

	"biasharaflow/backend/internal/domain"
)

var testOutlets = []domain.Outlet{
	{ID: "OUT001", Name: "Nairobi CBD", Locality: "Nairobi", MonthlyTargetCents: 80000000},
	{ID: "OUT002", Name: "Mombasa Nyali", Locality: "Mombasa", MonthlyTargetCents: 60000000},
	{ID: "OUT003", Name: "Kisumu Mega", Locality: "Kisumu", MonthlyTargetCents: 50000000},
}

func TestBenchmarkIndependentRankings(t *testing.T) {
	sales := []domain.Transaction{
		// OUT001: highest sales, lowest profit.
		testTx(func(tx *domain.Transaction) {
			tx.OutletID = "OUT001"
			tx.TotalPriceCents = 300000
			tx.ProfitCents = 10000
		}),
		// OUT002: lower sales, highest profit.
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN2"
			tx.OutletID = "OUT002"
			tx.TotalPriceCents = 200000
			tx.ProfitCents = 90000
		}),
	}

	rows := BenchmarkOutlets(sales, testOutlets)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].OutletID != "OUT001" || rows[0].SalesRank != 1 || rows[0].ProfitRank != 2 {
		t.Fatalf("OUT001 ranks: %+v", rows[0])
	}
	if rows[1].OutletID != "OUT002" || rows[1].SalesRank != 2 || rows[1].ProfitRank != 1 {
		t.Fatalf("OUT002 ranks: %+v", rows[1])
	}
}

func TestBenchmarkTieBreakByOutletID(t *testing.T) {
	sales := []domain.Transaction{
		testTx(func(tx *domain.Transaction) {
			tx.OutletID = "OUT002"
			tx.TotalPriceCents = 100000
			tx.ProfitCents = 40000
		}),
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN2"
			tx.OutletID = "OUT001"
			tx.TotalPriceCents = 100000
			tx.ProfitCents = 40000
		}),
	}

	rows := BenchmarkOutlets(sales, testOutlets)
	if rows[0].OutletID != "OUT001" || rows[0].SalesRank != 1 {
		t.Fatalf("tie must rank OUT001 first: %+v", rows[0])
	}
	if rows[1].OutletID != "OUT002" || rows[1].SalesRank != 2 {
		t.Fatalf("tie second: %+v", rows[1])
	}
}

func TestBenchmarkTargetScalesWithMonthSpan(t *testing.T) {
	sales := []domain.Transaction{
		testTx(func(tx *domain.Transaction) {
			tx.OutletID = "OUT003"
			tx.Timestamp = time.Date(2024, 10, 15, 10, 0, 0, 0, time.UTC)
			tx.TotalPriceCents = 50000000
		}),
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN2"
			tx.OutletID = "OUT003"
			tx.Timestamp = time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)
			tx.TotalPriceCents = 50000000
		}),
	}

	rows := BenchmarkOutlets(sales, testOutlets)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	// 100M over a two-month target of 2x50M is exactly 100%.
	if rows[0].TargetPct != 100 {
		t.Fatalf("target pct = %v, want 100", rows[0].TargetPct)
	}
}
