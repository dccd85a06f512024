package analytics

import (
	"testing"
	"time"

	"biasharaflow/backend/internal/domain"
)

func TestShrinkagePerLineAttribution(t *testing.T) {
	sales := []domain.Transaction{
		testTx(func(tx *domain.Transaction) {
			tx.Quantity = 10
			tx.StockBefore = 100
			tx.StockAfter = 85 // expected 90, 5 units unexplained
		}),
	}

	rep := Shrinkage(sales, nil)
	if len(rep.BySKU) != 1 {
		t.Fatalf("got %d sku rows, want 1", len(rep.BySKU))
	}
	row := rep.BySKU[0]
	if row.ShrinkageUnits != 5 {
		t.Fatalf("shrinkage = %d, want 5", row.ShrinkageUnits)
	}
	if row.RatePct != 5 {
		t.Fatalf("rate = %v, want 5.0", row.RatePct)
	}
}

func TestShrinkageHourBuckets(t *testing.T) {
	sales := []domain.Transaction{
		testTx(func(tx *domain.Transaction) {
			tx.Timestamp = time.Date(2024, 11, 4, 9, 15, 0, 0, time.UTC)
			tx.Quantity = 5
			tx.StockBefore = 50
			tx.StockAfter = 44
		}),
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN2"
			tx.Timestamp = time.Date(2024, 11, 4, 21, 45, 0, 0, time.UTC)
			tx.Quantity = 5
			tx.StockBefore = 50
			tx.StockAfter = 45
		}),
	}

	rep := Shrinkage(sales, nil)
	if len(rep.ByHour) != 2 {
		t.Fatalf("got %d hour rows, want 2", len(rep.ByHour))
	}
	// The 09:00 bucket leads: 1 unit over 50 beats 0 over 50.
	if rep.ByHour[0].Key != "09" || rep.ByHour[0].Label != "09:00" {
		t.Fatalf("top hour row = %+v", rep.ByHour[0])
	}
	if rep.ByHour[0].ShrinkageUnits != 1 {
		t.Fatalf("09:00 shrinkage = %d, want 1", rep.ByHour[0].ShrinkageUnits)
	}
}

func TestShrinkageStockCountVariance(t *testing.T) {
	sales := []domain.Transaction{
		testTx(func(tx *domain.Transaction) { tx.SKU = "MED001"; tx.StockAfter = 80 }),
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN2"
			tx.SKU = "MED001"
			tx.Timestamp = tx.Timestamp.Add(2 * time.Hour)
			tx.StockAfter = 75 // later line wins
		}),
		testTx(func(tx *domain.Transaction) { tx.ID = "TXN3"; tx.SKU = "MED002" }),
	}
	counts := []domain.StockCount{
		{SKU: "MED001", Counted: 70, CountedAt: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)},
	}

	rep := Shrinkage(sales, counts)
	if len(rep.Counts) != 2 {
		t.Fatalf("got %d count rows, want 2", len(rep.Counts))
	}
	med1 := rep.Counts[0]
	if med1.SKU != "MED001" || med1.Status != domain.VarianceNormal {
		t.Fatalf("counted sku row: %+v", med1)
	}
	if med1.RecordedAfter != 75 || med1.ShrinkageUnits != 5 {
		t.Fatalf("counted variance: %+v, want recorded 75 shrinkage 5", med1)
	}
	med2 := rep.Counts[1]
	if med2.SKU != "MED002" || med2.Status != domain.VarianceInsufficientData {
		t.Fatalf("uncounted sku must report insufficient data: %+v", med2)
	}
}
