package analytics

import (
	"testing"

	"biasharaflow/backend/internal/domain"
)

func TestReconcileStatuses(t *testing.T) {
	sales := []domain.Transaction{
		testTx(func(tx *domain.Transaction) { tx.TotalPriceCents = 1000000 }), // M-Pesa 2024-11-04
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN2"
			tx.PaymentType = domain.PaymentCash
			tx.TotalPriceCents = 500000
		}),
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN3"
			tx.Timestamp = tx.Timestamp.AddDate(0, 0, 1)
			tx.TotalPriceCents = 800000
		}),
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN4"
			tx.PaymentType = domain.PaymentCard
			tx.TotalPriceCents = 300000
		}),
	}
	statements := []domain.SettlementStatement{
		{Date: "2024-11-04", Method: domain.PaymentMpesa, AmountCents: 999000},  // off by 1000, within threshold
		{Date: "2024-11-04", Method: domain.PaymentCash, AmountCents: 250000},   // short by 250000, flagged
		{Date: "2024-11-06", Method: domain.PaymentMpesa, AmountCents: 120000},  // statement with no recorded sales
	}
	settled := []string{domain.PaymentMpesa, domain.PaymentCash}

	rep := Reconcile(sales, statements, settled, DefaultVarianceThresholds)
	if len(rep.Rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rep.Rows))
	}

	byKey := map[string]domain.ReconciliationRow{}
	for _, row := range rep.Rows {
		byKey[row.Date+"|"+row.Method] = row
	}

	mpesa := byKey["2024-11-04|"+domain.PaymentMpesa]
	if mpesa.Status != domain.VarianceNormal || mpesa.VarianceCents != -1000 {
		t.Fatalf("mpesa day one: %+v", mpesa)
	}

	cash := byKey["2024-11-04|"+domain.PaymentCash]
	if cash.Status != domain.VarianceInvestigate || cash.VarianceCents != -250000 {
		t.Fatalf("cash shortfall not flagged: %+v", cash)
	}

	unstated := byKey["2024-11-05|"+domain.PaymentMpesa]
	if unstated.Status != domain.VarianceInsufficientData || unstated.StatementCents != nil {
		t.Fatalf("unstated day: %+v", unstated)
	}
	if unstated.RecordedCents != 800000 {
		t.Fatalf("unstated recorded = %d, want 800000", unstated.RecordedCents)
	}

	orphan := byKey["2024-11-06|"+domain.PaymentMpesa]
	if orphan.RecordedCents != 0 || orphan.VarianceCents != 120000 {
		t.Fatalf("statement-only row: %+v", orphan)
	}

	if _, hasCard := byKey["2024-11-04|"+domain.PaymentCard]; hasCard {
		t.Fatalf("card is not a settled method, must be omitted")
	}
}

func TestReconcilePeriodTotalsSkipUnstatedRows(t *testing.T) {
	sales := []domain.Transaction{
		testTx(func(tx *domain.Transaction) { tx.TotalPriceCents = 100000 }),
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN2"
			tx.Timestamp = tx.Timestamp.AddDate(0, 0, 1)
			tx.TotalPriceCents = 100000
		}),
	}
	statements := []domain.SettlementStatement{
		{Date: "2024-11-04", Method: domain.PaymentMpesa, AmountCents: 98000},
	}

	rep := Reconcile(sales, statements, []string{domain.PaymentMpesa}, DefaultVarianceThresholds)
	if got := rep.PeriodVarianceCents[domain.PaymentMpesa]; got != -2000 {
		t.Fatalf("period variance = %d, want -2000 (unstated day excluded)", got)
	}
}
