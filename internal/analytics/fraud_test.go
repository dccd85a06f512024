package analytics

import (
	"fmt"
	"testing"

	"biasharaflow/backend/internal/domain"
)

func TestClassifyRiskBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, domain.RiskLow},
		{24, domain.RiskLow},
		{25, domain.RiskMedium},
		{49, domain.RiskMedium},
		{50, domain.RiskHigh},
		{100, domain.RiskHigh},
	}
	for _, c := range cases {
		if got := ClassifyRisk(c.score); got != c.want {
			t.Fatalf("ClassifyRisk(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

// A cashier with 100 transactions: 6 voided, a 12% discount on every line,
// 4 negative-profit lines, 2 returns. Void rate 6%, mean discount 12%,
// negative-profit rate 4%, return rate 2%. Three rules fire for 35+25+30.
func TestFraudScoreKnownCashier(t *testing.T) {
	discount := 12.0
	ledger := make([]domain.Transaction, 0, 100)
	for i := 0; i < 100; i++ {
		n := i
		ledger = append(ledger, testTx(func(tx *domain.Transaction) {
			tx.ID = fmt.Sprintf("TXN%03d", n)
			tx.CashierID = "C042"
			tx.DiscountPercent = &discount
			tx.Voided = n < 6
			tx.Return = n >= 6 && n < 8
			if n >= 8 && n < 12 {
				tx.ProfitCents = -500
			}
		}))
	}
	cashiers := []domain.Cashier{{ID: "C042", Name: "Test Cashier", OutletID: "OUT001"}}

	scores := FraudScores(ledger, cashiers, DefaultScoreRules)
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	s := scores[0]
	if s.VoidRatePct != 6 || s.ReturnRatePct != 2 || s.NegativeProfitPct != 4 {
		t.Fatalf("indicators: void=%v return=%v negprofit=%v", s.VoidRatePct, s.ReturnRatePct, s.NegativeProfitPct)
	}
	if s.MeanDiscountPct != 12 {
		t.Fatalf("mean discount = %v, want 12", s.MeanDiscountPct)
	}
	if s.Score != 90 {
		t.Fatalf("score = %d, want 90", s.Score)
	}
	if s.RiskLevel != domain.RiskHigh {
		t.Fatalf("risk = %s, want High", s.RiskLevel)
	}
	if len(s.FiredRules) != 3 {
		t.Fatalf("fired rules = %v, want 3", s.FiredRules)
	}
}

func TestFraudScoreCleanCashierIsLow(t *testing.T) {
	ledger := make([]domain.Transaction, 0, 50)
	for i := 0; i < 50; i++ {
		n := i
		ledger = append(ledger, testTx(func(tx *domain.Transaction) {
			tx.ID = fmt.Sprintf("TXN%03d", n)
			tx.CashierID = "C001"
		}))
	}
	scores := FraudScores(ledger, nil, DefaultScoreRules)
	if len(scores) != 1 || scores[0].Score != 0 || scores[0].RiskLevel != domain.RiskLow {
		t.Fatalf("clean cashier scored %+v", scores[0])
	}
}

func TestFraudUnknownDiscountsExcludedFromMean(t *testing.T) {
	big := 50.0
	ledger := []domain.Transaction{
		testTx(func(tx *domain.Transaction) { tx.CashierID = "C009" }),
		testTx(func(tx *domain.Transaction) {
			tx.ID = "TXN2"
			tx.CashierID = "C009"
			tx.DiscountPercent = &big
		}),
	}
	indicators := ExtractFraudIndicators(ledger, nil)
	if len(indicators) != 1 {
		t.Fatalf("got %d indicator rows, want 1", len(indicators))
	}
	in := indicators[0]
	if in.DiscountSamples != 1 {
		t.Fatalf("discount samples = %d, want 1 (nil excluded)", in.DiscountSamples)
	}
	if in.MeanDiscountPct != 50 {
		t.Fatalf("mean discount = %v, want 50", in.MeanDiscountPct)
	}
}

func TestFraudScoresTieBreakByCashierID(t *testing.T) {
	ledger := []domain.Transaction{
		testTx(func(tx *domain.Transaction) { tx.CashierID = "C002" }),
		testTx(func(tx *domain.Transaction) { tx.ID = "TXN2"; tx.CashierID = "C001" }),
	}
	scores := FraudScores(ledger, nil, DefaultScoreRules)
	if len(scores) != 2 {
		t.Fatalf("got %d scores", len(scores))
	}
	if scores[0].CashierID != "C001" || scores[1].CashierID != "C002" {
		t.Fatalf("tie not broken by cashier id: %s, %s", scores[0].CashierID, scores[1].CashierID)
	}
}
