package analytics

import (
	"sort"

	"biasharaflow/backend/internal/domain"
)

// ScoreRule is one independently evaluated fraud-scoring rule. Rules are
// data, not inline arithmetic, so the active set is auditable and a revised
// weighting is a slice swap rather than a code change.
type ScoreRule struct {
	Code    string
	Weight  int
	Applies func(domain.FraudIndicators) bool
}

// DefaultScoreRules is the production rule set. Weights sum to 100. The
// return-rate indicator is part of the set; dropping it is a product
// decision, not a tuning knob.
var DefaultScoreRules = []ScoreRule{
	{Code: "void_rate_over_5pct", Weight: 35, Applies: func(in domain.FraudIndicators) bool {
		return in.VoidRatePct > 5
	}},
	{Code: "mean_discount_over_10pct", Weight: 25, Applies: func(in domain.FraudIndicators) bool {
		return in.DiscountSamples > 0 && in.MeanDiscountPct > 10
	}},
	{Code: "negative_profit_over_3pct", Weight: 30, Applies: func(in domain.FraudIndicators) bool {
		return in.NegativeProfitPct > 3
	}},
	{Code: "return_rate_over_5pct", Weight: 10, Applies: func(in domain.FraudIndicators) bool {
		return in.ReturnRatePct > 5
	}},
}

const (
	highRiskThreshold   = 50
	mediumRiskThreshold = 25
)

// FraudScores extracts per-cashier indicators from the FULL ledger slice
// (voided and returned lines included, since void rate is itself the signal),
// evaluates the rule set, and classifies. Output is sorted descending by
// score, ties broken by ascending cashier id for determinism.
func FraudScores(ledger []domain.Transaction, cashiers []domain.Cashier, rules []ScoreRule) []domain.FraudScore {
	indicators := ExtractFraudIndicators(ledger, cashiers)

	scores := make([]domain.FraudScore, 0, len(indicators))
	for _, in := range indicators {
		score := 0
		fired := []string{}
		for _, rule := range rules {
			if rule.Applies(in) {
				score += rule.Weight
				fired = append(fired, rule.Code)
			}
		}
		scores = append(scores, domain.FraudScore{
			FraudIndicators: in,
			Score:           score,
			RiskLevel:       ClassifyRisk(score),
			FiredRules:      fired,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].CashierID < scores[j].CashierID
	})
	return scores
}

// ExtractFraudIndicators computes the raw per-cashier signals. Unknown
// discounts (nil) are excluded from the mean, not counted as zero.
func ExtractFraudIndicators(ledger []domain.Transaction, cashiers []domain.Cashier) []domain.FraudIndicators {
	names := make(map[string]domain.Cashier, len(cashiers))
	for _, c := range cashiers {
		names[c.ID] = c
	}

	type accum struct {
		txns        int
		voids       int
		returns     int
		negProfit   int
		discountSum float64
		discountN   int
	}
	byCashier := map[string]*accum{}
	order := []string{}

	for _, tx := range ledger {
		acc, ok := byCashier[tx.CashierID]
		if !ok {
			acc = &accum{}
			byCashier[tx.CashierID] = acc
			order = append(order, tx.CashierID)
		}
		acc.txns++
		if tx.Voided {
			acc.voids++
		}
		if tx.Return {
			acc.returns++
		}
		if tx.ProfitCents < 0 {
			acc.negProfit++
		}
		if tx.DiscountPercent != nil {
			acc.discountSum += *tx.DiscountPercent
			acc.discountN++
		}
	}
	sort.Strings(order)

	out := make([]domain.FraudIndicators, 0, len(order))
	for _, id := range order {
		acc := byCashier[id]
		in := domain.FraudIndicators{
			CashierID:         id,
			CashierName:       names[id].Name,
			OutletID:          names[id].OutletID,
			Transactions:      acc.txns,
			Voids:             acc.voids,
			VoidRatePct:       pct(float64(acc.voids), float64(acc.txns)),
			Returns:           acc.returns,
			ReturnRatePct:     pct(float64(acc.returns), float64(acc.txns)),
			DiscountSamples:   acc.discountN,
			NegativeProfit:    acc.negProfit,
			NegativeProfitPct: pct(float64(acc.negProfit), float64(acc.txns)),
		}
		if acc.discountN > 0 {
			in.MeanDiscountPct = acc.discountSum / float64(acc.discountN)
		}
		out = append(out, in)
	}
	return out
}

// ClassifyRisk is a pure step function of the composite score.
func ClassifyRisk(score int) string {
	switch {
	case score >= highRiskThreshold:
		return domain.RiskHigh
	case score >= mediumRiskThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
