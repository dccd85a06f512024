package analytics

import (
	"sort"

	"biasharaflow/backend/internal/domain"
)

// CashierScorecards assembles the per-cashier performance table, reusing the
// fraud scorer's void/discount rates and risk level. This is the only edge
// between components; everything else in the engine is a leaf.
func CashierScorecards(
	sales []domain.Transaction,
	fraud []domain.FraudScore,
	cashiers []domain.Cashier,
	outlets []domain.Outlet,
) []domain.CashierScorecard {
	outletNames := make(map[string]string, len(outlets))
	for _, o := range outlets {
		outletNames[o.ID] = o.Name
	}
	cashierInfo := make(map[string]domain.Cashier, len(cashiers))
	for _, c := range cashiers {
		cashierInfo[c.ID] = c
	}
	fraudByID := make(map[string]domain.FraudScore, len(fraud))
	for _, f := range fraud {
		fraudByID[f.CashierID] = f
	}

	type accum struct {
		sales  int64
		profit int64
		txns   int
		units  int
	}
	byCashier := map[string]*accum{}
	for _, tx := range sales {
		acc, ok := byCashier[tx.CashierID]
		if !ok {
			acc = &accum{}
			byCashier[tx.CashierID] = acc
		}
		acc.sales += tx.TotalPriceCents
		acc.profit += tx.ProfitCents
		acc.txns++
		acc.units += tx.Quantity
	}

	cards := make([]domain.CashierScorecard, 0, len(byCashier))
	for id, acc := range byCashier {
		info := cashierInfo[id]
		score := fraudByID[id]
		card := domain.CashierScorecard{
			CashierID:       id,
			Name:            info.Name,
			OutletID:        info.OutletID,
			OutletName:      outletNames[info.OutletID],
			SalesCents:      acc.sales,
			ProfitCents:     acc.profit,
			Transactions:    acc.txns,
			UnitsSold:       acc.units,
			VoidRatePct:     score.VoidRatePct,
			MeanDiscountPct: score.MeanDiscountPct,
			RiskLevel:       score.RiskLevel,
		}
		if card.RiskLevel == "" {
			card.RiskLevel = domain.RiskLow
		}
		if acc.txns > 0 {
			card.AvgTxnCents = acc.sales / int64(acc.txns)
		}
		cards = append(cards, card)
	}

	sort.Slice(cards, func(i, j int) bool {
		if cards[i].SalesCents != cards[j].SalesCents {
			return cards[i].SalesCents > cards[j].SalesCents
		}
		return cards[i].CashierID < cards[j].CashierID
	})
	for i := range cards {
		cards[i].SalesRank = i + 1
	}
	return cards
}
