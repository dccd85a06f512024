package analytics

import (
	"sort"
	"time"

	"biasharaflow/backend/internal/domain"
)

// InventorySnapshot derives the current per-SKU state from the ledger plus
// catalog: the latest recorded stock-after, the minimum expiry date seen,
// and days-to-expiry relative to asOf. The snapshot is recomputed on every
// call, never stored; asOf is explicit so results are reproducible.
func InventorySnapshot(sales []domain.Transaction, catalog []domain.CatalogItem, asOf time.Time) []domain.InventoryItem {
	type state struct {
		latest    domain.Transaction
		minExpiry time.Time
	}
	bySKU := map[string]*state{}
	for _, tx := range sales {
		st, ok := bySKU[tx.SKU]
		if !ok {
			st = &state{latest: tx, minExpiry: tx.ExpiryDate}
			bySKU[tx.SKU] = st
			continue
		}
		if tx.Timestamp.After(st.latest.Timestamp) {
			st.latest = tx
		}
		if tx.ExpiryDate.Before(st.minExpiry) {
			st.minExpiry = tx.ExpiryDate
		}
	}

	items := make([]domain.InventoryItem, 0, len(bySKU))
	for _, item := range catalog {
		st, ok := bySKU[item.SKU]
		if !ok {
			continue
		}
		stock := st.latest.StockAfter
		items = append(items, domain.InventoryItem{
			SKU:             item.SKU,
			Name:            item.Name,
			Category:        item.Category,
			CurrentStock:    stock,
			StockValueCents: int64(stock) * item.UnitPriceCents,
			EarliestExpiry:  st.minExpiry,
			DaysToExpiry:    daysUntil(asOf, st.minExpiry),
			NeedsReorder:    stock <= item.ReorderLevel,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items
}

func daysUntil(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// expiryBins holds the fixed cut points, most urgent first.
var expiryBins = []struct {
	maxDays int
	level   string
	action  string
}{
	{30, domain.ExpiryCritical, "Urgent discount or write-off"},
	{60, domain.ExpiryHigh, "Promote / partial discount"},
	{90, domain.ExpiryMedium, "Monitor / bundle"},
}

// ExpiryRisk buckets the inventory snapshot by days-to-expiry and prices the
// value at risk. Output is sorted ascending by days-to-expiry so the most
// urgent rows lead.
func ExpiryRisk(inventory []domain.InventoryItem) []domain.ExpiryRiskRow {
	rows := make([]domain.ExpiryRiskRow, 0, len(inventory))
	for _, item := range inventory {
		level, action := classifyExpiry(item.DaysToExpiry)
		rows = append(rows, domain.ExpiryRiskRow{
			SKU:              item.SKU,
			Name:             item.Name,
			Category:         item.Category,
			CurrentStock:     item.CurrentStock,
			DaysToExpiry:     item.DaysToExpiry,
			RiskLevel:        level,
			Action:           action,
			ValueAtRiskCents: item.StockValueCents,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DaysToExpiry != rows[j].DaysToExpiry {
			return rows[i].DaysToExpiry < rows[j].DaysToExpiry
		}
		return rows[i].SKU < rows[j].SKU
	})
	return rows
}

func classifyExpiry(days int) (level string, action string) {
	for _, bin := range expiryBins {
		if days <= bin.maxDays {
			return bin.level, bin.action
		}
	}
	return domain.ExpiryLow, "No action"
}
