package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"biasharaflow/backend/internal/domain"
	"biasharaflow/backend/internal/store"
)

func TestNewSeededIsDeterministic(t *testing.T) {
	ctx := context.Background()
	a, _ := NewSeeded(42).ListTransactions(ctx, time.Time{}, time.Time{})
	b, _ := NewSeeded(42).ListTransactions(ctx, time.Time{}, time.Time{})

	if len(a) == 0 {
		t.Fatalf("seeded store is empty")
	}
	if len(a) != len(b) {
		t.Fatalf("ledger sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].TotalPriceCents != b[i].TotalPriceCents || !a[i].Timestamp.Equal(b[i].Timestamp) {
			t.Fatalf("line %d differs between identical seeds: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestNewSeededDifferentSeedsDiffer(t *testing.T) {
	ctx := context.Background()
	a, _ := NewSeeded(1).ListTransactions(ctx, time.Time{}, time.Time{})
	b, _ := NewSeeded(2).ListTransactions(ctx, time.Time{}, time.Time{})

	same := len(a) == len(b)
	if same {
		for i := range a {
			if a[i].TotalPriceCents != b[i].TotalPriceCents {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatalf("seeds 1 and 2 produced identical ledgers")
	}
}

func TestSeededReferenceData(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded(42)

	outlets, err := s.ListOutlets(ctx)
	if err != nil || len(outlets) != 3 {
		t.Fatalf("outlets: %v, err %v", outlets, err)
	}
	cashiers, err := s.ListCashiers(ctx)
	if err != nil || len(cashiers) != 9 {
		t.Fatalf("want 9 cashiers, got %d (err %v)", len(cashiers), err)
	}
	catalog, err := s.ListCatalog(ctx)
	if err != nil || len(catalog) != 30 {
		t.Fatalf("want 30 catalog items, got %d (err %v)", len(catalog), err)
	}

	txns, _ := s.ListTransactions(ctx, time.Time{}, time.Time{})
	if len(txns) != 2500 {
		t.Fatalf("want 2500 ledger lines, got %d", len(txns))
	}
	for i := 1; i < len(txns); i++ {
		if txns[i].Timestamp.Before(txns[i-1].Timestamp) {
			t.Fatalf("ledger not time-ordered at %d", i)
		}
	}
}

func TestListTransactionsRange(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded(42)

	from := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	txns, err := s.ListTransactions(ctx, from, to)
	if err != nil {
		t.Fatalf("range query failed: %v", err)
	}
	if len(txns) == 0 {
		t.Fatalf("december window is empty")
	}
	for _, tx := range txns {
		if tx.Timestamp.Before(from) || tx.Timestamp.After(to) {
			t.Fatalf("line %s outside range: %v", tx.ID, tx.Timestamp)
		}
	}
}

func TestAppendTransactionsRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded(42)
	existing, _ := s.ListTransactions(ctx, time.Time{}, time.Time{})

	dup := existing[0]
	if _, err := s.AppendTransactions(ctx, []domain.Transaction{dup}); !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("duplicate append err = %v, want ErrDuplicateID", err)
	}

	fresh := existing[0]
	fresh.ID = "TXN999999"
	n, err := s.AppendTransactions(ctx, []domain.Transaction{fresh})
	if err != nil || n != 1 {
		t.Fatalf("fresh append: n=%d err=%v", n, err)
	}
}

func TestUpsertStockCountKeepsLatest(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded(42)

	newer := domain.StockCount{SKU: "MED001", Counted: 50, CountedAt: time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)}
	older := domain.StockCount{SKU: "MED001", Counted: 70, CountedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)}

	if err := s.UpsertStockCount(ctx, newer); err != nil {
		t.Fatalf("upsert newer: %v", err)
	}
	if err := s.UpsertStockCount(ctx, older); err != nil {
		t.Fatalf("upsert older: %v", err)
	}

	counts, _ := s.ListStockCounts(ctx)
	if len(counts) != 1 || counts[0].Counted != 50 {
		t.Fatalf("stale count overwrote newer one: %+v", counts)
	}
}

func TestSeededSettlementsCoverMpesaAndCash(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded(42)

	statements, err := s.ListSettlements(ctx, time.Time{}, time.Time{})
	if err != nil || len(statements) == 0 {
		t.Fatalf("no seeded settlements (err %v)", err)
	}
	methods := map[string]bool{}
	for _, st := range statements {
		methods[st.Method] = true
		if st.Method != domain.PaymentMpesa && st.Method != domain.PaymentCash {
			t.Fatalf("unexpected settlement method %q", st.Method)
		}
	}
	if !methods[domain.PaymentMpesa] || !methods[domain.PaymentCash] {
		t.Fatalf("settlements missing a method: %v", methods)
	}
}
