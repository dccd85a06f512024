// Package memory is the in-memory Repository used for dev/demo mode and
// tests. NewSeeded fabricates a deterministic six-month pharmacy ledger from
// a caller-supplied seed, so every run over the same seed produces the same
// analytics output.
package memory

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"biasharaflow/backend/internal/domain"
	"biasharaflow/backend/internal/store"
)

type Store struct {
	mu               sync.RWMutex
	transactions     []domain.Transaction
	transactionsByID map[string]int
	outlets          []domain.Outlet
	cashiers         []domain.Cashier
	catalog          []domain.CatalogItem
	settlements      map[string]domain.SettlementStatement
	stockCounts      map[string]domain.StockCount
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_VIEWER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	viewerPwd := envOr("SEED_VIEWER_PASSWORD", "viewer123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_VIEWER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_VIEWER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"viewer", viewerPwd, "viewer"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func seedCatalog() []domain.CatalogItem {
	type row struct {
		sku, name, category string
		price, cost         int64
		rx                  bool
		reorder, max        int
	}
	rows := []row{
		{"MED001", "Paracetamol 500mg", "Painkillers", 50, 30, false, 100, 500},
		{"MED002", "Ibuprofen 400mg", "Painkillers", 80, 50, false, 80, 400},
		{"MED003", "Amoxicillin 500mg", "Antibiotics", 150, 90, true, 60, 300},
		{"MED004", "Azithromycin 250mg", "Antibiotics", 350, 200, true, 40, 200},
		{"MED005", "Metformin 500mg", "Chronic", 120, 70, true, 100, 500},
		{"MED006", "Amlodipine 5mg", "Chronic", 180, 100, true, 80, 400},
		{"MED007", "Omeprazole 20mg", "Gastro", 200, 120, false, 70, 350},
		{"MED008", "Cetirizine 10mg", "Allergy", 60, 35, false, 90, 450},
		{"MED009", "Vitamin C 1000mg", "Vitamins", 250, 150, false, 120, 600},
		{"MED010", "Multivitamin Plus", "Vitamins", 450, 280, false, 80, 400},
		{"MED011", "Cough Syrup 100ml", "Cold & Flu", 180, 100, false, 100, 500},
		{"MED012", "Flu Capsules", "Cold & Flu", 120, 70, false, 150, 750},
		{"MED013", "Malaria Test Kit", "Diagnostics", 300, 180, false, 50, 250},
		{"MED014", "Artemether-Lum", "Antimalarials", 550, 350, true, 60, 300},
		{"MED015", "ORS Sachets", "Gastro", 30, 15, false, 200, 1000},
		{"MED016", "Zinc Tablets", "Supplements", 150, 90, false, 100, 500},
		{"MED017", "Insulin Syringe", "Diabetes", 50, 25, false, 150, 750},
		{"MED018", "Glucometer Strips", "Diabetes", 800, 500, false, 40, 200},
		{"MED019", "Antacid Tablets", "Gastro", 100, 60, false, 120, 600},
		{"MED020", "Eye Drops 10ml", "Ophthalmic", 280, 170, false, 60, 300},
		{"MED021", "Diclofenac Gel", "Painkillers", 350, 200, false, 50, 250},
		{"MED022", "Loratadine 10mg", "Allergy", 90, 55, false, 80, 400},
		{"MED023", "Aspirin 300mg", "Painkillers", 40, 20, false, 150, 750},
		{"MED024", "Doxycycline 100mg", "Antibiotics", 200, 120, true, 50, 250},
		{"MED025", "Metronidazole 400mg", "Antibiotics", 80, 45, true, 70, 350},
		{"MED026", "Salbutamol Inhaler", "Respiratory", 650, 400, true, 30, 150},
		{"MED027", "Prednisolone 5mg", "Steroids", 120, 70, true, 40, 200},
		{"MED028", "Ferrous Sulphate", "Supplements", 60, 35, false, 100, 500},
		{"MED029", "Folic Acid 5mg", "Supplements", 50, 25, false, 120, 600},
		{"MED030", "Clotrimazole Cream", "Antifungal", 180, 100, false, 60, 300},
	}
	catalog := make([]domain.CatalogItem, 0, len(rows))
	for _, r := range rows {
		catalog = append(catalog, domain.CatalogItem{
			SKU:                  r.sku,
			Name:                 r.name,
			Category:             r.category,
			UnitPriceCents:       r.price * 100,
			UnitCostCents:        r.cost * 100,
			PrescriptionRequired: r.rx,
			ReorderLevel:         r.reorder,
			MaxStock:             r.max,
		})
	}
	return catalog
}

func seedOutlets() []domain.Outlet {
	return []domain.Outlet{
		{ID: "OUT001", Name: "Nairobi CBD", Locality: "Nairobi", MonthlyTargetCents: 800000 * 100},
		{ID: "OUT002", Name: "Mombasa Nyali", Locality: "Mombasa", MonthlyTargetCents: 600000 * 100},
		{ID: "OUT003", Name: "Kisumu Mega", Locality: "Kisumu", MonthlyTargetCents: 500000 * 100},
	}
}

func seedCashiers() []domain.Cashier {
	return []domain.Cashier{
		{ID: "C001", Name: "Jane Wanjiku", OutletID: "OUT001", Shift: "Morning"},
		{ID: "C002", Name: "Peter Omondi", OutletID: "OUT001", Shift: "Afternoon"},
		{ID: "C003", Name: "Grace Muthoni", OutletID: "OUT001", Shift: "Evening"},
		{ID: "C004", Name: "Hassan Ali", OutletID: "OUT002", Shift: "Morning"},
		{ID: "C005", Name: "Fatma Said", OutletID: "OUT002", Shift: "Afternoon"},
		{ID: "C006", Name: "Kevin Otieno", OutletID: "OUT002", Shift: "Evening"},
		{ID: "C007", Name: "Lucy Achieng", OutletID: "OUT003", Shift: "Morning"},
		{ID: "C008", Name: "James Kiprop", OutletID: "OUT003", Shift: "Afternoon"},
		{ID: "C009", Name: "Mary Nekesa", OutletID: "OUT003", Shift: "Evening"},
	}
}

// weightedPick returns an index into weights proportional to the weight
// values. Weights need not sum to 1.
func weightedPick(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return len(weights) - 1
}

// NewSeeded builds a Store pre-loaded with a deterministic six-month ledger
// of roughly 2500 transactions ending 2024-12-31, plus settlement statements
// derived from the recorded ledger with a handful of injected discrepancies.
// The same seed always yields the same dataset.
func NewSeeded(seed int64) *Store {
	rng := rand.New(rand.NewSource(seed))

	outlets := seedOutlets()
	cashiers := seedCashiers()
	catalog := seedCatalog()

	cashiersByOutletShift := map[string][]domain.Cashier{}
	for _, c := range cashiers {
		key := c.OutletID + "|" + c.Shift
		cashiersByOutletShift[key] = append(cashiersByOutletShift[key], c)
	}

	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -180)

	hourWeights := []float64{0.02, 0.02, 0.03, 0.05, 0.06, 0.08, 0.10, 0.12, 0.10, 0.08, 0.08, 0.06, 0.05, 0.05, 0.05, 0.05}
	quantities := []int{1, 1, 1, 2, 2, 3, 5, 10}
	quantityWeights := []float64{0.35, 0.2, 0.15, 0.1, 0.08, 0.07, 0.03, 0.02}
	paymentTypes := []string{domain.PaymentMpesa, domain.PaymentCash, domain.PaymentCard, domain.PaymentInsurance}
	paymentWeights := []float64{0.70, 0.18, 0.07, 0.05}
	customerTypes := []string{"Walk-in", "Regular", "Corporate", "Hospital"}
	customerWeights := []float64{0.50, 0.30, 0.12, 0.08}
	expiryDays := []int{7, 15, 30, 45, 60, 90, 180, 365, 730}
	expiryWeights := []float64{0.01, 0.02, 0.05, 0.05, 0.08, 0.15, 0.24, 0.25, 0.15}
	seasonalSKUs := []int{10, 11, 13, 14, 25}

	const numRows = 2500
	txns := make([]domain.Transaction, 0, numRows)
	nextID := 10000

	for i := 0; i < numRows; i++ {
		day := start.AddDate(0, 0, rng.Intn(181))
		hour := 7 + weightedPick(rng, hourWeights)
		ts := time.Date(day.Year(), day.Month(), day.Day(), hour, rng.Intn(60), rng.Intn(60), 0, time.UTC)

		var shift string
		switch {
		case hour < 14:
			shift = "Morning"
		case hour < 19:
			shift = "Afternoon"
		default:
			shift = "Evening"
		}

		outlet := outlets[weightedPick(rng, []float64{0.45, 0.30, 0.25})]
		shiftCashiers := cashiersByOutletShift[outlet.ID+"|"+shift]
		cashier := shiftCashiers[rng.Intn(len(shiftCashiers))]

		month := ts.Month()
		seasonal := month >= 10 || month == 4 || month == 5
		medIdx := rng.Intn(len(catalog))
		if seasonal && rng.Float64() < 0.3 {
			medIdx = seasonalSKUs[rng.Intn(len(seasonalSKUs))]
		}
		item := catalog[medIdx]

		quantity := quantities[weightedPick(rng, quantityWeights)]
		payment := paymentTypes[weightedPick(rng, paymentWeights)]
		customer := customerTypes[weightedPick(rng, customerWeights)]

		discount := 0.0
		switch {
		case customer == "Corporate":
			discount = []float64{10, 15, 20}[rng.Intn(3)]
		case customer == "Regular" && rng.Float64() < 0.3:
			discount = []float64{5, 10}[rng.Intn(2)]
		case rng.Float64() < 0.05:
			discount = []float64{5, 10, 15}[rng.Intn(3)]
		}

		fraudCashier := cashier.ID == "C003" || cashier.ID == "C006"
		if fraudCashier && rng.Float64() < 0.05 {
			discount = 50
		}

		gross := item.UnitPriceCents * int64(quantity)
		totalPrice := gross - int64(float64(gross)*discount/100)
		totalCost := item.UnitCostCents * int64(quantity)
		profit := totalPrice - totalCost

		stockBefore := item.ReorderLevel - 20 + rng.Intn(item.MaxStock-(item.ReorderLevel-20))
		stockAfter := stockBefore - quantity
		if stockAfter < 0 {
			stockAfter = 0
		}

		expiry := ts.AddDate(0, 0, expiryDays[weightedPick(rng, expiryWeights)])

		voidRate := 0.02
		if fraudCashier {
			voidRate = 0.08
		}
		voided := rng.Float64() < voidRate

		isReturn := rng.Float64() < 0.03
		if isReturn {
			totalPrice = -abs64(totalPrice)
			profit = -abs64(profit)
		}

		nextID++
		d := discount
		txns = append(txns, domain.Transaction{
			ID:                   fmt.Sprintf("TXN%d", nextID),
			Timestamp:            ts,
			OutletID:             outlet.ID,
			CashierID:            cashier.ID,
			Shift:                shift,
			SKU:                  item.SKU,
			Category:             item.Category,
			Quantity:             quantity,
			UnitPriceCents:       item.UnitPriceCents,
			DiscountPercent:      &d,
			TotalPriceCents:      totalPrice,
			TotalCostCents:       totalCost,
			ProfitCents:          profit,
			PaymentType:          payment,
			CustomerType:         customer,
			PrescriptionRequired: item.PrescriptionRequired,
			ExpiryDate:           expiry,
			StockBefore:          stockBefore,
			StockAfter:           stockAfter,
			Voided:               voided,
			Return:               isReturn,
		})
	}

	sort.Slice(txns, func(i, j int) bool {
		if txns[i].Timestamp.Equal(txns[j].Timestamp) {
			return txns[i].ID < txns[j].ID
		}
		return txns[i].Timestamp.Before(txns[j].Timestamp)
	})

	s := &Store{
		transactions:     txns,
		transactionsByID: make(map[string]int, len(txns)),
		outlets:          outlets,
		cashiers:         cashiers,
		catalog:          catalog,
		settlements:      map[string]domain.SettlementStatement{},
		stockCounts:      map[string]domain.StockCount{},
		usersByUsername:  seedUsers(),
	}
	for i, tx := range txns {
		s.transactionsByID[tx.ID] = i
	}
	s.seedSettlements(rng)
	return s
}

// seedSettlements derives M-Pesa and Cash statements from the recorded
// ledger. Most dates settle exactly; a few get an injected shortfall large
// enough to cross the investigation thresholds, and the last three ledger
// dates get no statement at all so the unsettled path stays visible in demo
// mode.
func (s *Store) seedSettlements(rng *rand.Rand) {
	recorded := map[string]int64{}
	dates := map[string]bool{}
	for _, tx := range s.transactions {
		if tx.Voided || tx.Return {
			continue
		}
		if tx.PaymentType != domain.PaymentMpesa && tx.PaymentType != domain.PaymentCash {
			continue
		}
		date := tx.Timestamp.UTC().Format("2006-01-02")
		recorded[date+"|"+tx.PaymentType] += tx.TotalPriceCents
		dates[date] = true
	}

	ordered := make([]string, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Strings(ordered)
	unstated := map[string]bool{}
	for i := len(ordered) - 3; i >= 0 && i < len(ordered); i++ {
		unstated[ordered[i]] = true
	}

	for key, amount := range recorded {
		date := key[:10]
		method := key[11:]
		if unstated[date] {
			continue
		}
		statement := amount
		if rng.Float64() < 0.04 {
			shortfall := int64(300000 + rng.Intn(400000))
			statement = amount - shortfall
		}
		s.settlements[key] = domain.SettlementStatement{
			Date:        date,
			Method:      method,
			AmountCents: statement,
		}
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (s *Store) ListTransactions(_ context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if !from.IsZero() && tx.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Timestamp.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *Store) AppendTransactions(_ context.Context, txns []domain.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txns {
		if _, exists := s.transactionsByID[tx.ID]; exists {
			return 0, fmt.Errorf("%w: transaction %s", store.ErrDuplicateID, tx.ID)
		}
	}
	for _, tx := range txns {
		s.transactionsByID[tx.ID] = len(s.transactions)
		s.transactions = append(s.transactions, tx)
	}
	sort.SliceStable(s.transactions, func(i, j int) bool {
		return s.transactions[i].Timestamp.Before(s.transactions[j].Timestamp)
	})
	for i, tx := range s.transactions {
		s.transactionsByID[tx.ID] = i
	}
	return len(txns), nil
}

func (s *Store) ListOutlets(_ context.Context) ([]domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Outlet, len(s.outlets))
	copy(out, s.outlets)
	return out, nil
}

func (s *Store) GetOutletByID(_ context.Context, id string) (*domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.outlets {
		if o.ID == id {
			outlet := o
			return &outlet, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListCashiers(_ context.Context) ([]domain.Cashier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Cashier, len(s.cashiers))
	copy(out, s.cashiers)
	return out, nil
}

func (s *Store) ListCatalog(_ context.Context) ([]domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogItem, len(s.catalog))
	copy(out, s.catalog)
	return out, nil
}

func (s *Store) GetCatalogItemBySKU(_ context.Context, sku string) (*domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.catalog {
		if item.SKU == sku {
			found := item
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListSettlements(_ context.Context, from time.Time, to time.Time) ([]domain.SettlementStatement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SettlementStatement, 0, len(s.settlements))
	for _, st := range s.settlements {
		d, err := time.Parse("2006-01-02", st.Date)
		if err != nil {
			continue
		}
		if !from.IsZero() && d.Before(from.Truncate(24*time.Hour)) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}

func (s *Store) UpsertSettlement(_ context.Context, statement domain.SettlementStatement) error {
	if _, err := time.Parse("2006-01-02", statement.Date); err != nil {
		return fmt.Errorf("%w: bad settlement date %q", store.ErrInvalidRecord, statement.Date)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlements[statement.Date+"|"+statement.Method] = statement
	return nil
}

func (s *Store) ListStockCounts(_ context.Context) ([]domain.StockCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StockCount, 0, len(s.stockCounts))
	for _, c := range s.stockCounts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (s *Store) UpsertStockCount(_ context.Context, count domain.StockCount) error {
	if count.SKU == "" {
		return fmt.Errorf("%w: stock count missing sku", store.ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.stockCounts[count.SKU]; ok && existing.CountedAt.After(count.CountedAt) {
		return nil
	}
	s.stockCounts[count.SKU] = count
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[user.Username]; exists {
		return fmt.Errorf("%w: user %s", store.ErrDuplicateID, user.Username)
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = password
	s.usersByUsername[username] = u
	return nil
}
