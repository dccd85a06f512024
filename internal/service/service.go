package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"biasharaflow/backend/internal/analytics"
	"biasharaflow/backend/internal/domain"
	"biasharaflow/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Query narrows every analytics view to one ledger subset. Zero-valued
// fields match everything.
type Query struct {
	From         time.Time
	To           time.Time
	OutletIDs    []string
	Categories   []string
	CashierIDs   []string
	PaymentTypes []string
	Shifts       []string
	HourFrom     int
	HourTo       int
}

func (q Query) filter() analytics.Filter {
	return analytics.Filter{
		From:         q.From,
		To:           q.To,
		OutletIDs:    q.OutletIDs,
		Categories:   q.Categories,
		CashierIDs:   q.CashierIDs,
		PaymentTypes: q.PaymentTypes,
		Shifts:       q.Shifts,
		HourFrom:     q.HourFrom,
		HourTo:       q.HourTo,
	}
}

// CacheKey is a stable string identifying the query for report caching.
func (q Query) CacheKey() string {
	parts := []string{
		fmtTime(q.From), fmtTime(q.To),
		strings.Join(q.OutletIDs, ","),
		strings.Join(q.Categories, ","),
		strings.Join(q.CashierIDs, ","),
		strings.Join(q.PaymentTypes, ","),
		strings.Join(q.Shifts, ","),
		fmt.Sprintf("%d-%d", q.HourFrom, q.HourTo),
	}
	return strings.Join(parts, "|")
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type KPIReport struct {
	Summary     domain.KPISummary       `json:"summary"`
	DailyTarget []domain.DailyTargetRow `json:"daily_target"`
}

type Service struct {
	repo            store.Repository
	thresholds      analytics.VarianceThresholds
	forecastWindow  int
	forecastHorizon int
}

func New(repo store.Repository, thresholds analytics.VarianceThresholds, forecastWindow int, forecastHorizon int) *Service {
	if len(thresholds) == 0 {
		thresholds = analytics.DefaultVarianceThresholds
	}
	if forecastWindow < 1 {
		forecastWindow = analytics.DefaultForecastWindow
	}
	if forecastHorizon < 1 {
		forecastHorizon = analytics.DefaultForecastHorizon
	}
	return &Service{
		repo:            repo,
		thresholds:      thresholds,
		forecastWindow:  forecastWindow,
		forecastHorizon: forecastHorizon,
	}
}

// ledger loads the raw ledger for the query range and applies the remaining
// filter dimensions. The returned slice includes voided and returned lines;
// components that want the sales view call analytics.SalesSlice themselves.
func (s *Service) ledger(ctx context.Context, q Query) ([]domain.Transaction, error) {
	txns, err := s.repo.ListTransactions(ctx, q.From, q.To)
	if err != nil {
		return nil, err
	}
	return q.filter().Apply(txns), nil
}

func (s *Service) KPI(ctx context.Context, q Query) (KPIReport, error) {
	ledger, err := s.ledger(ctx, q)
	if err != nil {
		return KPIReport{}, err
	}
	outlets, err := s.repo.ListOutlets(ctx)
	if err != nil {
		return KPIReport{}, err
	}

	sales := analytics.SalesSlice(ledger)
	var monthlyTarget int64
	for _, o := range outlets {
		if len(q.OutletIDs) > 0 && !containsString(q.OutletIDs, o.ID) {
			continue
		}
		monthlyTarget += o.MonthlyTargetCents
	}

	return KPIReport{
		Summary:     analytics.KPISummary(sales),
		DailyTarget: analytics.DailySalesVsTarget(sales, monthlyTarget/30),
	}, nil
}

func (s *Service) FraudScorecard(ctx context.Context, q Query) ([]domain.FraudScore, error) {
	ledger, err := s.ledger(ctx, q)
	if err != nil {
		return nil, err
	}
	cashiers, err := s.repo.ListCashiers(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.FraudScores(ledger, cashiers, analytics.DefaultScoreRules), nil
}

func (s *Service) Reconciliation(ctx context.Context, q Query) (domain.ReconciliationReport, error) {
	ledger, err := s.ledger(ctx, q)
	if err != nil {
		return domain.ReconciliationReport{}, err
	}
	statements, err := s.repo.ListSettlements(ctx, q.From, q.To)
	if err != nil {
		return domain.ReconciliationReport{}, err
	}
	settled := []string{domain.PaymentMpesa, domain.PaymentCash}
	return analytics.Reconcile(analytics.SalesSlice(ledger), statements, settled, s.thresholds), nil
}

func (s *Service) Shrinkage(ctx context.Context, q Query) (domain.ShrinkageReport, error) {
	ledger, err := s.ledger(ctx, q)
	if err != nil {
		return domain.ShrinkageReport{}, err
	}
	counts, err := s.repo.ListStockCounts(ctx)
	if err != nil {
		return domain.ShrinkageReport{}, err
	}
	return analytics.Shrinkage(analytics.SalesSlice(ledger), counts), nil
}

// ExpiryRisk classifies stock by days to expiry as of asOf. A zero asOf
// falls back to the latest ledger timestamp so the report stays
// reproducible over a frozen dataset.
func (s *Service) ExpiryRisk(ctx context.Context, q Query, asOf time.Time) ([]domain.ExpiryRiskRow, error) {
	ledger, err := s.ledger(ctx, q)
	if err != nil {
		return nil, err
	}
	catalog, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	sales := analytics.SalesSlice(ledger)
	if asOf.IsZero() {
		for _, tx := range sales {
			if tx.Timestamp.After(asOf) {
				asOf = tx.Timestamp
			}
		}
	}
	inventory := analytics.InventorySnapshot(sales, catalog, asOf)
	return analytics.ExpiryRisk(inventory), nil
}

// Forecast builds the demand series for one SKU. window and horizon
// override the configured defaults when positive.
func (s *Service) Forecast(ctx context.Context, q Query, sku string, window, horizon int) (domain.ForecastSeries, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return domain.ForecastSeries{}, fmt.Errorf("%w: sku required", store.ErrInvalidRecord)
	}
	if window < 1 {
		window = s.forecastWindow
	}
	if horizon < 1 {
		horizon = s.forecastHorizon
	}
	if _, err := s.repo.GetCatalogItemBySKU(ctx, sku); err != nil {
		return domain.ForecastSeries{}, err
	}
	ledger, err := s.ledger(ctx, q)
	if err != nil {
		return domain.ForecastSeries{}, err
	}
	return analytics.Forecast(analytics.SalesSlice(ledger), sku, window, horizon), nil
}

func (s *Service) OutletRanking(ctx context.Context, q Query) ([]domain.OutletBenchmark, error) {
	ledger, err := s.ledger(ctx, q)
	if err != nil {
		return nil, err
	}
	outlets, err := s.repo.ListOutlets(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.BenchmarkOutlets(analytics.SalesSlice(ledger), outlets), nil
}

func (s *Service) CashierScorecard(ctx context.Context, q Query) ([]domain.CashierScorecard, error) {
	ledger, err := s.ledger(ctx, q)
	if err != nil {
		return nil, err
	}
	cashiers, err := s.repo.ListCashiers(ctx)
	if err != nil {
		return nil, err
	}
	outlets, err := s.repo.ListOutlets(ctx)
	if err != nil {
		return nil, err
	}
	fraud := analytics.FraudScores(ledger, cashiers, analytics.DefaultScoreRules)
	return analytics.CashierScorecards(analytics.SalesSlice(ledger), fraud, cashiers, outlets), nil
}

var validPaymentTypes = map[string]bool{
	domain.PaymentMpesa:     true,
	domain.PaymentCash:      true,
	domain.PaymentCard:      true,
	domain.PaymentInsurance: true,
}

// IngestTransactions appends new ledger lines after validation. The whole
// batch is rejected on the first invalid line so partial batches never land.
func (s *Service) IngestTransactions(ctx context.Context, txns []domain.Transaction) (int, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return 0, fmt.Errorf("admin role required")
	}
	if len(txns) == 0 {
		return 0, fmt.Errorf("%w: empty batch", store.ErrInvalidRecord)
	}

	for i := range txns {
		tx := &txns[i]
		tx.ID = strings.TrimSpace(tx.ID)
		tx.SKU = strings.ToUpper(strings.TrimSpace(tx.SKU))
		if err := validateTransaction(*tx); err != nil {
			return 0, err
		}
		if _, err := s.repo.GetOutletByID(ctx, tx.OutletID); err != nil {
			return 0, fmt.Errorf("%w: unknown outlet %s", store.ErrInvalidRecord, tx.OutletID)
		}
		if _, err := s.repo.GetCatalogItemBySKU(ctx, tx.SKU); err != nil {
			return 0, fmt.Errorf("%w: unknown sku %s", store.ErrInvalidRecord, tx.SKU)
		}
	}
	return s.repo.AppendTransactions(ctx, txns)
}

func validateTransaction(tx domain.Transaction) error {
	switch {
	case tx.ID == "":
		return fmt.Errorf("%w: missing id", store.ErrInvalidRecord)
	case tx.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp on %s", store.ErrInvalidRecord, tx.ID)
	case tx.OutletID == "" || tx.CashierID == "":
		return fmt.Errorf("%w: missing outlet or cashier on %s", store.ErrInvalidRecord, tx.ID)
	case tx.Quantity < 1:
		return fmt.Errorf("%w: quantity must be positive on %s", store.ErrInvalidRecord, tx.ID)
	case tx.UnitPriceCents < 0:
		return fmt.Errorf("%w: negative unit price on %s", store.ErrInvalidRecord, tx.ID)
	case !validPaymentTypes[tx.PaymentType]:
		return fmt.Errorf("%w: unknown payment type %q on %s", store.ErrInvalidRecord, tx.PaymentType, tx.ID)
	case tx.DiscountPercent != nil && (*tx.DiscountPercent < 0 || *tx.DiscountPercent > 100):
		return fmt.Errorf("%w: discount out of range on %s", store.ErrInvalidRecord, tx.ID)
	case tx.StockBefore < 0:
		return fmt.Errorf("%w: negative stock before on %s", store.ErrInvalidRecord, tx.ID)
	case tx.Return && tx.TotalPriceCents > 0:
		return fmt.Errorf("%w: return with positive total on %s", store.ErrInvalidRecord, tx.ID)
	}
	return nil
}

func (s *Service) SubmitSettlement(ctx context.Context, statement domain.SettlementStatement) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	if statement.Method != domain.PaymentMpesa && statement.Method != domain.PaymentCash {
		return fmt.Errorf("%w: unsupported settlement method %q", store.ErrInvalidRecord, statement.Method)
	}
	if statement.AmountCents < 0 {
		return fmt.Errorf("%w: negative settlement amount", store.ErrInvalidRecord)
	}
	return s.repo.UpsertSettlement(ctx, statement)
}

func (s *Service) SubmitStockCount(ctx context.Context, count domain.StockCount) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	count.SKU = strings.ToUpper(strings.TrimSpace(count.SKU))
	if count.Counted < 0 {
		return fmt.Errorf("%w: negative stock count", store.ErrInvalidRecord)
	}
	if count.CountedAt.IsZero() {
		return fmt.Errorf("%w: stock count missing timestamp", store.ErrInvalidRecord)
	}
	if _, err := s.repo.GetCatalogItemBySKU(ctx, count.SKU); err != nil {
		return fmt.Errorf("%w: unknown sku %s", store.ErrInvalidRecord, count.SKU)
	}
	return s.repo.UpsertStockCount(ctx, count)
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
