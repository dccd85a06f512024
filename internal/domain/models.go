package domain

import "time"

// Transaction is one immutable line of the point-of-sale ledger. Amounts are
// carried in cents so aggregation stays exact; TotalPriceCents and
// ProfitCents are negated when the line is a return.
type Transaction struct {
	ID                   string    `json:"id"`
	Timestamp            time.Time `json:"timestamp"`
	OutletID             string    `json:"outlet_id"`
	CashierID            string    `json:"cashier_id"`
	Shift                string    `json:"shift"`
	SKU                  string    `json:"sku"`
	Category             string    `json:"category"`
	Quantity             int       `json:"quantity"`
	UnitPriceCents       int64     `json:"unit_price_cents"`
	DiscountPercent      *float64  `json:"discount_percent,omitempty"`
	TotalPriceCents      int64     `json:"total_price_cents"`
	TotalCostCents       int64     `json:"total_cost_cents"`
	ProfitCents          int64     `json:"profit_cents"`
	PaymentType          string    `json:"payment_type"`
	CustomerType         string    `json:"customer_type"`
	PrescriptionRequired bool      `json:"prescription_required"`
	ExpiryDate           time.Time `json:"expiry_date"`
	StockBefore          int       `json:"stock_before"`
	StockAfter           int       `json:"stock_after"`
	Voided               bool      `json:"voided"`
	Return               bool      `json:"return"`
}

type Outlet struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Locality           string `json:"locality"`
	MonthlyTargetCents int64  `json:"monthly_target_cents"`
}

type Cashier struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	OutletID string `json:"outlet_id"`
	Shift    string `json:"shift"`
}

type CatalogItem struct {
	SKU                  string `json:"sku"`
	Name                 string `json:"name"`
	Category             string `json:"category"`
	UnitPriceCents       int64  `json:"unit_price_cents"`
	UnitCostCents        int64  `json:"unit_cost_cents"`
	PrescriptionRequired bool   `json:"prescription_required"`
	ReorderLevel         int    `json:"reorder_level"`
	MaxStock             int    `json:"max_stock"`
}

// SettlementStatement is the externally supplied per-date settlement figure
// for a payment method (M-Pesa statement, cash count). It is never fabricated
// inside the engine.
type SettlementStatement struct {
	Date        string `json:"date"`
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
}

// StockCount is an authoritative physical stock count supplied by an
// external counting process.
type StockCount struct {
	SKU       string    `json:"sku"`
	Counted   int       `json:"counted"`
	CountedAt time.Time `json:"counted_at"`
}

const (
	PaymentMpesa     = "M-Pesa"
	PaymentCash      = "Cash"
	PaymentCard      = "Card"
	PaymentInsurance = "Insurance"
)

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

const (
	VarianceNormal           = "normal"
	VarianceInvestigate      = "investigate"
	VarianceInsufficientData = "insufficient data"
)

const (
	ExpiryCritical = "Critical"
	ExpiryHigh     = "High"
	ExpiryMedium   = "Medium"
	ExpiryLow      = "Low"
)

const (
	PointActual   = "actual"
	PointForecast = "forecast"
)

// KPISummary covers the headline sales figures for one filtered view.
type KPISummary struct {
	TotalSalesCents    int64          `json:"total_sales_cents"`
	TotalProfitCents   int64          `json:"total_profit_cents"`
	MarginPct          float64        `json:"margin_pct"`
	Transactions       int            `json:"transactions"`
	UnitsSold          int            `json:"units_sold"`
	AverageBasketCents int64          `json:"average_basket_cents"`
	PaymentMix         []PaymentShare `json:"payment_mix"`
}

type PaymentShare struct {
	Method     string  `json:"method"`
	SalesCents int64   `json:"sales_cents"`
	SharePct   float64 `json:"share_pct"`
}

type DailyTargetRow struct {
	Date           string  `json:"date"`
	SalesCents     int64   `json:"sales_cents"`
	TargetCents    int64   `json:"target_cents"`
	AchievementPct float64 `json:"achievement_pct"`
}

// FraudIndicators are the raw per-cashier signals the rule set evaluates.
// Voided and returned transactions are counted here even though the sales
// aggregates exclude them.
type FraudIndicators struct {
	CashierID         string  `json:"cashier_id"`
	CashierName       string  `json:"cashier_name"`
	OutletID          string  `json:"outlet_id"`
	Transactions      int     `json:"transactions"`
	Voids             int     `json:"voids"`
	VoidRatePct       float64 `json:"void_rate_pct"`
	Returns           int     `json:"returns"`
	ReturnRatePct     float64 `json:"return_rate_pct"`
	DiscountSamples   int     `json:"discount_samples"`
	MeanDiscountPct   float64 `json:"mean_discount_pct"`
	NegativeProfit    int     `json:"negative_profit"`
	NegativeProfitPct float64 `json:"negative_profit_pct"`
}

type FraudScore struct {
	FraudIndicators
	Score      int      `json:"score"`
	RiskLevel  string   `json:"risk_level"`
	FiredRules []string `json:"fired_rules"`
}

type ReconciliationRow struct {
	Date          string `json:"date"`
	Method        string `json:"method"`
	RecordedCents int64  `json:"recorded_cents"`
	// StatementCents is nil when no external statement covers the row.
	StatementCents *int64 `json:"statement_cents,omitempty"`
	VarianceCents  int64  `json:"variance_cents"`
	Status         string `json:"status"`
}

type ReconciliationReport struct {
	Rows []ReconciliationRow `json:"rows"`
	// PeriodVarianceCents holds the period-total variance per method,
	// covering only rows that had a statement.
	PeriodVarianceCents map[string]int64 `json:"period_variance_cents"`
}

type ShrinkageRow struct {
	Key            string  `json:"key"`
	Label          string  `json:"label"`
	ShrinkageUnits int     `json:"shrinkage_units"`
	StockBefore    int     `json:"stock_before"`
	RatePct        float64 `json:"rate_pct"`
}

type StockCountVariance struct {
	SKU            string `json:"sku"`
	RecordedAfter  int    `json:"recorded_after"`
	Counted        int    `json:"counted"`
	ShrinkageUnits int    `json:"shrinkage_units"`
	Status         string `json:"status"`
}

type ShrinkageReport struct {
	BySKU     []ShrinkageRow       `json:"by_sku"`
	ByCashier []ShrinkageRow       `json:"by_cashier"`
	ByOutlet  []ShrinkageRow       `json:"by_outlet"`
	ByHour    []ShrinkageRow       `json:"by_hour"`
	Counts    []StockCountVariance `json:"counts"`
}

// InventoryItem is the derived per-SKU snapshot: always recomputed from the
// ledger plus catalog, never persisted.
type InventoryItem struct {
	SKU             string    `json:"sku"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	CurrentStock    int       `json:"current_stock"`
	StockValueCents int64     `json:"stock_value_cents"`
	EarliestExpiry  time.Time `json:"earliest_expiry"`
	DaysToExpiry    int       `json:"days_to_expiry"`
	NeedsReorder    bool      `json:"needs_reorder"`
}

type ExpiryRiskRow struct {
	SKU              string `json:"sku"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	CurrentStock     int    `json:"current_stock"`
	DaysToExpiry     int    `json:"days_to_expiry"`
	RiskLevel        string `json:"risk_level"`
	Action           string `json:"action"`
	ValueAtRiskCents int64  `json:"value_at_risk_cents"`
}

type ForecastPoint struct {
	Date          string  `json:"date"`
	Quantity      float64 `json:"quantity"`
	MovingAverage float64 `json:"moving_average"`
	Kind          string  `json:"kind"`
}

type ForecastSeries struct {
	SKU     string          `json:"sku"`
	Window  int             `json:"window"`
	Horizon int             `json:"horizon"`
	Points  []ForecastPoint `json:"points"`
}

type OutletBenchmark struct {
	OutletID           string  `json:"outlet_id"`
	Name               string  `json:"name"`
	Locality           string  `json:"locality"`
	SalesCents         int64   `json:"sales_cents"`
	ProfitCents        int64   `json:"profit_cents"`
	MarginPct          float64 `json:"margin_pct"`
	AverageBasketCents int64   `json:"average_basket_cents"`
	Transactions       int     `json:"transactions"`
	UnitsSold          int     `json:"units_sold"`
	TargetPct          float64 `json:"target_pct"`
	SalesRank          int     `json:"sales_rank"`
	ProfitRank         int     `json:"profit_rank"`
}

// CashierScorecard joins sales performance with the fraud scorer's
// void and discount rates.
type CashierScorecard struct {
	CashierID       string  `json:"cashier_id"`
	Name            string  `json:"name"`
	OutletID        string  `json:"outlet_id"`
	OutletName      string  `json:"outlet_name"`
	SalesCents      int64   `json:"sales_cents"`
	ProfitCents     int64   `json:"profit_cents"`
	Transactions    int     `json:"transactions"`
	UnitsSold       int     `json:"units_sold"`
	AvgTxnCents     int64   `json:"avg_txn_cents"`
	VoidRatePct     float64 `json:"void_rate_pct"`
	MeanDiscountPct float64 `json:"mean_discount_pct"`
	RiskLevel       string  `json:"risk_level"`
	SalesRank       int     `json:"sales_rank"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
