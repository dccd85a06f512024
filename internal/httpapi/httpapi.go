package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"biasharaflow/backend/internal/cache"
	"biasharaflow/backend/internal/domain"
	"biasharaflow/backend/internal/report"
	"biasharaflow/backend/internal/service"
	"biasharaflow/backend/internal/store"
	"biasharaflow/backend/internal/xid"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	reportCache   cache.ReportCache
	cacheTTL      time.Duration
	allowedOrigin string
	loginLimiter  *attemptLimiter
	csrfSecret    []byte
}

func New(svc *service.Service, auth *AuthManager, reportCache cache.ReportCache, cacheTTL time.Duration, allowedOrigin string) *API {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		// Fall back to a deterministic secret if crypto/rand fails (should not happen in practice).
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		service:       svc,
		auth:          auth,
		reportCache:   reportCache,
		cacheTTL:      cacheTTL,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

// csrfTokenForHour computes an HMAC-SHA256 token for the given hour bucket
// (expressed as Unix time truncated to the hour). The token is hex-encoded.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

// generateCSRFToken returns a token valid for the current hour bucket.
func (a *API) generateCSRFToken() string {
	now := time.Now().UTC()
	bucket := now.Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken checks whether the provided token matches the current or
// previous hour bucket, giving a 2-hour validity window.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	now := time.Now().UTC()
	currentBucket := now.Truncate(time.Hour).Unix()
	prevBucket := currentBucket - 3600

	expected1 := a.csrfTokenForHour(currentBucket)
	expected2 := a.csrfTokenForHour(prevBucket)

	return hmac.Equal([]byte(token), []byte(expected1)) ||
		hmac.Equal([]byte(token), []byte(expected2))
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/api/v1/auth/csrf-token", a.handleCSRFToken)

	mux.HandleFunc("/api/v1/analytics/kpi", a.requireAuth(a.handleKPI, "viewer", "admin"))
	mux.HandleFunc("/api/v1/analytics/fraud-scorecard", a.requireAuth(a.handleFraudScorecard, "viewer", "admin"))
	mux.HandleFunc("/api/v1/analytics/reconciliation", a.requireAuth(a.handleReconciliation, "viewer", "admin"))
	mux.HandleFunc("/api/v1/analytics/shrinkage", a.requireAuth(a.handleShrinkage, "viewer", "admin"))
	mux.HandleFunc("/api/v1/analytics/expiry-risk", a.requireAuth(a.handleExpiryRisk, "viewer", "admin"))
	mux.HandleFunc("/api/v1/analytics/forecast", a.requireAuth(a.handleForecast, "viewer", "admin"))
	mux.HandleFunc("/api/v1/analytics/outlet-ranking", a.requireAuth(a.handleOutletRanking, "viewer", "admin"))
	mux.HandleFunc("/api/v1/analytics/scorecard", a.requireAuth(a.handleScorecard, "viewer", "admin"))

	mux.HandleFunc("/api/v1/ledger/transactions", a.requireAuth(a.handleIngestTransactions, "admin"))
	mux.HandleFunc("/api/v1/signals/settlements", a.requireAuth(a.handleSettlements, "admin"))
	mux.HandleFunc("/api/v1/signals/stock-counts", a.requireAuth(a.handleStockCounts, "admin"))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns a stateless CSRF token valid for the current hour bucket.
// Clients must include this token in the X-CSRF-Token header for all mutating requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

// csrfExemptPaths lists paths that are exempt from CSRF validation. Login is
// excluded because it is called before any CSRF token fetch.
var csrfExemptPaths = []string{
	"/api/v1/auth/login",
}

// checkCSRF enforces CSRF token validation for state-changing methods (POST/PUT/PATCH).
// Returns false and writes an error response if validation fails.
func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	method := r.Method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

// parseQuery maps the shared filter query parameters onto a service.Query.
// from/to accept RFC3339 or plain dates; list parameters are comma-separated.
func parseQuery(r *http.Request) (service.Query, error) {
	var q service.Query
	var err error

	if q.From, err = parseTimeParam(r.URL.Query().Get("from"), false); err != nil {
		return q, err
	}
	if q.To, err = parseTimeParam(r.URL.Query().Get("to"), true); err != nil {
		return q, err
	}
	q.OutletIDs = splitParam(r.URL.Query().Get("outlet"))
	q.Categories = splitParam(r.URL.Query().Get("category"))
	q.CashierIDs = splitParam(r.URL.Query().Get("cashier"))
	q.PaymentTypes = splitParam(r.URL.Query().Get("payment"))
	q.Shifts = splitParam(r.URL.Query().Get("shift"))

	if q.HourFrom, err = parseHourParam(r.URL.Query().Get("hour_from")); err != nil {
		return q, err
	}
	if q.HourTo, err = parseHourParam(r.URL.Query().Get("hour_to")); err != nil {
		return q, err
	}
	return q, nil
}

func parseTimeParam(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339 or YYYY-MM-DD", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), nil
}

// parsePositiveParam reads an optional positive integer; empty means 0,
// which callers treat as "use the configured default".
func parsePositiveParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid value %q: want a positive integer", raw)
	}
	return v, nil
}

func parseHourParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	hour, err := strconv.Atoi(raw)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour %q: want 0-23", raw)
	}
	return hour, nil
}

func splitParam(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("format")), "csv")
}

// serveCachedJSON looks the key up in the report cache before computing; on
// a miss the marshalled result is stored for subsequent identical queries.
// CSV responses bypass the cache.
func (a *API) serveCachedJSON(w http.ResponseWriter, r *http.Request, key string, compute func() (any, error)) {
	ctx := r.Context()
	if payload, hit, err := a.reportCache.Get(ctx, key); err == nil && hit {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}

	result, err := compute()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := a.reportCache.Set(ctx, key, payload, a.cacheTTL); err != nil {
		log.Printf("[httpapi] WARN: report cache set failed: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func writeCSV(w http.ResponseWriter, tables ...report.Table) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if len(tables) > 1 {
			fmt.Fprintf(w, "# %s\n", t.Name)
		}
		if err := t.Write(w, ','); err != nil {
			log.Printf("[httpapi] WARN: csv write failed for %s: %v", t.Name, err)
			return
		}
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrDuplicateID):
		writeError(w, http.StatusConflict, err)
	case strings.Contains(strings.ToLower(err.Error()), "admin role required"):
		writeError(w, http.StatusForbidden, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (a *API) handleKPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if wantsCSV(r) {
		rep, err := a.service.KPI(r.Context(), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCSV(w, report.KPITable(rep.Summary, rep.DailyTarget))
		return
	}
	a.serveCachedJSON(w, r, "kpi|"+q.CacheKey(), func() (any, error) {
		return a.service.KPI(r.Context(), q)
	})
}

func (a *API) handleFraudScorecard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if wantsCSV(r) {
		scores, err := a.service.FraudScorecard(r.Context(), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCSV(w, report.FraudTable(scores))
		return
	}
	a.serveCachedJSON(w, r, "fraud|"+q.CacheKey(), func() (any, error) {
		scores, err := a.service.FraudScorecard(r.Context(), q)
		if err != nil {
			return nil, err
		}
		return map[string]any{"scores": scores}, nil
	})
}

func (a *API) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if wantsCSV(r) {
		rep, err := a.service.Reconciliation(r.Context(), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCSV(w, report.ReconciliationTable(rep))
		return
	}
	a.serveCachedJSON(w, r, "reconciliation|"+q.CacheKey(), func() (any, error) {
		return a.service.Reconciliation(r.Context(), q)
	})
}

func (a *API) handleShrinkage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if wantsCSV(r) {
		rep, err := a.service.Shrinkage(r.Context(), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCSV(w,
			report.ShrinkageTable("by_sku", rep.BySKU),
			report.ShrinkageTable("by_cashier", rep.ByCashier),
			report.ShrinkageTable("by_outlet", rep.ByOutlet),
			report.ShrinkageTable("by_hour", rep.ByHour),
			report.StockCountTable(rep.Counts),
		)
		return
	}
	a.serveCachedJSON(w, r, "shrinkage|"+q.CacheKey(), func() (any, error) {
		return a.service.Shrinkage(r.Context(), q)
	})
}

func (a *API) handleExpiryRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	asOf, err := parseTimeParam(r.URL.Query().Get("as_of"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if wantsCSV(r) {
		rows, err := a.service.ExpiryRisk(r.Context(), q, asOf)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCSV(w, report.ExpiryTable(rows))
		return
	}
	key := fmt.Sprintf("expiry|%s|%s", q.CacheKey(), asOf.UTC().Format(time.RFC3339))
	a.serveCachedJSON(w, r, key, func() (any, error) {
		rows, err := a.service.ExpiryRisk(r.Context(), q, asOf)
		if err != nil {
			return nil, err
		}
		return map[string]any{"items": rows}, nil
	})
}

func (a *API) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sku := strings.TrimSpace(r.URL.Query().Get("sku"))
	if sku == "" {
		writeError(w, http.StatusBadRequest, errors.New("sku query parameter required"))
		return
	}
	window, err := parsePositiveParam(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	horizon, err := parsePositiveParam(r.URL.Query().Get("horizon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if wantsCSV(r) {
		series, err := a.service.Forecast(r.Context(), q, sku, window, horizon)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCSV(w, report.ForecastTable(series))
		return
	}
	key := fmt.Sprintf("forecast|%s|%d|%d|%s", strings.ToUpper(sku), window, horizon, q.CacheKey())
	a.serveCachedJSON(w, r, key, func() (any, error) {
		return a.service.Forecast(r.Context(), q, sku, window, horizon)
	})
}

func (a *API) handleOutletRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if wantsCSV(r) {
		rows, err := a.service.OutletRanking(r.Context(), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCSV(w, report.BenchmarkTable(rows))
		return
	}
	a.serveCachedJSON(w, r, "ranking|"+q.CacheKey(), func() (any, error) {
		rows, err := a.service.OutletRanking(r.Context(), q)
		if err != nil {
			return nil, err
		}
		return map[string]any{"outlets": rows}, nil
	})
}

func (a *API) handleScorecard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if wantsCSV(r) {
		cards, err := a.service.CashierScorecard(r.Context(), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCSV(w, report.ScorecardTable(cards))
		return
	}
	a.serveCachedJSON(w, r, "scorecard|"+q.CacheKey(), func() (any, error) {
		cards, err := a.service.CashierScorecard(r.Context(), q)
		if err != nil {
			return nil, err
		}
		return map[string]any{"cashiers": cards}, nil
	})
}

type ingestRequest struct {
	Transactions []domain.Transaction `json:"transactions"`
}

func (a *API) handleIngestTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	inserted, err := a.service.IngestTransactions(r.Context(), req.Transactions)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"inserted": inserted})
}

type settlementsRequest struct {
	Statements []domain.SettlementStatement `json:"statements"`
}

func (a *API) handleSettlements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req settlementsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Statements) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("statements required"))
		return
	}
	for _, st := range req.Statements {
		if err := a.service.SubmitSettlement(r.Context(), st); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"accepted": len(req.Statements)})
}

type stockCountsRequest struct {
	Counts []domain.StockCount `json:"counts"`
}

func (a *API) handleStockCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req stockCountsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Counts) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("counts required"))
		return
	}
	for _, c := range req.Counts {
		if err := a.service.SubmitStockCount(r.Context(), c); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"accepted": len(req.Counts)})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 4<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Enforce CSRF protection for all state-changing requests.
		if !a.checkCSRF(w, r) {
			return
		}

		requestID := xid.New("req")
		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[httpapi] %s %s %s %s", requestID, r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details (stack traces, SQL errors, file paths, etc.).
	// 4xx responses are user-facing so we return the original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
