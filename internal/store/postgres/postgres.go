package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"biasharaflow/backend/internal/domain"
	"biasharaflow/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListTransactions(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT id, ts, outlet_id, cashier_id, shift, sku, category, quantity,
		       unit_price_cents, discount_percent, total_price_cents, total_cost_cents,
		       profit_cents, payment_type, customer_type, prescription_required,
		       expiry_date, stock_before, stock_after, voided, is_return
		FROM ledger_transactions
		WHERE ($1::timestamptz IS NULL OR ts >= $1)
		  AND ($2::timestamptz IS NULL OR ts <= $2)
		ORDER BY ts, id
	`
	rows, err := s.db.QueryContext(ctx, query, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, 256)
	for rows.Next() {
		var tx domain.Transaction
		var discount sql.NullFloat64
		if err := rows.Scan(
			&tx.ID, &tx.Timestamp, &tx.OutletID, &tx.CashierID, &tx.Shift, &tx.SKU,
			&tx.Category, &tx.Quantity, &tx.UnitPriceCents, &discount,
			&tx.TotalPriceCents, &tx.TotalCostCents, &tx.ProfitCents, &tx.PaymentType,
			&tx.CustomerType, &tx.PrescriptionRequired, &tx.ExpiryDate,
			&tx.StockBefore, &tx.StockAfter, &tx.Voided, &tx.Return,
		); err != nil {
			return nil, err
		}
		if discount.Valid {
			d := discount.Float64
			tx.DiscountPercent = &d
		}
		txns = append(txns, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

func (s *Store) AppendTransactions(ctx context.Context, txns []domain.Transaction) (int, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = dbTx.Rollback() }()

	inserted := 0
	for _, tx := range txns {
		_, err := dbTx.ExecContext(ctx, `
			INSERT INTO ledger_transactions (
				id, ts, outlet_id, cashier_id, shift, sku, category, quantity,
				unit_price_cents, discount_percent, total_price_cents, total_cost_cents,
				profit_cents, payment_type, customer_type, prescription_required,
				expiry_date, stock_before, stock_after, voided, is_return, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,now())
		`,
			tx.ID, tx.Timestamp, tx.OutletID, tx.CashierID, tx.Shift, tx.SKU,
			tx.Category, tx.Quantity, tx.UnitPriceCents, nullFloat(tx.DiscountPercent),
			tx.TotalPriceCents, tx.TotalCostCents, tx.ProfitCents, tx.PaymentType,
			tx.CustomerType, tx.PrescriptionRequired, tx.ExpiryDate,
			tx.StockBefore, tx.StockAfter, tx.Voided, tx.Return,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("%w: transaction %s", store.ErrDuplicateID, tx.ID)
			}
			return 0, err
		}
		inserted++
	}
	if err := dbTx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) ListOutlets(ctx context.Context) ([]domain.Outlet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, locality, monthly_target_cents
		FROM outlets
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outlets := make([]domain.Outlet, 0, 8)
	for rows.Next() {
		var o domain.Outlet
		if err := rows.Scan(&o.ID, &o.Name, &o.Locality, &o.MonthlyTargetCents); err != nil {
			return nil, err
		}
		outlets = append(outlets, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return outlets, nil
}

func (s *Store) GetOutletByID(ctx context.Context, id string) (*domain.Outlet, error) {
	var o domain.Outlet
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, locality, monthly_target_cents
		FROM outlets
		WHERE id = $1
	`, id).Scan(&o.ID, &o.Name, &o.Locality, &o.MonthlyTargetCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListCashiers(ctx context.Context) ([]domain.Cashier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, outlet_id, shift
		FROM cashiers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cashiers := make([]domain.Cashier, 0, 16)
	for rows.Next() {
		var c domain.Cashier
		if err := rows.Scan(&c.ID, &c.Name, &c.OutletID, &c.Shift); err != nil {
			return nil, err
		}
		cashiers = append(cashiers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cashiers, nil
}

func (s *Store) ListCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, category, unit_price_cents, unit_cost_cents,
		       prescription_required, reorder_level, max_stock
		FROM catalog_items
		ORDER BY sku
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0, 64)
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(
			&item.SKU, &item.Name, &item.Category, &item.UnitPriceCents,
			&item.UnitCostCents, &item.PrescriptionRequired, &item.ReorderLevel, &item.MaxStock,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetCatalogItemBySKU(ctx context.Context, sku string) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := s.db.QueryRowContext(ctx, `
		SELECT sku, name, category, unit_price_cents, unit_cost_cents,
		       prescription_required, reorder_level, max_stock
		FROM catalog_items
		WHERE sku = $1
	`, sku).Scan(
		&item.SKU, &item.Name, &item.Category, &item.UnitPriceCents,
		&item.UnitCostCents, &item.PrescriptionRequired, &item.ReorderLevel, &item.MaxStock,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSettlements(ctx context.Context, from time.Time, to time.Time) ([]domain.SettlementStatement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT settlement_date, method, amount_cents
		FROM settlement_statements
		WHERE ($1::date IS NULL OR settlement_date >= $1)
		  AND ($2::date IS NULL OR settlement_date <= $2)
		ORDER BY settlement_date, method
	`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statements := make([]domain.SettlementStatement, 0, 64)
	for rows.Next() {
		var st domain.SettlementStatement
		var date time.Time
		if err := rows.Scan(&date, &st.Method, &st.AmountCents); err != nil {
			return nil, err
		}
		st.Date = date.UTC().Format("2006-01-02")
		statements = append(statements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statements, nil
}

func (s *Store) UpsertSettlement(ctx context.Context, statement domain.SettlementStatement) error {
	date, err := time.Parse("2006-01-02", statement.Date)
	if err != nil {
		return fmt.Errorf("%w: bad settlement date %q", store.ErrInvalidRecord, statement.Date)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settlement_statements (settlement_date, method, amount_cents, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (settlement_date, method)
		DO UPDATE SET amount_cents = EXCLUDED.amount_cents, updated_at = now()
	`, date, statement.Method, statement.AmountCents)
	return err
}

func (s *Store) ListStockCounts(ctx context.Context) ([]domain.StockCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, counted, counted_at
		FROM stock_counts
		ORDER BY sku
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.StockCount, 0, 64)
	for rows.Next() {
		var c domain.StockCount
		if err := rows.Scan(&c.SKU, &c.Counted, &c.CountedAt); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *Store) UpsertStockCount(ctx context.Context, count domain.StockCount) error {
	if count.SKU == "" {
		return fmt.Errorf("%w: stock count missing sku", store.ErrInvalidRecord)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_counts (sku, counted, counted_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (sku)
		DO UPDATE SET counted = EXCLUDED.counted, counted_at = EXCLUDED.counted_at
		WHERE stock_counts.counted_at <= EXCLUDED.counted_at
	`, count.SKU, count.Counted, count.CountedAt)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,$4,now())
	`, user.Username, user.Password, user.Role, user.Active)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: user %s", store.ErrDuplicateID, user.Username)
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}

func nullFloat(val *float64) any {
	if val == nil {
		return nil
	}
	return *val
}
