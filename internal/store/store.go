package store

import (
	"context"
	"errors"
	"time"

	"biasharaflow/backend/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
	ErrDuplicateID   = errors.New("duplicate id")
)

type Repository interface {
	ListTransactions(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error)
	AppendTransactions(ctx context.Context, txns []domain.Transaction) (int, error)
	ListOutlets(ctx context.Context) ([]domain.Outlet, error)
	GetOutletByID(ctx context.Context, id string) (*domain.Outlet, error)
	ListCashiers(ctx context.Context) ([]domain.Cashier, error)
	ListCatalog(ctx context.Context) ([]domain.CatalogItem, error)
	GetCatalogItemBySKU(ctx context.Context, sku string) (*domain.CatalogItem, error)
	ListSettlements(ctx context.Context, from time.Time, to time.Time) ([]domain.SettlementStatement, error)
	UpsertSettlement(ctx context.Context, statement domain.SettlementStatement) error
	ListStockCounts(ctx context.Context) ([]domain.StockCount, error)
	UpsertStockCount(ctx context.Context, count domain.StockCount) error
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
