package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/preloved/marketplace/internal/market"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same store
// code serves direct calls and transactional calls.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Products() market.ProductStore   { return &productStore{q: s.db} }
func (s *Store) Orders() market.OrderStore       { return &orderStore{q: s.db} }
func (s *Store) Payments() market.PaymentStore   { return &paymentStore{q: s.db} }
func (s *Store) Customers() market.CustomerStore { return &customerStore{q: s.db} }
func (s *Store) Sellers() market.SellerStore     { return &sellerStore{q: s.db} }

type txView struct{ tx pgx.Tx }

func (v txView) Products() market.ProductStore   { return &productStore{q: v.tx} }
func (v txView) Orders() market.OrderStore       { return &orderStore{q: v.tx} }
func (v txView) Payments() market.PaymentStore   { return &paymentStore{q: v.tx} }
func (v txView) Customers() market.CustomerStore { return &customerStore{q: v.tx} }
func (v txView) Sellers() market.SellerStore     { return &sellerStore{q: v.tx} }

// RunTx runs fn inside one transaction. The deferred rollback is a no-op
// after commit and guarantees nothing leaks on error or panic.
func (s *Store) RunTx(ctx context.Context, fn func(tx market.Stores) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(txView{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
