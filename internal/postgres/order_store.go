package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/preloved/marketplace/internal/market"
)

type orderStore struct{ q querier }

const orderColumns = `order_id, cus_id, total_price, shipping_cost, grand_total, order_status, created_at`

func (s *orderStore) Create(ctx context.Context, o *market.Order, items []market.OrderItem) (int64, error) {
	err := s.q.QueryRow(ctx, `
		INSERT INTO orders(cus_id, total_price, shipping_cost, grand_total, order_status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING order_id`,
		o.CustomerID, o.TotalPrice, o.ShippingCost, o.GrandTotal, o.Status, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return 0, err
	}

	for i := range items {
		items[i].OrderID = o.ID
		err := s.q.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price)
			VALUES ($1,$2,$3,$4)
			RETURNING orderitem_id`,
			items[i].OrderID, items[i].ProductID, items[i].Qty, items[i].Price,
		).Scan(&items[i].ID)
		if err != nil {
			return 0, err
		}
	}
	return o.ID, nil
}

func (s *orderStore) GetByID(ctx context.Context, id int64) (*market.Order, error) {
	var o market.Order
	err := s.q.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, id,
	).Scan(&o.ID, &o.CustomerID, &o.TotalPrice, &o.ShippingCost, &o.GrandTotal, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", market.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *orderStore) ListAll(ctx context.Context) ([]market.Order, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY order_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Order
	for rows.Next() {
		var o market.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalPrice, &o.ShippingCost,
			&o.GrandTotal, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *orderStore) ListItemsByOrder(ctx context.Context, orderID int64) ([]market.OrderItem, error) {
	rows, err := s.q.Query(ctx, `
		SELECT orderitem_id, order_id, product_id, qty, price
		FROM order_items WHERE order_id=$1 ORDER BY orderitem_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.OrderItem
	for rows.Next() {
		var it market.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.Price); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *orderStore) SetStatus(ctx context.Context, orderID int64, status market.Status) error {
	ct, err := s.q.Exec(ctx,
		`UPDATE orders SET order_status=$2 WHERE order_id=$1`, orderID, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", market.ErrNotFound, orderID)
	}
	return nil
}
