package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/preloved/marketplace/internal/market"
)

type paymentStore struct{ q querier }

const paymentColumns = `payment_id, order_id, payment_method, payment_amount, payment_status, payment_date, transaction_no`

func (s *paymentStore) Create(ctx context.Context, p *market.Payment) (int64, error) {
	err := s.q.QueryRow(ctx, `
		INSERT INTO payments(order_id, payment_method, payment_amount, payment_status, payment_date, transaction_no)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING payment_id`,
		p.OrderID, p.Method, p.Amount, p.Status, p.Date, p.TransactionNo,
	).Scan(&p.ID)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *paymentStore) GetByID(ctx context.Context, id int64) (*market.Payment, error) {
	var p market.Payment
	err := s.q.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id=$1`, id,
	).Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status, &p.Date, &p.TransactionNo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %d", market.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *paymentStore) ListAll(ctx context.Context) ([]market.Payment, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY payment_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Payment
	for rows.Next() {
		var p market.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status, &p.Date, &p.TransactionNo); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
