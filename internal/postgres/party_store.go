package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/preloved/marketplace/internal/market"
)

type customerStore struct{ q querier }

func (s *customerStore) Create(ctx context.Context, c *market.Customer) (int64, error) {
	err := s.q.QueryRow(ctx, `
		INSERT INTO customers(username, email, customer_phone)
		VALUES ($1,$2,$3)
		RETURNING customer_id`,
		c.Username, c.Email, c.Phone,
	).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return 0, fmt.Errorf("%w: email already exists", market.ErrInvalidInput)
		}
		return 0, err
	}
	return c.ID, nil
}

func (s *customerStore) GetByID(ctx context.Context, id int64) (*market.Customer, error) {
	var c market.Customer
	err := s.q.QueryRow(ctx,
		`SELECT customer_id, username, email, customer_phone FROM customers WHERE customer_id=$1`, id,
	).Scan(&c.ID, &c.Username, &c.Email, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: customer %d", market.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *customerStore) ListAll(ctx context.Context) ([]market.Customer, error) {
	rows, err := s.q.Query(ctx,
		`SELECT customer_id, username, email, customer_phone FROM customers ORDER BY customer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Customer
	for rows.Next() {
		var c market.Customer
		if err := rows.Scan(&c.ID, &c.Username, &c.Email, &c.Phone); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type sellerStore struct{ q querier }

func (s *sellerStore) Create(ctx context.Context, sl *market.Seller) (int64, error) {
	err := s.q.QueryRow(ctx, `
		INSERT INTO sellers(seller_name, email, seller_phone, store_name, verification_status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING seller_id`,
		sl.Name, sl.Email, sl.Phone, sl.StoreName, sl.VerificationStatus,
	).Scan(&sl.ID)
	if err != nil {
		return 0, err
	}
	return sl.ID, nil
}

func (s *sellerStore) GetByID(ctx context.Context, id int64) (*market.Seller, error) {
	var sl market.Seller
	err := s.q.QueryRow(ctx, `
		SELECT seller_id, seller_name, email, seller_phone, store_name, verification_status
		FROM sellers WHERE seller_id=$1`, id,
	).Scan(&sl.ID, &sl.Name, &sl.Email, &sl.Phone, &sl.StoreName, &sl.VerificationStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: seller %d", market.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &sl, nil
}

func (s *sellerStore) ListAll(ctx context.Context) ([]market.Seller, error) {
	rows, err := s.q.Query(ctx, `
		SELECT seller_id, seller_name, email, seller_phone, store_name, verification_status
		FROM sellers ORDER BY seller_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Seller
	for rows.Next() {
		var sl market.Seller
		if err := rows.Scan(&sl.ID, &sl.Name, &sl.Email, &sl.Phone, &sl.StoreName, &sl.VerificationStatus); err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}
