package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/preloved/marketplace/internal/market"
)

type productStore struct{ q querier }

const productColumns = `product_id, pname, price, brand, description, category_id, seller_id, tags, product_status, created_at`

func scanProduct(row pgx.Row) (*market.Product, error) {
	var p market.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Brand, &p.Description,
		&p.CategoryID, &p.SellerID, &p.Tags, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *productStore) GetByID(ctx context.Context, id int64) (*market.Product, error) {
	p, err := scanProduct(s.q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: product %d", market.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productStore) CompareAndSetStatus(ctx context.Context, id int64, expected, next market.ProductStatus) (bool, error) {
	ct, err := s.q.Exec(ctx,
		`UPDATE products SET product_status=$3 WHERE product_id=$1 AND product_status=$2`,
		id, expected, next)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}
	// 0 rows: mismatch or missing row. Tell them apart for the caller.
	var one int
	err = s.q.QueryRow(ctx, `SELECT 1 FROM products WHERE product_id=$1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("%w: product %d", market.ErrNotFound, id)
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s *productStore) Create(ctx context.Context, p *market.Product) (int64, error) {
	if p.Status == "" {
		p.Status = market.ProductAvailable
	}
	err := s.q.QueryRow(ctx, `
		INSERT INTO products(pname, price, brand, description, category_id, seller_id, tags, product_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING product_id, created_at`,
		p.Name, p.Price, p.Brand, p.Description, p.CategoryID, p.SellerID, p.Tags, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *productStore) Update(ctx context.Context, p *market.Product) error {
	ct, err := s.q.Exec(ctx, `
		UPDATE products
		SET pname=$2, price=$3, brand=$4, description=$5, category_id=$6, seller_id=$7, tags=$8, product_status=$9
		WHERE product_id=$1`,
		p.ID, p.Name, p.Price, p.Brand, p.Description, p.CategoryID, p.SellerID, p.Tags, p.Status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", market.ErrNotFound, p.ID)
	}
	return nil
}

func (s *productStore) List(ctx context.Context) ([]market.Product, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Search builds the filter clause the same way the order repo builds its IN
// list: positional params appended per condition.
func (s *productStore) Search(ctx context.Context, q market.ProductSearch) (*market.ProductPage, error) {
	var conds []string
	var args []any

	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
		}
		conds = append(conds, cond)
	}

	conds = append(conds, `product_status='available'`)
	if q.Query != "" {
		n := len(args) + 1
		add(fmt.Sprintf(`(pname ILIKE $%d OR brand ILIKE $%d OR description ILIKE $%d)`, n, n, n),
			"%"+q.Query+"%")
	}
	if q.CategoryID != 0 {
		add(fmt.Sprintf(`category_id=$%d`, len(args)+1), q.CategoryID)
	}
	if q.Brand != "" {
		add(fmt.Sprintf(`brand ILIKE $%d`, len(args)+1), "%"+q.Brand+"%")
	}
	if len(q.Tags) > 0 {
		tagConds := make([]string, 0, len(q.Tags))
		for _, tag := range q.Tags {
			tagConds = append(tagConds, fmt.Sprintf(`tags ILIKE $%d`, len(args)+1))
			args = append(args, "%"+tag+"%")
		}
		conds = append(conds, `(`+strings.Join(tagConds, ` OR `)+`)`)
	}
	if q.MinPrice != nil {
		add(fmt.Sprintf(`price >= $%d`, len(args)+1), *q.MinPrice)
	}
	if q.MaxPrice != nil {
		add(fmt.Sprintf(`price <= $%d`, len(args)+1), *q.MaxPrice)
	}

	where := strings.Join(conds, ` AND `)

	var orderBy string
	switch q.SortBy {
	case market.SortPriceLow:
		orderBy = `price ASC`
	case market.SortPriceHigh:
		orderBy = `price DESC`
	case market.SortOldest:
		orderBy = `product_id ASC`
	default:
		orderBy = `product_id DESC`
	}

	var total int
	if err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	offset := (q.Page - 1) * q.PageSize
	limitArgs := append(args, q.PageSize, offset)
	rows, err := s.q.Query(ctx, fmt.Sprintf(
		`SELECT `+productColumns+` FROM products WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, orderBy, len(args)+1, len(args)+2), limitArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	return &market.ProductPage{
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
		Products:   products,
	}, nil
}

func collectProducts(rows pgx.Rows) ([]market.Product, error) {
	var out []market.Product
	for rows.Next() {
		var p market.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Brand, &p.Description,
			&p.CategoryID, &p.SellerID, &p.Tags, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
