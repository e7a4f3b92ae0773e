// Package memory implements the market store contracts on plain maps. It
// backs the engine and handler tests and keeps full transaction semantics:
// RunTx snapshots the state and restores it when fn fails.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/preloved/marketplace/internal/market"
)

type state struct {
	products  map[int64]market.Product
	orders    map[int64]market.Order
	items     map[int64]market.OrderItem
	payments  map[int64]market.Payment
	customers map[int64]market.Customer
	sellers   map[int64]market.Seller

	nextProduct  int64
	nextOrder    int64
	nextItem     int64
	nextPayment  int64
	nextCustomer int64
	nextSeller   int64
}

func newState() *state {
	return &state{
		products:  map[int64]market.Product{},
		orders:    map[int64]market.Order{},
		items:     map[int64]market.OrderItem{},
		payments:  map[int64]market.Payment{},
		customers: map[int64]market.Customer{},
		sellers:   map[int64]market.Seller{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.sellers {
		c.sellers[k] = v
	}
	c.nextProduct = s.nextProduct
	c.nextOrder = s.nextOrder
	c.nextItem = s.nextItem
	c.nextPayment = s.nextPayment
	c.nextCustomer = s.nextCustomer
	c.nextSeller = s.nextSeller
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// RunTx serializes transactions with one store-wide lock; fn works on a copy
// that only replaces the live state on success.
func (s *Store) RunTx(ctx context.Context, fn func(tx market.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&view{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// DeleteProduct removes a product row outright. The workflow never deletes
// products; this supports seeding and teardown.
func (s *Store) DeleteProduct(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.products, id)
}

func (s *Store) Products() market.ProductStore   { return &productStore{s: s} }
func (s *Store) Orders() market.OrderStore       { return &orderStore{s: s} }
func (s *Store) Payments() market.PaymentStore   { return &paymentStore{s: s} }
func (s *Store) Customers() market.CustomerStore { return &customerStore{s: s} }
func (s *Store) Sellers() market.SellerStore     { return &sellerStore{s: s} }

// view is the tx-scoped Stores over an uncommitted state copy. The store
// lock is already held, so accessors work on st directly.
type view struct{ st *state }

func (v *view) Products() market.ProductStore   { return &productStore{st: v.st} }
func (v *view) Orders() market.OrderStore       { return &orderStore{st: v.st} }
func (v *view) Payments() market.PaymentStore   { return &paymentStore{st: v.st} }
func (v *view) Customers() market.CustomerStore { return &customerStore{st: v.st} }
func (v *view) Sellers() market.SellerStore     { return &sellerStore{st: v.st} }

// each sub-store carries either a live *Store (locks per call) or a
// tx-scoped *state.

type productStore struct {
	s  *Store
	st *state
}

func (p *productStore) run(fn func(st *state) error) error {
	if p.st != nil {
		return fn(p.st)
	}
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return fn(p.s.st)
}

func (p *productStore) GetByID(ctx context.Context, id int64) (*market.Product, error) {
	var out market.Product
	err := p.run(func(st *state) error {
		pr, ok := st.products[id]
		if !ok {
			return fmt.Errorf("%w: product %d", market.ErrNotFound, id)
		}
		out = pr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *productStore) CompareAndSetStatus(ctx context.Context, id int64, expected, next market.ProductStatus) (bool, error) {
	matched := false
	err := p.run(func(st *state) error {
		pr, ok := st.products[id]
		if !ok {
			return fmt.Errorf("%w: product %d", market.ErrNotFound, id)
		}
		if pr.Status != expected {
			return nil
		}
		pr.Status = next
		st.products[id] = pr
		matched = true
		return nil
	})
	return matched, err
}

func (p *productStore) Create(ctx context.Context, in *market.Product) (int64, error) {
	err := p.run(func(st *state) error {
		st.nextProduct++
		in.ID = st.nextProduct
		if in.Status == "" {
			in.Status = market.ProductAvailable
		}
		st.products[in.ID] = *in
		return nil
	})
	return in.ID, err
}

func (p *productStore) Update(ctx context.Context, in *market.Product) error {
	return p.run(func(st *state) error {
		if _, ok := st.products[in.ID]; !ok {
			return fmt.Errorf("%w: product %d", market.ErrNotFound, in.ID)
		}
		st.products[in.ID] = *in
		return nil
	})
}

func (p *productStore) List(ctx context.Context) ([]market.Product, error) {
	var out []market.Product
	err := p.run(func(st *state) error {
		for _, pr := range st.products {
			out = append(out, pr)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (p *productStore) Search(ctx context.Context, q market.ProductSearch) (*market.ProductPage, error) {
	var page *market.ProductPage
	err := p.run(func(st *state) error {
		var hits []market.Product
		for _, pr := range st.products {
			if matches(pr, q) {
				hits = append(hits, pr)
			}
		}
		sortProducts(hits, q.SortBy)

		total := len(hits)
		start := (q.Page - 1) * q.PageSize
		if start > total {
			start = total
		}
		end := start + q.PageSize
		if end > total {
			end = total
		}
		page = &market.ProductPage{
			Total:      total,
			Page:       q.Page,
			PageSize:   q.PageSize,
			TotalPages: (total + q.PageSize - 1) / q.PageSize,
			Products:   hits[start:end],
		}
		return nil
	})
	return page, err
}

func matches(p market.Product, q market.ProductSearch) bool {
	if p.Status != market.ProductAvailable {
		return false
	}
	if q.Query != "" {
		needle := strings.ToLower(q.Query)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Brand), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if q.CategoryID != 0 && p.CategoryID != q.CategoryID {
		return false
	}
	if q.Brand != "" && !strings.Contains(strings.ToLower(p.Brand), strings.ToLower(q.Brand)) {
		return false
	}
	if len(q.Tags) > 0 {
		any := false
		for _, tag := range q.Tags {
			if strings.Contains(strings.ToLower(p.Tags), strings.ToLower(tag)) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if q.MinPrice != nil && (p.Price == nil || *p.Price < *q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && (p.Price == nil || *p.Price > *q.MaxPrice) {
		return false
	}
	return true
}

func sortProducts(ps []market.Product, by market.SortBy) {
	sort.SliceStable(ps, func(i, j int) bool {
		switch by {
		case market.SortPriceLow:
			return priceOf(ps[i]) < priceOf(ps[j])
		case market.SortPriceHigh:
			return priceOf(ps[i]) > priceOf(ps[j])
		case market.SortOldest:
			return ps[i].ID < ps[j].ID
		default: // newest
			return ps[i].ID > ps[j].ID
		}
	})
}

func priceOf(p market.Product) int64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

type orderStore struct {
	s  *Store
	st *state
}

func (o *orderStore) run(fn func(st *state) error) error {
	if o.st != nil {
		return fn(o.st)
	}
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	return fn(o.s.st)
}

func (o *orderStore) Create(ctx context.Context, ord *market.Order, items []market.OrderItem) (int64, error) {
	err := o.run(func(st *state) error {
		st.nextOrder++
		ord.ID = st.nextOrder
		st.orders[ord.ID] = *ord
		for i := range items {
			st.nextItem++
			items[i].ID = st.nextItem
			items[i].OrderID = ord.ID
			st.items[items[i].ID] = items[i]
		}
		return nil
	})
	return ord.ID, err
}

func (o *orderStore) GetByID(ctx context.Context, id int64) (*market.Order, error) {
	var out market.Order
	err := o.run(func(st *state) error {
		ord, ok := st.orders[id]
		if !ok {
			return fmt.Errorf("%w: order %d", market.ErrNotFound, id)
		}
		out = ord
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *orderStore) ListAll(ctx context.Context) ([]market.Order, error) {
	var out []market.Order
	err := o.run(func(st *state) error {
		for _, ord := range st.orders {
			out = append(out, ord)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (o *orderStore) ListItemsByOrder(ctx context.Context, orderID int64) ([]market.OrderItem, error) {
	var out []market.OrderItem
	err := o.run(func(st *state) error {
		for _, it := range st.items {
			if it.OrderID == orderID {
				out = append(out, it)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (o *orderStore) SetStatus(ctx context.Context, orderID int64, s market.Status) error {
	return o.run(func(st *state) error {
		ord, ok := st.orders[orderID]
		if !ok {
			return fmt.Errorf("%w: order %d", market.ErrNotFound, orderID)
		}
		ord.Status = s
		st.orders[orderID] = ord
		return nil
	})
}

type paymentStore struct {
	s  *Store
	st *state
}

func (p *paymentStore) run(fn func(st *state) error) error {
	if p.st != nil {
		return fn(p.st)
	}
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return fn(p.s.st)
}

func (p *paymentStore) Create(ctx context.Context, pay *market.Payment) (int64, error) {
	err := p.run(func(st *state) error {
		st.nextPayment++
		pay.ID = st.nextPayment
		st.payments[pay.ID] = *pay
		return nil
	})
	return pay.ID, err
}

func (p *paymentStore) GetByID(ctx context.Context, id int64) (*market.Payment, error) {
	var out market.Payment
	err := p.run(func(st *state) error {
		pay, ok := st.payments[id]
		if !ok {
			return fmt.Errorf("%w: payment %d", market.ErrNotFound, id)
		}
		out = pay
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *paymentStore) ListAll(ctx context.Context) ([]market.Payment, error) {
	var out []market.Payment
	err := p.run(func(st *state) error {
		for _, pay := range st.payments {
			out = append(out, pay)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

type customerStore struct {
	s  *Store
	st *state
}

func (c *customerStore) run(fn func(st *state) error) error {
	if c.st != nil {
		return fn(c.st)
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return fn(c.s.st)
}

func (c *customerStore) Create(ctx context.Context, in *market.Customer) (int64, error) {
	err := c.run(func(st *state) error {
		for _, existing := range st.customers {
			if existing.Email == in.Email {
				return fmt.Errorf("%w: email already exists", market.ErrInvalidInput)
			}
		}
		st.nextCustomer++
		in.ID = st.nextCustomer
		st.customers[in.ID] = *in
		return nil
	})
	return in.ID, err
}

func (c *customerStore) GetByID(ctx context.Context, id int64) (*market.Customer, error) {
	var out market.Customer
	err := c.run(func(st *state) error {
		cu, ok := st.customers[id]
		if !ok {
			return fmt.Errorf("%w: customer %d", market.ErrNotFound, id)
		}
		out = cu
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *customerStore) ListAll(ctx context.Context) ([]market.Customer, error) {
	var out []market.Customer
	err := c.run(func(st *state) error {
		for _, cu := range st.customers {
			out = append(out, cu)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

type sellerStore struct {
	s  *Store
	st *state
}

func (s *sellerStore) run(fn func(st *state) error) error {
	if s.st != nil {
		return fn(s.st)
	}
	s.s.mu.Lock()
	defer s.s.mu.Unlock()
	return fn(s.s.st)
}

func (s *sellerStore) Create(ctx context.Context, in *market.Seller) (int64, error) {
	err := s.run(func(st *state) error {
		st.nextSeller++
		in.ID = st.nextSeller
		st.sellers[in.ID] = *in
		return nil
	})
	return in.ID, err
}

func (s *sellerStore) GetByID(ctx context.Context, id int64) (*market.Seller, error) {
	var out market.Seller
	err := s.run(func(st *state) error {
		se, ok := st.sellers[id]
		if !ok {
			return fmt.Errorf("%w: seller %d", market.ErrNotFound, id)
		}
		out = se
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *sellerStore) ListAll(ctx context.Context) ([]market.Seller, error) {
	var out []market.Seller
	err := s.run(func(st *state) error {
		for _, se := range st.sellers {
			out = append(out, se)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}
