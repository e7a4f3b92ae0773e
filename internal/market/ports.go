package market

import "context"

// ProductStore holds the catalog. The workflow engine only ever mutates a
// product's status, and only via CompareAndSetStatus.
type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	// CompareAndSetStatus writes next only if the stored status equals
	// expected. A false return signals a lost race, not a storage error.
	CompareAndSetStatus(ctx context.Context, id int64, expected, next ProductStatus) (bool, error)
	Create(ctx context.Context, p *Product) (int64, error)
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context) ([]Product, error)
	Search(ctx context.Context, q ProductSearch) (*ProductPage, error)
}

type OrderStore interface {
	// Create persists the order and its items atomically within the
	// caller's transaction, filling generated IDs.
	Create(ctx context.Context, o *Order, items []OrderItem) (int64, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListItemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error)
	SetStatus(ctx context.Context, orderID int64, s Status) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *Payment) (int64, error)
	GetByID(ctx context.Context, id int64) (*Payment, error)
	ListAll(ctx context.Context) ([]Payment, error)
}

type CustomerStore interface {
	// Create fails with ErrInvalidInput if the email is already registered.
	Create(ctx context.Context, c *Customer) (int64, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	ListAll(ctx context.Context) ([]Customer, error)
}

type SellerStore interface {
	Create(ctx context.Context, s *Seller) (int64, error)
	GetByID(ctx context.Context, id int64) (*Seller, error)
	ListAll(ctx context.Context) ([]Seller, error)
}

// Stores is one consistent view over all collections, either a live
// connection or a single transaction.
type Stores interface {
	Products() ProductStore
	Orders() OrderStore
	Payments() PaymentStore
	Customers() CustomerStore
	Sellers() SellerStore
}

// Store is the persistence entrypoint. RunTx runs fn inside one transaction;
// any error (or panic) rolls the whole transaction back.
type Store interface {
	Stores
	RunTx(ctx context.Context, fn func(tx Stores) error) error
}

// EventPublisher emits order-lifecycle events after commit. Publishing is
// best-effort and must never fail the operation that triggered it.
type EventPublisher interface {
	Publish(ctx context.Context, e Envelope)
}
