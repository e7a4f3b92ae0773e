package market

import "time"

// Monetary amounts are integer minor currency units throughout.

type ProductStatus string

const (
	ProductAvailable ProductStatus = "available"
	ProductReserved  ProductStatus = "reserved"
	ProductSold      ProductStatus = "sold"
)

type Product struct {
	ID          int64         `json:"product_id"`
	Name        string        `json:"pname"`
	Price       *int64        `json:"price"` // nil until the seller prices it
	Brand       string        `json:"brand"`
	Description string        `json:"description"`
	CategoryID  int64         `json:"category_id"`
	SellerID    int64         `json:"seller_id"`
	Tags        string        `json:"tags"`
	Status      ProductStatus `json:"product_status"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Order struct {
	ID           int64     `json:"order_id"`
	CustomerID   int64     `json:"cus_id"`
	TotalPrice   int64     `json:"total_price"`
	ShippingCost int64     `json:"shipping_cost"`
	GrandTotal   int64     `json:"grand_total"`
	Status       Status    `json:"order_status"` // see status.go
	CreatedAt    time.Time `json:"created_at"`
}

type OrderItem struct {
	ID        int64 `json:"orderitem_id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
	Price     int64 `json:"price"` // unit price snapshot, set once at order time
}

// OrderLine is an OrderItem joined with product display fields at read time.
type OrderLine struct {
	OrderItem
	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	Subtotal    int64  `json:"subtotal"`
}

// OrderDetail is the full order view returned by CreateOrder and GetOrder.
type OrderDetail struct {
	Order
	Items []OrderLine `json:"items"`
}

type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodQRCode       PaymentMethod = "qr_code"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCreditCard, MethodQRCode, MethodBankTransfer:
		return true
	}
	return false
}

type Payment struct {
	ID            int64         `json:"payment_id"`
	OrderID       int64         `json:"order_id"`
	Method        PaymentMethod `json:"payment_method"`
	Amount        int64         `json:"payment_amount"`
	Status        string        `json:"payment_status"`
	Date          string        `json:"payment_date"`
	TransactionNo string        `json:"transaction_no"`
}

type Customer struct {
	ID       int64  `json:"customer_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"customer_phone"`
}

type Seller struct {
	ID                 int64  `json:"seller_id"`
	Name               string `json:"seller_name"`
	Email              string `json:"email"`
	Phone              string `json:"seller_phone"`
	StoreName          string `json:"store_name"`
	VerificationStatus string `json:"verification_status"`
}

type Category struct {
	ID   int64  `json:"category_id"`
	Name string `json:"category_name"`
}
