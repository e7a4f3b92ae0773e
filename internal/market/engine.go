package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultShippingCost int64 = 50

type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type CreateOrderInput struct {
	CustomerID   int64       `json:"cus_id"`
	Items        []ItemInput `json:"items"`
	ShippingCost int64       `json:"shipping_cost"`
}

type RecordPaymentInput struct {
	OrderID       int64         `json:"order_id"`
	Method        PaymentMethod `json:"payment_method"`
	Amount        int64         `json:"payment_amount"`
	Status        string        `json:"payment_status"`
	Date          string        `json:"payment_date"`
	TransactionNo string        `json:"transaction_no"`
}

// Engine drives the order workflow: transactional order creation, the order
// status machine, cancellation compensation, and payment recording.
type Engine struct {
	store   Store
	events  EventPublisher
	log     *zap.Logger
	service string
	now     func() time.Time
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Envelope) {}

func NewEngine(store Store, events EventPublisher, log *zap.Logger, service string) *Engine {
	if events == nil {
		events = nopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, events: events, log: log, service: service, now: time.Now}
}

// CreateOrder validates and prices the requested items, persists the order
// with its line items, and claims every referenced product, all inside one
// transaction. Any failure rolls back the whole order.
func (e *Engine) CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderDetail, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order must have at least one item", ErrInvalidInput)
	}
	for _, it := range in.Items {
		if it.Qty <= 0 {
			return nil, fmt.Errorf("%w: qty must be greater than zero for product %d", ErrInvalidInput, it.ProductID)
		}
	}
	if in.ShippingCost < 0 {
		return nil, fmt.Errorf("%w: shipping_cost must be >= 0", ErrInvalidInput)
	}

	var detail *OrderDetail
	err := e.store.RunTx(ctx, func(tx Stores) error {
		lines := make([]OrderLine, 0, len(in.Items))
		productIDs := make([]int64, 0, len(in.Items))
		seen := make(map[int64]bool, len(in.Items))
		var total int64

		for _, it := range in.Items {
			p, err := tx.Products().GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p.Status != ProductAvailable {
				return fmt.Errorf("%w: product %d is %s", ErrInvalidState, p.ID, p.Status)
			}
			if p.Price == nil || *p.Price <= 0 {
				return fmt.Errorf("%w: product %d has no valid price", ErrInvalidState, p.ID)
			}

			// Snapshot the unit price now; later product edits must not
			// touch historical orders.
			unit := *p.Price
			subtotal := unit * int64(it.Qty)
			total += subtotal
			lines = append(lines, OrderLine{
				OrderItem:   OrderItem{ProductID: p.ID, Qty: it.Qty, Price: unit},
				ProductName: p.Name,
				Brand:       p.Brand,
				Subtotal:    subtotal,
			})
			if !seen[p.ID] {
				seen[p.ID] = true
				productIDs = append(productIDs, p.ID)
			}
		}

		order := &Order{
			CustomerID:   in.CustomerID,
			TotalPrice:   total,
			ShippingCost: in.ShippingCost,
			GrandTotal:   total + in.ShippingCost,
			Status:       StatusPending,
			CreatedAt:    e.now().UTC(),
		}
		items := make([]OrderItem, len(lines))
		for i := range lines {
			items[i] = lines[i].OrderItem
		}
		if _, err := tx.Orders().Create(ctx, order, items); err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderItem = items[i]
		}

		// Claim every product. The compare against "available" is the race
		// guard: a concurrent order that got there first makes this miss.
		for _, pid := range productIDs {
			ok, err := tx.Products().CompareAndSetStatus(ctx, pid, ProductAvailable, ProductSold)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: product %d was claimed by another order", ErrConflict, pid)
			}
		}

		detail = &OrderDetail{Order: *order, Items: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order created",
		zap.Int64("order_id", detail.ID),
		zap.Int64("cus_id", detail.CustomerID),
		zap.Int64("grand_total", detail.GrandTotal),
		zap.Int("items", len(detail.Items)))
	items := make([]OrderItem, len(detail.Items))
	for i := range detail.Items {
		items[i] = detail.Items[i].OrderItem
	}
	e.publish(ctx, EventOrderCreated, detail.ID, OrderCreatedPayload{
		OrderID:    detail.ID,
		CustomerID: detail.CustomerID,
		Items:      items,
		GrandTotal: detail.GrandTotal,
	})
	return detail, nil
}

// GetOrder returns the order with its line items, each annotated with the
// current product name and brand. The join happens at read time; a product
// deleted since the order keeps empty display fields.
func (e *Engine) GetOrder(ctx context.Context, orderID int64) (*OrderDetail, error) {
	o, err := e.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := e.store.Orders().ListItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines := make([]OrderLine, 0, len(items))
	for _, it := range items {
		line := OrderLine{OrderItem: it, Subtotal: it.Price * int64(it.Qty)}
		if p, err := e.store.Products().GetByID(ctx, it.ProductID); err == nil {
			line.ProductName = p.Name
			line.Brand = p.Brand
		}
		lines = append(lines, line)
	}
	return &OrderDetail{Order: *o, Items: lines}, nil
}

func (e *Engine) ListOrders(ctx context.Context) ([]Order, error) {
	return e.store.Orders().ListAll(ctx)
}

// CancelOrder flips the order to cancelled and releases its products back to
// available. Cancelling an already-cancelled order is a successful no-op.
func (e *Engine) CancelOrder(ctx context.Context, orderID int64) (*Order, error) {
	var out *Order
	var released []int64
	alreadyCancelled := false

	err := e.store.RunTx(ctx, func(tx Stores) error {
		o, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == StatusCancelled {
			alreadyCancelled = true
			out = o
			return nil
		}
		if err := tx.Orders().SetStatus(ctx, orderID, StatusCancelled); err != nil {
			return err
		}
		items, err := tx.Orders().ListItemsByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		// Best-effort compensation: a product raced away or deleted since
		// the order must not block the cancellation.
		for _, it := range items {
			ok, err := tx.Products().CompareAndSetStatus(ctx, it.ProductID, ProductSold, ProductAvailable)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			if ok {
				released = append(released, it.ProductID)
			}
		}
		o.Status = StatusCancelled
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyCancelled {
		return out, nil
	}

	e.log.Info("order cancelled",
		zap.Int64("order_id", orderID),
		zap.Int("products_released", len(released)))
	e.publish(ctx, EventOrderCancelled, orderID, OrderCancelledPayload{
		OrderID:    orderID,
		ProductIDs: released,
	})
	return out, nil
}

// SetOrderStatus applies a status transition per the transition table.
func (e *Engine) SetOrderStatus(ctx context.Context, orderID int64, next Status) (*Order, error) {
	if !ValidStatus(next) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, next)
	}
	var out *Order
	var from Status
	err := e.store.RunTx(ctx, func(tx Stores) error {
		o, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
		}
		if err := tx.Orders().SetStatus(ctx, orderID, next); err != nil {
			return err
		}
		from = o.Status
		o.Status = next
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(next)))
	e.publish(ctx, EventOrderStatusChanged, orderID, OrderStatusChangedPayload{
		OrderID: orderID,
		From:    from,
		To:      next,
	})
	return out, nil
}

// RecordPayment persists a payment attempt and marks the order paid in the
// same transaction. Payment recording is a trusted status update, not
// settlement. A cancelled order cannot be marked paid.
func (e *Engine) RecordPayment(ctx context.Context, in RecordPaymentInput) (*Payment, error) {
	if !ValidPaymentMethod(in.Method) {
		return nil, fmt.Errorf("%w: payment method %q is not allowed", ErrInvalidInput, in.Method)
	}
	var out *Payment
	err := e.store.RunTx(ctx, func(tx Stores) error {
		o, err := tx.Orders().GetByID(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o.Status == StatusCancelled {
			return fmt.Errorf("%w: order %d is cancelled", ErrInvalidTransition, in.OrderID)
		}
		p := &Payment{
			OrderID:       in.OrderID,
			Method:        in.Method,
			Amount:        in.Amount,
			Status:        in.Status,
			Date:          in.Date,
			TransactionNo: in.TransactionNo,
		}
		if _, err := tx.Payments().Create(ctx, p); err != nil {
			return err
		}
		if err := tx.Orders().SetStatus(ctx, in.OrderID, StatusPaid); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("payment recorded",
		zap.Int64("order_id", in.OrderID),
		zap.Int64("payment_id", out.ID),
		zap.String("method", string(in.Method)))
	e.publish(ctx, EventPaymentRecorded, in.OrderID, PaymentRecordedPayload{
		OrderID:   in.OrderID,
		PaymentID: out.ID,
		Method:    in.Method,
		Amount:    in.Amount,
	})
	return out, nil
}

func (e *Engine) GetPayment(ctx context.Context, paymentID int64) (*Payment, error) {
	return e.store.Payments().GetByID(ctx, paymentID)
}

func (e *Engine) ListPayments(ctx context.Context) ([]Payment, error) {
	return e.store.Payments().ListAll(ctx)
}

func (e *Engine) publish(ctx context.Context, eventType string, orderID int64, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		e.log.Error("marshal event payload", zap.String("event", eventType), zap.Error(err))
		return
	}
	e.events.Publish(ctx, Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    e.now().UTC(),
		Producer:      e.service,
		CorrelationID: string(PartitionKey(orderID)),
		Payload:       b,
	})
}
