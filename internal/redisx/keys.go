package redisx

import "time"

const (
	// Cache of an order's current status: order_status:{order_id} -> JSON
	KeyOrderStatus = "order_status:%d"
)

var (
	TTLStatusCache = 5 * time.Minute
)
