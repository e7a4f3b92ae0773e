package market

import "strconv"

const (
	TopicOrderCreated   = "market.order.created"
	TopicOrderCancelled = "market.order.cancelled"
	TopicOrderStatus    = "market.order.status"
	TopicPayment        = "market.order.payment"
)

// Partition key = order_id so that all events for one order stay ordered.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
