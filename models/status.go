package models

// AdminOrderStatuses are the statuses an administrator may set
var AdminOrderStatuses = []OrderStatus{
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseAdminOrderStatus returns the status if an administrator may set it
func ParseAdminOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range AdminOrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// ParsePlacedOrderStatus returns the status if it is one of PlacedOrderStatuses
func ParsePlacedOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range PlacedOrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// fulfillmentRank orders the forward path processing -> shipped -> delivered
var fulfillmentRank = map[OrderStatus]int{
	OrderStatusNotOrdered: 0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

// IsForwardTransition reports whether moving from -> to never goes backwards.
// Cancelled is terminal, and a delivered order cannot be cancelled.
// Re-applying the current status counts as forward.
func IsForwardTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	if from == OrderStatusCancelled {
		return false
	}
	if to == OrderStatusCancelled {
		return from != OrderStatusDelivered
	}
	return fulfillmentRank[to] > fulfillmentRank[from]
}
