package domain

import "time"

// OrderFilter narrows the admin order listing. Zero fields do not filter.
type OrderFilter struct {
	Status OrderStatus
	// Query matches order id, tracking number, customer email or name.
	Query string
	From  time.Time
	To    time.Time
}

// BulkFailure why one order of a bulk update was left unchanged.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult outcome of a bulk status change. Unchanged lists orders that
// already had the requested status.
type BulkResult struct {
	Updated   []string      `json:"updated"`
	Unchanged []string      `json:"unchanged"`
	Failed    []BulkFailure `json:"failed"`
}

// OrderStats dashboard counters. Revenue excludes cancelled and refunded orders.
type OrderStats struct {
	Counts  map[OrderStatus]int `json:"counts"`
	Total   int                 `json:"total"`
	Revenue int                 `json:"revenue"`
}
