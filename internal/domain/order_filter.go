package domain

import "time"

// OrderFilter represents filtering options for listing orders.
type OrderFilter struct {
	// Search is matched as a case-sensitive substring against the purchase
	// order id, customer id, customer location, fulfilled-by id and
	// fulfilled-by location (a row matches when any field contains it).
	Search string
	// From includes orders on or after that calendar day.
	From *time.Time
	// To includes orders up to and including that calendar day, regardless
	// of time-of-day component.
	To *time.Time
}

// PagedResult wraps one page of a filtered listing together with the total
// match count before pagination.
type PagedResult[T any] struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
	Items    []T `json:"items"`
}
