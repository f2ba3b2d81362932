package models

// DashboardSummary aggregates one business day for the back office.
// Amounts are minor currency units.
type DashboardSummary struct {
	Date            string `json:"date"`
	Revenue         int64  `json:"revenue"` // completed orders only
	TotalOrders     int64  `json:"total_orders"`
	PendingOrders   int64  `json:"pending_orders"`
	CompletedOrders int64  `json:"completed_orders"`
	CancelledOrders int64  `json:"cancelled_orders"`
	OpenTickets     int64  `json:"open_tickets"` // tickets not yet ready on pending orders
}
