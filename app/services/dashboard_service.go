package services

import (
	"time"

	"KopiPos/app/models"
)

// DashboardService aggregates the back-office daily summary.
type DashboardService struct {
	*BaseService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService() *DashboardService {
	return &DashboardService{BaseService: NewBaseService()}
}

// TodaySummary aggregates today's orders in UTC.
func (s *DashboardService) TodaySummary() (*models.DashboardSummary, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.SummaryFor(start)
}

// SummaryFor aggregates the business day starting at dayStart (UTC midnight).
// Revenue counts completed orders only; open tickets are tickets not yet
// ready on orders still pending.
func (s *DashboardService) SummaryFor(dayStart time.Time) (*models.DashboardSummary, error) {
	dayEnd := dayStart.Add(24 * time.Hour)

	summary := &models.DashboardSummary{
		Date: dayStart.Format("2006-01-02"),
	}

	if err := s.db.Model(&models.Order{}).
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		Count(&summary.TotalOrders).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status models.OrderStatus
		N      int64
	}
	var counts []statusCount
	if err := s.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		switch c.Status {
		case models.OrderStatusPending:
			summary.PendingOrders = c.N
		case models.OrderStatusCompleted:
			summary.CompletedOrders = c.N
		case models.OrderStatusCancelled:
			summary.CancelledOrders = c.N
		}
	}

	if err := s.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("date >= ? AND date < ? AND status = ?", dayStart, dayEnd, models.OrderStatusCompleted).
		Scan(&summary.Revenue).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.KdsTicket{}).
		Joins("JOIN orders ON orders.id = kds_tickets.order_id").
		Where("orders.date >= ? AND orders.date < ?", dayStart, dayEnd).
		Where("orders.status = ?", models.OrderStatusPending).
		Where("kds_tickets.status <> ?", models.TicketStatusReady).
		Count(&summary.OpenTickets).Error; err != nil {
		return nil, err
	}

	return summary, nil
}
