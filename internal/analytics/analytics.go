// Package analytics derives summary figures from a set of orders.
package analytics

import (
	"math"

	"orderdesk/internal/models"

	"github.com/shopspring/decimal"
)

// Summarize counts orders by the statuses the dashboard shows and sums their
// totals. It keeps no state between calls; callers re-run it on the current
// order set.
func Summarize(orders []models.Order) models.AnalyticsSnapshot {
	var snap models.AnalyticsSnapshot
	revenue := decimal.Zero

	for _, o := range orders {
		snap.TotalOrders++
		switch o.DeliveryStatus {
		case models.StatusDelivered:
			snap.DeliveredOrders++
		case models.StatusPending:
			snap.PendingOrders++
		}
		if math.IsNaN(o.TotalPrice) || math.IsInf(o.TotalPrice, 0) {
			continue
		}
		revenue = revenue.Add(decimal.NewFromFloat(o.TotalPrice))
	}

	snap.Revenue = revenue.Round(2).InexactFloat64()
	return snap
}

// CountByStatus returns the number of orders in every known status, including
// statuses with no orders.
func CountByStatus(orders []models.Order) map[models.DeliveryStatus]int {
	counts := make(map[models.DeliveryStatus]int, len(models.DeliveryStatuses))
	for _, s := range models.DeliveryStatuses {
		counts[s] = 0
	}
	for _, o := range orders {
		counts[o.DeliveryStatus]++
	}
	return counts
}
