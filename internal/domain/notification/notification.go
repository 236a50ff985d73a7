// Package notification carries the admin-facing order notification written
// after a checkout commits. The upsert is idempotent per order id and is
// strictly best-effort: it never blocks or rolls back an order.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Notification summarizes a freshly placed order for the admin inbox.
type Notification struct {
	OrderID      string
	Title        string
	Body         string
	Total        decimal.Decimal
	CustomerName string
	Read         bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// NewOrderNotification builds the summary for a placed order.
func NewOrderNotification(orderID string, total decimal.Decimal, customerName string) Notification {
	if customerName == "" {
		customerName = "Customer"
	}
	return Notification{
		OrderID:      orderID,
		Title:        "New order received",
		Body:         fmt.Sprintf("Order #%s placed by %s.", orderID, customerName),
		Total:        total,
		CustomerName: customerName,
	}
}

// Upserter persists notifications. Upsert creates the notification on first
// sight (unread) and merge-updates the summary fields on subsequent sight,
// bumping the updated-at marker. It never deletes.
type Upserter interface {
	Upsert(ctx context.Context, n Notification) error
}
