//go:build integration

package integration

// Admin notifications are not exposed over HTTP, so the delivery upsert is
// exercised through the storage layer against the compose database. This is
// the one place the suite imports internal packages.

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/lumine-checkout/internal/domain/notification"
	"github.com/xenking/lumine-checkout/internal/storage/postgres"
)

func TestNotificationUpsert_SecondDeliveryMerges(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewNotificationRepository(pool)
	const orderID = "5d6a0c4e-0000-4000-8000-1f2e3d4c5b6a"

	first := notification.NewOrderNotification(orderID, decimal.NewFromInt(750), "First Customer")
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// An admin marks the notification read between deliveries; a repeat
	// delivery must not resurface it.
	if _, err := pool.Exec(ctx,
		`UPDATE admin_notifications SET read = TRUE WHERE order_id = $1`, orderID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	second := notification.NewOrderNotification(orderID, decimal.NewFromInt(800), "Renamed Customer")
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM admin_notifications WHERE order_id = $1`, orderID).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows for order: got %d, want 1", count)
	}

	var (
		read      bool
		customer  string
		total     decimal.Decimal
		updatedAt *time.Time
	)
	err = pool.QueryRow(ctx,
		`SELECT read, customer_name, total, updated_at FROM admin_notifications WHERE order_id = $1`,
		orderID).Scan(&read, &customer, &total, &updatedAt)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if !read {
		t.Error("read flag was reset by the second delivery")
	}
	if customer != "Renamed Customer" {
		t.Errorf("customer: got %q, want the merged value", customer)
	}
	if !total.Equal(decimal.NewFromInt(800)) {
		t.Errorf("total: got %s, want 800", total)
	}
	if updatedAt == nil {
		t.Error("updated_at was not bumped by the second delivery")
	}
}
