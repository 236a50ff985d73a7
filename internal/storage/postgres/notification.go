package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/lumine-checkout/internal/domain/notification"
)

const upsertNotificationSQL = `INSERT INTO admin_notifications
	(order_id, title, body, total, customer_name, read)
	VALUES ($1, $2, $3, $4, $5, FALSE)
	ON CONFLICT (order_id) DO UPDATE SET
		title = EXCLUDED.title,
		body = EXCLUDED.body,
		total = EXCLUDED.total,
		customer_name = EXCLUDED.customer_name,
		updated_at = now()`

var _ notification.Upserter = (*NotificationRepository)(nil)

// NotificationRepository implements notification.Upserter backed by
// PostgreSQL. The upsert keyed on order id makes repeated delivery of the
// same order's notification idempotent; the read flag survives updates.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a NotificationRepository that uses the
// given pool.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Upsert creates or merge-updates the admin notification for an order.
func (r *NotificationRepository) Upsert(ctx context.Context, n notification.Notification) error {
	_, err := r.pool.Exec(ctx, upsertNotificationSQL,
		n.OrderID, n.Title, n.Body, n.Total, n.CustomerName,
	)
	if err != nil {
		return fmt.Errorf("upserting notification for order %q: %w", n.OrderID, err)
	}
	return nil
}
