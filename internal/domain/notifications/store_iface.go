package notifications

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error
	EmployeeRecipients(ctx context.Context, tenantID, employeeID string) ([]Recipient, error)
	AdminRecipients(ctx context.Context, tenantID string) ([]Recipient, error)
	ListNotifications(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, tenantID, userID string) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
	MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error)
	EmailSettings(ctx context.Context, tenantID string) (Settings, error)
	UpdateSettings(ctx context.Context, tenantID string, settings Settings) error
	PurgeRead(ctx context.Context, tenantID string, cutoff time.Time) (int64, error)
}
