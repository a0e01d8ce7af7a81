package notifications

import (
	"errors"
	"time"
)

// Notification types stored in the type column.
const (
	TypeLeaveRequested   = "leave_requested"
	TypeLeaveApproved    = "leave_approved"
	TypeLeaveRejected    = "leave_rejected"
	TypeLeaveCancelled   = "leave_cancelled"
	TypePayslipPublished = "payslip_published"
)

// Read notifications older than the retention window are purged. The window
// never drops below MinRetentionDays.
const (
	DefaultRetentionDays = 90
	MinRetentionDays     = 7

	JobRetention = "notification_retention"
)

var ErrNotFound = errors.New("notification not found")

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Recipient is an active user account that receives notifications.
type Recipient struct {
	UserID string
	Email  string
}

type Settings struct {
	EmailEnabled bool   `json:"emailEnabled"`
	EmailFrom    string `json:"emailFrom"`
}

var (
	ErrInvalidSender     = errors.New("invalid sender address")
	ErrRetentionTooShort = errors.New("retention must be at least 7 days")
)
