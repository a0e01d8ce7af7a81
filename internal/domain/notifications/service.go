package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"timepay/internal/domain/leave"
)

const dateLayout = "02.01.2006"

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
	Now         func() time.Time
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@timepay.local", Now: time.Now}
}

// NotifyEmployee delivers to every active account linked to the employee.
func (s *Service) NotifyEmployee(ctx context.Context, tenantID, employeeID, ntype, title, body string) error {
	recipients, err := s.store.EmployeeRecipients(ctx, tenantID, employeeID)
	if err != nil {
		return err
	}
	return s.deliver(ctx, tenantID, recipients, ntype, title, body)
}

func (s *Service) NotifyAdmins(ctx context.Context, tenantID, ntype, title, body string) error {
	recipients, err := s.store.AdminRecipients(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.deliver(ctx, tenantID, recipients, ntype, title, body)
}

func (s *Service) deliver(ctx context.Context, tenantID string, recipients []Recipient, ntype, title, body string) error {
	if len(recipients) == 0 {
		return nil
	}
	for _, r := range recipients {
		if err := s.store.CreateNotification(ctx, tenantID, r.UserID, ntype, title, body); err != nil {
			return err
		}
	}

	if s.Mailer == nil {
		return nil
	}
	settings, err := s.store.EmailSettings(ctx, tenantID)
	if err != nil {
		slog.Warn("notification settings lookup failed", "tenantId", tenantID, "err", err)
		return nil
	}
	if !settings.EmailEnabled {
		return nil
	}
	from := settings.EmailFrom
	if from == "" {
		from = s.DefaultFrom
	}
	for _, r := range recipients {
		if r.Email == "" {
			continue
		}
		if err := s.Mailer.Send(ctx, from, r.Email, title, body); err != nil {
			slog.Warn("notification email send failed", "userId", r.UserID, "type", ntype, "err", err)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, tenantID, userID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, tenantID, userID string) (int, error) {
	return s.store.CountUnread(ctx, tenantID, userID)
}

func (s *Service) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, tenantID, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, tenantID, userID)
}

func (s *Service) Settings(ctx context.Context, tenantID string) (Settings, error) {
	return s.store.EmailSettings(ctx, tenantID)
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID string, settings Settings) (Settings, error) {
	settings.EmailFrom = strings.TrimSpace(settings.EmailFrom)
	if settings.EmailFrom != "" {
		if _, err := mail.ParseAddress(settings.EmailFrom); err != nil {
			return Settings{}, ErrInvalidSender
		}
	}
	if err := s.store.UpdateSettings(ctx, tenantID, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// PurgeRead removes notifications read more than retentionDays ago. Unread
// notifications are kept regardless of age.
func (s *Service) PurgeRead(ctx context.Context, tenantID string, retentionDays int) (int64, error) {
	if retentionDays < MinRetentionDays {
		return 0, ErrRetentionTooShort
	}
	cutoff := s.Now().AddDate(0, 0, -retentionDays)
	return s.store.PurgeRead(ctx, tenantID, cutoff)
}

// LeaveRequested tells the tenant's admins that a request awaits a decision.
func (s *Service) LeaveRequested(ctx context.Context, req leave.Request, employeeName string) error {
	title := fmt.Sprintf("Neuer Urlaubsantrag von %s", employeeName)
	body := fmt.Sprintf("%s hat Urlaub vom %s bis %s beantragt (%s Tage).",
		employeeName, req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout), req.DayCount.String())
	if req.Reason != "" {
		body += "\nGrund: " + req.Reason
	}
	return s.NotifyAdmins(ctx, req.TenantID, TypeLeaveRequested, title, body)
}

// LeaveDecided tells the employee how their request was decided.
func (s *Service) LeaveDecided(ctx context.Context, req leave.Request) error {
	var ntype, verb string
	switch req.Status {
	case leave.StatusApproved:
		ntype, verb = TypeLeaveApproved, "genehmigt"
	case leave.StatusRejected:
		ntype, verb = TypeLeaveRejected, "abgelehnt"
	case leave.StatusCancelled:
		ntype, verb = TypeLeaveCancelled, "storniert"
	default:
		return nil
	}
	title := "Urlaubsantrag " + verb
	body := fmt.Sprintf("Ihr Urlaubsantrag vom %s bis %s wurde %s.",
		req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout), verb)
	return s.NotifyEmployee(ctx, req.TenantID, req.EmployeeID, ntype, title, body)
}

func (s *Service) PayslipPublished(ctx context.Context, tenantID, employeeID string, month, year int) error {
	title := fmt.Sprintf("Entgeltaufstellung %02d/%d verfügbar", month, year)
	body := fmt.Sprintf("Ihre Entgeltaufstellung für %02d/%d steht zum Abruf bereit.", month, year)
	return s.NotifyEmployee(ctx, tenantID, employeeID, TypePayslipPublished, title, body)
}
