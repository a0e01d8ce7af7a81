package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/leave"
)

type created struct {
	userID, ntype, title, body string
}

type fakeStore struct {
	employees   map[string][]Recipient
	admins      []Recipient
	settings    Settings
	settingsErr error
	created     []created
	saved       *Settings
	cutoff      time.Time
}

func (f *fakeStore) CreateNotification(_ context.Context, _, userID, ntype, title, body string) error {
	f.created = append(f.created, created{userID, ntype, title, body})
	return nil
}

func (f *fakeStore) EmployeeRecipients(_ context.Context, _, employeeID string) ([]Recipient, error) {
	return f.employees[employeeID], nil
}

func (f *fakeStore) AdminRecipients(context.Context, string) ([]Recipient, error) {
	return f.admins, nil
}

func (f *fakeStore) ListNotifications(context.Context, string, string, bool, int, int) ([]Notification, error) {
	return nil, nil
}

func (f *fakeStore) CountUnread(context.Context, string, string) (int, error) { return 0, nil }

func (f *fakeStore) MarkRead(context.Context, string, string, string) error { return nil }

func (f *fakeStore) MarkAllRead(context.Context, string, string) (int64, error) { return 0, nil }

func (f *fakeStore) EmailSettings(context.Context, string) (Settings, error) {
	return f.settings, f.settingsErr
}

func (f *fakeStore) UpdateSettings(_ context.Context, _ string, settings Settings) error {
	f.saved = &settings
	return nil
}

func (f *fakeStore) PurgeRead(_ context.Context, _ string, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 4, nil
}

type sent struct {
	from, to, subject string
}

type fakeMailer struct {
	sent []sent
	err  error
}

func (m *fakeMailer) Send(_ context.Context, from, to, subject, _ string) error {
	m.sent = append(m.sent, sent{from, to, subject})
	return m.err
}

func request(status string) leave.Request {
	return leave.Request{
		ID: "r1", TenantID: "t1", EmployeeID: "e1",
		StartDate: time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC),
		DayCount:  decimal.NewFromInt(5),
		Reason:    "Sommerurlaub",
		Status:    status,
	}
}

func TestLeaveRequestedGoesToAdmins(t *testing.T) {
	store := &fakeStore{admins: []Recipient{{UserID: "u9", Email: "chef@example.com"}, {UserID: "u8"}}}
	mailer := &fakeMailer{}
	svc := New(store, mailer)

	require.NoError(t, svc.LeaveRequested(context.Background(), request(leave.StatusRequested), "Anna Schmidt"))

	require.Len(t, store.created, 2)
	assert.Equal(t, "u9", store.created[0].userID)
	assert.Equal(t, TypeLeaveRequested, store.created[0].ntype)
	assert.Equal(t, "Neuer Urlaubsantrag von Anna Schmidt", store.created[0].title)
	assert.Contains(t, store.created[0].body, "07.07.2025 bis 11.07.2025")
	assert.Contains(t, store.created[0].body, "Grund: Sommerurlaub")
	assert.Empty(t, mailer.sent, "tenant has email switched off")
}

func TestLeaveDecidedGoesToEmployee(t *testing.T) {
	store := &fakeStore{
		employees: map[string][]Recipient{"e1": {{UserID: "u1", Email: "anna@example.com"}}},
		settings:  Settings{EmailEnabled: true},
	}
	mailer := &fakeMailer{}
	svc := New(store, mailer)
	svc.DefaultFrom = "hr@example.com"

	require.NoError(t, svc.LeaveDecided(context.Background(), request(leave.StatusApproved)))
	require.NoError(t, svc.LeaveDecided(context.Background(), request(leave.StatusRejected)))
	require.NoError(t, svc.LeaveDecided(context.Background(), request(leave.StatusRequested)))

	require.Len(t, store.created, 2)
	assert.Equal(t, TypeLeaveApproved, store.created[0].ntype)
	assert.Equal(t, "Urlaubsantrag genehmigt", store.created[0].title)
	assert.Equal(t, TypeLeaveRejected, store.created[1].ntype)
	assert.Equal(t, []sent{
		{"hr@example.com", "anna@example.com", "Urlaubsantrag genehmigt"},
		{"hr@example.com", "anna@example.com", "Urlaubsantrag abgelehnt"},
	}, mailer.sent)
}

func TestPayslipPublishedUsesTenantSender(t *testing.T) {
	store := &fakeStore{
		employees: map[string][]Recipient{"e1": {{UserID: "u1", Email: "anna@example.com"}}},
		settings:  Settings{EmailEnabled: true, EmailFrom: "lohn@firma.de"},
	}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := New(store, mailer)

	require.NoError(t, svc.PayslipPublished(context.Background(), "t1", "e1", 3, 2025))

	require.Len(t, store.created, 1)
	assert.Equal(t, "Entgeltaufstellung 03/2025 verfügbar", store.created[0].title)
	assert.Equal(t, []sent{{"lohn@firma.de", "anna@example.com", "Entgeltaufstellung 03/2025 verfügbar"}}, mailer.sent)
}

func TestNoRecipientsIsNoop(t *testing.T) {
	store := &fakeStore{settingsErr: errors.New("should not be read")}
	svc := New(store, &fakeMailer{})
	require.NoError(t, svc.PayslipPublished(context.Background(), "t1", "e404", 1, 2025))
	assert.Empty(t, store.created)
}

func TestUpdateSettingsValidatesSender(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil)

	_, err := svc.UpdateSettings(context.Background(), "t1", Settings{EmailEnabled: true, EmailFrom: "not an address"})
	assert.ErrorIs(t, err, ErrInvalidSender)
	assert.Nil(t, store.saved)

	out, err := svc.UpdateSettings(context.Background(), "t1", Settings{EmailEnabled: true, EmailFrom: "  lohn@firma.de "})
	require.NoError(t, err)
	assert.Equal(t, "lohn@firma.de", out.EmailFrom)
	require.NotNil(t, store.saved)
	assert.True(t, store.saved.EmailEnabled)
}

func TestPurgeRead(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil)
	svc.Now = func() time.Time { return time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC) }

	_, err := svc.PurgeRead(context.Background(), "t1", 3)
	assert.ErrorIs(t, err, ErrRetentionTooShort)

	deleted, err := svc.PurgeRead(context.Background(), "t1", DefaultRetentionDays)
	require.NoError(t, err)
	assert.EqualValues(t, 4, deleted)
	assert.Equal(t, time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC), store.cutoff)
}
