package notificationshandler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/notifications"
	"timepay/internal/requestctx"
)

type fakeService struct {
	unreadOnly bool
	listUser   string
	marked     string
	saved      *notifications.Settings
	purgedDays int
}

func (f *fakeService) List(_ context.Context, _, userID string, unreadOnly bool, _, _ int) ([]notifications.Notification, error) {
	f.listUser, f.unreadOnly = userID, unreadOnly
	return []notifications.Notification{{
		ID: "n1", Type: notifications.TypeLeaveApproved, Title: "Urlaubsantrag genehmigt",
		CreatedAt: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
	}}, nil
}

func (f *fakeService) UnreadCount(context.Context, string, string) (int, error) { return 3, nil }

func (f *fakeService) MarkRead(_ context.Context, _, _, notificationID string) error {
	if notificationID != "n1" {
		return notifications.ErrNotFound
	}
	f.marked = notificationID
	return nil
}

func (f *fakeService) MarkAllRead(context.Context, string, string) (int64, error) { return 2, nil }

func (f *fakeService) Settings(context.Context, string) (notifications.Settings, error) {
	return notifications.Settings{EmailEnabled: true, EmailFrom: "lohn@firma.de"}, nil
}

func (f *fakeService) UpdateSettings(_ context.Context, _ string, settings notifications.Settings) (notifications.Settings, error) {
	if settings.EmailFrom == "bogus" {
		return notifications.Settings{}, notifications.ErrInvalidSender
	}
	f.saved = &settings
	return settings, nil
}

func (f *fakeService) PurgeRead(_ context.Context, _ string, retentionDays int) (int64, error) {
	f.purgedDays = retentionDays
	return 5, nil
}

type fakeJobs struct{ jobType string }

func (j *fakeJobs) RunNow(ctx context.Context, jobType, _ string, run func(context.Context) (any, error)) (any, error) {
	j.jobType = jobType
	return run(ctx)
}

var (
	employeeActor = requestctx.Actor{UserID: "u1", TenantID: "t1", EmployeeID: "e1", Role: auth.RoleEmployee}
	adminActor    = requestctx.Actor{UserID: "u9", TenantID: "t1", Role: auth.RoleAdmin}
)

func do(svc Service, actor requestctx.Actor, method, target, body string) *httptest.ResponseRecorder {
	return doWithJobs(svc, nil, actor, method, target, body)
}

func doWithJobs(svc Service, jobs JobRunner, actor requestctx.Actor, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(requestctx.WithActor(req.Context(), actor)))
		})
	})
	NewHandler(svc, jobs).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, bytes.NewBufferString(body)))
	return rec
}

func TestListOwnNotifications(t *testing.T) {
	svc := &fakeService{}
	rec := do(svc, employeeActor, http.MethodGet, "/notifications/?unread=true", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Unread-Count"))
	assert.Equal(t, "u1", svc.listUser)
	assert.True(t, svc.unreadOnly)
	assert.Contains(t, rec.Body.String(), `"title":"Urlaubsantrag genehmigt"`)
}

func TestMarkRead(t *testing.T) {
	svc := &fakeService{}
	assert.Equal(t, http.StatusOK, do(svc, employeeActor, http.MethodPost, "/notifications/n1/read", "").Code)
	assert.Equal(t, "n1", svc.marked)
	assert.Equal(t, http.StatusNotFound, do(svc, employeeActor, http.MethodPost, "/notifications/n2/read", "").Code)

	rec := do(svc, employeeActor, http.MethodPost, "/notifications/read-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":2`)
}

func TestSettingsRequireAdmin(t *testing.T) {
	svc := &fakeService{}
	assert.Equal(t, http.StatusForbidden, do(svc, employeeActor, http.MethodGet, "/notifications/settings", "").Code)
	assert.Equal(t, http.StatusForbidden, do(svc, employeeActor, http.MethodPut, "/notifications/settings", `{"emailEnabled":true}`).Code)
	assert.Nil(t, svc.saved)

	rec := do(svc, adminActor, http.MethodGet, "/notifications/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"emailFrom":"lohn@firma.de"`)
}

func TestUpdateSettings(t *testing.T) {
	svc := &fakeService{}

	assert.Equal(t, http.StatusBadRequest, do(svc, adminActor, http.MethodPut, "/notifications/settings", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(svc, adminActor, http.MethodPut, "/notifications/settings", `{"emailFrom":"bogus"}`).Code)

	rec := do(svc, adminActor, http.MethodPut, "/notifications/settings", `{"emailEnabled":true,"emailFrom":"hr@firma.de"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.saved)
	assert.Equal(t, notifications.Settings{EmailEnabled: true, EmailFrom: "hr@firma.de"}, *svc.saved)
}

func TestRunRetention(t *testing.T) {
	svc := &fakeService{}
	jobs := &fakeJobs{}

	assert.Equal(t, http.StatusForbidden, doWithJobs(svc, jobs, employeeActor, http.MethodPost, "/notifications/retention/run", "").Code)
	assert.Equal(t, http.StatusBadRequest, doWithJobs(svc, jobs, adminActor, http.MethodPost, "/notifications/retention/run", `{"retentionDays":1}`).Code)

	rec := doWithJobs(svc, jobs, adminActor, http.MethodPost, "/notifications/retention/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, notifications.DefaultRetentionDays, svc.purgedDays)
	assert.Equal(t, notifications.JobRetention, jobs.jobType)
	assert.Contains(t, rec.Body.String(), `"deleted":5`)

	rec = doWithJobs(svc, jobs, adminActor, http.MethodPost, "/notifications/retention/run", `{"retentionDays":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, svc.purgedDays)
}
