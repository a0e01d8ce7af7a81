package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/calendar"
	"timepay/internal/domain/employee"
)

const JobPayrollRun = "payroll_run"

type EmployeeSource interface {
	Get(ctx context.Context, tenantID, employeeID string) (employee.Employee, error)
	ListActive(ctx context.Context, tenantID string) ([]employee.Employee, error)
}

type RecordStore interface {
	Upsert(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, tenantID, employeeID string, month, year int) (Record, error)
	ListMonth(ctx context.Context, tenantID string, month, year int) ([]Record, error)
	SetPDFPath(ctx context.Context, tenantID, recordID, path string) error
}

// LeaveCounter sums approved leave days of requests starting in [from, to).
type LeaveCounter interface {
	ApprovedDaysStarting(ctx context.Context, tenantID, employeeID string, from, to time.Time) (decimal.Decimal, error)
}

type JobRunner interface {
	RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error)
	Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool
}

// Sealer encrypts statements before they are written to disk.
type Sealer interface {
	Configured() bool
	Encrypt(plain []byte) ([]byte, error)
	Decrypt(sealed []byte) ([]byte, error)
}

// PayslipNotifier tells an employee that a new statement is available.
type PayslipNotifier interface {
	PayslipPublished(ctx context.Context, tenantID, employeeID string, month, year int) error
}

type RunObserver interface {
	RecordPayrollRun(saved, failed int)
}

type Service struct {
	Employees EmployeeSource
	Entries   EntrySource
	Records   RecordStore
	Leave     LeaveCounter
	Jobs      JobRunner
	Audit     audit.Recorder
	Sealer    Sealer
	Observer  RunObserver
	Notifier  PayslipNotifier

	MinijobCap       decimal.Decimal
	PayslipDir       string
	Concurrency      int
	ConsultantNumber string
	ClientNumber     string
	Now              func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) recorder() audit.Recorder {
	if s.Audit == nil {
		return audit.Nop{}
	}
	return s.Audit
}

// Compute calculates one employee-month without persisting anything.
func (s *Service) Compute(ctx context.Context, scope employee.Scope, month, year int) Result {
	if !validPeriod(month, year) {
		return failed(scope.EmployeeID, "", month, year, KindInvalidPeriod, ErrInvalidPeriod.Error())
	}
	emp, err := s.Employees.Get(ctx, scope.TenantID, scope.EmployeeID)
	if errors.Is(err, employee.ErrNotFound) {
		return failed(scope.EmployeeID, "", month, year, KindEmployeeNotFound, employeeNotFoundMessage(scope.EmployeeID))
	}
	if err != nil {
		return failed(scope.EmployeeID, "", month, year, KindStorage, fmt.Sprintf("loading employee: %v", err))
	}
	if !emp.HasWage() {
		return failed(emp.ID, emp.FullName(), month, year, KindMissingHourlyWage, missingWageMessage(emp))
	}
	hours := AggregateMonth(ctx, s.Entries, scope.TenantID, scope.EmployeeID, month, year)
	return Calculate(emp, hours, month, year, s.MinijobCap)
}

// Save computes and, on success only, replaces the stored record.
func (s *Service) Save(ctx context.Context, scope employee.Scope, month, year int) (Result, Record, error) {
	res := s.Compute(ctx, scope, month, year)
	rec, err := NewRecord(scope.TenantID, res)
	if err != nil {
		return res, Record{}, err
	}
	saved, err := s.Records.Upsert(ctx, rec)
	if err != nil {
		return res, Record{}, fmt.Errorf("saving payroll record: %w", err)
	}
	if res.CapWarning != nil {
		slog.Warn("minijob cap exceeded", "tenantId", scope.TenantID, "employeeId", scope.EmployeeID,
			"gross", res.GrossTotal.StringFixed(2), "cap", res.CapWarning.Cap.StringFixed(2))
	}
	evt := audit.Event{
		TenantID:   scope.TenantID,
		Action:     audit.ActionPayrollSaved,
		EntityType: "payroll_record",
		EntityID:   saved.ID,
	}
	if err := s.recorder().Record(ctx, evt, nil, saved); err != nil {
		slog.Warn("audit record failed", "recordId", saved.ID, "err", err)
	}
	if s.Notifier != nil {
		if err := s.Notifier.PayslipPublished(ctx, scope.TenantID, scope.EmployeeID, month, year); err != nil {
			slog.Warn("payslip notification failed", "employeeId", scope.EmployeeID, "err", err)
		}
	}
	return res, saved, nil
}

// RunMonth saves payroll for every active employee of the tenant. Failures of
// single employees end up in the summary and never stop the batch.
func (s *Service) RunMonth(ctx context.Context, tenantID string, month, year int) (BatchSummary, error) {
	if !validPeriod(month, year) {
		return BatchSummary{}, ErrInvalidPeriod
	}
	run := func(ctx context.Context) (any, error) {
		return s.runMonth(ctx, tenantID, month, year)
	}
	if s.Jobs == nil {
		return s.runMonth(ctx, tenantID, month, year)
	}
	out, err := s.Jobs.RunNow(ctx, JobPayrollRun, tenantID, run)
	summary, _ := out.(BatchSummary)
	return summary, err
}

// QueueMonth schedules RunMonth on the background worker.
func (s *Service) QueueMonth(tenantID string, month, year int) error {
	if !validPeriod(month, year) {
		return ErrInvalidPeriod
	}
	if s.Jobs == nil {
		return ErrQueueUnavailable
	}
	queued := s.Jobs.Enqueue(JobPayrollRun, tenantID, func(ctx context.Context) (any, error) {
		return s.runMonth(ctx, tenantID, month, year)
	})
	if !queued {
		return ErrQueueUnavailable
	}
	return nil
}

func (s *Service) runMonth(ctx context.Context, tenantID string, month, year int) (BatchSummary, error) {
	employees, err := s.Employees.ListActive(ctx, tenantID)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("listing employees: %w", err)
	}
	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}

	items := make([]BatchItem, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, emp := range employees {
		g.Go(func() error {
			items[i] = s.saveOne(gctx, employee.Scope{TenantID: tenantID, EmployeeID: emp.ID}, emp.FullName(), month, year)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{Month: month, Year: year, Items: items}
	for _, item := range items {
		if item.Saved {
			summary.Saved++
		} else {
			summary.Failed++
		}
	}
	if s.Observer != nil {
		s.Observer.RecordPayrollRun(summary.Saved, summary.Failed)
	}
	slog.Info("payroll run finished", "tenantId", tenantID, "month", month, "year", year,
		"saved", summary.Saved, "failed", summary.Failed)
	return summary, nil
}

func (s *Service) saveOne(ctx context.Context, scope employee.Scope, name string, month, year int) BatchItem {
	item := BatchItem{EmployeeID: scope.EmployeeID, EmployeeName: name}
	if err := ctx.Err(); err != nil {
		item.Kind, item.Message = KindStorage, err.Error()
		return item
	}
	res, rec, err := s.Save(ctx, scope, month, year)
	if err != nil {
		item.Kind, item.Message = res.Kind, err.Error()
		if item.Kind == "" {
			item.Kind = KindStorage
		}
		return item
	}
	item.Saved = true
	item.GrossTotal = rec.GrossTotal
	item.CapExceeded = rec.CapExceeded
	return item
}

// Account builds the work-time account for a stored record.
func (s *Service) Account(ctx context.Context, emp employee.Employee, rec Record) (Account, error) {
	acc := Account{
		TargetHours:  emp.MonthlyTargetHours,
		WorkedHours:  rec.WorkedHours,
		Difference:   rec.WorkedHours.Sub(emp.MonthlyTargetHours),
		SundayHours:  rec.SundayHours,
		HolidayHours: rec.HolidayHours,
	}
	if s.Leave != nil {
		from, to := calendar.MonthRange(rec.Month, rec.Year)
		days, err := s.Leave.ApprovedDaysStarting(ctx, rec.TenantID, emp.ID, from, to)
		if err != nil {
			return Account{}, err
		}
		acc.LeaveDaysTaken = days
	}
	return acc, nil
}

// Statement renders the stored record of the month as PDF. When a payslip
// directory is configured the file is also kept there, encrypted if a key
// is set.
func (s *Service) Statement(ctx context.Context, scope employee.Scope, month, year int) ([]byte, error) {
	rec, err := s.Records.Get(ctx, scope.TenantID, scope.EmployeeID, month, year)
	if err != nil {
		return nil, err
	}
	emp, err := s.Employees.Get(ctx, scope.TenantID, scope.EmployeeID)
	if err != nil {
		return nil, err
	}
	acc, err := s.Account(ctx, emp, rec)
	if err != nil {
		return nil, err
	}
	pdf, err := RenderStatement(Statement{Employee: emp, Record: rec, Account: acc, GeneratedAt: s.now()})
	if err != nil {
		return nil, err
	}
	if s.PayslipDir == "" {
		return pdf, nil
	}
	path, err := s.storeStatement(scope, month, year, pdf)
	if err != nil {
		return nil, err
	}
	if err := s.Records.SetPDFPath(ctx, scope.TenantID, rec.ID, path); err != nil {
		slog.Warn("payslip path update failed", "recordId", rec.ID, "err", err)
	}
	return pdf, nil
}

func (s *Service) storeStatement(scope employee.Scope, month, year int, pdf []byte) (string, error) {
	dir := filepath.Join(s.PayslipDir, scope.TenantID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%d-%02d.pdf", scope.EmployeeID, year, month))
	data := pdf
	if s.Sealer != nil && s.Sealer.Configured() {
		encrypted, err := s.Sealer.Encrypt(pdf)
		if err != nil {
			return "", err
		}
		data = encrypted
		path += ".enc"
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// ArchivedStatement returns the statement last written for the month.
func (s *Service) ArchivedStatement(ctx context.Context, scope employee.Scope, month, year int) ([]byte, error) {
	rec, err := s.Records.Get(ctx, scope.TenantID, scope.EmployeeID, month, year)
	if err != nil {
		return nil, err
	}
	if rec.PDFPath == "" {
		return nil, ErrNoStatement
	}
	data, err := os.ReadFile(rec.PDFPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoStatement
	}
	if err != nil {
		return nil, err
	}
	if filepath.Ext(rec.PDFPath) != ".enc" {
		return data, nil
	}
	if s.Sealer == nil || !s.Sealer.Configured() {
		return nil, fmt.Errorf("statement %s is sealed but no key is configured", rec.ID)
	}
	return s.Sealer.Decrypt(data)
}

// ExportDATEV writes the tenant's stored records of the month as DATEV file.
func (s *Service) ExportDATEV(ctx context.Context, w io.Writer, tenantID string, month, year int) error {
	if !validPeriod(month, year) {
		return ErrInvalidPeriod
	}
	records, employees, err := s.monthData(ctx, tenantID, month, year)
	if err != nil {
		return err
	}
	return WriteDATEV(w, DATEVExport{
		ConsultantNumber: s.ConsultantNumber,
		ClientNumber:     s.ClientNumber,
		Month:            month,
		Year:             year,
		CreatedAt:        s.now(),
		Records:          records,
		Employees:        employees,
	})
}

// ExportSummary writes the Lohnübersicht of the month.
func (s *Service) ExportSummary(ctx context.Context, w io.Writer, tenantID string, month, year int) error {
	if !validPeriod(month, year) {
		return ErrInvalidPeriod
	}
	records, employees, err := s.monthData(ctx, tenantID, month, year)
	if err != nil {
		return err
	}
	rows := make([]SummaryRow, 0, len(records))
	for _, rec := range records {
		emp, ok := employees[rec.EmployeeID]
		if !ok {
			continue
		}
		acc, err := s.Account(ctx, emp, rec)
		if err != nil {
			return err
		}
		rows = append(rows, SummaryRow{Employee: emp, Record: rec, LeaveDaysTaken: acc.LeaveDaysTaken})
	}
	return WriteSummary(w, month, year, s.now(), rows)
}

func (s *Service) monthData(ctx context.Context, tenantID string, month, year int) ([]Record, map[string]employee.Employee, error) {
	records, err := s.Records.ListMonth(ctx, tenantID, month, year)
	if err != nil {
		return nil, nil, err
	}
	employees := make(map[string]employee.Employee, len(records))
	for _, rec := range records {
		emp, err := s.Employees.Get(ctx, tenantID, rec.EmployeeID)
		if errors.Is(err, employee.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		employees[emp.ID] = emp
	}
	return records, employees, nil
}
