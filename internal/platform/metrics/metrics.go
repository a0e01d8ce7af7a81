package metrics

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Collector keeps process-wide counters for /metrics. All methods are safe
// for concurrent use.
type Collector struct {
	requests     atomic.Uint64
	clientErrors atomic.Uint64
	serverErrors atomic.Uint64
	rateLimited  atomic.Uint64
	durationMs   atomic.Uint64
	maxMs        atomic.Uint64

	payrollRuns   atomic.Uint64
	payrollSaved  atomic.Uint64
	payrollFailed atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.requests.Add(1)
	switch {
	case status == http.StatusTooManyRequests:
		c.rateLimited.Add(1)
		c.clientErrors.Add(1)
	case status >= 500:
		c.serverErrors.Add(1)
	case status >= 400:
		c.clientErrors.Add(1)
	}

	ms := uint64(max(duration.Milliseconds(), 0))
	c.durationMs.Add(ms)
	for {
		cur := c.maxMs.Load()
		if ms <= cur || c.maxMs.CompareAndSwap(cur, ms) {
			break
		}
	}
}

// RecordPayrollRun counts one monthly batch and its per-employee outcome.
func (c *Collector) RecordPayrollRun(saved, failed int) {
	c.payrollRuns.Add(1)
	c.payrollSaved.Add(uint64(max(saved, 0)))
	c.payrollFailed.Add(uint64(max(failed, 0)))
}

func (c *Collector) Snapshot() map[string]any {
	total := c.requests.Load()
	totalMs := c.durationMs.Load()
	var avg float64
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"clientErrorsTotal":    c.clientErrors.Load(),
		"errorsTotal":          c.serverErrors.Load(),
		"rateLimitedTotal":     c.rateLimited.Load(),
		"avgDurationMs":        avg,
		"maxDurationMs":        c.maxMs.Load(),
		"totalDurationMs":      totalMs,
		"payrollRunsTotal":     c.payrollRuns.Load(),
		"payrollSavedTotal":    c.payrollSaved.Load(),
		"payrollFailuresTotal": c.payrollFailed.Load(),
	}
}
