package health

import (
	"context"
	"time"
)

// Status is the overall health reported by GET /health.
type Status string

const (
	// Healthy means storage and the answer generator both respond.
	Healthy Status = "ok"
	// Degraded means history works but new searches cannot be answered.
	Degraded Status = "degraded"
	// Unhealthy means search storage is unreachable.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one component check.
type CheckResult string

const (
	// CheckOK means the component answered within the timeout.
	CheckOK CheckResult = "ok"
	// CheckError means the component failed or timed out.
	CheckError CheckResult = "error"
)

// GeneratorCheck is the key of the answer generator check.
const GeneratorCheck = "generator"

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates check results keyed by component.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service checks the storage driver and the answer generator.
type Service struct {
	storeName string
	store     DBPinger
	generator GeneratorChecker
	timeout   time.Duration
}

// New creates a Service. storeName keys the storage check ("redis", "mongo",
// "memory"). generator can be nil.
func New(storeName string, store DBPinger, generator GeneratorChecker) *Service {
	if storeName == "" {
		storeName = "store"
	}
	return &Service{storeName: storeName, store: store, generator: generator, timeout: DefaultCheckTimeout}
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Check runs every component check. A storage failure makes the service
// unhealthy; a generator failure only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		s.storeName: s.run(ctx, s.store.Ping),
	}
	if s.generator != nil {
		checks[GeneratorCheck] = s.run(ctx, s.generator.HealthCheck)
	}

	status := Healthy
	switch {
	case checks[s.storeName] == CheckError:
		status = Unhealthy
	case checks[GeneratorCheck] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, check func(context.Context) error) CheckResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := check(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
