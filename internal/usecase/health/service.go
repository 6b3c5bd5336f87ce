package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates searches run but catalog scoping does not.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in a Report.
const (
	ComponentEngine  = "engine"
	ComponentCatalog = "catalog"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine  Pinger
	catalog Pinger
}

// New creates a Service. catalog can be nil.
func New(engine, catalog Pinger) *Service {
	return &Service{engine: engine, catalog: catalog}
}

// Check pings the search engine and the catalog store.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentEngine: ping(ctx, s.engine)}
	if s.catalog != nil {
		checks[ComponentCatalog] = ping(ctx, s.catalog)
	}

	status := Healthy
	switch {
	case checks[ComponentEngine] == CheckError:
		status = Unhealthy
	case checks[ComponentCatalog] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func ping(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
