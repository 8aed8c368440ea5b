package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the sample cache is down; answers are still served, only slower.
	Degraded Status = "degraded"
	// Unhealthy indicates the corpus is down and no answer can be computed.
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

// Component names reported in Report.Checks.
const (
	CheckCache  = "cache"
	CheckCorpus = "corpus"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	cache  Pinger
	corpus Pinger
}

// New creates a Service. cache can be nil.
func New(corpus, cache Pinger) *Service {
	return &Service{corpus: corpus, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckCorpus] = ping(ctx, s.corpus)
	if s.cache != nil {
		checks[CheckCache] = ping(ctx, s.cache)
	}

	status := Healthy
	switch {
	case checks[CheckCorpus] == CheckError:
		status = Unhealthy
	case checks[CheckCache] == CheckError:
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
