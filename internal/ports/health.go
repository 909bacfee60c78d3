package ports

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a single health check.
const DefaultCheckTimeout = 2 * time.Second

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is a dependency that can report whether it is usable:
// the storage backend, the summary cache, the catalog.
type HealthChecker interface {
	// Name identifies the checker in readiness output.
	Name() string

	// Check returns nil when the dependency is usable.
	Check(ctx context.Context) error
}

// HealthRegistry runs the registered checks for the readiness probe.
type HealthRegistry interface {
	// Register adds a checker whose failure makes the service unhealthy.
	Register(checker HealthChecker) error

	// RegisterOptional adds a checker whose failure only degrades it.
	RegisterOptional(checker HealthChecker) error

	// CheckAll runs every check concurrently.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is healthy, degraded or unhealthy.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult is the outcome of CheckAll.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of one checker.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
	Optional bool          `json:"optional,omitempty"`
}

// HealthChecks is the HealthRegistry used by the service.
type HealthChecks struct {
	// Timeout bounds each check; zero means DefaultCheckTimeout.
	Timeout time.Duration

	mu       sync.RWMutex
	checkers map[string]HealthChecker
	optional map[string]bool
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthChecks {
	return &HealthChecks{
		checkers: make(map[string]HealthChecker),
		optional: make(map[string]bool),
	}
}

func (r *HealthChecks) Register(checker HealthChecker) error {
	return r.add(checker, false)
}

func (r *HealthChecks) RegisterOptional(checker HealthChecker) error {
	return r.add(checker, true)
}

func (r *HealthChecks) add(checker HealthChecker, optional bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	if _, taken := r.checkers[name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
	}

	r.checkers[name] = checker
	r.optional[name] = optional

	return nil
}

// Names lists the registered checkers in name order.
func (r *HealthChecks) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.checkers))
}

// CheckAll runs every check concurrently, each under Timeout. A failing
// required check makes the result unhealthy; failing optional checks
// alone make it degraded.
func (r *HealthChecks) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := maps.Clone(r.checkers)
	optional := maps.Clone(r.optional)
	r.mu.RUnlock()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for name, checker := range checkers {
		wg.Go(func() {
			res := runCheck(ctx, checker, timeout)
			res.Optional = optional[name]

			mu.Lock()
			defer mu.Unlock()

			result.Checks[name] = res
			result.Status = combine(result.Status, res)
		})
	}

	wg.Wait()

	return result
}

func runCheck(ctx context.Context, checker HealthChecker, timeout time.Duration) *CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := checker.Check(ctx)
	res := &CheckResult{Status: HealthStatusHealthy, Duration: time.Since(start)}

	if err != nil {
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	}

	return res
}

func combine(overall HealthStatus, check *CheckResult) HealthStatus {
	switch {
	case check.Status == HealthStatusHealthy, overall == HealthStatusUnhealthy:
		return overall
	case check.Optional:
		return HealthStatusDegraded
	default:
		return HealthStatusUnhealthy
	}
}
