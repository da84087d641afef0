package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mahatati/mahatati/internal/api/models"
	"github.com/mahatati/mahatati/internal/api/response"
	"github.com/mahatati/mahatati/internal/resilience"
)

// readinessTimeout bounds each readiness check.
const readinessTimeout = 2 * time.Second

// ReadinessCheck is a named dependency probe, such as a database ping.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Counter reports the size of a stored collection on the status endpoint.
type Counter struct {
	Name  string
	Count func(ctx context.Context) (int, error)
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	checks    []ReadinessCheck
	counters  []Counter
	registry  *resilience.Registry
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. Registry may be nil.
func NewOpsHandler(version, buildTime string, checks []ReadinessCheck, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		checks:    checks,
		registry:  registry,
		now:       time.Now,
	}
}

// WithCounters adds collection counters to SystemStatus.
func (h *OpsHandler) WithCounters(counters ...Counter) *OpsHandler {
	h.counters = append(h.counters, counters...)
	return h
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. It answers 503 when any
// dependency check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	details := make(map[string]any, len(h.checks))

	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			status = models.HealthStatusFail
			details[c.Name] = err.Error()
			continue
		}
		details[c.Name] = string(models.HealthStatusOK)
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}

	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(h.now()),
		Details: details,
	})
}

// SystemStatus handles GET /v1/ops/status - circuit breaker state of each
// outbound dependency, plus the configured collection counts.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: []models.SubsystemStatus{},
	}

	if h.registry != nil {
		for _, eh := range h.registry.Health() {
			sub := models.SubsystemStatus{Name: eh.Name, Status: models.HealthStatusOK}
			switch {
			case eh.IsDegraded():
				sub.Status = models.HealthStatusDegraded
			case !eh.IsHealthy():
				sub.Status = models.HealthStatusFail
			}
			if sub.Status != models.HealthStatusOK {
				detail := "circuit " + eh.CircuitState.String()
				sub.Detail = &detail
				if status.Status == models.HealthStatusOK {
					status.Status = models.HealthStatusDegraded
				}
			}
			status.Subsystems = append(status.Subsystems, sub)
		}
	}

	for _, c := range h.counters {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		n, err := c.Count(ctx)
		cancel()

		if err != nil {
			detail := err.Error()
			status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
				Name:   c.Name,
				Status: models.HealthStatusFail,
				Detail: &detail,
			})
			status.Status = models.HealthStatusDegraded
			continue
		}
		if status.Counts == nil {
			status.Counts = make(map[string]int, len(h.counters))
		}
		status.Counts[c.Name] = n
	}

	response.JSON(w, r, http.StatusOK, status)
}
