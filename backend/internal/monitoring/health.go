package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 5 * time.Second

type CheckFunc func(ctx context.Context) error

// HealthCheck is a registered probe and, in RunHealthChecks results, its
// latest outcome.
type HealthCheck struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CheckedAt time.Time     `json:"checked_at"`

	check CheckFunc
}

type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

var globalHealthChecker = &HealthChecker{
	checks: make(map[string]HealthCheck),
}

func RegisterHealthCheck(name string, check CheckFunc) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = HealthCheck{Name: name, check: check}
}

// RunHealthChecks runs every registered check concurrently, each bounded
// by its own timeout.
func RunHealthChecks() map[string]HealthCheck {
	globalHealthChecker.mu.RLock()
	checks := make([]HealthCheck, 0, len(globalHealthChecker.checks))
	for _, check := range globalHealthChecker.checks {
		checks = append(checks, check)
	}
	globalHealthChecker.mu.RUnlock()

	results := make(map[string]HealthCheck, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, check := range checks {
		wg.Add(1)
		go func(hc HealthCheck) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			defer cancel()

			start := time.Now()
			err := hc.check(ctx)

			result := HealthCheck{
				Name:      hc.Name,
				Status:    "healthy",
				Duration:  time.Since(start),
				CheckedAt: start.UTC(),
			}
			if err != nil {
				result.Status = "unhealthy"
				result.Message = err.Error()
			}

			mu.Lock()
			results[hc.Name] = result
			mu.Unlock()
		}(check)
	}

	wg.Wait()
	return results
}

func allHealthy(checks map[string]HealthCheck) bool {
	for _, check := range checks {
		if check.Status != "healthy" {
			return false
		}
	}
	return true
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := RunHealthChecks()

		status, code := "healthy", http.StatusOK
		if !allHealthy(checks) {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now().UTC(),
		})
	}
}

func ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := RunHealthChecks()

		if !allHealthy(checks) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
			"uptime": time.Since(processStart).String(),
		})
	}
}
