package health

import (
	"net/http"
	"sync"
	"time"

	"speechvault/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func() (Status, string, error)

// Checker manages health checks for the system
type Checker struct {
	checks      map[string]Check
	components  map[string]*Component
	checkPeriod time.Duration
	mutex       sync.RWMutex
	log         *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, checkPeriod time.Duration) *Checker {
	checker := &Checker{
		checks:      make(map[string]Check),
		components:  make(map[string]*Component),
		checkPeriod: checkPeriod,
		log:         log,
	}

	go checker.run()

	return checker
}

// Register adds a named health check
func (c *Checker) Register(name string, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = check
	c.components[name] = &Component{
		Name:   name,
		Status: StatusDown,
	}
}

// RunChecks executes all registered checks once
func (c *Checker) RunChecks() {
	c.mutex.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	c.mutex.RUnlock()

	for _, name := range names {
		c.runCheck(name)
	}
}

func (c *Checker) runCheck(name string) {
	c.mutex.RLock()
	check := c.checks[name]
	c.mutex.RUnlock()

	status, description, err := check()

	c.mutex.Lock()
	component := c.components[name]
	component.Status = status
	component.Description = description
	component.LastChecked = time.Now()
	if err != nil {
		component.Error = err.Error()
	} else {
		component.Error = ""
	}
	c.mutex.Unlock()

	if status != StatusUp {
		c.log.Warn("health check failed", "component", name, "status", string(status))
	}
}

func (c *Checker) run() {
	c.RunChecks()

	ticker := time.NewTicker(c.checkPeriod)
	defer ticker.Stop()

	for range ticker.C {
		c.RunChecks()
	}
}

// Overall returns the aggregate system status
func (c *Checker) Overall() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	overall := StatusUp
	for _, component := range c.components {
		switch component.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// Handler returns a gin handler exposing component health
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c.mutex.RLock()
		components := make([]Component, 0, len(c.components))
		for _, component := range c.components {
			components = append(components, *component)
		}
		c.mutex.RUnlock()

		overall := c.Overall()
		statusCode := http.StatusOK
		if overall == StatusDown {
			statusCode = http.StatusServiceUnavailable
		}

		ctx.JSON(statusCode, gin.H{
			"status":     overall,
			"components": components,
			"time":       time.Now().Format(time.RFC3339),
		})
	}
}
