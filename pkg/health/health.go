package health

import (
	"sync"
	"time"

	"appnexus-chat/backend/pkg/logger"

	"gorm.io/gorm"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func() error

// Checker manages health checks for the system
type Checker struct {
	checks     map[string]Check
	components map[string]*Component
	startTime  time.Time
	mutex      sync.RWMutex
	log        *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger) *Checker {
	return &Checker{
		checks:     make(map[string]Check),
		components: make(map[string]*Component),
		startTime:  time.Now(),
		log:        log,
	}
}

// RegisterCheck registers a new health check
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = check
	c.components[name] = &Component{
		Name:   name,
		Status: StatusDown,
	}
}

// RegisterDatabaseCheck registers a ping check against the given database
func (c *Checker) RegisterDatabaseCheck(db *gorm.DB) {
	c.RegisterCheck("database", func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
}

// Report runs every registered check and returns the overall status plus
// the per-component breakdown.
func (c *Checker) Report() (Status, []Component) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	overall := StatusUp
	components := make([]Component, 0, len(c.checks))

	for name, check := range c.checks {
		component := c.components[name]
		component.LastChecked = time.Now()

		if err := check(); err != nil {
			component.Status = StatusDown
			component.Error = err.Error()
			overall = StatusDown
			c.log.Error("Health check failed", "component", name, "error", err.Error())
		} else {
			component.Status = StatusUp
			component.Error = ""
		}
		components = append(components, *component)
	}

	return overall, components
}

// Uptime returns how long the checker (and so the process) has been up
func (c *Checker) Uptime() time.Duration {
	return time.Since(c.startTime)
}
