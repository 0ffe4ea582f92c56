package harness

import (
	"fmt"
	"sync"
)

// Config carries the construction-time parameters for a load test run.
type Config struct {
	DatabaseURL   string  // The connection string for the target database.
	Workers       int     // The number of workers to spawn.
	QueueCapacity int     // The fixed capacity of the work queue.
	Pattern       Pattern // The pacing pattern to drive the load generator with.
	Count         uint64  // The total number of requests to generate.
	Table         string  // The table the unit of work writes into.
	MetricsAddr   string  // Optional host:port on which to serve Prometheus metrics.
}

func (c Config) Validate() error {
	if len(c.DatabaseURL) == 0 {
		return fmt.Errorf("Database URL must be specified")
	}
	if c.Workers < 1 {
		return fmt.Errorf("Expected workers to be >= 1, but was %d", c.Workers)
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("Expected queue capacity to be >= 1, but was %d", c.QueueCapacity)
	}
	if c.Count < 1 {
		return fmt.Errorf("Expected total request count to be >= 1, but was %d", c.Count)
	}
	if len(c.Table) == 0 {
		return fmt.Errorf("Target table must be specified")
	}
	return c.Pattern.Validate()
}

// SharedConfig holds the process-wide, hot-reloadable tunables. They are read
// far more often than written. No validation is performed on the values;
// policy enforcement using them lives with out-of-scope collaborators.
type SharedConfig struct {
	MaxRetries    uint32
	TimeoutMillis uint64
	Enabled       bool
}

// DefaultSharedConfig returns the tunables' initial values.
func DefaultSharedConfig() SharedConfig {
	return SharedConfig{
		MaxRetries:    3,
		TimeoutMillis: 5000,
		Enabled:       true,
	}
}

// ConfigManager provides concurrent access to a SharedConfig: all three
// fields update together under one write lock, and each field is
// independently and cheaply readable.
type ConfigManager struct {
	mtx sync.RWMutex
	cfg SharedConfig
}

func NewConfigManager() *ConfigManager {
	return &ConfigManager{cfg: DefaultSharedConfig()}
}

// Update replaces all three tunables as a group.
func (m *ConfigManager) Update(maxRetries uint32, timeoutMillis uint64, enabled bool) {
	m.mtx.Lock()
	m.cfg.MaxRetries = maxRetries
	m.cfg.TimeoutMillis = timeoutMillis
	m.cfg.Enabled = enabled
	m.mtx.Unlock()
}

func (m *ConfigManager) MaxRetries() uint32 {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.cfg.MaxRetries
}

func (m *ConfigManager) TimeoutMillis() uint64 {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.cfg.TimeoutMillis
}

func (m *ConfigManager) Enabled() bool {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.cfg.Enabled
}

// Snapshot returns a consistent copy of all tunables.
func (m *ConfigManager) Snapshot() SharedConfig {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.cfg
}
