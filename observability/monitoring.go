package observability

import (
	"log/slog"
	"sync"
	"time"
)

// MonitoringStats is the latest process sample, served on /healthz.
type MonitoringStats struct {
	CPUPercent  float64   `json:"cpu_percent"`
	RSSBytes    uint64    `json:"rss_bytes"`
	AllocMemMb  uint64    `json:"alloc_mem_mb"`
	NumGC       uint32    `json:"num_gc"`
	Goroutines  int       `json:"goroutines"`
	Connections int       `json:"connections"`
	SampledAt   time.Time `json:"sampled_at"`
}

// MonitoringManager keeps the latest sample and mirrors it into the Prometheus gauges.
type MonitoringManager struct {
	log         *slog.Logger
	metrics     *Metrics
	mu          sync.RWMutex
	latestStats MonitoringStats
}

func NewMonitoringManager(log *slog.Logger, metrics *Metrics) *MonitoringManager {
	return &MonitoringManager{log: log, metrics: metrics}
}

func (mm *MonitoringManager) Update(stats MonitoringStats) {
	mm.mu.Lock()
	mm.latestStats = stats
	mm.mu.Unlock()

	mm.metrics.SetProcess(stats.CPUPercent, stats.RSSBytes)
	mm.log.Debug("Process stats updated",
		"cpu", stats.CPUPercent,
		"rss", stats.RSSBytes,
		"goroutines", stats.Goroutines,
		"connections", stats.Connections,
	)
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latestStats
}
