package workers

import (
	"bounty-lab/observability"
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HealthMonitoringWorker samples the server process on every tick.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	monitoring     *observability.MonitoringManager
	connections    func() int
	metricInterval time.Duration
}

func NewHealthMonitoringWorker(log *slog.Logger, monitoring *observability.MonitoringManager,
	connections func() int, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		monitoring:     monitoring,
		connections:    connections,
		metricInterval: metricInterval,
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	w.sample(p)
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

func (w *HealthMonitoringWorker) sample(p *process.Process) {
	stats := observability.MonitoringStats{
		Goroutines: runtime.NumGoroutine(),
		SampledAt:  time.Now().UTC(),
	}
	if w.connections != nil {
		stats.Connections = w.connections()
	}

	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Debug("Error while finding process cpu usage", "error", err)
	} else {
		stats.CPUPercent = cpu
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		w.log.Debug("Error while finding process memory usage", "error", err)
	} else {
		stats.RSSBytes = mem.RSS
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC

	w.monitoring.Update(stats)
}
