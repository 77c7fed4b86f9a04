package workers

import (
	"bounty-lab/observability"
	"context"
	"log/slog"
	"time"
)

// Queue is anything whose backlog can be sampled without blocking.
type Queue interface {
	QueueLen() int
	QueueCap() int
}

type NamedQueue struct {
	Name  string
	Queue Queue
}

// QueueCapacityWorker periodically reports queue backlogs as gauges
// and warns once a queue fills past the threshold percentage.
// Reading len and cap never blocks, so sampling cannot interfere with producers.
type QueueCapacityWorker struct {
	log              *slog.Logger
	metrics          *observability.Metrics
	queues           []NamedQueue
	thresholdPercent int
	metricInterval   time.Duration
}

func NewQueueCapacityWorker(log *slog.Logger, metrics *observability.Metrics, queues []NamedQueue,
	thresholdPercent int, metricInterval time.Duration) *QueueCapacityWorker {
	return &QueueCapacityWorker{
		log:              log,
		metrics:          metrics,
		queues:           queues,
		thresholdPercent: thresholdPercent,
		metricInterval:   metricInterval,
	}
}

func (w *QueueCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping queue sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample returns the names of the queues above the threshold.
func (w *QueueCapacityWorker) Sample() []string {
	var saturated []string
	for _, nq := range w.queues {
		length, capacity := nq.Queue.QueueLen(), nq.Queue.QueueCap()
		w.metrics.SetQueueLength(nq.Name, length)
		if capacity > 0 && length*100 >= capacity*w.thresholdPercent {
			w.log.Warn("Queue near capacity", "queue", nq.Name, "length", length, "capacity", capacity)
			saturated = append(saturated, nq.Name)
		}
	}
	return saturated
}
