package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// RegistryStats reports the registry gauges without coupling the worker
// to the realtime package.
type RegistryStats func() (users, conns int)

// TelemetryWorker periodically logs process health (RSS, CPU, status)
// together with the registry gauges. It is the realtime server's only
// observability surface beyond per-event logs.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    RegistryStats
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, stats RegistryStats) *TelemetryWorker {
	return &TelemetryWorker{log: log, interval: interval, stats: stats}
}

// Run executes the main loop of the worker, reporting health metrics on
// every tick until the context is canceled.
func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			users, conns := w.stats()
			w.log.Info("Realtime telemetry",
				"connected_users", users,
				"open_connections", conns,
				"ram_bytes", rss,
				"cpu_percent", cpu,
				"pid_status", status,
			)
		}
	}
}

// selfStats retrieves technical metrics (memory, CPU and OS status) for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
