package realtime

import (
	"context"
	"log/slog"
	"time"
)

// LivenessWorker runs the heartbeat sweep over all registered
// connections. Each tick it terminates connections whose alive flag was
// never reset by a pong (two-strikes rule: any connection silent for two
// full periods is pruned), then arms the next strike and pings.
//
// It implements contract.Worker and runs under the supervisor.
type LivenessWorker struct {
	log      *slog.Logger
	registry *Registry
	interval time.Duration
}

func NewLivenessWorker(log *slog.Logger, registry *Registry, interval time.Duration) *LivenessWorker {
	return &LivenessWorker{log: log, registry: registry, interval: interval}
}

func (w *LivenessWorker) Run(ctx context.Context) error {
	w.log.Info("Starting liveness worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep performs one heartbeat pass. Each connection is handled in
// isolation: pruning a dead one never prevents pinging the rest.
func (w *LivenessWorker) Sweep() {
	for _, conn := range w.registry.Snapshot() {
		if !conn.Alive() {
			w.log.Info("Pruning unresponsive connection", "user_id", conn.UserID())
			w.registry.Remove(conn)
			conn.Terminate()
			continue
		}
		conn.SetAlive(false)
		if err := conn.Ping(); err != nil {
			w.log.Debug("Ping failed, pruning connection", "user_id", conn.UserID(), "error", err)
			w.registry.Remove(conn)
			conn.Terminate()
		}
	}
}
