package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

// HeartbeatClient is the slice of the authority client the sender needs.
type HeartbeatClient interface {
	Heartbeat(ctx context.Context, req types.HeartbeatRequest) (types.HeartbeatResponse, error)
}

// HeartbeatSender periodically tells the authority this module is alive.
// Heartbeats are best-effort: failures are logged and the next tick
// tries again.  Nothing here ever touches the decision path.
type HeartbeatSender struct {
	client   HeartbeatClient
	moduleID string
	version  string
	interval time.Duration
	logger   *log.Logger

	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

type HeartbeatConfig struct {
	ModuleID        string
	FirmwareVersion string

	// Interval between heartbeats.  Defaults to 60s; 0 keeps the
	// default, a negative value disables the sender.
	Interval time.Duration
}

func NewHeartbeatSender(c HeartbeatClient, cfg HeartbeatConfig, logger *log.Logger) *HeartbeatSender {
	interval := cfg.Interval
	if interval == 0 {
		interval = 60 * time.Second
	}
	return &HeartbeatSender{
		client:   c,
		moduleID: cfg.ModuleID,
		version:  cfg.FirmwareVersion,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the background loop: one heartbeat immediately, then one
// per interval until ctx is cancelled or Stop is called.
func (h *HeartbeatSender) Start(ctx context.Context) {
	if h.interval < 0 {
		h.logger.Info("heartbeat sender disabled")
		close(h.done)
		return
	}

	h.startedAt = time.Now().UTC()
	ctx, h.cancel = context.WithCancel(ctx)
	go h.loop(ctx)

	h.logger.WithField("interval", h.interval).Info("heartbeat sender started")
}

// Stop signals the loop to exit and waits for it.
func (h *HeartbeatSender) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	<-h.done
}

func (h *HeartbeatSender) loop(ctx context.Context) {
	defer close(h.done)

	h.send(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.send(ctx)
		}
	}
}

func (h *HeartbeatSender) send(ctx context.Context) {
	resp, err := h.client.Heartbeat(ctx, types.HeartbeatRequest{
		ModuleID:        h.moduleID,
		FirmwareVersion: h.version,
		UptimeSeconds:   uint64(time.Since(h.startedAt).Seconds()),
	})
	if err != nil {
		h.logger.WithError(err).Debug("heartbeat failed")
		return
	}
	if !resp.Known {
		h.logger.Warn("authority does not recognize this module")
	}
}
