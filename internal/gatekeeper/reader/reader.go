package reader

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doorward/gatekeeper/internal/gatekeeper/credential"
	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

// CardReader abstracts the RFID hardware down to "give me UID bytes".
// Poll returns (nil, nil) when no card is present, and an error for a
// malformed read — the loop skips that cycle without deciding anything.
type CardReader interface {
	Poll(ctx context.Context) ([]byte, error)
}

// Latch is the actuator side: the relay, strike plate, whatever holds
// the door.  The loop's responsibility ends at handing it the boolean.
type Latch interface {
	Set(ctx context.Context, open bool) error
}

// Authorizer is the decision pipeline the loop feeds credentials into.
type Authorizer interface {
	Authorize(ctx context.Context, cardID string) (types.Decision, error)
}

type LoopConfig struct {
	// PollInterval is the fixed sleep between hardware polls.
	// Defaults to 1s.
	PollInterval time.Duration
}

// Loop drives one physical reader: poll, canonicalize, decide, actuate,
// sleep, repeat.  Strictly one decision in flight at a time — a door
// has one human in front of it.
type Loop struct {
	reader   CardReader
	latch    Latch
	auth     Authorizer
	interval time.Duration
	logger   *log.Logger
}

func NewLoop(r CardReader, l Latch, a Authorizer, cfg LoopConfig, logger *log.Logger) *Loop {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Loop{
		reader:   r,
		latch:    l,
		auth:     a,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, returning ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.cycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// cycle performs one poll-decide-actuate pass.  Nothing in here is
// allowed to abort the loop: hardware glitches skip the cycle, and the
// authorizer already guarantees a definite answer.
func (l *Loop) cycle(ctx context.Context) {
	raw, err := l.reader.Poll(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("card read failed, skipping cycle")
		return
	}
	if len(raw) == 0 {
		return // no card presented
	}

	cardID, err := credential.Canonicalize(raw)
	if err != nil {
		l.logger.WithError(err).Warn("unusable scan, skipping cycle")
		return
	}

	dec, err := l.auth.Authorize(ctx, cardID)
	if err != nil {
		l.logger.WithError(err).Warn("authorize failed, skipping cycle")
		return
	}

	if err := l.latch.Set(ctx, dec.Granted); err != nil {
		l.logger.WithError(err).Error("latch actuation failed")
	}

	l.logger.WithFields(log.Fields{
		"card_id": cardID,
		"granted": dec.Granted,
		"reason":  dec.Reason,
		"source":  dec.Source,
	}).Info("decision")
}
