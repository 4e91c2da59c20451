package usecase

import (
	"context"
	"time"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

// PresenceTracker marks a user online for the lifetime of their session.
// Writes are fire and forget: a presence failure must never block chat
// initialization. The heartbeat refreshes lastSeen so other clients can
// treat a stale record as offline when the transport dropped uncleanly.
type PresenceTracker struct {
	store             repository.PresenceStore
	userID            string
	heartbeatInterval time.Duration
	cancel            context.CancelFunc
}

func NewPresenceTracker(store repository.PresenceStore, userID string, heartbeatInterval time.Duration) *PresenceTracker {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &PresenceTracker{
		store:             store,
		userID:            userID,
		heartbeatInterval: heartbeatInterval,
	}
}

// Start writes the online record and begins the heartbeat.
func (p *PresenceTracker) Start(ctx context.Context) {
	hbCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	if err := p.store.SetOnline(ctx, p.userID, true); err != nil {
		logger.Warn("Presence online write failed for %s: %v", p.userID, err)
	}

	go func() {
		ticker := time.NewTicker(p.heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := p.store.SetOnline(hbCtx, p.userID, true); err != nil {
					logger.Warn("Presence heartbeat failed for %s: %v", p.userID, err)
				}
			}
		}
	}()
}

// Stop halts the heartbeat and writes the offline record on a fresh context,
// since the session context is usually already cancelled at this point.
func (p *PresenceTracker) Stop() {
	if p.cancel != nil {
		p.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.SetOnline(ctx, p.userID, false); err != nil {
		logger.Warn("Presence offline write failed for %s: %v", p.userID, err)
	}
}
