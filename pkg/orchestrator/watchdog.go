package orchestrator

import (
	"context"
	"time"
)

// startWatchdog launches the per-session inactivity watchdog (spec §4.6):
// every tick, if silence since lastAudioAt has reached timeout and the
// session is still registered, it triggers auto-stop. Socket disconnects do
// not cancel it — only explicit stop (which cancels the stored context) or
// the auto-stop it triggers itself does.
func (svc *Service) startWatchdog(sessionID string) {
	st, ok := svc.registry.get(sessionID)
	if !ok || st.watchdogRunning {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	st.watchdogCancel = cancel
	st.watchdogRunning = true

	go func() {
		ticker := time.NewTicker(svc.cfg.WatchdogTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st, ok := svc.registry.get(sessionID)
				if !ok {
					return
				}
				st.mu.Lock()
				silence := time.Since(st.lastAudioAt)
				alreadyStopped := st.stopped
				st.mu.Unlock()

				if alreadyStopped {
					continue
				}
				if silence >= svc.cfg.SilenceTimeout {
					svc.autoStop(sessionID)
					return
				}
			}
		}
	}()
}
