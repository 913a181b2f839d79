package sequence

import (
	"time"

	"go.uber.org/zap"
)

// debugStats holds per-frame playback metrics. Only gathered when the scene
// is in debug mode.
type debugStats struct {
	advanceTime time.Duration
	registered  int
	active      int
	entries     int
	pending     int
}

// debugLog writes the frame's stats at debug level.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	s.log.Debug("Frame",
		zap.Duration("advance", stats.advanceTime),
		zap.Int("registered", stats.registered),
		zap.Int("active", stats.active),
		zap.Int("entries", stats.entries),
		zap.Int("pending", stats.pending))
}

// debugCheckTargets warns about disposed nodes still targeted by tl. Their
// entries are skipped at render time, which usually means a scope needs
// Invalidate.
func (s *Scene) debugCheckTargets(tl *Timeline) {
	var names []string
	for _, e := range tl.entries {
		for _, n := range e.targets {
			if n.IsDisposed() {
				names = append(names, n.Name)
			}
		}
	}
	if len(names) > 0 {
		s.log.Warn("Timeline targets disposed nodes", zap.String("timeline", tl.id), zap.Strings("nodes", names))
	}
}

// countEntries counts placed entries of tl and its nested timelines.
func countEntries(tl *Timeline) int {
	n := 0
	for _, e := range tl.entries {
		n++
		if e.child != nil {
			n += countEntries(e.child)
		}
	}
	return n
}
