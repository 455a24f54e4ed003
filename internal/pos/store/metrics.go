package store

import (
	"context"
	"time"
)

// recomputeMetricsLocked rebuilds the derived metrics wholesale from the
// transaction log and the rolling completion window. Metrics are never
// patched incrementally.
func (s *Store) recomputeMetricsLocked(now time.Time) {
	cutoff := now.Add(-time.Minute)
	kept := s.completions[:0]
	for _, t := range s.completions {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.completions = kept

	var (
		itemTotal int
		today     = dayOf(now)
	)
	s.stats.TransactionsPerMinute = len(s.completions)
	s.stats.TodayCount = 0
	s.stats.TodayRevenue = 0
	for _, rec := range s.records {
		itemTotal += rec.ItemCount()
		if dayOf(rec.Timestamp) == today {
			s.stats.TodayCount++
			s.stats.TodayRevenue = s.stats.TodayRevenue.Add(rec.Total)
		}
	}
	if len(s.records) > 0 {
		s.stats.AverageCartSize = float64(itemTotal) / float64(len(s.records))
	} else {
		s.stats.AverageCartSize = 0
	}
	s.stats.LastUpdated = now
}

// CheckDayBoundary recomputes day-scoped metrics when the calendar date has
// advanced since the last check.
func (s *Store) CheckDayBoundary() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	today := dayOf(now)
	if today == s.lastDay {
		return
	}
	s.lastDay = today
	s.recomputeMetricsLocked(now)
	s.broadcastMetricsLocked()
	s.log.Info("day boundary crossed; day metrics reset")
}

// RunDayWatcher polls for day-boundary crossings until ctx is cancelled.
func (s *Store) RunDayWatcher(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.DayCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckDayBoundary()
		}
	}
}
