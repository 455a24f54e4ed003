// Package trace records and fans out structured transition events for
// diagnostic replay. The log is a fixed-capacity ring; eviction runs only once
// the buffer overshoots capacity by a slack margin, so steady-state emits do
// not pay a per-event compaction cost.
package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/tillsync/internal/clock"
	"github.com/smallbiznis/tillsync/internal/config"
	"github.com/smallbiznis/tillsync/pkg/observer"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the trace service.
var Module = fx.Module("trace.service",
	fx.Provide(provideConfig),
	fx.Provide(NewService),
)

func provideConfig(cfg config.Config) Config {
	return Config{
		Capacity:      cfg.TraceCapacity,
		Slack:         cfg.TraceSlack,
		StatsInterval: cfg.StatsInterval,
		StatsWindow:   cfg.TraceStatsWindow,
	}
}

// Config sizes the ring buffer and paces the stats broadcast.
type Config struct {
	Capacity      int
	Slack         int
	StatsInterval time.Duration
	StatsWindow   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 500
	}
	if c.Slack < 0 {
		c.Slack = 0
	}
	if c.StatsInterval < 500*time.Millisecond {
		c.StatsInterval = 500 * time.Millisecond
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = 10 * time.Second
	}
	return c
}

// Service is the append-only trace log with subscriber fan-out.
type Service struct {
	log   *zap.Logger
	clock clock.Clock
	cfg   Config

	mu          sync.Mutex
	buf         []Event
	lastStatsAt time.Time

	events *observer.List[Event]
	stats  *observer.List[Stats]
}

func NewService(log *zap.Logger, clk clock.Clock, cfg Config) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("trace")
	return &Service{
		log:    log,
		clock:  clk,
		cfg:    cfg.withDefaults(),
		events: observer.NewList[Event](log),
		stats:  observer.NewList[Stats](log),
	}
}

// OnEvent subscribes to every emitted event.
func (s *Service) OnEvent(fn func(Event)) (unsubscribe func()) {
	return s.events.Subscribe(fn)
}

// OnStats subscribes to the throttled stats broadcast.
func (s *Service) OnStats(fn func(Stats)) (unsubscribe func()) {
	return s.stats.Subscribe(fn)
}

// Emit records a new event, notifies event subscribers synchronously, and
// forwards a stats snapshot if the throttle interval has elapsed. Subscriber
// panics are isolated by the observer list and never reach the caller.
func (s *Service) Emit(typ EventType, source string, opts ...Option) Event {
	now := s.clock.Now()
	evt := Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Type:      typ,
		Source:    source,
	}
	for _, opt := range opts {
		opt(&evt)
	}

	s.mu.Lock()
	s.buf = append(s.buf, evt)
	if len(s.buf) > s.cfg.Capacity+s.cfg.Slack {
		// Evict down to capacity in one copy.
		keep := s.buf[len(s.buf)-s.cfg.Capacity:]
		compacted := make([]Event, len(keep), s.cfg.Capacity+s.cfg.Slack)
		copy(compacted, keep)
		s.buf = compacted
	}
	var statsSnap *Stats
	if s.lastStatsAt.IsZero() || now.Sub(s.lastStatsAt) >= s.cfg.StatsInterval {
		s.lastStatsAt = now
		snap := s.computeStatsLocked(now)
		statsSnap = &snap
	}
	s.mu.Unlock()

	s.events.Notify(evt)
	if statsSnap != nil {
		s.stats.Notify(*statsSnap)
	}
	return evt
}

// Len reports the current buffer size.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// History returns the most recent limit events in original order. A limit of
// zero or less returns the whole buffer.
func (s *Service) History(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.buf)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	copy(out, s.buf[len(s.buf)-n:])
	return out
}

// Stats computes a fresh snapshot over the trailing window.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computeStatsLocked(s.clock.Now())
}

func (s *Service) computeStatsLocked(now time.Time) Stats {
	cutoff := now.Add(-s.cfg.StatsWindow)

	counts := make(map[EventType]int)
	latencySums := make(map[EventType]time.Duration)
	latencyCounts := make(map[EventType]int)
	total := 0
	for _, evt := range s.buf {
		if evt.Timestamp.Before(cutoff) {
			continue
		}
		total++
		counts[evt.Type]++
		if evt.Latency != nil {
			latencySums[evt.Type] += *evt.Latency
			latencyCounts[evt.Type]++
		}
	}

	avg := make(map[EventType]time.Duration, len(latencySums))
	for typ, sum := range latencySums {
		avg[typ] = sum / time.Duration(latencyCounts[typ])
	}

	return Stats{
		EventsPerSecond: float64(total) / s.cfg.StatsWindow.Seconds(),
		Counts:          counts,
		AvgLatency:      avg,
		Window:          s.cfg.StatsWindow,
		GeneratedAt:     now,
	}
}
