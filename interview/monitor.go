package interview

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/safal938/nurse-sim/logging"
	"github.com/safal938/nurse-sim/transcript"
)

// DefaultPollInterval is how often the monitor checks the transcript.
const DefaultPollInterval = time.Second

// MonitorOptions configure a Monitor.
type MonitorOptions struct {
	PollInterval time.Duration
	// WakeOnAppend additionally wakes the monitor as soon as the transcript
	// grows instead of waiting for the next poll.
	WakeOnAppend bool
	// TriggerGate consults Capabilities.ShouldRun before each pass. A
	// negative answer still advances the checkpoint.
	TriggerGate bool
	Logger      logging.Logger
}

// MonitorStats are cumulative counters of a monitor.
type MonitorStats struct {
	Passes   int64
	Skipped  int64
	Failures int64
}

// Monitor runs the enrichment pipeline in the background whenever the
// transcript grows past its checkpoint, then publishes the result to the
// client through the relay and to the main loop through the cache.
//
// The checkpoint only advances after a pass has completed and published,
// so a failed pass is retried on the next tick against the larger
// transcript.
type Monitor struct {
	log      *transcript.Log
	pipeline *Pipeline
	caps     Capabilities
	relay    *Relay
	cache    *RankedCache
	opts     MonitorOptions

	checkpoint atomic.Int64
	passes     atomic.Int64
	skipped    atomic.Int64
	failures   atomic.Int64

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewMonitor creates a stopped monitor.
func NewMonitor(log *transcript.Log, pipeline *Pipeline, caps Capabilities, relay *Relay, cache *RankedCache, optFns ...func(o *MonitorOptions)) *Monitor {
	opts := MonitorOptions{PollInterval: DefaultPollInterval, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Monitor{
		log:      log,
		pipeline: pipeline,
		caps:     caps,
		relay:    relay,
		cache:    cache,
		opts:     opts,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. Later calls are no-ops.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		go m.run(ctx)
	})
}

// Stop asks the loop to exit after its current pass. A capability call in
// flight is not interrupted. Stop is idempotent.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Wait blocks until the loop has exited. It returns immediately if the
// monitor was never started.
func (m *Monitor) Wait() {
	started := true
	m.startOnce.Do(func() {
		started = false
		close(m.done)
	})
	if started {
		<-m.done
	}
}

// Checkpoint is the transcript length covered by the last successful pass.
func (m *Monitor) Checkpoint() int { return int(m.checkpoint.Load()) }

// Stats returns the monitor's counters.
func (m *Monitor) Stats() MonitorStats {
	return MonitorStats{Passes: m.passes.Load(), Skipped: m.skipped.Load(), Failures: m.failures.Load()}
}

func (m *Monitor) run(parent context.Context) {
	defer close(m.done)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go func() {
		select {
		case <-m.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	var grown <-chan struct{}
	if m.opts.WakeOnAppend {
		grown = m.log.Grown()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-grown:
		}
		if ctx.Err() != nil {
			return
		}
		if _, err := m.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.failures.Add(1)
			m.opts.Logger.Warn("enrichment pass failed", "error", err)
		}
	}
}

// tick performs at most one pass and reports whether one ran.
func (m *Monitor) tick(ctx context.Context) (ran bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ran = false
			err = fmt.Errorf("enrichment panicked: %v", r)
			logging.ErrorWithStack(m.opts.Logger, err, "enrichment pass panicked")
		}
	}()

	snap := m.log.Snapshot()
	n := int64(len(snap))
	if n <= m.checkpoint.Load() {
		return false, nil
	}

	if m.opts.TriggerGate {
		tr := m.caps.ShouldRun(ctx, snap)
		if !tr.ShouldRun {
			m.opts.Logger.Debug("enrichment skipped by trigger", "reason", tr.Reason, "entries", n)
			m.skipped.Add(1)
			m.checkpoint.Store(n)
			return false, nil
		}
	}

	done := logging.StartTimer(m.opts.Logger, "enrichment pass")
	enr, err := m.pipeline.Run(ctx, snap)
	if err != nil {
		return false, err
	}

	m.relay.Push(ctx, DiagnosisEvent(enr.Diagnoses))
	m.relay.Push(ctx, QuestionsEvent(enr.Questions))
	m.cache.Store(enr.Ranked)
	m.checkpoint.Store(n)
	m.passes.Add(1)

	done("entries", n, "diagnoses", len(enr.Diagnoses), "ranked", len(enr.Ranked))
	return true, nil
}
