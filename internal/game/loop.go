package game

import (
	"sync"
	"time"

	"tag-arena/server/internal/telemetry"
)

// LoopConfig tunes one room's tick loop.
type LoopConfig struct {
	// Interval between ticks; defaults to TickInterval.
	Interval time.Duration
	// BroadcastEvery emits a snapshot every N ticks; defaults to 1.
	BroadcastEvery int
	Logger         telemetry.Logger
	// OnSnapshot receives the post-step state on the broadcast cadence.
	OnSnapshot func(Snapshot)
}

// Loop drives a single started room at a fixed cadence. Each room gets its
// own loop goroutine so one room can never block another.
type Loop struct {
	room *Room
	cfg  LoopConfig

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop wraps a room without starting it; call Start to begin ticking.
func NewLoop(room *Room, cfg LoopConfig) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = TickInterval
	}
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = 1
	}
	return &Loop{
		room: room,
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the tick goroutine.
func (l *Loop) Start() {
	go l.run()
}

// Stop halts ticking and waits for the loop goroutine to exit, so callers can
// safely tear the room down afterwards. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	var sinceBroadcast int
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.tick(&sinceBroadcast)
		}
	}
}

// tick runs one step with panic isolation: a failure in one room's step must
// never take down other rooms' loops.
func (l *Loop) tick(sinceBroadcast *int) {
	defer func() {
		if rec := recover(); rec != nil && l.cfg.Logger != nil {
			l.cfg.Logger.Printf("recovered panic in room %s tick: %v", l.room.Code(), rec)
		}
	}()

	l.room.Step()

	*sinceBroadcast++
	if *sinceBroadcast >= l.cfg.BroadcastEvery {
		*sinceBroadcast = 0
		if l.cfg.OnSnapshot != nil {
			l.cfg.OnSnapshot(l.room.Snapshot())
		}
	}
}
