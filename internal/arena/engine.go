package arena

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"lightcycle/internal/arena/rank"
	"lightcycle/internal/config"
)

// Engine is the authoritative arena: the tick-driven simulation, the round
// state machine, and the per-client delta transport, all owned by a single
// tick goroutine. Structural mutations (join/disconnect/start/redraw) come
// from the transport goroutine and are synchronized with mu, mirroring the
// teacher engine's own mu sync.RWMutex; the one genuinely hot, per-sub-tick
// path (direction input admission) instead uses the lock-free SPSC queue on
// Player so the tick loop never blocks on transport traffic.
type Engine struct {
	mu sync.Mutex

	arena  config.ArenaConfig
	timing config.TimingConfig

	players map[string]*Player
	order   []string // stable insertion order, iterated every tick (spec.md §5)
	ports   map[string]ClientPort
	clients map[string]*clientState // receiver id -> per-receiver watermarks

	state     RoundState
	prevAlive map[string]bool

	countdownTimer *time.Timer
	ticker         *time.Ticker
	stopChan       chan struct{}
	running        bool

	rng *rand.Rand

	leaderboard *rank.Leaderboard
	eventLog    *EventLog

	tickCount int64
}

// clientState is the per-receiver watermark set spec.md §3 describes as
// "lastSentSegmentIndices ... note: stored on the receiver side": one entry
// per (receiver, source-player) pair, plus a redraw flag for that receiver.
type clientState struct {
	watermarks    map[string]int
	pendingRedraw bool
}

// NewEngine constructs an idle engine with no players.
func NewEngine(arena config.ArenaConfig, timing config.TimingConfig) *Engine {
	return &Engine{
		arena:       arena,
		timing:      timing,
		players:     make(map[string]*Player),
		ports:       make(map[string]ClientPort),
		clients:     make(map[string]*clientState),
		state:       Idle,
		prevAlive:   make(map[string]bool),
		stopChan:    make(chan struct{}),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		leaderboard: rank.NewLeaderboard(),
		eventLog:    NewEventLog(),
	}
}

// Join creates or rebinds a player for userID, registers its outbound port,
// and runs the full join handshake (spec.md §4.G "Join handshake", §4.H).
// The "session" event is the transport layer's responsibility, sent at
// connect time, before join; Join only emits settings and the state
// handshake. Safe to call from the transport goroutine.
func (e *Engine) Join(userID, name string, color Color, port ClientPort) {
	e.mu.Lock()
	defer e.mu.Unlock()

	port.Send(EventGameSettings, GameSettingsPayload{
		AspectRatio: e.arena.AspectRatio,
		LineWidth:   e.arena.LineWidth,
	})

	e.ports[userID] = port
	if _, ok := e.clients[userID]; !ok {
		e.clients[userID] = &clientState{watermarks: make(map[string]int)}
	}

	p, existing := e.players[userID]
	if !existing {
		p = NewPlayer(userID, name, color, e.arena.AspectRatio, e.arena.NumPartitions)
		e.players[userID] = p
		e.order = append(e.order, userID)
		e.eventLog.emit(EventTypePlayerJoin, e.tickCount, userID, nil)
		log.Printf("👤 player joined: %s", name)
	}

	// Handshake: announce every existing player (including the newcomer
	// itself) to the newcomer, and seed this receiver's watermark to the
	// current head so the delta transport picks up from here onward.
	receiver := e.clients[userID]
	for _, id := range e.order {
		other := e.players[id]
		port.Send(EventModifyPlayer, ModifyPlayerPayload{
			ID:    other.ID,
			Name:  other.Name,
			Color: [3]float64{other.Color.R, other.Color.G, other.Color.B},
			Score: other.Score,
		})
		if len(other.Segments) > 0 {
			wire := make([]WireSegment, len(other.Segments))
			for i, s := range other.Segments {
				wire[i] = s.ToWire()
			}
			err := port.Send(EventGameState, GameStatePayload{Players: []PlayerStateFragment{
				{ID: other.ID, MissingSegments: wire},
			}})
			if err == nil {
				receiver.watermarks[other.ID] = other.HeadSegmentIndex()
			}
		}
	}

	// Announce the newcomer to everyone else already connected.
	if !existing {
		for _, id := range e.order {
			if id == userID {
				continue
			}
			if otherPort, ok := e.ports[id]; ok {
				otherPort.Send(EventModifyPlayer, ModifyPlayerPayload{
					ID:    p.ID,
					Name:  p.Name,
					Color: [3]float64{p.Color.R, p.Color.G, p.Color.B},
					Score: p.Score,
				})
			}
		}
	}
}

// Disconnect unregisters userID's outbound port without removing the player
// or its state; the caller (session layer) is responsible for the grace
// period and eventual RemovePlayer call (spec.md §5).
func (e *Engine) Disconnect(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.ports, userID)
}

// RemovePlayer deletes a player and its client state entirely, and notifies
// every other connected client that it is gone. Called by the session layer
// once the reconnect grace period has elapsed.
func (e *Engine) RemovePlayer(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.players[userID]; !ok {
		return
	}
	delete(e.players, userID)
	delete(e.clients, userID)
	delete(e.ports, userID)
	for i, id := range e.order {
		if id == userID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.leaderboard.RemovePlayer(userID)

	e.eventLog.emit(EventTypePlayerLeave, e.tickCount, userID, nil)
	for _, port := range e.ports {
		port.Send(EventRemove, RemovePayload(userID))
	}
	log.Printf("👋 player removed: %s", userID)
}

// Input records a direction change for userID. Unknown ids are silently
// ignored (spec.md §7). During Countdown it is stored as the player's
// provisional startingDirection (spec.md §4.D); otherwise it is pushed onto
// the player's lock-free input queue, the one genuinely hot per-sub-tick path.
func (e *Engine) Input(userID string, d Direction, nowMs int64) {
	e.mu.Lock()
	p, ok := e.players[userID]
	if ok && e.state == Countdown {
		p.SetStartingDirection(d)
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	p.EnqueueInput(PendingInput{Direction: d, ReceivedAtMs: nowMs})
}

// Redraw resets userID's watermarks to 0 and marks pendingRedraw, so the
// next tick (or an immediate send, if idle) resends each player's full trail.
func (e *Engine) Redraw(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clients[userID]
	if !ok {
		return
	}
	for id := range c.watermarks {
		c.watermarks[id] = 0
	}
	c.pendingRedraw = true

	if e.state != Playing {
		e.sendDeltasLocked()
	}
}

// PlayerCount returns the number of known players (alive or not).
func (e *Engine) PlayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.players)
}

// StartEventLog begins writing the round-lifecycle audit trail to filePath.
// An empty filePath still buffers and counts events, just never flushes them.
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and stops the audit trail writer.
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// Leaderboard exposes the cumulative cross-round leaderboard for read-only
// queries (e.g. an HTTP handler serving a top-N endpoint).
func (e *Engine) Leaderboard() *rank.Leaderboard {
	return e.leaderboard
}

// PlayerSnapshot is a read-only, copied view of one player's drawable state,
// safe to use outside of e.mu (e.g. by a debug renderer running on another
// goroutine).
type PlayerSnapshot struct {
	Name     string
	Color    Color
	Segments []Segment
	Dead     bool
}

// Snapshot returns the arena's geometry and a copy of every player's current
// trail, for a debug/spectator renderer. Never called from the tick path.
func (e *Engine) Snapshot() (aspectRatio, lineWidth float64, players []PlayerSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	players = make([]PlayerSnapshot, 0, len(e.order))
	for _, id := range e.order {
		p := e.players[id]
		segs := make([]Segment, len(p.Segments))
		copy(segs, p.Segments)
		players = append(players, PlayerSnapshot{
			Name:     p.Name,
			Color:    p.Color,
			Segments: segs,
			Dead:     p.Dead,
		})
	}
	return e.arena.AspectRatio, e.arena.LineWidth, players
}
