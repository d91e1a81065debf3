package arena

import (
	"log"
	"math"
	"time"

	"lightcycle/internal/observability"
)

// RoundState is the arena's lifecycle state (spec.md §4.D).
type RoundState int

const (
	Idle RoundState = iota
	Countdown
	Playing
)

func (s RoundState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Countdown:
		return "countdown"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// StartRound transitions Idle->Countdown if at least two players are
// connected; otherwise it is a silent no-op (spec.md scenario 6). Safe to
// call from the transport goroutine.
func (e *Engine) StartRound() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Idle || len(e.players) < 2 {
		return
	}

	e.state = Countdown
	observability.UpdateRoundState(int(Countdown))
	e.prevAlive = make(map[string]bool, len(e.players))
	for _, id := range e.order {
		e.prevAlive[id] = true
		e.spawnPlayerLocked(e.players[id])
	}

	for _, port := range e.ports {
		port.Send(EventStarting, nil)
	}
	e.eventLog.emit(EventTypeRoundStart, e.tickCount, "", RoundStartPayload{PlayerIDs: append([]string(nil), e.order...)})
	log.Printf("🏁 round starting with %d players", len(e.players))

	delay := time.Duration(e.timing.RoundStartDelayMs) * time.Millisecond
	e.countdownTimer = time.AfterFunc(delay, e.completeCountdown)
}

// spawnPlayerLocked wipes a player's round state and places it at a random
// point at least MinSpawnDist from every edge, with a random initial
// direction and a seed segment of length lineWidth (spec.md §4.D). Caller
// must hold e.mu.
func (e *Engine) spawnPlayerLocked(p *Player) {
	p.resetForRound()

	a := e.arena.AspectRatio
	margin := e.arena.MinSpawnDist
	x := (e.rng.Float64()*2 - 1) * (a - margin)
	y := (e.rng.Float64()*2 - 1) * (1 - margin)

	dir := Direction(e.rng.Intn(4))
	dx, dy := dir.Delta()
	l := e.arena.LineWidth
	start := Point{X: x, Y: y}
	end := Point{X: x + dx*l, Y: y + dy*l}

	p.Direction = dir
	p.Segments = append(p.Segments, Segment{Start: start, End: end})
	p.addSegmentFootprint(0, e.arena.LineWidth)
}

// completeCountdown applies any startingDirection chosen during Countdown
// and transitions to Playing. Runs on the timer goroutine; takes mu like
// every other structural mutation.
func (e *Engine) completeCountdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Countdown {
		return
	}

	for _, id := range e.order {
		p := e.players[id]
		if dir, ok := p.StartingDirection(); ok {
			// Open question (spec.md §9): accepted unconditionally, no
			// opposite-of-current filter, matching the simplest source
			// variant.
			l := e.arena.LineWidth
			head := p.Head()
			dx, dy := dir.Delta()
			p.Segments[p.HeadSegmentIndex()] = Segment{
				Start: head,
				End:   Point{X: head.X + dx*l, Y: head.Y + dy*l},
			}
			p.Direction = dir
			p.Partition.Reset()
			p.addSegmentFootprint(0, l)
		}
		p.ClearStartingDirection()
	}

	e.state = Playing
	observability.UpdateRoundState(int(Playing))
	log.Printf("🎮 round playing")
}

// maybeEndRoundLocked counts alive players and, if at most one remains,
// transitions Playing->Idle, attributing wins per spec.md §4.D and the
// simultaneous-death tie policy (§9 Open Questions: award all of prevAlive).
// Otherwise it refreshes prevAlive to the current survivors. Called once per
// sub-tick, not once per tick: prevAlive must reflect deaths from every
// earlier sub-tick before a later sub-tick's simultaneous deaths are scored.
// Caller must hold e.mu.
func (e *Engine) maybeEndRoundLocked() {
	if e.state != Playing {
		return
	}

	alive := make([]string, 0, len(e.order))
	for _, id := range e.order {
		if !e.players[id].Dead {
			alive = append(alive, id)
		}
	}

	if len(alive) > 1 {
		e.prevAlive = make(map[string]bool, len(alive))
		for _, id := range alive {
			e.prevAlive[id] = true
		}
		return
	}

	var winners []string
	if len(alive) == 1 {
		winners = alive
	} else {
		for id := range e.prevAlive {
			winners = append(winners, id)
		}
	}

	for _, id := range winners {
		p, ok := e.players[id]
		if !ok {
			continue
		}
		p.Score++
		e.leaderboard.UpdateScore(p.ID, float64(p.Score))
		if port, ok := e.ports[id]; ok {
			port.Send(EventModifyPlayer, ModifyPlayerPayload{
				ID:    p.ID,
				Name:  p.Name,
				Color: [3]float64{p.Color.R, p.Color.G, p.Color.B},
				Score: p.Score,
			})
		}
		for _, otherID := range e.order {
			if otherID == id {
				continue
			}
			if port, ok := e.ports[otherID]; ok {
				port.Send(EventModifyPlayer, ModifyPlayerPayload{
					ID:    p.ID,
					Name:  p.Name,
					Color: [3]float64{p.Color.R, p.Color.G, p.Color.B},
					Score: p.Score,
				})
			}
		}
	}

	e.eventLog.emit(EventTypeRoundOver, e.tickCount, "", RoundOverPayload{WinnerIDs: winners})
	for _, port := range e.ports {
		port.Send(EventRoundOver, nil)
	}
	log.Printf("🏆 round over, %d winner(s)", len(winners))

	e.state = Idle
	observability.UpdateRoundState(int(Idle))
	observability.RecordRoundCompleted()
}

// isFinitePoint guards against NaN/Inf leaking into a spawn or collision
// point from pathological float arithmetic; never expected in practice but
// cheap to assert.
func isFinitePoint(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
