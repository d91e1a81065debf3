package arena

import (
	"log"
	"time"

	"lightcycle/internal/observability"
)

// Start begins the tick scheduler: a single goroutine firing at TickRate Hz,
// each tick subdivided into SubTickRate sub-ticks (spec.md §4.E). Ticks run
// the simulation step only in Playing; in any other state the scheduler
// still fires at the same rate to service pending redraws (spec.md §4.E).
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.arena.TickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("⏱️  tick scheduler started at %d Hz, %d sub-ticks/tick", e.arena.TickRate, e.arena.SubTickRate)
}

// Stop halts the tick scheduler.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("⏱️  tick scheduler stopped")
}

// tick is the single writer to all player/round state: it executes to
// completion without yielding (spec.md §5). It subdivides into sub-ticks
// only while Playing; otherwise it just flushes any pending deltas (redraw
// service) and returns.
func (e *Engine) tick() {
	tickStart := time.Now()
	defer func() { observability.RecordTick(time.Since(tickStart)) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickCount++
	observability.UpdatePlayerCount(len(e.players))

	if e.state != Playing {
		e.sendDeltasLocked()
		return
	}

	deltaMs := 1000.0 / (float64(e.arena.TickRate) * float64(e.arena.SubTickRate))
	tickEndMs := float64(time.Now().UnixMilli())
	tickStartMs := tickEndMs - 1000.0/float64(e.arena.TickRate)

	for k := 0; k < e.arena.SubTickRate; k++ {
		subTickStart := time.Now()
		beginCutoff := tickStartMs + float64(k)*deltaMs
		endCutoff := beginCutoff + deltaMs

		for _, id := range e.order {
			p := e.players[id]
			if p.Dead {
				continue
			}
			e.stepPlayerLocked(p, beginCutoff, endCutoff, deltaMs)
		}
		observability.RecordSubTick(time.Since(subTickStart))

		// Refresh prevAlive (or end the round) after every sub-tick, not
		// just once after the loop: with 3+ players, a death in an earlier
		// sub-tick must be reflected in prevAlive before a later sub-tick's
		// simultaneous deaths are scored, or a dead player can still be
		// counted among the winners.
		e.maybeEndRoundLocked()
		if e.state != Playing {
			break
		}
	}

	for _, id := range e.order {
		e.players[id].ClearStartingDirection()
	}
	for _, c := range e.clients {
		c.pendingRedraw = false
	}

	e.sendDeltasLocked()
}
