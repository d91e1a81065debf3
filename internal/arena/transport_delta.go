package arena

// sendDeltasLocked implements the per-client delta transport (spec.md §4.G):
// for every connected client, for every known player, send p.segments[w:]
// where w is that client's watermark for p, then advance w to len-1 — never
// to len, so the live head segment (still growing) is included again in the
// next send too. The watermark only advances once Send reports success: a
// failed send leaves it where it was, so the same segments are retried
// whole on the next tick instead of being lost. Caller holds e.mu.
func (e *Engine) sendDeltasLocked() {
	for receiverID, c := range e.clients {
		port, ok := e.ports[receiverID]
		if !ok {
			continue // disconnected, still within grace period
		}

		var fragments []PlayerStateFragment
		advances := make(map[string]int)
		for _, pid := range e.order {
			p := e.players[pid]
			if len(p.Segments) == 0 {
				continue
			}

			w, ok := c.watermarks[pid]
			if !ok {
				w = 0
			}
			if w > len(p.Segments)-1 {
				w = len(p.Segments) - 1 // invariant I4 guard: never ahead
			}

			wire := make([]WireSegment, 0, len(p.Segments)-w)
			for _, seg := range p.Segments[w:] {
				wire = append(wire, seg.ToWire())
			}
			fragments = append(fragments, PlayerStateFragment{ID: pid, MissingSegments: wire})

			if w < len(p.Segments)-1 {
				advances[pid] = len(p.Segments) - 1
			}
		}

		if len(fragments) == 0 {
			continue
		}
		if err := port.Send(EventGameState, GameStatePayload{Players: fragments}); err != nil {
			continue // send failed: watermarks stay put, retried next tick
		}
		for pid, w := range advances {
			c.watermarks[pid] = w
		}
	}
}
