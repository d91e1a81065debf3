package arena

// stepPlayerLocked runs one sub-tick of simulation for a single live player
// (spec.md §4.F). Caller holds e.mu and is iterating players in the fixed,
// stable order required by spec.md §5.
func (e *Engine) stepPlayerLocked(p *Player, beginCutoffMs, endCutoffMs, deltaMs float64) {
	// 1. Input admission: first queued input in-window whose direction is
	// neither current nor opposite; drop every earlier superseded input too.
	for {
		in, ok := p.PeekInput()
		if !ok {
			break
		}
		ts := float64(in.ReceivedAtMs)
		if ts >= endCutoffMs {
			break // not yet in this sub-tick's window
		}
		p.DropInput()
		if ts < beginCutoffMs {
			continue // stale, already superseded
		}
		if in.Direction == p.Direction || in.Direction == p.Direction.Opposite() {
			continue // invalid turn (spec.md §7): silently ignored
		}
		e.addSegment(p, in.Direction)
		break
	}

	// 2. Extend head.
	head := p.HeadSegmentIndex()
	oldEnd := p.Segments[head].End
	dx, dy := p.Direction.Delta()
	travel := e.arena.MoveSpeed * deltaMs / 1000.0
	newEnd := Point{X: oldEnd.X + dx*travel, Y: oldEnd.Y + dy*travel}
	p.Segments[head].End = newEnd

	// 3. Boundary test.
	if !inBounds(newEnd, e.arena.AspectRatio) || !isFinitePoint(newEnd) {
		p.Dead = true
		e.eventLog.emit(EventTypePlayerDeath, e.tickCount, p.ID, PlayerDeathPayload{X: newEnd.X, Y: newEnd.Y})
	}

	// 4. Collision test against the travel slice [oldEnd, newEnd].
	if !p.Dead {
		travelSeg := Segment{Start: oldEnd, End: newEnd}
		box := fatAABB(travelSeg, e.arena.LineWidth)

		for _, otherID := range e.order {
			other := e.players[otherID]
			if len(other.Segments) == 0 {
				continue
			}

			// A dead player's existing trail remains a solid obstacle
			// (invariant I6: no further mutation, but no removal either).
			self := other == p
			var hitIdx = -1
			other.Partition.QueryFootprint(box.MinX, box.MinY, box.MaxX, box.MaxY, func(segIdx int) {
				if hitIdx != -1 || p.Dead {
					return
				}
				if self && (head-segIdx) < 2 {
					return // can't hit the segment just turned out of, or own head
				}
				if segIdx >= len(other.Segments) {
					return
				}
				start, _, hit := lineToLine(travelSeg, other.Segments[segIdx], e.arena.LineWidth)
				if hit {
					p.Dead = true
					p.Segments[head].End = start
					hitIdx = segIdx
					e.eventLog.emit(EventTypePlayerDeath, e.tickCount, p.ID, PlayerDeathPayload{X: start.X, Y: start.Y})
				}
			})
			if p.Dead {
				break
			}
		}
	}

	// 5. Index update: insert even on death so other players this sub-tick
	// see the final trail.
	finalSeg := p.Segments[head]
	finalBox := fatAABB(finalSeg, e.arena.LineWidth)
	p.Partition.InsertFootprint(head, finalBox.MinX, finalBox.MinY, finalBox.MaxX, finalBox.MaxY)
}

// addSegment performs the "Add Segment" turn operation (spec.md §4.F): a
// zero-length segment in the new direction, offset from the current head by
// a lineWidth corner nub both along the new axis and back along the old one.
func (e *Engine) addSegment(p *Player, newDir Direction) {
	l := e.arena.LineWidth
	oldDir := p.Direction
	cur := p.Head()

	oldDX, oldDY := oldDir.Delta()
	newDX, newDY := newDir.Delta()

	start := Point{
		X: cur.X + newDX*l - oldDX*l,
		Y: cur.Y + newDY*l - oldDY*l,
	}

	p.Segments = append(p.Segments, Segment{Start: start, End: start})
	p.Direction = newDir
}
