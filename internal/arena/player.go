package arena

import (
	"lightcycle/internal/arena/spatial"
)

// Color is an RGB color with each channel in [0,1].
type Color struct {
	R, G, B float64
}

// PendingInput is one queued direction change, with the wall-clock time it
// was received by the transport layer.
type PendingInput struct {
	Direction Direction
	ReceivedAtMs int64
}

// Player is one connected competitor's full simulation state. It is owned
// exclusively by the engine's tick goroutine (spec.md §5); the only field an
// outside actor may mutate directly is pendingInputs (a single-producer
// push from the client port through EnqueueInput) and startingDirection
// during Countdown (set through SetStartingDirection while the engine's mu is
// held).
type Player struct {
	ID    string
	Name  string
	Color Color
	Score int

	Direction Direction
	Segments  []Segment
	Dead      bool

	pendingInputs *spatial.SPSCQueue[PendingInput]

	// startingDirection is set by an early input during Countdown and
	// consumed once, at the Countdown->Playing transition.
	startingDirection  *Direction

	// Partition is this player's own fixed N*N spatial index over its own
	// trail segments (spec.md §4.B): per-player, not shared.
	Partition *spatial.Partition
}

// NewPlayer creates a player in the born-dead, segment-less state required
// by spec.md §3's lifecycle rule: a Player is created on first join for a
// new user id, with dead=true, segments=[], score=0.
func NewPlayer(id, name string, color Color, aspectRatio float64, numPartitions int) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		Color:         color,
		Score:         0,
		Dead:          true,
		Segments:      nil,
		pendingInputs: spatial.NewSPSCQueue[PendingInput](8),
		Partition:     spatial.NewPartition(aspectRatio, numPartitions),
	}
}

// Head returns the current head position: the second endpoint of the last
// (live) segment. Panics if the player has no segments; callers must guard
// on Dead/len(Segments)==0 first, per invariant I3.
func (p *Player) Head() Point {
	return p.Segments[len(p.Segments)-1].End
}

// HeadSegmentIndex returns the index of the live head segment.
func (p *Player) HeadSegmentIndex() int {
	return len(p.Segments) - 1
}

// EnqueueInput pushes a direction input from the transport layer. Safe to
// call concurrently with the engine tick goroutine (single producer). If the
// bounded queue (capacity 8) is full, the input is dropped — the player is
// already turning far faster than admission can keep up, per spec.md I5.
func (p *Player) EnqueueInput(in PendingInput) {
	p.pendingInputs.TryPush(in)
}

// PeekInput returns the oldest queued input without consuming it.
func (p *Player) PeekInput() (PendingInput, bool) {
	return p.pendingInputs.Peek()
}

// DropInput discards the oldest queued input (it was superseded by a later
// input taken from the same sub-tick window, or is stale from a prior tick).
func (p *Player) DropInput() {
	p.pendingInputs.Drop()
}

// PendingInputCount reports the current queue depth, for invariant checks.
func (p *Player) PendingInputCount() int {
	return p.pendingInputs.Len()
}

// SetStartingDirection records a direction chosen during Countdown.
func (p *Player) SetStartingDirection(d Direction) {
	dd := d
	p.startingDirection = &dd
}

// StartingDirection returns the direction chosen during Countdown, if any.
func (p *Player) StartingDirection() (Direction, bool) {
	if p.startingDirection == nil {
		return 0, false
	}
	return *p.startingDirection, true
}

// ClearStartingDirection resets the provisional direction (end of tick / round).
func (p *Player) ClearStartingDirection() {
	p.startingDirection = nil
}

// resetForRound wipes per-round state, per spec.md §3 "Lifecycle": the round
// manager wipes segments, fieldPartitions, pendingDirectionInputs, clears
// dead, and the caller then seeds one spawn segment.
func (p *Player) resetForRound() {
	p.Segments = p.Segments[:0]
	p.Partition.Reset()
	for {
		if _, ok := p.pendingInputs.TryPop(); !ok {
			break
		}
	}
	p.Dead = false
	p.startingDirection = nil
}

// addSegmentFootprint registers the fat-AABB of the player's segment at
// segIdx into its own partition (invariant I4: index soundness).
func (p *Player) addSegmentFootprint(segIdx int, lineWidth float64) {
	seg := p.Segments[segIdx]
	box := fatAABB(seg, lineWidth)
	p.Partition.InsertFootprint(segIdx, box.MinX, box.MinY, box.MaxX, box.MaxY)
}
