package arena

import (
	"errors"
	"testing"

	"lightcycle/internal/config"
)

type fakePort struct {
	events []string
	last   map[string]any
}

func newFakePort() *fakePort {
	return &fakePort{last: make(map[string]any)}
}

func (f *fakePort) Send(event string, payload any) error {
	f.events = append(f.events, event)
	f.last[event] = payload
	return nil
}

type failingPort struct {
	fail bool
}

func (f *failingPort) Send(event string, payload any) error {
	if f.fail {
		return errors.New("write failed")
	}
	return nil
}

func testEngine() *Engine {
	arenaCfg := config.DefaultArena()
	timingCfg := config.DefaultTiming()
	return NewEngine(arenaCfg, timingCfg)
}

func TestEngineJoinSendsSettingsAndModifyPlayer(t *testing.T) {
	e := testEngine()
	port := newFakePort()

	e.Join("u1", "Alice", Color{R: 1}, port)

	if _, ok := port.last[EventGameSettings]; !ok {
		t.Error("Join should send game_settings")
	}
	if _, ok := port.last[EventModifyPlayer]; !ok {
		t.Error("Join should send modify_player for the new player itself")
	}
	if e.PlayerCount() != 1 {
		t.Errorf("PlayerCount() = %d, want 1", e.PlayerCount())
	}
}

func TestEngineJoinAnnouncesNewcomerToExistingPlayers(t *testing.T) {
	e := testEngine()
	port1 := newFakePort()
	port2 := newFakePort()

	e.Join("u1", "Alice", Color{}, port1)
	port1.events = nil // clear the handshake noise before the second join

	e.Join("u2", "Bob", Color{}, port2)

	found := false
	for _, ev := range port1.events {
		if ev == EventModifyPlayer {
			found = true
		}
	}
	if !found {
		t.Error("existing player's port should be notified of the newcomer via modify_player")
	}
}

func TestEngineInputDuringCountdownSetsStartingDirection(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()

	if e.state != Countdown {
		t.Fatalf("state = %v, want Countdown", e.state)
	}

	e.Input("u1", Left, 123)

	p := e.players["u1"]
	d, ok := p.StartingDirection()
	if !ok || d != Left {
		t.Errorf("StartingDirection() = (%v, %v), want (Left, true)", d, ok)
	}
	if p.PendingInputCount() != 0 {
		t.Error("an input during Countdown must not be enqueued as a sub-tick input")
	}
}

func TestEngineInputDuringPlayingEnqueues(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()
	e.completeCountdown()

	if e.state != Playing {
		t.Fatalf("state = %v, want Playing", e.state)
	}

	e.Input("u1", Left, 456)

	p := e.players["u1"]
	if p.PendingInputCount() != 1 {
		t.Errorf("PendingInputCount() = %d, want 1 while Playing", p.PendingInputCount())
	}
}

func TestEngineInputUnknownPlayerIgnored(t *testing.T) {
	e := testEngine()
	e.Input("ghost", Up, 1) // must not panic
}

func TestStartRoundRequiresTwoPlayers(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.StartRound()

	if e.state != Idle {
		t.Errorf("state = %v, want Idle (StartRound with <2 players is a no-op)", e.state)
	}
}

func TestRemovePlayerNotifiesOthers(t *testing.T) {
	e := testEngine()
	port1 := newFakePort()
	port2 := newFakePort()
	e.Join("u1", "Alice", Color{}, port1)
	e.Join("u2", "Bob", Color{}, port2)
	port1.events = nil

	e.RemovePlayer("u2")

	if e.PlayerCount() != 1 {
		t.Errorf("PlayerCount() = %d, want 1 after removal", e.PlayerCount())
	}
	found := false
	for _, ev := range port1.events {
		if ev == EventRemove {
			found = true
		}
	}
	if !found {
		t.Error("remaining player should be notified via a remove event")
	}
}

func TestRemovePlayerClearsLeaderboardEntry(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.leaderboard.UpdateScore("u1", 3)

	e.RemovePlayer("u1")

	if _, ok := e.leaderboard.GetScore("u1"); ok {
		t.Error("a removed player's leaderboard entry should be cleared, not left stale")
	}
}

func TestRedrawResetsWatermarks(t *testing.T) {
	e := testEngine()
	port1 := newFakePort()
	e.Join("u1", "Alice", Color{}, port1)
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()
	e.completeCountdown()

	// Simulate a turn so u1 has a finalized segment behind its live head,
	// giving sendDeltasLocked something to advance the watermark past.
	p1 := e.players["u1"]
	p1.Segments = append(p1.Segments, Segment{Start: p1.Head(), End: p1.Head()})
	e.sendDeltasLocked()

	c := e.clients["u1"]
	if c.watermarks["u1"] != 1 {
		t.Fatalf("watermark for u1 = %d, want 1 after its second segment was finalized", c.watermarks["u1"])
	}

	e.Redraw("u1")

	if c.watermarks["u1"] != 0 {
		t.Errorf("watermark for u1 = %d, want 0 after Redraw", c.watermarks["u1"])
	}
	if !c.pendingRedraw {
		t.Error("pendingRedraw should be set after Redraw")
	}
}

func TestSendDeltasAlwaysResendsLiveHeadSegment(t *testing.T) {
	e := testEngine()
	port1 := newFakePort()
	e.Join("u1", "Alice", Color{}, port1)
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()
	e.completeCountdown()

	e.sendDeltasLocked()
	first := len(port1.events)
	if first == 0 {
		t.Fatal("expected at least one game_state send for the live head segment")
	}

	port1.events = nil
	e.sendDeltasLocked()
	if len(port1.events) == 0 {
		t.Error("the still-growing head segment must be resent every tick, not skipped")
	}
}

func TestSendDeltasDoesNotAdvanceWatermarkOnFailedSend(t *testing.T) {
	e := testEngine()
	fp := &failingPort{}
	e.Join("u1", "Alice", Color{}, fp)
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()
	e.completeCountdown()

	p1 := e.players["u1"]
	p1.Segments = append(p1.Segments, Segment{Start: p1.Head(), End: p1.Head()})

	fp.fail = true
	e.sendDeltasLocked()

	c := e.clients["u1"]
	if w := c.watermarks["u1"]; w != 0 {
		t.Errorf("watermark for u1 = %d, want 0: a failed send must not advance it", w)
	}

	fp.fail = false
	e.sendDeltasLocked()

	if w := c.watermarks["u1"]; w != 1 {
		t.Errorf("watermark for u1 = %d, want 1 once the retried send succeeds", w)
	}
}

func TestEngineDisconnectKeepsPlayerButDropsPort(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())

	e.Disconnect("u1")

	if e.PlayerCount() != 1 {
		t.Error("Disconnect should not remove the player, only its port")
	}
	if _, ok := e.ports["u1"]; ok {
		t.Error("Disconnect should remove the client port")
	}
}
