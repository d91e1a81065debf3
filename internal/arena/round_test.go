package arena

import "testing"

func TestStartRoundTransitionsToCountdownAndSpawnsPlayers(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.Join("u2", "Bob", Color{}, newFakePort())

	e.StartRound()

	if e.state != Countdown {
		t.Fatalf("state = %v, want Countdown", e.state)
	}
	for _, id := range e.order {
		p := e.players[id]
		if len(p.Segments) != 1 {
			t.Errorf("player %s has %d segments, want 1 seed segment after spawn", id, len(p.Segments))
		}
		if p.Dead {
			t.Errorf("player %s should be alive after spawn", id)
		}
		if !e.prevAlive[id] {
			t.Errorf("player %s should be recorded in prevAlive after StartRound", id)
		}
	}
}

func TestCompleteCountdownTransitionsToPlaying(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()

	e.completeCountdown()

	if e.state != Playing {
		t.Fatalf("state = %v, want Playing", e.state)
	}
}

func TestCompleteCountdownAppliesStartingDirection(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()

	p := e.players["u1"]
	var wantDir Direction
	for _, d := range []Direction{Up, Right, Down, Left} {
		if d != p.Direction {
			wantDir = d
			break
		}
	}
	e.Input("u1", wantDir, 0)

	e.completeCountdown()

	if p.Direction != wantDir {
		t.Errorf("Direction = %v, want %v (chosen during Countdown)", p.Direction, wantDir)
	}
	if _, ok := p.StartingDirection(); ok {
		t.Error("startingDirection should be cleared after completeCountdown")
	}
}

func TestMaybeEndRoundSingleSurvivorWins(t *testing.T) {
	e := testEngine()
	port1 := newFakePort()
	e.Join("u1", "Alice", Color{}, port1)
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()
	e.completeCountdown()

	e.players["u2"].Dead = true

	e.maybeEndRoundLocked()

	if e.state != Idle {
		t.Fatalf("state = %v, want Idle after one survivor remains", e.state)
	}
	if e.players["u1"].Score != 1 {
		t.Errorf("u1 Score = %d, want 1", e.players["u1"].Score)
	}
	if e.players["u2"].Score != 0 {
		t.Errorf("u2 Score = %d, want 0", e.players["u2"].Score)
	}
	if rank := e.leaderboard.GetRank("u1"); rank != 1 {
		t.Errorf("leaderboard rank for u1 = %d, want 1", rank)
	}
}

func TestMaybeEndRoundSimultaneousDeathAwardsAllPrevAlive(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()
	e.completeCountdown()

	e.players["u1"].Dead = true
	e.players["u2"].Dead = true

	e.maybeEndRoundLocked()

	if e.state != Idle {
		t.Fatalf("state = %v, want Idle", e.state)
	}
	if e.players["u1"].Score != 1 || e.players["u2"].Score != 1 {
		t.Errorf("both players should be awarded a win on simultaneous death, got u1=%d u2=%d",
			e.players["u1"].Score, e.players["u2"].Score)
	}
}

func TestMaybeEndRoundRefreshesPrevAliveBetweenSubTicks(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.Join("u3", "Carol", Color{}, newFakePort())
	e.StartRound()
	e.completeCountdown()

	// Sub-tick 0: u1 dies, u2 and u3 survive. The scheduler must call this
	// after every sub-tick, not just once at the end of the tick, so u1 is
	// dropped from prevAlive before sub-tick 1 is scored.
	e.players["u1"].Dead = true
	e.maybeEndRoundLocked()
	if e.state != Playing {
		t.Fatalf("state = %v, want Playing with two survivors after sub-tick 0", e.state)
	}
	if e.prevAlive["u1"] {
		t.Error("prevAlive should have dropped u1 after sub-tick 0's refresh")
	}

	// Sub-tick 1: u2 and u3 die simultaneously.
	e.players["u2"].Dead = true
	e.players["u3"].Dead = true
	e.maybeEndRoundLocked()

	if e.state != Idle {
		t.Fatalf("state = %v, want Idle once at most one player remains", e.state)
	}
	if e.players["u1"].Score != 0 {
		t.Errorf("u1 Score = %d, want 0: it died in sub-tick 0 and must not share the simultaneous-death tie", e.players["u1"].Score)
	}
	if e.players["u2"].Score != 1 || e.players["u3"].Score != 1 {
		t.Errorf("u2/u3 should each get the simultaneous-death win: Score u2=%d u3=%d", e.players["u2"].Score, e.players["u3"].Score)
	}
}

func TestMaybeEndRoundNoOpWithMultipleSurvivors(t *testing.T) {
	e := testEngine()
	e.Join("u1", "Alice", Color{}, newFakePort())
	e.Join("u2", "Bob", Color{}, newFakePort())
	e.StartRound()
	e.completeCountdown()

	e.maybeEndRoundLocked()

	if e.state != Playing {
		t.Errorf("state = %v, want Playing to continue with two survivors", e.state)
	}
}
