package spatial

import "testing"

func TestSPSCQueuePushPop(t *testing.T) {
	q := NewSPSCQueue[int](4)

	if !q.TryPush(1) {
		t.Fatal("push into empty queue should succeed")
	}
	if !q.TryPush(2) {
		t.Fatal("push into non-full queue should succeed")
	}

	v, ok := q.TryPop()
	if !ok || v != 1 {
		t.Errorf("TryPop() = (%v, %v), want (1, true)", v, ok)
	}
	v, ok = q.TryPop()
	if !ok || v != 2 {
		t.Errorf("TryPop() = (%v, %v), want (2, true)", v, ok)
	}

	if _, ok := q.TryPop(); ok {
		t.Error("TryPop on empty queue should return false")
	}
}

func TestSPSCQueueCapacityRoundsUpAndFills(t *testing.T) {
	q := NewSPSCQueue[int](3) // rounds up to 4

	for i := 0; i < 4; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d should succeed, capacity should be 4", i)
		}
	}
	if q.TryPush(99) {
		t.Error("push into full queue should fail")
	}
}

func TestSPSCQueuePeekDoesNotConsume(t *testing.T) {
	q := NewSPSCQueue[int](4)
	q.TryPush(42)

	v, ok := q.Peek()
	if !ok || v != 42 {
		t.Fatalf("Peek() = (%v, %v), want (42, true)", v, ok)
	}

	v2, ok := q.Peek()
	if !ok || v2 != 42 {
		t.Error("second Peek should return the same item")
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after non-consuming peeks", q.Len())
	}
}

func TestSPSCQueueDrop(t *testing.T) {
	q := NewSPSCQueue[int](4)
	q.TryPush(1)
	q.TryPush(2)

	if !q.Drop() {
		t.Fatal("Drop on non-empty queue should succeed")
	}
	v, ok := q.Peek()
	if !ok || v != 2 {
		t.Errorf("after dropping oldest, Peek() = (%v, %v), want (2, true)", v, ok)
	}

	q.Drop()
	if q.Drop() {
		t.Error("Drop on empty queue should return false")
	}
}

func TestSPSCQueueLen(t *testing.T) {
	q := NewSPSCQueue[int](8)
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for new queue", q.Len())
	}
	q.TryPush(1)
	q.TryPush(2)
	q.TryPush(3)
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	q.TryPop()
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after one pop", q.Len())
	}
}
