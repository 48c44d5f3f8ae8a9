package stream

import "testing"

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int]()
	for i := 1; i <= 3; i++ {
		q.Enqueue(i)
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}
	for want := 1; want <= 3; want++ {
		got, ok := q.Dequeue()
		if !ok || got != want {
			t.Fatalf("Dequeue = %d,%v, want %d,true", got, ok, want)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue on empty queue should report false")
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue[string]()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Len after Clear = %d", q.Len())
	}
}
