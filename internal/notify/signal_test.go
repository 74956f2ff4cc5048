package notify

import "testing"

func TestSignal_EmitInConnectionOrder(t *testing.T) {
	var s Signal[int]
	var got []int
	s.Connect(func(v int) { got = append(got, v*10) })
	s.Connect(func(v int) { got = append(got, v*100) })

	s.Emit(2)

	if len(got) != 2 || got[0] != 20 || got[1] != 200 {
		t.Fatalf("expected [20 200], got %v", got)
	}
}

func TestSignal_DisconnectDuringEmit(t *testing.T) {
	var s Signal[string]
	calls := 0
	var disconnect func()
	disconnect = s.Connect(func(string) {
		calls++
		disconnect()
	})

	s.Emit("a")
	s.Emit("b")

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no handlers left, got %d", s.Len())
	}
	disconnect()
}
