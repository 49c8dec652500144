package handles

import (
	"sync"
	"testing"
)

func TestRegisterAndLookup(t *testing.T) {
	type store struct {
		Name string
	}

	s := &store{Name: "roots"}
	id := Register(s)
	defer Unregister(id)

	if id == 0 {
		t.Fatal("Register should return non-zero id")
	}

	got, ok := LookupAs[*store](id)
	if !ok {
		t.Fatalf("LookupAs returned wrong type: %T", Lookup(id))
	}
	if got != s {
		t.Errorf("LookupAs returned %p, want %p", got, s)
	}
}

func TestLookupAsWrongType(t *testing.T) {
	id := Register("not a store")
	defer Unregister(id)

	if _, ok := LookupAs[*sync.Mutex](id); ok {
		t.Error("LookupAs should fail for a different type")
	}
}

func TestUnregister(t *testing.T) {
	id := Register(42)
	if Lookup(id) == nil {
		t.Fatal("Expected value before Unregister")
	}

	Unregister(id)
	if Lookup(id) != nil {
		t.Error("Expected nil after Unregister")
	}

	// Unregistering twice is harmless.
	Unregister(id)
}

func TestLookupZeroAndUnknown(t *testing.T) {
	if Lookup(0) != nil {
		t.Error("id 0 must never resolve")
	}
	if Lookup(999999) != nil {
		t.Error("Lookup of unknown id should return nil")
	}
}

func TestConcurrentAccess(t *testing.T) {
	const numGoroutines = 100
	const numOps = 100

	before := Count()

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(g int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				id := Register([2]int{g, j})
				if got, ok := LookupAs[[2]int](id); !ok || got != [2]int{g, j} {
					t.Errorf("Lookup(%d) = %v, %v", id, got, ok)
				}
				Unregister(id)
			}
		}(i)
	}
	wg.Wait()

	if Count() != before {
		t.Errorf("Count() = %d after balanced register/unregister, want %d", Count(), before)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[uintptr]bool)
	for i := 0; i < 1000; i++ {
		id := Register(i)
		if seen[id] {
			t.Errorf("id %d was returned twice", id)
		}
		seen[id] = true
	}
	for id := range seen {
		Unregister(id)
	}
}
