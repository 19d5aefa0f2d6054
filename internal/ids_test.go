// Unit tests for ids.go

package threadpool_internal

import "testing"

func TestAtomicIDSourceStartsAtOne(t *testing.T) {
	src := NewAtomicIDSource()
	for i, want := range []uint64{1, 2, 3} {
		if got := src.NextID(); got != want {
			t.Fatalf("NextID() call #%d: want: %d, got: %d", i, want, got)
		}
	}
}

func TestAtomicIDSourceConcurrent(t *testing.T) {
	src := NewAtomicIDSource()
	const numGoroutines, idsPerGoroutine = 16, 200

	ids := make(chan uint64, numGoroutines*idsPerGoroutine)
	done := make(chan struct{})
	for g := 0; g < numGoroutines; g++ {
		go func() {
			for i := 0; i < idsPerGoroutine; i++ {
				ids <- src.NextID()
			}
			done <- struct{}{}
		}()
	}
	for g := 0; g < numGoroutines; g++ {
		<-done
	}
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id: %d", id)
		}
		seen[id] = true
	}
	if want := numGoroutines * idsPerGoroutine; len(seen) != want {
		t.Errorf("distinct id count: want: %d, got: %d", want, len(seen))
	}
}

func TestSnowflakeIDSourceUnique(t *testing.T) {
	src, err := NewSnowflakeIDSource(1)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id := src.NextID()
		if seen[id] {
			t.Fatalf("duplicate id: %d", id)
		}
		seen[id] = true
	}
}

func TestSetTaskIDSource(t *testing.T) {
	original := taskIDSource
	defer func() { taskIDSource = original }()

	src, err := NewSnowflakeIDSource(2)
	if err != nil {
		t.Fatal(err)
	}
	SetTaskIDSource(src)
	if nextTaskID() == 0 {
		t.Error("nextTaskID(): want: non-zero id from the overridden source")
	}
}
