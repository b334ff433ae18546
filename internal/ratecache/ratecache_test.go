package ratecache

import (
	"sync"
	"testing"
)

func TestPresenceGating(t *testing.T) {
	c := New(4)
	c.SetPresent(1)
	c.Add(0, 5)
	c.Add(1, 2)
	c.Add(1, 3)
	if c.Rate(0) != 0 {
		t.Fatalf("absent state accumulated rate %v", c.Rate(0))
	}
	if c.Rate(1) != 5 {
		t.Fatalf("expected 5, got %v", c.Rate(1))
	}
	if c.MaxRate() != 5 {
		t.Fatalf("max rate: %v", c.MaxRate())
	}

	c.Reset()
	if c.Present(1) || c.Rate(1) != 0 || c.MaxRate() != 0 {
		t.Fatalf("reset left state behind")
	}
}

func TestConcurrentAdd(t *testing.T) {
	c := New(1)
	c.SetPresent(0)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				c.Add(0, 0.25)
			}
		}()
	}
	wg.Wait()
	if c.Rate(0) != 500 {
		t.Fatalf("expected 500, got %v", c.Rate(0))
	}
}

func TestInvalidRatePanics(t *testing.T) {
	c := New(1)
	c.SetPresent(0)
	defer func() {
		if recover() == nil {
			t.Fatalf("negative rate must panic")
		}
	}()
	c.Add(0, -1)
}
