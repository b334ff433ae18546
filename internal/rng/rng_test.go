package rng

import "testing"

func TestStreamReproducible(t *testing.T) {
	a := Stream(7, 3, 42, 1, Selection)
	b := Stream(7, 3, 42, 1, Selection)
	for range 16 {
		if a.Float64() != b.Float64() {
			t.Fatalf("same key must give the same stream")
		}
	}
}

func TestStreamsDiffer(t *testing.T) {
	base := Stream(7, 3, 42, 1, Selection).Uint64()
	others := map[string]uint64{
		"seed":       Stream(8, 3, 42, 1, Selection).Uint64(),
		"outer step": Stream(7, 4, 42, 1, Selection).Uint64(),
		"particle":   Stream(7, 3, 43, 1, Selection).Uint64(),
		"sub-step":   Stream(7, 3, 42, 2, Selection).Uint64(),
		"purpose":    Stream(7, 3, 42, 1, Rejection).Uint64(),
		"extra":      Stream(7, 3, 42, 1, Selection, 1).Uint64(),
	}
	for name, v := range others {
		if v == base {
			t.Fatalf("changing the %s did not change the stream", name)
		}
	}
}
