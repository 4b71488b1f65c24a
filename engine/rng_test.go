package engine

import "testing"

func TestRNG_Deterministic(t *testing.T) {
	rng1 := NewRNG(42)
	rng2 := NewRNG(42)

	for i := 0; i < 20; i++ {
		a := rng1.Roll(6)
		b := rng2.Roll(6)
		if a != b {
			t.Fatalf("roll %d: got %d and %d from same seed", i, a, b)
		}
	}
}

func TestRNG_Roll_Range(t *testing.T) {
	rng := NewRNG(99)

	for i := 0; i < 1000; i++ {
		r := rng.Roll(6)
		if r < 1 || r > 6 {
			t.Fatalf("roll out of range [1,6]: got %d", r)
		}
	}
}

func TestRNG_Roll_OneSided(t *testing.T) {
	rng := NewRNG(1)

	for i := 0; i < 10; i++ {
		if r := rng.Roll(1); r != 1 {
			t.Fatalf("1-sided die should always be 1, got %d", r)
		}
	}
}

func TestRNG_Weighted(t *testing.T) {
	a, b := NewRNG(7), NewRNG(7)
	counts := map[int]int{}
	for i := 0; i < 3000; i++ {
		x := a.Weighted([]int{3, 0, 1})
		if y := b.Weighted([]int{3, 0, 1}); x != y {
			t.Fatalf("pick %d differs across equal seeds: %d vs %d", i, x, y)
		}
		counts[x]++
	}
	if counts[1] != 0 || counts[-1] != 0 {
		t.Fatalf("zero weight or miss picked: %v", counts)
	}
	// 3:1 split, loosely.
	if counts[0] < 2000 || counts[0] > 2500 {
		t.Errorf("weight 3 picked %d of 3000", counts[0])
	}
}

func TestRNG_Weighted_NothingToPick(t *testing.T) {
	rng := NewRNG(1)
	for _, w := range [][]int{nil, {0}, {0, -2}} {
		if got := rng.Weighted(w); got != -1 {
			t.Errorf("Weighted(%v) = %d, want -1", w, got)
		}
	}
	if rng.Position() != 0 {
		t.Errorf("empty picks drew %d values", rng.Position())
	}
}

func TestRNG_Position_Tracks(t *testing.T) {
	rng := NewRNG(42)

	if rng.Position() != 0 {
		t.Fatalf("expected position 0, got %d", rng.Position())
	}

	rng.Roll(6)
	if rng.Position() != 1 {
		t.Fatalf("expected position 1, got %d", rng.Position())
	}

	rng.Weighted([]int{50, 50})
	if rng.Position() != 2 {
		t.Fatalf("expected position 2, got %d", rng.Position())
	}

	rng.Roll(20)
	rng.Roll(20)
	if rng.Position() != 4 {
		t.Fatalf("expected position 4, got %d", rng.Position())
	}
}

func TestRNG_Restore_MatchesPosition(t *testing.T) {
	// Advance an RNG with mixed calls and record the next 5 rolls.
	rng := NewRNG(42)
	for i := 0; i < 10; i++ {
		rng.Roll(6)
		rng.Between(40, 90)
	}
	pos := rng.Position()

	var expected [5]int
	for i := range expected {
		expected[i] = rng.Roll(20)
	}

	restored := RestoreRNG(42, pos)
	if restored.Position() != pos {
		t.Fatalf("expected position %d, got %d", pos, restored.Position())
	}
	if restored.Seed() != 42 {
		t.Fatalf("expected seed 42, got %d", restored.Seed())
	}

	for i, want := range expected {
		got := restored.Roll(20)
		if got != want {
			t.Fatalf("roll %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestRNG_Between(t *testing.T) {
	rng := NewRNG(7)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := rng.Between(4, 9)
		if v < 4 || v > 9 {
			t.Fatalf("Between(4,9) out of range: %d", v)
		}
		seen[v] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected all 6 values, saw %v", seen)
	}
	if v := rng.Between(5, 5); v != 5 {
		t.Errorf("Between(5,5) = %d", v)
	}
	if v := rng.Between(3, 1); v < 1 || v > 3 {
		t.Errorf("Between(3,1) = %d", v)
	}
}

func TestRNG_DifferentSeeds_DifferentResults(t *testing.T) {
	rng1 := NewRNG(1)
	rng2 := NewRNG(2)

	// With different seeds, at least some rolls should differ.
	differs := false
	for i := 0; i < 20; i++ {
		if rng1.Roll(100) != rng2.Roll(100) {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("expected different seeds to produce different results")
	}
}
