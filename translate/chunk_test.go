package translate

import (
	"errors"
	"fmt"
	"testing"
)

func makeUnits(n int) []Unit {
	units := make([]Unit, n)
	for i := range units {
		units[i] = Unit{Key: fmt.Sprintf("key-%03d", i), Source: fmt.Sprintf("text %d", i)}
	}
	return units
}

func TestSplit_EvenAndRemainder(t *testing.T) {
	chunks, err := Split(makeUnits(7), 3)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 3 || len(chunks[1]) != 3 || len(chunks[2]) != 1 {
		t.Fatalf("chunk sizes = %d/%d/%d, want 3/3/1", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplit_PreservesOrder(t *testing.T) {
	units := makeUnits(10)
	chunks, err := Split(units, 4)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	var flat []Unit
	for _, c := range chunks {
		flat = append(flat, c...)
	}
	if len(flat) != len(units) {
		t.Fatalf("flattened %d units, want %d", len(flat), len(units))
	}
	for i := range flat {
		if flat[i] != units[i] {
			t.Fatalf("unit %d = %v, want %v", i, flat[i], units[i])
		}
	}
}

func TestSplit_SmallerThanChunkSize(t *testing.T) {
	chunks, err := Split(makeUnits(2), 50)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(chunks) != 1 || len(chunks[0]) != 2 {
		t.Fatalf("got %d chunks, want 1 chunk of 2", len(chunks))
	}
}

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split(nil, 10)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("got %d chunks, want 0", len(chunks))
	}
}

func TestSplit_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Split(makeUnits(3), size)
		if !errors.Is(err, ErrConfig) {
			t.Fatalf("Split(size=%d) err = %v, want ErrConfig", size, err)
		}
	}
}
