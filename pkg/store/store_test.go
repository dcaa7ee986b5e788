package store

import (
	"strings"
	"testing"
)

func TestEncodeVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want string
	}{
		{"empty", nil, "[]"},
		{"single", []float32{1}, "[1]"},
		{"mixed", []float32{0.5, -0.25, 3}, "[0.5,-0.25,3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeVector(tt.in); got != tt.want {
				t.Fatalf("encodeVector = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeVector_RoundTripPrecision(t *testing.T) {
	// FormatFloat with -1 precision must produce a string that parses back to
	// the identical float32.
	in := []float32{0.1, 1.0 / 3.0, -2.7182817}
	got := encodeVector(in)
	if strings.Count(got, ",") != len(in)-1 {
		t.Fatalf("element count mismatch in %q", got)
	}
}

func TestProviderTable_RejectsUnknownKind(t *testing.T) {
	if _, err := providerTable(ProviderKind("billing")); err == nil {
		t.Fatalf("expected error for unknown provider kind")
	}
	for _, kind := range []ProviderKind{ProviderModel, ProviderTTS, ProviderTranscriber} {
		if _, err := providerTable(kind); err != nil {
			t.Fatalf("providerTable(%s): %v", kind, err)
		}
	}
}

func TestMemoryTable_RejectsUnknownOwner(t *testing.T) {
	if _, _, err := memoryTable(MemoryOwner("user")); err == nil {
		t.Fatalf("expected error for unknown memory owner")
	}
	table, col, err := memoryTable(MemoryOwnerToy)
	if err != nil || table != "toy_memory" || col != "toy_id" {
		t.Fatalf("memoryTable(toy) = (%s, %s, %v)", table, col, err)
	}
}

func TestPrefixColumns(t *testing.T) {
	got := prefixColumns("a", "id, name, created_at")
	want := "a.id, a.name, a.created_at"
	if got != want {
		t.Fatalf("prefixColumns = %q, want %q", got, want)
	}
}
