package rag

import (
	"strings"
	"testing"
)

func TestChunker_ShortTextIsSingleChunk(t *testing.T) {
	c := NewChunker(1000, 200)
	got := c.Split("Hello there, little one! How was your day?")
	if len(got) != 1 {
		t.Fatalf("chunks=%d, want 1", len(got))
	}
	if got[0].Index != 0 || got[0].Start != 0 {
		t.Fatalf("chunk meta = %+v", got[0])
	}
}

func TestChunker_EmptyAndWhitespaceYieldNothing(t *testing.T) {
	c := NewChunker(1000, 200)
	if got := c.Split(""); got != nil {
		t.Fatalf("Split(\"\") = %v, want nil", got)
	}
	if got := c.Split("   \n\t "); got != nil {
		t.Fatalf("Split(whitespace) = %v, want nil", got)
	}
}

func TestChunker_RespectsSizeBound(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("chunks=%d, want several", len(chunks))
	}
	for _, ch := range chunks {
		if len(ch.Text) > 100 {
			t.Fatalf("chunk %d has %d chars, want <= 100", ch.Index, len(ch.Text))
		}
		if ch.Text != strings.TrimSpace(ch.Text) {
			t.Fatalf("chunk %d not trimmed: %q", ch.Index, ch.Text)
		}
	}
}

func TestChunker_PrefersSentenceBoundaries(t *testing.T) {
	c := NewChunker(60, 0)
	text := "First sentence here. Second sentence here. Third sentence here."

	chunks := c.Split(text)
	for _, ch := range chunks {
		// Every chunk should end at a sentence boundary, not mid-word.
		if !strings.HasSuffix(ch.Text, ".") {
			t.Fatalf("chunk %d does not end on a sentence: %q", ch.Index, ch.Text)
		}
	}
}

func TestChunker_OverlapCarriesContext(t *testing.T) {
	c := NewChunker(50, 20)
	text := strings.Repeat("alpha beta gamma delta. ", 20)

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("chunks=%d, want several", len(chunks))
	}
	// The tail of chunk N should reappear at the head of chunk N+1.
	tail := chunks[0].Text[len(chunks[0].Text)-10:]
	if !strings.Contains(chunks[1].Text, strings.TrimSpace(tail)) {
		t.Fatalf("no overlap between %q and %q", chunks[0].Text, chunks[1].Text)
	}
}

func TestChunker_HardSplitsUnbrokenText(t *testing.T) {
	c := NewChunker(100, 0)
	text := strings.Repeat("x", 350)

	chunks := c.Split(text)
	if len(chunks) != 4 {
		t.Fatalf("chunks=%d, want 4", len(chunks))
	}
	for i, ch := range chunks[:3] {
		if len(ch.Text) != 100 {
			t.Fatalf("chunk %d has %d chars, want 100", i, len(ch.Text))
		}
	}
	if len(chunks[3].Text) != 50 {
		t.Fatalf("last chunk has %d chars, want 50", len(chunks[3].Text))
	}
}

func TestChunker_StartPositionsAdvance(t *testing.T) {
	c := NewChunker(80, 20)
	text := strings.Repeat("one two three four five. ", 30)

	chunks := c.Split(text)
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Fatalf("start positions not increasing: %d then %d", chunks[i-1].Start, chunks[i].Start)
		}
		if chunks[i].Index != i {
			t.Fatalf("index=%d, want %d", chunks[i].Index, i)
		}
	}
}

func TestNewChunker_SanitizesBadArguments(t *testing.T) {
	c := NewChunker(0, -5)
	if c.Size != 1000 {
		t.Fatalf("Size=%d, want default 1000", c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		t.Fatalf("Overlap=%d out of range", c.Overlap)
	}

	c = NewChunker(100, 100)
	if c.Overlap >= c.Size {
		t.Fatalf("Overlap=%d must be < Size=%d", c.Overlap, c.Size)
	}
}
