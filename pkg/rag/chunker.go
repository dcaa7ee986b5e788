// Package rag provides text chunking and embedding for the memory store.
// Input is transcript-style text, so the default separators favor
// conversational boundaries over document structure.
package rag

import "strings"

var defaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", ", ", " ", ""}

type Chunk struct {
	Text  string `json:"text"`
	Index int    `json:"chunk_index"`
	Start int    `json:"start_position"`
}

// Chunker splits text recursively: it tries the coarsest separator first and
// falls through to finer ones only for pieces that still exceed Size. Pieces
// are then merged back into chunks of at most Size characters with Overlap
// characters carried between consecutive chunks.
type Chunker struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{Size: size, Overlap: overlap, Separators: defaultSeparators}
}

func (c *Chunker) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	seps := c.Separators
	if len(seps) == 0 {
		seps = defaultSeparators
	}

	texts := c.merge(c.split(text, seps))
	chunks := make([]Chunk, 0, len(texts))
	pos := 0
	for i, t := range texts {
		chunks = append(chunks, Chunk{Text: t, Index: i, Start: pos})
		step := len(t) - c.Overlap
		if step < 1 {
			step = 1
		}
		pos += step
	}
	return chunks
}

func (c *Chunker) split(text string, seps []string) []string {
	if len(text) <= c.Size {
		return []string{text}
	}
	if len(seps) == 0 || seps[0] == "" {
		return hardSplit(text, c.Size)
	}

	sep, rest := seps[0], seps[1:]
	if !strings.Contains(text, sep) {
		return c.split(text, rest)
	}

	var out []string
	for _, p := range splitKeep(text, sep) {
		if len(p) <= c.Size {
			out = append(out, p)
		} else {
			out = append(out, c.split(p, rest)...)
		}
	}
	return out
}

// merge greedily packs pieces into chunks of at most Size, retaining a tail
// of up to Overlap characters as the start of the next chunk.
func (c *Chunker) merge(pieces []string) []string {
	var out []string
	var window []string
	total := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(window, ""))
		if joined != "" {
			out = append(out, joined)
		}
	}

	for _, p := range pieces {
		if total+len(p) > c.Size && total > 0 {
			flush()
			for len(window) > 0 && (total > c.Overlap || total+len(p) > c.Size) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		total += len(p)
	}
	flush()
	return out
}

// splitKeep splits after each occurrence of sep, keeping the separator
// attached to the preceding piece so sentence punctuation survives.
func splitKeep(text, sep string) []string {
	var out []string
	for {
		i := strings.Index(text, sep)
		if i < 0 {
			if text != "" {
				out = append(out, text)
			}
			return out
		}
		out = append(out, text[:i+len(sep)])
		text = text[i+len(sep):]
	}
}

func hardSplit(text string, size int) []string {
	out := make([]string, 0, len(text)/size+1)
	for len(text) > size {
		out = append(out, text[:size])
		text = text[size:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
