package chunker

import (
	"fmt"
	"strings"

	"docchat/internal/domain"
)

// boundary is one entry of the separator preference list. The terminal
// entry carries no token and forces a hard character-window split.
type boundary struct {
	token    string
	terminal bool
}

// boundaries is ordered coarsest to finest. Splitting tries each in
// turn so paragraph and sentence structure survives whenever the
// content allows it, degrading to hard windowing only for unbroken
// runs longer than the chunk size.
var boundaries = []boundary{
	{token: "\n\n"},
	{token: "\n"},
	{token: ". "},
	{token: " "},
	{terminal: true},
}

// piece is an intermediate split fragment. sep is the separator that
// produced the boundary between this piece and the next, used to
// rejoin pieces during the merge pass.
type piece struct {
	text string
	sep  string
}

// RecursiveChunker splits text into chunks of at most chunkSize
// characters, with adjacent hard-windowed chunks sharing chunkOverlap
// characters.
type RecursiveChunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewRecursiveChunker validates the parameters once; the resulting
// chunker is immutable.
func NewRecursiveChunker(chunkSize, chunkOverlap int) (*RecursiveChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", chunkSize, domain.ErrConfiguration)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, chunk size %d): %w", chunkOverlap, chunkSize, domain.ErrConfiguration)
	}
	return &RecursiveChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Split chunks text into passages of at most chunkSize characters.
// Empty input yields no chunks; whitespace-only chunks are dropped.
func (c *RecursiveChunker) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	pieces := c.split(text, boundaries)
	merged := c.merge(pieces)

	var out []string
	for _, m := range merged {
		if len(m) > c.chunkSize {
			out = append(out, c.window(m)...)
			continue
		}
		out = append(out, m)
	}

	kept := out[:0]
	for _, chunk := range out {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		kept = append(kept, chunk)
	}

	return kept, nil
}

// split recursively breaks text on the first boundary in bounds,
// descending to finer boundaries for pieces that still exceed the
// chunk size.
func (c *RecursiveChunker) split(text string, bounds []boundary) []piece {
	if len(text) <= c.chunkSize {
		return []piece{{text: text}}
	}

	b := bounds[0]
	if b.terminal {
		windows := c.window(text)
		pieces := make([]piece, len(windows))
		for i, w := range windows {
			pieces[i] = piece{text: w}
		}
		return pieces
	}

	parts := strings.Split(text, b.token)
	var out []piece
	for i, part := range parts {
		sep := ""
		if i < len(parts)-1 {
			sep = b.token
		}

		if len(part) > c.chunkSize {
			sub := c.split(part, bounds[1:])
			if len(sub) > 0 {
				sub[len(sub)-1].sep = sep
			}
			out = append(out, sub...)
			continue
		}
		out = append(out, piece{text: part, sep: sep})
	}

	return out
}

// merge greedily packs consecutive pieces into chunks of at most
// chunkSize characters, rejoining with the separator that produced
// each boundary (single space when none did).
func (c *RecursiveChunker) merge(pieces []piece) []string {
	var out []string
	var buf strings.Builder
	pendingSep := ""

	for _, p := range pieces {
		join := ""
		if buf.Len() > 0 {
			join = pendingSep
			if join == "" {
				join = " "
			}
		}

		if buf.Len() > 0 && buf.Len()+len(join)+len(p.text) > c.chunkSize {
			out = append(out, buf.String())
			buf.Reset()
			join = ""
		}

		buf.WriteString(join)
		buf.WriteString(p.text)
		pendingSep = p.sep
	}

	if buf.Len() > 0 {
		out = append(out, buf.String())
	}

	return out
}

// window hard-slices text into fixed chunkSize windows advancing by
// chunkSize-chunkOverlap per step.
func (c *RecursiveChunker) window(text string) []string {
	step := c.chunkSize - c.chunkOverlap

	var out []string
	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
		if end == len(text) {
			break
		}
	}

	return out
}

// Split is a convenience for one-off chunking with explicit parameters.
func Split(text string, chunkSize, chunkOverlap int) ([]string, error) {
	c, err := NewRecursiveChunker(chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text)
}
