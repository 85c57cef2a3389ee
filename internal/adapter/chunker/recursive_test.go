package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func TestNewRecursiveChunkerRejectsBadParams(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "overlap equals size", size: 100, overlap: 100},
		{name: "overlap exceeds size", size: 100, overlap: 150},
		{name: "negative overlap", size: 100, overlap: -1},
		{name: "zero size", size: 0, overlap: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRecursiveChunker(tc.size, tc.overlap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	chunks, err := Split("", 100, 20)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitRespectsSizeBound(t *testing.T) {
	texts := []string{
		strings.Repeat("word ", 400),
		strings.Repeat("a", 3000),
		"para one.\n\npara two is a bit longer than the first one.\n\n" + strings.Repeat("sentence here. ", 50),
		"short",
	}

	for _, size := range []int{50, 100, 512} {
		overlap := size / 5
		for _, text := range texts {
			chunks, err := Split(text, size, overlap)
			require.NoError(t, err)
			for _, chunk := range chunks {
				assert.LessOrEqual(t, len(chunk), size)
			}
		}
	}
}

func TestSplitCoversAllContent(t *testing.T) {
	text := "first paragraph with several words in it.\n\n" +
		"second paragraph.\nwith a line break inside it.\n\n" +
		strings.Repeat("filler sentence to push past the limit. ", 12)

	chunks, err := Split(text, 80, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Separators can be dropped at chunk boundaries; every other
	// character must survive, in order.
	strip := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\n', '.':
				return -1
			}
			return r
		}, s)
	}

	assert.Equal(t, strip(text), strip(strings.Join(chunks, "")))
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	text := "alpha paragraph here.\n\nbeta paragraph here.\n\ngamma paragraph here."

	chunks, err := Split(text, 25, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "alpha paragraph here.", chunks[0])
	assert.Equal(t, "beta paragraph here.", chunks[1])
	assert.Equal(t, "gamma paragraph here.", chunks[2])
}

func TestSplitPacksSmallPieces(t *testing.T) {
	text := "one.\n\ntwo.\n\nthree.\n\nfour."

	chunks, err := Split(text, 1000, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitHardWindowsUnbrokenRuns(t *testing.T) {
	text := strings.Repeat("x", 2500)

	chunks, err := Split(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 1000)
	}

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		overlap := cur[:200]
		assert.True(t, strings.HasSuffix(prev, overlap), "adjacent chunks must share trailing/leading text")
	}
}

func TestSplitZeroOverlapWindows(t *testing.T) {
	text := strings.Repeat("y", 250)

	chunks, err := Split(text, 100, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitLongTokenInsideProse(t *testing.T) {
	long := strings.Repeat("z", 180)
	text := "intro words " + long + " outro words"

	chunks, err := Split(text, 100, 10)
	require.NoError(t, err)

	var joined strings.Builder
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
		joined.WriteString(chunk)
	}
	assert.Contains(t, joined.String(), "intro words")
	assert.Contains(t, joined.String(), "outro")
	assert.Contains(t, joined.String(), long[:100])
}

func TestSplitDropsWhitespaceOnlyChunks(t *testing.T) {
	chunks, err := Split("   \n\n   \n\n   ", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
