package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a\t\tb\n\n c  "))
	assert.Equal(t, "", Normalize(" \n\t "))
	assert.Equal(t, "ab", Normalize("a\xffb"))
}

func TestChunkWindowArithmetic(t *testing.T) {
	// Windows start at 0, 500, 1000; the window at 1000 would extend past
	// the end and becomes the tail.
	chunks := Chunk(strings.Repeat("a", 1300), 600, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, 600, len([]rune(chunks[0])))
	assert.Equal(t, 600, len([]rune(chunks[1])))
	assert.Equal(t, 300, len([]rune(chunks[2])))

	// Full windows at 0, 500, 1000 plus a tail at 1500.
	chunks = Chunk(strings.Repeat("a", 1800), 600, 100)
	require.Len(t, chunks, 4)
	for _, c := range chunks[:3] {
		assert.Equal(t, 600, len([]rune(c)))
	}
	assert.Equal(t, 300, len([]rune(chunks[3])))
}

func TestChunkExactFitBoundary(t *testing.T) {
	// A window ending exactly at the end of the text is a full window,
	// not the tail; the next window overruns and becomes the tail.
	chunks := Chunk(strings.Repeat("a", 1100), 600, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, 600, len([]rune(chunks[0])))
	assert.Equal(t, 600, len([]rune(chunks[1])))
	assert.Equal(t, 100, len([]rune(chunks[2])))

	// Text of exactly one window still yields the overlap tail after it.
	chunks = Chunk(strings.Repeat("a", 600), 600, 100)
	require.Len(t, chunks, 2)
	assert.Equal(t, 600, len([]rune(chunks[0])))
	assert.Equal(t, 100, len([]rune(chunks[1])))
}

func TestChunkCoversWholeText(t *testing.T) {
	text := strings.Repeat("xyz ", 500)
	size, overlap := 128, 32
	chunks := Chunk(text, size, overlap)
	require.NotEmpty(t, chunks)

	normalized := []rune(Normalize(text))
	step := size - overlap
	for i, c := range chunks {
		start := i * step
		end := start + len([]rune(c))
		assert.Equal(t, string(normalized[start:end]), c)
	}
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(string(normalized), last))
}

func TestChunkShortText(t *testing.T) {
	chunks := Chunk("hello world", 600, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", 600, 100))
	assert.Nil(t, Chunk("   \n\t  ", 600, 100))
	assert.Nil(t, Chunk("text", 0, 0))
}

func TestChunkStrideClamp(t *testing.T) {
	// overlap >= size must still make forward progress.
	chunks := Chunk(strings.Repeat("b", 10), 3, 5)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "bbb", chunks[0])
	assert.Len(t, chunks, 9) // full windows at 0..7, then the tail at 8
	assert.Equal(t, "bb", chunks[8])
}

func TestChunkUnicode(t *testing.T) {
	text := strings.Repeat("é世界", 100) // 300 code points
	chunks := Chunk(text, 200, 50)
	require.Len(t, chunks, 2)
	assert.Equal(t, 200, len([]rune(chunks[0])))
	assert.Equal(t, 150, len([]rune(chunks[1])))
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("repeatable input ", 80)
	assert.Equal(t, Chunk(text, 100, 20), Chunk(text, 100, 20))
}
