package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	c := New()

	chunks, err := c.Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	c := New()

	chunks, err := c.Split("a short paragraph well under the chunk size")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short paragraph well under the chunk size", chunks[0])
}

func TestSplit_PreservesOrder(t *testing.T) {
	c := New(WithSize(50), WithOverlap(10))

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("paragraph number ")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString("\n\n")
	}

	chunks, err := c.Split(b.String())
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Each chunk's content must appear in the source, and chunk start
	// positions must be non-decreasing.
	last := 0
	src := b.String()
	for _, chunk := range chunks {
		idx := strings.Index(src[last:], strings.TrimSpace(chunk))
		require.GreaterOrEqual(t, idx, 0, "chunk %q not found in order", chunk)
		last += idx
	}
}

func TestSplit_RespectsSizeBound(t *testing.T) {
	c := New(WithSize(100), WithOverlap(20))

	// Words separated by spaces so the splitter can honor the budget.
	text := strings.Repeat("lorem ipsum dolor sit amet ", 100)
	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
}

func TestSplit_HardCutUnbrokenRun(t *testing.T) {
	c := New(WithSize(64), WithOverlap(8))

	chunks, err := c.Split(strings.Repeat("a", 500))
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
}

func TestNew_ClampsOverlap(t *testing.T) {
	c := New(WithSize(100), WithOverlap(500))
	assert.Equal(t, 50, c.Overlap())
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultChunkSize, c.Size())
	assert.Equal(t, DefaultChunkOverlap, c.Overlap())
}
