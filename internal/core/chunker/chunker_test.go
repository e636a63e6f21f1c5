package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/markagu-dev/Vectora/internal/core"
)

func newTestChunker(t *testing.T, target, overlap int) *TokenChunker {
	t.Helper()
	c, err := New("cl100k_base", target, overlap)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name            string
		target, overlap int
	}{
		{"zero target", 0, 0},
		{"negative overlap", 100, -1},
		{"overlap equals target", 100, 100},
		{"overlap exceeds target", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New("cl100k_base", tc.target, tc.overlap); !errors.Is(err, core.ErrChunking) {
				t.Errorf("New(%d, %d) error = %v, want ErrChunking", tc.target, tc.overlap, err)
			}
		})
	}
}

func TestChunkEmptyText(t *testing.T) {
	c := newTestChunker(t, 500, 50)
	if got := c.Chunk(""); len(got) != 0 {
		t.Errorf("Chunk(\"\") = %d chunks, want 0", len(got))
	}
}

func TestChunkShortText(t *testing.T) {
	c := newTestChunker(t, 500, 50)
	text := "The quick brown fox jumps over the lazy dog."

	chunks := c.Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("Chunk() = %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text = %q, want original text back", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Index)
	}
	if want := c.CountTokens(text); chunks[0].TokenCount != want {
		t.Errorf("token count = %d, want %d", chunks[0].TokenCount, want)
	}
}

// With target=500 and overlap=50, a 2,000-token document must split into
// exactly ceil((2000-50)/450) = 5 chunks.
func TestChunkCountForLongText(t *testing.T) {
	c := newTestChunker(t, 500, 50)

	// " hello" is a single cl100k_base token, so the document length in
	// tokens equals the repeat count.
	text := strings.Repeat(" hello", 2000)
	if got := c.CountTokens(text); got != 2000 {
		t.Fatalf("constructed text is %d tokens, want 2000", got)
	}

	chunks := c.Chunk(text)
	if len(chunks) != 5 {
		t.Fatalf("Chunk() = %d chunks, want 5", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
	}
	// All but the last are full chunks; the last holds the remainder and is
	// never padded.
	for i := 0; i < 4; i++ {
		if chunks[i].TokenCount != 500 {
			t.Errorf("chunk %d token count = %d, want 500", i, chunks[i].TokenCount)
		}
	}
	if last := chunks[4].TokenCount; last != 200 {
		t.Errorf("last chunk token count = %d, want 200", last)
	}
}

func TestChunkOverlapWindows(t *testing.T) {
	c := newTestChunker(t, 5, 2)

	text := strings.Repeat(" hello", 12)
	if got := c.CountTokens(text); got != 12 {
		t.Fatalf("constructed text is %d tokens, want 12", got)
	}

	chunks := c.Chunk(text)
	// Starts at 0, 3, 6, 9 with ends 5, 8, 11, 12.
	wantCounts := []int{5, 5, 5, 3}
	if len(chunks) != len(wantCounts) {
		t.Fatalf("Chunk() = %d chunks, want %d", len(chunks), len(wantCounts))
	}
	for i, want := range wantCounts {
		if chunks[i].TokenCount != want {
			t.Errorf("chunk %d token count = %d, want %d", i, chunks[i].TokenCount, want)
		}
	}
}

func TestChunkDeterministic(t *testing.T) {
	c := newTestChunker(t, 50, 10)
	text := strings.Repeat("Numbers like 1234 and words mix here. ", 40)

	first := c.Chunk(text)
	second := c.Chunk(text)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated Chunk() calls disagree for identical input")
	}
}
