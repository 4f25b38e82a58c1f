package indexer

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/arka/internal/models"
)

func TestChunker_SplitWordsWithOverlap(t *testing.T) {
	c := NewChunker(8, 4)
	got := c.Split("aaa bbb ccc ddd eee")
	want := []string{"aaa bbb", "bbb ccc", "ccc ddd", "ddd eee"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %q, want %q", got, want)
	}
}

func TestChunker_SplitCharacters(t *testing.T) {
	c := NewChunker(4, 1)
	got := c.Split("abcdefghij")
	want := []string{"abcd", "defg", "ghij"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %q, want %q", got, want)
	}
}

func TestChunker_ShortTextIsOneChunk(t *testing.T) {
	c := NewChunker(1500, 250)
	got := c.Split("  Jam operasional terminal adalah 24 jam.  ")
	if len(got) != 1 || got[0] != "Jam operasional terminal adalah 24 jam." {
		t.Errorf("Split = %q", got)
	}
}

func TestChunker_Empty(t *testing.T) {
	c := NewChunker(5, 1)
	if got := c.Split("   \n\t  "); got != nil {
		t.Errorf("whitespace text should return nil, got %q", got)
	}
	if got := c.ChunkPage(models.Page{SourceDocument: "a.pdf", PageNumber: 1}); got != nil {
		t.Errorf("empty page should return nil, got %v", got)
	}
}

func TestChunker_PrefersParagraphBoundaries(t *testing.T) {
	c := NewChunker(30, 0)
	text := "first paragraph here\n\nsecond paragraph here\n\nthird"
	got := c.Split(text)
	want := []string{"first paragraph here", "second paragraph here\n\nthird"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %q, want %q", got, want)
	}
}

func TestChunker_BoundsAndOverlap(t *testing.T) {
	const size, overlap = 40, 10
	c := NewChunker(size, overlap)
	words := strings.Fields(strings.Repeat("pelabuhan tanjung priok melayani bongkar muat peti kemas ", 20))
	text := strings.Join(words, " ")
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch); n > size {
			t.Errorf("chunk %d has %d runes, want <= %d", i, n, size)
		}
		if ch != strings.TrimSpace(ch) || ch == "" {
			t.Errorf("chunk %d not trimmed: %q", i, ch)
		}
	}
	// Every word of the input survives in order.
	var rebuilt []string
	for i, ch := range chunks {
		ws := strings.Fields(ch)
		if i > 0 {
			// Drop the words carried over from the previous chunk.
			prev := strings.Fields(chunks[i-1])
			k := sharedPrefix(prev, ws)
			if n := utf8.RuneCountInString(strings.Join(ws[:k], " ")); n > overlap {
				t.Errorf("chunk %d overlaps previous by %d runes, want <= %d", i, n, overlap)
			}
			ws = ws[k:]
		}
		rebuilt = append(rebuilt, ws...)
	}
	if !reflect.DeepEqual(rebuilt, words) {
		t.Errorf("chunks do not cover the input in order")
	}
}

// sharedPrefix returns the length of the longest suffix of prev that is a prefix of next.
func sharedPrefix(prev, next []string) int {
	for k := min(len(prev), len(next)); k > 0; k-- {
		if reflect.DeepEqual(prev[len(prev)-k:], next[:k]) {
			return k
		}
	}
	return 0
}

func TestChunker_Defaults(t *testing.T) {
	c := NewChunker(0, -3)
	if c.ChunkSize() != 1500 || c.ChunkOverlap() != 0 {
		t.Errorf("got size=%d overlap=%d", c.ChunkSize(), c.ChunkOverlap())
	}
	c = NewChunker(10, 10)
	if c.ChunkOverlap() != 9 {
		t.Errorf("overlap should be clamped below size, got %d", c.ChunkOverlap())
	}
}

func TestChunker_ChunkPageMetadata(t *testing.T) {
	c := NewChunker(8, 4)
	chunks := c.ChunkPage(models.Page{SourceDocument: "tarif.pdf", PageNumber: 3, Text: "aaa bbb ccc"})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Metadata.SourceDocument != "tarif.pdf" || ch.Metadata.Page != 3 {
			t.Errorf("chunk %d metadata = %+v", i, ch.Metadata)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  a  b  ":            "a b",
		"line1\n\nline2\tx":   "line1 line2 x",
		"":                    "",
		" \n\t ":              "",
		"non\u00a0breaking":   "non breaking",
		"already normal text": "already normal text",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_Properties(t *testing.T) {
	pieces := []string{
		"Pelindo", "tarif", "dermaga", "24", "jam", "é", "ü",
		" ", "  ", "\n", "\n\n", "\t", "\r\n", "\u00a0", "\u2003", "\u3000", "\v\f",
		"\xff", "\xc3", "\xe2\x80",
	}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		var b strings.Builder
		n := rng.Intn(12)
		for j := 0; j < n; j++ {
			b.WriteString(pieces[rng.Intn(len(pieces))])
		}
		in := b.String()
		got := Normalize(in)

		if again := Normalize(got); again != got {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, got, again)
		}
		if utf8.RuneCountInString(got) > utf8.RuneCountInString(in) {
			t.Fatalf("Normalize(%q) = %q is longer than its input", in, got)
		}
		if strings.Contains(got, "  ") {
			t.Fatalf("Normalize(%q) = %q contains a double space", in, got)
		}
		prevSpace := false
		for _, r := range got {
			space := unicode.IsSpace(r)
			if space && r != ' ' {
				t.Fatalf("Normalize(%q) = %q keeps whitespace %U", in, got, r)
			}
			if space && prevSpace {
				t.Fatalf("Normalize(%q) = %q has consecutive whitespace", in, got)
			}
			prevSpace = space
		}
		if got != "" {
			first, _ := utf8.DecodeRuneInString(got)
			last, _ := utf8.DecodeLastRuneInString(got)
			if unicode.IsSpace(first) || unicode.IsSpace(last) {
				t.Fatalf("Normalize(%q) = %q is not trimmed", in, got)
			}
		}
	}
}
