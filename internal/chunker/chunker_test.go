package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_CoverageAndLengths(t *testing.T) {
	texts := []string{
		"a",
		"abcdefghij",
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40),
		"1. What is 2+2?\nA) 3\nB) 4\nC) 5\nD) 6\n",
		"ümlaut naïve café – “quotes” 日本語テキスト",
	}
	lengths := []int{1, 3, 7, 10, 64, 4000}

	for _, text := range texts {
		for _, l := range lengths {
			chunks := Split(text, l)
			var joined strings.Builder
			for _, c := range chunks {
				joined.WriteString(c.Text)
			}
			if got := joined.String(); got != text {
				t.Fatalf("Split(len=%d, max=%d): concatenation does not reproduce input", len(text), l)
			}
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
				}
				n := utf8.RuneCountInString(c.Text)
				if i < len(chunks)-1 && n != l {
					t.Errorf("max=%d chunk %d: expected %d characters, got %d", l, i, l, n)
				}
				if i == len(chunks)-1 && (n == 0 || n > l) {
					t.Errorf("max=%d last chunk: unexpected length %d", l, n)
				}
			}
		}
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("", 4000); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_ExactMultiple(t *testing.T) {
	text := strings.Repeat("x", 12000)
	chunks := Split(text, 4000)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[2].Text) != 4000 {
		t.Errorf("expected last chunk to hold 4000 characters, got %d", len(chunks[2].Text))
	}
}

func TestSplit_Remainder(t *testing.T) {
	text := strings.Repeat("y", 9001)
	chunks := Split(text, 4000)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[2].Text) != 1001 {
		t.Errorf("expected remainder of 1001 characters, got %d", len(chunks[2].Text))
	}
}

func TestSplit_DefaultMaxLen(t *testing.T) {
	text := strings.Repeat("z", DefaultMaxLen+1)
	chunks := Split(text, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks with default length, got %d", len(chunks))
	}
}

func TestSplit_DoesNotCutRunes(t *testing.T) {
	text := "日本語"
	chunks := Split(text, 2)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "日本" || chunks[1].Text != "語" {
		t.Errorf("unexpected chunks %q, %q", chunks[0].Text, chunks[1].Text)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 tokens for empty text")
	}
	if EstimateTokens("   ") != 1 {
		t.Error("expected whitespace-only text to count as 1 token")
	}
	if got := EstimateTokens(strings.Repeat("word ", 300)); got != 399 {
		t.Errorf("expected 399 tokens for 300 words, got %d", got)
	}
}
