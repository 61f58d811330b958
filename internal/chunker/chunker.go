package chunker

import "unicode/utf8"

// DefaultMaxLen is the chunk length used when callers pass a non-positive limit.
const DefaultMaxLen = 4000

// Chunk is a contiguous slice of extracted text sent as one completion request.
type Chunk struct {
	Index int    // Position within the document, starting at 0.
	Text  string // Chunk text content.
}

// Split cuts text into consecutive chunks of exactly maxLen characters; the last chunk
// holds the remainder. Characters are Unicode code points, so a multi-byte rune is
// never split. Concatenating the chunk texts in order reproduces text exactly.
//
// Splitting ignores word and sentence boundaries. A question cut in half simply fails
// to parse on either side.
func Split(text string, maxLen int) []Chunk {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	if text == "" {
		return nil
	}

	chunks := make([]Chunk, 0, utf8.RuneCountInString(text)/maxLen+1)
	start, count := 0, 0
	for i := range text {
		if count == maxLen {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: text[start:i]})
			start, count = i, 0
		}
		count++
	}
	chunks = append(chunks, Chunk{Index: len(chunks), Text: text[start:]})
	return chunks
}
