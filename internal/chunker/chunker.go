// Package chunker splits document text into overlapping windows for
// embedding and retrieval.
package chunker

import "strings"

const (
	DefaultChunkSize = 600
	DefaultOverlap   = 100
)

// Normalize collapses whitespace runs to single spaces, trims the ends
// and drops malformed UTF-8 sequences.
func Normalize(text string) string {
	clean := strings.ToValidUTF8(text, "")
	return strings.Join(strings.Fields(clean), " ")
}

// Chunk windows the normalized text into slices of size runes advancing
// by size-overlap runes. The first window that would extend past the end
// of the text is emitted as the remaining tail, whatever its length, and
// ends the loop; a window that ends exactly at the text's end is a full
// window, so an exact-fit input is still followed by one overlap tail.
// Whitespace-only windows are skipped without affecting the cursor.
// Returns nil for empty or whitespace-only input.
//
// The stride is clamped to at least 1 so a misconfigured overlap >= size
// cannot stall the loop.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}

	runes := []rune(Normalize(text))
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		if start+size > len(runes) {
			tail := string(runes[start:])
			if strings.TrimSpace(tail) != "" {
				chunks = append(chunks, tail)
			}
			break
		}

		chunk := string(runes[start : start+size])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}
