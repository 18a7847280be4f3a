package index

import (
	"strings"
	"unicode/utf8"
)

// MinChunkLen is the minimum trimmed length of a paragraph, in runes, for
// it to be indexed. Shorter paragraphs carry too little signal to embed on
// their own and are dropped, not merged into neighbors.
const MinChunkLen = 50

// SplitParagraphs splits text on blank-line boundaries, trims each
// candidate and drops the ones shorter than MinChunkLen. Paragraph order
// is preserved; chunk identity depends on it.
func SplitParagraphs(text string) []string {
	var chunks []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) >= MinChunkLen {
			chunks = append(chunks, p)
		}
	}
	return chunks
}
