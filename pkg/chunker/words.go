package chunker

import "strings"

// Filler words do not count toward chunk size. Without this, size caps
// measure prose padding instead of regulatory content.
var fillerWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

// sizeWords counts the substantive whitespace tokens of text.
func sizeWords(text string) int {
	n := 0
	for _, w := range strings.Fields(text) {
		if _, filler := fillerWords[strings.ToLower(strings.Trim(w, `.,;:"'`))]; filler {
			continue
		}
		n++
	}
	return n
}
