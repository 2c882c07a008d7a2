package segment

import (
	"regexp"
	"strings"
	"unicode"

	"reglex/internal/types"
)

// Abbreviations that end in a sentence terminator but almost never end a
// sentence in regulatory text. Citation abbreviations merge with the
// following sentence unconditionally; general abbreviations merge only
// when the next sentence starts with a lowercase letter.
var (
	citationAbbrev = regexp.MustCompile(`(?:\b(?:U\.S|U\.S\.C|Fla|Stat|Ann|Rev|No|Nos|v|vs|al|[Ss]ec|[Aa]rt|[Cc]h)\.|§)$`)
	generalAbbrev  = regexp.MustCompile(`\b(?:etc|e\.g|i\.e|[Ii]nc|Corp|Co|Ltd|LLC|Dept|Mr|Ms|Dr|St|Ave)\.$`)
	sectionLabel   = regexp.MustCompile(`^§+\s*\d+(?:\.\d+)*[A-Za-z]?\.$`)
)

// Segmenter splits normalized text into sentences and repairs false
// splits introduced by statutory and corporate abbreviations.
type Segmenter struct{}

func New() *Segmenter {
	return &Segmenter{}
}

// Segment returns the ordered sentences of text with their byte offsets
// and paragraph-break flags. Empty or whitespace-only input yields nil.
func (s *Segmenter) Segment(text string) []types.Sentence {
	raw := split(text)
	return mergeAbbreviations(raw)
}

func split(text string) []types.Sentence {
	var sentences []types.Sentence

	start := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		if start == -1 {
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
				continue
			}
			start = i
		}
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// Terminator counts only at end of text or before whitespace;
		// "10.5" and "N.N" stay intact.
		if i+1 < len(text) {
			next := text[i+1]
			if next != ' ' && next != '\t' && next != '\n' && next != '\r' {
				continue
			}
		}
		sentences = appendSentence(sentences, text, start, i+1)
		start = -1
	}
	if start != -1 {
		sentences = appendSentence(sentences, text, start, len(text))
	}
	return sentences
}

func appendSentence(sentences []types.Sentence, text string, start, end int) []types.Sentence {
	body := strings.TrimSpace(text[start:end])
	if body == "" {
		return sentences
	}
	paraBreak := false
	if len(sentences) > 0 {
		prevEnd := sentences[len(sentences)-1].Start + len(sentences[len(sentences)-1].Text)
		if prevEnd < start && strings.Count(text[prevEnd:start], "\n") >= 2 {
			paraBreak = true
		}
	}
	return append(sentences, types.Sentence{Text: body, Start: start, ParaBreak: paraBreak})
}

// mergeAbbreviations walks left to right and joins sentence i with
// sentence i+1 when i ends in an abbreviation that should not have
// terminated it. The index does not advance after a merge, so chained
// citations like "Fla. Stat. Ann." collapse into one sentence. A
// trailing abbreviation with no following sentence is left as is.
func mergeAbbreviations(sentences []types.Sentence) []types.Sentence {
	i := 0
	for i < len(sentences)-1 {
		if shouldMerge(sentences[i].Text, sentences[i+1].Text) {
			sentences[i].Text = sentences[i].Text + " " + sentences[i+1].Text
			sentences = append(sentences[:i+1], sentences[i+2:]...)
			continue
		}
		i++
	}
	return sentences
}

func shouldMerge(cur, next string) bool {
	// A bare section label ("§101.") is a heading fragment, not a sentence.
	if sectionLabel.MatchString(cur) {
		return true
	}
	if citationAbbrev.MatchString(cur) {
		return true
	}
	if !generalAbbrev.MatchString(cur) {
		return false
	}
	r := []rune(next)
	return len(r) > 0 && unicode.IsLower(r[0])
}
