package metadata

import (
	"regexp"
	"sort"
	"strings"

	"reglex/internal/models"
)

// Extraction holds the signals pulled from one chunk's text.
type Extraction struct {
	ContentType     models.ContentType
	HasTable        bool
	HasList         bool
	HasDefinition   bool
	HasCitation     bool
	Definitions     []string
	Citations       []string
	CrossReferences []string
	LegalEntities   []string
	KeyPhrases      []string
	SemanticDensity float64
}

var (
	tablePattern = regexp.MustCompile(`\|[^|\n]+\|`)
	listPattern  = regexp.MustCompile(`(?m)(?:^|\s)\((?:[a-z]|[ivx]+|\d+)\)\s`)

	quotedDefPattern = regexp.MustCompile(`["“]([^"”]{1,60})["”]\s+(?:means|shall mean)`)
	plainDefPattern  = regexp.MustCompile(`\b([A-Z][A-Za-z -]{2,40}?)\s+(?:means|shall mean)\b`)

	citationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][a-z]{1,5}\.\s*Stat\.(?:\s*Ann\.)?(?:\s*§+\s*[\d.\-]+)?`),
		regexp.MustCompile(`\b\d+\s+U\.S\.C\.\s*§+\s*[\d.\-]+`),
		regexp.MustCompile(`\bCode\s+(?:of\s+Ordinances\s+)?§+\s*[\d.\-]+`),
		regexp.MustCompile(`§+\s*[\d]+[\d.\-]*`),
	}

	crossRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bSections?\s+(\d+(?:\.\d+)*)`),
		regexp.MustCompile(`§+\s*(\d+(?:\.\d+)*)`),
		regexp.MustCompile(`\bArticles?\s+([IVXLCDM]+)\b`),
	}

	entityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:City|County|Town|Village|State|Commonwealth)\s+of\s+[A-Z][A-Za-z]+`),
		regexp.MustCompile(`\b[A-Z][A-Za-z]+\s+(?:Planning\s+)?(?:Commission|Board|Council|Department|Authority|Agency)\b`),
	}

	numericToken = regexp.MustCompile(`^\$?\d[\d,.\-%]*$`)
	capitalToken = regexp.MustCompile(`^[A-Z][a-z]+`)
)

// Density weights: type-token ratio, numeric density, citation density,
// capitalized-phrase density. They sum to 1.
const (
	weightTypeToken = 0.4
	weightNumeric   = 0.2
	weightCitation  = 0.2
	weightCapital   = 0.2
)

// Extract classifies chunk text and pulls structured signals. It is a
// pure function of the text, safe to run for many chunks in parallel.
// Each classifier runs independently; one failing degrades its own field
// to the zero value and never aborts the chunk.
func Extract(text string) Extraction {
	var ex Extraction

	run(func() { ex.HasTable = tablePattern.MatchString(text) })
	run(func() { ex.HasList = listPattern.MatchString(text) })
	run(func() { ex.Definitions = extractDefinitions(text) })
	run(func() { ex.Citations = extractCitations(text) })
	run(func() { ex.CrossReferences = extractCrossReferences(text) })
	run(func() { ex.LegalEntities = extractEntities(text) })
	run(func() { ex.KeyPhrases = extractKeyPhrases(text) })
	run(func() { ex.SemanticDensity = density(text) })

	ex.HasDefinition = len(ex.Definitions) > 0
	ex.HasCitation = len(ex.Citations) > 0
	ex.ContentType = classify(ex)
	return ex
}

// run isolates one classifier so a panic degrades a single field.
func run(f func()) {
	defer func() { _ = recover() }()
	f()
}

func classify(ex Extraction) models.ContentType {
	switch {
	case ex.HasDefinition:
		return models.ContentDefinition
	case ex.HasCitation:
		return models.ContentCitation
	case ex.HasTable && ex.HasList:
		return models.ContentMixed
	case ex.HasTable:
		return models.ContentTable
	case ex.HasList:
		return models.ContentList
	default:
		return models.ContentText
	}
}

func extractDefinitions(text string) []string {
	var terms []string
	for _, m := range quotedDefPattern.FindAllStringSubmatch(text, -1) {
		terms = append(terms, strings.TrimSpace(m[1]))
	}
	for _, m := range plainDefPattern.FindAllStringSubmatch(text, -1) {
		terms = append(terms, strings.TrimSpace(m[1]))
	}
	return dedupe(terms)
}

func extractCitations(text string) []string {
	var cites []string
	for _, p := range citationPatterns {
		for _, m := range p.FindAllString(text, -1) {
			cites = append(cites, strings.TrimSpace(m))
		}
	}
	return dedupe(cites)
}

func extractCrossReferences(text string) []string {
	var refs []string
	for _, p := range crossRefPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			refs = append(refs, m[1])
		}
	}
	return dedupe(refs)
}

func extractEntities(text string) []string {
	var ents []string
	for _, p := range entityPatterns {
		ents = append(ents, p.FindAllString(text, -1)...)
	}
	return dedupe(ents)
}

// extractKeyPhrases keeps the most frequent substantive terms: words of
// five or more letters that are not stopwords, top ten by count with
// alphabetical tie-break for determinism.
func extractKeyPhrases(text string) []string {
	counts := map[string]int{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:()[]"'—–`)
		if len(w) < 5 || isStopword(w) || numericToken.MatchString(w) {
			continue
		}
		counts[w]++
	}
	phrases := make([]string, 0, len(counts))
	for w := range counts {
		phrases = append(phrases, w)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if counts[phrases[i]] != counts[phrases[j]] {
			return counts[phrases[i]] > counts[phrases[j]]
		}
		return phrases[i] < phrases[j]
	})
	if len(phrases) > 10 {
		phrases = phrases[:10]
	}
	return phrases
}

func density(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	seen := map[string]struct{}{}
	numeric, capitalized := 0, 0
	for _, w := range words {
		seen[strings.ToLower(strings.Trim(w, `.,;:()"'`))] = struct{}{}
		if numericToken.MatchString(strings.Trim(w, `.,;:()`)) {
			numeric++
		}
		if capitalToken.MatchString(w) {
			capitalized++
		}
	}

	total := float64(len(words))
	citations := 0
	for _, p := range citationPatterns {
		citations += len(p.FindAllString(text, -1))
	}

	score := weightTypeToken*(float64(len(seen))/total) +
		weightNumeric*(float64(numeric)/total) +
		weightCitation*(float64(citations)/total) +
		weightCapital*(float64(capitalized)/total)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func dedupe(items []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, it := range items {
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

var stopwords = map[string]struct{}{
	"shall": {}, "which": {}, "their": {}, "there": {}, "these": {},
	"those": {}, "where": {}, "within": {}, "under": {}, "above": {},
	"other": {}, "every": {}, "would": {}, "should": {}, "being": {},
	"between": {}, "through": {}, "herein": {}, "thereof": {},
}

func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
