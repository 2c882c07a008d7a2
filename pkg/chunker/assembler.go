package chunker

import (
	"regexp"
	"strings"

	"reglex/internal/models"
	"reglex/internal/types"
)

const (
	unknownSectionID    = "UNKNOWN"
	unknownSectionTitle = "Unknown Section"
)

var (
	articlePattern = regexp.MustCompile(`^ARTICLE\s+([IVXLCDM]+)\b[\s.:—–-]*(.{0,80}?)(?:\.|$)`)
	sectionSigil   = regexp.MustCompile(`^§+\s*(\d+(?:\.\d+)*[A-Za-z]?)\.?\s*(.{0,80}?)(?:\.|$)`)
	sectionDashed  = regexp.MustCompile(`^(\d+\.\d+)\s*[—–-]\s*(.{0,80}?)(?:\.|$)`)
	sectionWord    = regexp.MustCompile(`^(?:SECTION|Section)\s+(\d+(?:\.\d+)*)\s*[.:—–-]?\s*(.{0,80}?)(?:\.|$)`)
)

// Assembler turns boundary-delimited sentence spans into chunk records:
// joined text, sliding-window overlap context, fractional document
// position, and section attribution from leading structural markers.
type Assembler struct {
	config Config
}

func NewAssembler(config Config) *Assembler {
	return &Assembler{config: config.withDefaults()}
}

// Assemble builds one chunk per boundary span. totalLen is the byte
// length of the normalized document the sentence offsets refer to.
func (a *Assembler) Assemble(sentences []types.Sentence, boundaries []int, totalLen int) []models.Chunk {
	if len(sentences) == 0 || len(boundaries) == 0 {
		return nil
	}

	spans := make([][]types.Sentence, 0, len(boundaries))
	for i, start := range boundaries {
		end := len(sentences)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		spans = append(spans, sentences[start:end])
	}

	parentSection := ""
	chunks := make([]models.Chunk, 0, len(spans))
	for i, span := range spans {
		content := joinSentences(span)
		chunk := models.Chunk{
			ChunkNumber:   i,
			Content:       content,
			WordCount:     sizeWords(content),
			CharCount:     len(content),
			SentenceCount: len(span),
		}

		if totalLen > 0 {
			chunk.DocumentPosition = float64(span[0].Start) / float64(totalLen)
		}

		id, title, article := extractSection(content)
		if article != "" {
			parentSection = article
		}
		chunk.SectionID = id
		chunk.SectionTitle = title
		chunk.ParentSection = parentSection
		chunk.SubsectionLevel = sectionLevel(id)

		if i > 0 {
			chunk.PrevOverlapText = tailSentences(spans[i-1], a.config.OverlapSentences)
		}
		if i+1 < len(spans) {
			chunk.NextPreviewText = headSentences(spans[i+1], a.config.OverlapSentences)
		}

		chunks = append(chunks, chunk)
	}
	return chunks
}

func joinSentences(span []types.Sentence) string {
	parts := make([]string, len(span))
	for i, s := range span {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

func tailSentences(span []types.Sentence, n int) string {
	if n <= 0 {
		return ""
	}
	if n > len(span) {
		n = len(span)
	}
	return joinSentences(span[len(span)-n:])
}

func headSentences(span []types.Sentence, n int) string {
	if n <= 0 {
		return ""
	}
	if n > len(span) {
		n = len(span)
	}
	return joinSentences(span[:n])
}

// extractSection matches structural markers in the chunk's leading text.
// The UNKNOWN fallback is deliberate, not an error: body chunks between
// headings have no marker of their own.
func extractSection(content string) (id, title, article string) {
	lead := content
	if len(lead) > 200 {
		lead = lead[:200]
	}

	if m := articlePattern.FindStringSubmatch(lead); m != nil {
		article = "ARTICLE " + m[1]
		return article, cleanTitle(m[2], article), article
	}
	for _, p := range []*regexp.Regexp{sectionSigil, sectionDashed, sectionWord} {
		if m := p.FindStringSubmatch(lead); m != nil {
			return m[1], cleanTitle(m[2], unknownSectionTitle), ""
		}
	}
	return unknownSectionID, unknownSectionTitle, ""
}

func cleanTitle(raw, fallback string) string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return fallback
	}
	return title
}

func sectionLevel(id string) int {
	if id == unknownSectionID {
		return 0
	}
	return strings.Count(id, ".") + 1
}
