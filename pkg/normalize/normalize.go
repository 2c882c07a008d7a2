package normalize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlHint    = regexp.MustCompile(`(?i)<\s*(?:html|body|div|p|table|br)\b`)
	pageNumber  = regexp.MustCompile(`(?i)^(?:page\s+\d+(?:\s+of\s+\d+)?|-\s*\d+\s*-|\d{1,4})$`)
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	noisePhrase = []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
		"Skip to main content",
	}
)

// Normalize prepares raw producer text for segmentation: HTML is
// stripped (image alt text substituted in place), boilerplate lines and
// page numbers dropped, horizontal whitespace collapsed. Blank lines
// survive as single paragraph breaks because the structural boundary
// strategy keys off them.
func Normalize(raw string) string {
	text := raw
	if htmlHint.MatchString(raw) {
		if stripped, err := stripHTML(raw); err == nil {
			text = stripped
		}
	}
	return collapse(text)
}

func stripHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if alt, ok := sel.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			sel.ReplaceWithHtml("[" + strings.TrimSpace(alt) + "]")
		} else {
			sel.Remove()
		}
	})
	// Block elements become line breaks so paragraph structure survives
	// the text extraction.
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6").AfterHtml("\n\n")

	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Text(), nil
	}
	return body.Text(), nil
}

func collapse(text string) string {
	for _, phrase := range noisePhrase {
		text = strings.ReplaceAll(text, phrase, "")
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
		if pageNumber.MatchString(line) {
			line = ""
		}
		out = append(out, line)
	}

	joined := strings.Join(out, "\n")
	joined = blankRuns.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}
