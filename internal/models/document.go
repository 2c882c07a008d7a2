package models

// Document is the raw input tuple handed to the pipeline by an upstream
// producer (scraper, PDF extractor, bulk loader). Content is plain text,
// or HTML that the normalizer will strip first.
type Document struct {
	ID           string
	Jurisdiction string
	Region       string
	Title        string
	Content      string
	Metadata     map[string]interface{}
}
