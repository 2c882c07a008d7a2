package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reglex/internal/models"
	"reglex/pkg/metadata"
)

func TestExtractDefinitions(t *testing.T) {
	ex := metadata.Extract(`"Accessory structure" means a detached subordinate building. Setback means the minimum distance from a lot line.`)

	assert.True(t, ex.HasDefinition)
	assert.Contains(t, ex.Definitions, "Accessory structure")
	assert.Contains(t, ex.Definitions, "Setback")
	assert.Equal(t, models.ContentDefinition, ex.ContentType)
}

func TestExtractCitations(t *testing.T) {
	ex := metadata.Extract("Variances are governed by Fla. Stat. § 163.3201 and 42 U.S.C. § 1983.")

	assert.True(t, ex.HasCitation)
	assert.NotEmpty(t, ex.Citations)
	assert.Equal(t, models.ContentCitation, ex.ContentType)
}

func TestExtractCrossReferences(t *testing.T) {
	ex := metadata.Extract("See Section 4.2 for fences and §101 for setbacks, subject to Article IV.")

	assert.Contains(t, ex.CrossReferences, "4.2")
	assert.Contains(t, ex.CrossReferences, "101")
	assert.Contains(t, ex.CrossReferences, "IV")
}

func TestExtractEntities(t *testing.T) {
	ex := metadata.Extract("The City of Springfield and the Planning Commission review all applications submitted to the Zoning Board.")

	assert.Contains(t, ex.LegalEntities, "City of Springfield")
	assert.Contains(t, ex.LegalEntities, "Zoning Board")
}

func TestExtractTableAndList(t *testing.T) {
	table := metadata.Extract("| District | Setback |\n| R-1 | 25 ft |")
	assert.True(t, table.HasTable)
	assert.Equal(t, models.ContentTable, table.ContentType)

	list := metadata.Extract("Permitted uses include: (a) single family dwellings; (b) parks; (c) schools.")
	assert.True(t, list.HasList)
	assert.Equal(t, models.ContentList, list.ContentType)

	mixed := metadata.Extract("| Use | Key |\n| A | 1 | as listed in (a) above and (b) below.")
	assert.True(t, mixed.HasTable)
	assert.True(t, mixed.HasList)
	assert.Equal(t, models.ContentMixed, mixed.ContentType)
}

func TestContentTypePriority(t *testing.T) {
	// A definition chunk that also carries a citation classifies as
	// definition.
	ex := metadata.Extract(`"Variance" means relief granted under Fla. Stat. § 163.`)
	assert.True(t, ex.HasDefinition)
	assert.True(t, ex.HasCitation)
	assert.Equal(t, models.ContentDefinition, ex.ContentType)
}

func TestSemanticDensityRange(t *testing.T) {
	cases := []string{
		"",
		"the the the the the",
		"Setbacks of 25 feet apply under Fla. Stat. § 163.3201 in the City of Springfield.",
	}
	for _, text := range cases {
		ex := metadata.Extract(text)
		assert.GreaterOrEqual(t, ex.SemanticDensity, 0.0, text)
		assert.LessOrEqual(t, ex.SemanticDensity, 1.0, text)
	}
}

func TestDensityOrdering(t *testing.T) {
	repetitive := metadata.Extract("word word word word word word word word word word")
	dense := metadata.Extract("Setbacks of 25 feet apply under Fla. Stat. § 163.3201 near the City of Springfield.")
	assert.Greater(t, dense.SemanticDensity, repetitive.SemanticDensity)
}

func TestExtractKeyPhrasesDeterministic(t *testing.T) {
	text := "Accessory structures require permits. Accessory structures require setbacks."
	a := metadata.Extract(text)
	b := metadata.Extract(text)
	assert.Equal(t, a.KeyPhrases, b.KeyPhrases)
	assert.Contains(t, a.KeyPhrases, "accessory")
}

func TestExtractPlainText(t *testing.T) {
	ex := metadata.Extract("Lots on corner parcels enjoy the same rights as interior parcels.")
	assert.Equal(t, models.ContentText, ex.ContentType)
	assert.False(t, ex.HasTable)
	assert.False(t, ex.HasList)
}
