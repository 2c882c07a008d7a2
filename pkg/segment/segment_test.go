package segment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reglex/pkg/segment"
)

func TestSegmentBasic(t *testing.T) {
	s := segment.New()

	got := s.Segment("Setbacks apply to all lots. No structure may exceed two stories. Variances require a hearing.")
	require.Len(t, got, 3)
	assert.Equal(t, "Setbacks apply to all lots.", got[0].Text)
	assert.Equal(t, "No structure may exceed two stories.", got[1].Text)
	assert.Equal(t, "Variances require a hearing.", got[2].Text)
}

func TestSegmentEmpty(t *testing.T) {
	s := segment.New()
	assert.Empty(t, s.Segment(""))
	assert.Empty(t, s.Segment("   \n\n  "))
}

func TestSegmentOffsets(t *testing.T) {
	s := segment.New()
	text := "First sentence here. Second sentence here."
	got := s.Segment(text)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 21, got[1].Start)
}

func TestSegmentParagraphBreak(t *testing.T) {
	s := segment.New()
	got := s.Segment("First paragraph ends here.\n\nSecond paragraph starts here.")
	require.Len(t, got, 2)
	assert.False(t, got[0].ParaBreak)
	assert.True(t, got[1].ParaBreak)
}

func TestSegmentDoesNotSplitDecimals(t *testing.T) {
	s := segment.New()
	got := s.Segment("The setback is 10.5 feet from the line. Fences may be 6 feet tall.")
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Text, "10.5 feet")
}

func TestSegmentMergesCitationAbbreviations(t *testing.T) {
	s := segment.New()

	// "Fla." and "Stat." end in periods but continue the citation even
	// though the next token is capitalized.
	got := s.Segment("Fla. Stat. permits variance requests. The board reviews each one.")
	require.Len(t, got, 2)
	assert.Equal(t, "Fla. Stat. permits variance requests.", got[0].Text)

	got = s.Segment("See Smith v. Jones for the controlling rule. It remains good law.")
	require.Len(t, got, 2)
	assert.Equal(t, "See Smith v. Jones for the controlling rule.", got[0].Text)
}

func TestSegmentMergesSectionLabel(t *testing.T) {
	s := segment.New()
	got := s.Segment("§101. Setbacks apply to all lots. No structure shall encroach.")
	require.Len(t, got, 2)
	assert.Equal(t, "§101. Setbacks apply to all lots.", got[0].Text)
}

func TestSegmentGeneralAbbreviationNeedsLowercase(t *testing.T) {
	s := segment.New()

	// Lowercase continuation merges.
	got := s.Segment("Permits cover sheds, fences, etc. unless exempted by rule. Appeals go to the board.")
	require.Len(t, got, 2)
	assert.Equal(t, "Permits cover sheds, fences, etc. unless exempted by rule.", got[0].Text)

	// Capitalized continuation is a genuine sentence break.
	got = s.Segment("The owner is Acme Inc. The parcel is vacant.")
	require.Len(t, got, 2)
}

func TestSegmentTrailingAbbreviationUnmerged(t *testing.T) {
	s := segment.New()
	got := s.Segment("Variances are governed by Fla. Stat.")
	require.Len(t, got, 1)
	assert.Equal(t, "Variances are governed by Fla. Stat.", got[0].Text)
}
