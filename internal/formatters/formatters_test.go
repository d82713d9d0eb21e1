package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"resumerank/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDetail() types.ResumeDetail {
	email := "jane@x.io"
	return types.ResumeDetail{
		ScoredResume: types.ScoredResume{
			Position: 1,
			Filename: "jane.pdf",
			Score:    90,
			Result: types.ExtractionResult{
				Name:          "Jane Doe",
				ContactInfo:   types.ContactInfo{Email: &email},
				Organizations: []string{"Acme Corp"},
				Dates:         []string{"2019", "2021"},
				JobTitles:     []string{"Engineer"},
				Skills:        []string{"Python", "SQL"},
			},
		},
		Chart: types.ScoreChart{Scored: 90, Remaining: 10},
	}
}

func TestRankTextFormatter(t *testing.T) {
	out := types.RankResumesOutput{
		BatchID: "b1",
		Rankings: []types.RankedEntry{
			{Rank: 1, Position: 2, Filename: "jane.pdf", Score: 90},
			{Rank: 2, Position: 1, Filename: "john.txt", Score: 40},
		},
	}

	text, err := GlobalRegistry.Format(out, "text")
	require.NoError(t, err)

	assert.Contains(t, text, "1. jane.pdf - Score: 90/100\n")
	assert.Contains(t, text, "2. john.txt - Score: 40/100\n")
	assert.NotContains(t, text, "DETAILS")
}

func TestRankTextFormatterWithSelection(t *testing.T) {
	detail := sampleDetail()
	out := types.RankResumesOutput{
		Rankings: []types.RankedEntry{{Rank: 1, Position: 1, Filename: "jane.pdf", Score: 90}},
		Selected: &detail,
	}

	text, err := GlobalRegistry.Format(out, "text")
	require.NoError(t, err)

	assert.Contains(t, text, "=== DETAILS: jane.pdf ===")
	assert.Contains(t, text, "Phone:         not found")
	assert.Contains(t, text, "Skills:        Python, SQL")
	assert.Contains(t, text, "[##################..] Score 90% / Remaining 10%")
}

func TestDetailMarkdownFormatter(t *testing.T) {
	detail := sampleDetail()
	detail.Result.Organizations = []string{"Worked at\nAcme | Corp"}

	md, err := GlobalRegistry.Format(detail, "markdown")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "## Details for jane.pdf"))
	assert.Contains(t, md, "| Organizations | Worked at Acme \\| Corp |")
	assert.Contains(t, md, "**Score:** 90/100")
}

func TestJSONFormatterKeepsAbsentContactAsNull(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleDetail(), "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	contact := decoded["result"].(map[string]any)["contactInfo"].(map[string]any)
	assert.Equal(t, "jane@x.io", contact["email"])
	assert.Nil(t, contact["phone"])
	assert.Contains(t, contact, "phone")
}

func TestVocabularyFormatters(t *testing.T) {
	vocab := types.VocabularyOutput{
		JobTitles:            []string{"Engineer"},
		Skills:               []string{"Go", "SQL"},
		OrganizationKeywords: []string{"Inc"},
	}

	text, err := GlobalRegistry.Format(vocab, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Skills: Go, SQL\n")

	md, err := GlobalRegistry.Format(vocab, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "## Organization Keywords\n\n- Inc\n")
}

func TestScoreBar(t *testing.T) {
	assert.Equal(t, "[....................] Score 0% / Remaining 100%", ScoreBar(types.ScoreChart{Scored: 0, Remaining: 100}))
	assert.Equal(t, "[####################] Score 100% / Remaining 0%", ScoreBar(types.ScoreChart{Scored: 100, Remaining: 0}))
}

func TestUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleDetail(), "xml")
	assert.Error(t, err)
	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}
