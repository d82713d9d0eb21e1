package types

// Sentinels used in place of missing fields. Scoring and display compare
// against these exact strings.
const (
	NotFound       = "not found"
	NoSkillsFound  = "no skills found"
	MaxResumeScore = 100
)

// ResumeDocument is one resume after decoding, before extraction.
type ResumeDocument struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// ContactInfo holds the first email and phone found in a resume.
// A nil field means no match; it is never an empty string.
type ContactInfo struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// ExtractionResult holds every field the engine pulls from a resume.
type ExtractionResult struct {
	Name          string      `json:"name"`
	ContactInfo   ContactInfo `json:"contactInfo"`
	Organizations []string    `json:"organizations"`
	Dates         []string    `json:"dates"`
	JobTitles     []string    `json:"jobTitles"`
	Skills        []string    `json:"skills"`
}

// ScoredResume pairs an extraction with its score. Position is the 1-based
// order in which the resume was submitted.
type ScoredResume struct {
	Position int              `json:"position"`
	Filename string           `json:"filename"`
	Result   ExtractionResult `json:"result"`
	Score    int              `json:"score"`
}

// ScoreChart is the two-slice breakdown rendered next to a selected resume.
type ScoreChart struct {
	Scored    int `json:"scored"`
	Remaining int `json:"remaining"`
}

// ResumeDetail is the full view of a single resume.
type ResumeDetail struct {
	ScoredResume
	Chart ScoreChart `json:"chart"`
}

// RankedEntry is a single row of a ranking list.
type RankedEntry struct {
	Rank     int    `json:"rank"`
	Position int    `json:"position"`
	Filename string `json:"filename"`
	Score    int    `json:"score"`
}

// RankResumesInput represents a ranking request
type RankResumesInput struct {
	Resumes  []ResumeDocument `json:"resumes"`
	Select   string           `json:"select,omitempty"`
	Position int              `json:"position,omitempty"`
}

// RankResumesOutput represents the ranked batch and an optional selection
type RankResumesOutput struct {
	BatchID  string        `json:"batchId"`
	Rankings []RankedEntry `json:"rankings"`
	Selected *ResumeDetail `json:"selected,omitempty"`
}

// ExtractResumeInput represents a single-resume extraction request
type ExtractResumeInput struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// VocabularyOutput describes the vocabulary the engine is matching against.
type VocabularyOutput struct {
	JobTitles            []string `json:"jobTitles"`
	Skills               []string `json:"skills"`
	OrganizationKeywords []string `json:"organizationKeywords"`
}
