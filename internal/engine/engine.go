// Package engine extracts structured fields from resume text and scores how
// complete the result is. An Engine holds only compiled patterns and an
// immutable vocabulary, so one instance can serve many goroutines.
package engine

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "resumerank/internal/errors"
	"resumerank/internal/types"
)

// Field weights. They add up to types.MaxResumeScore.
const (
	WeightName          = 10
	WeightEmail         = 10
	WeightPhone         = 10
	WeightOrganizations = 20
	WeightDates         = 20
	WeightJobTitles     = 20
	WeightSkills        = 10
)

// Engine extracts and scores resumes against one vocabulary.
type Engine struct {
	vocab       Vocabulary
	orgPattern  *regexp.Regexp
	lowerTitles []string
	lowerSkills []string
}

// New builds an Engine for vocab. The vocabulary is copied.
func New(vocab Vocabulary) (*Engine, error) {
	if err := vocab.Validate(); err != nil {
		return nil, err
	}
	vocab = vocab.clone()

	keywords := make([]string, len(vocab.OrganizationKeywords))
	for i, kw := range vocab.OrganizationKeywords {
		keywords[i] = regexp.QuoteMeta(kw)
	}
	orgPattern, err := regexp.Compile(fmt.Sprintf(`[A-Z][a-zA-Z\s]*(?:\b(?:%s)\b)`, strings.Join(keywords, "|")))
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidVocabulary,
			"organization keywords do not form a valid pattern", err)
	}

	return &Engine{
		vocab:       vocab,
		orgPattern:  orgPattern,
		lowerTitles: lowerAll(vocab.JobTitles),
		lowerSkills: lowerAll(vocab.Skills),
	}, nil
}

// NewDefault builds an Engine over DefaultVocabulary.
func NewDefault() *Engine {
	e, err := New(DefaultVocabulary())
	if err != nil {
		panic(fmt.Sprintf("default vocabulary rejected: %v", err))
	}
	return e
}

// Vocabulary returns a copy of the engine's vocabulary.
func (e *Engine) Vocabulary() Vocabulary {
	return e.vocab.clone()
}

// Score sums the weight of every field that is not a sentinel.
func Score(result types.ExtractionResult) int {
	score := 0
	if result.Name != types.NotFound {
		score += WeightName
	}
	if result.ContactInfo.Email != nil {
		score += WeightEmail
	}
	if result.ContactInfo.Phone != nil {
		score += WeightPhone
	}
	if !isSentinel(result.Organizations, types.NotFound) {
		score += WeightOrganizations
	}
	if !isSentinel(result.Dates, types.NotFound) {
		score += WeightDates
	}
	if !isSentinel(result.JobTitles, types.NotFound) {
		score += WeightJobTitles
	}
	if !isSentinel(result.Skills, types.NoSkillsFound) {
		score += WeightSkills
	}
	return score
}

// Process extracts and scores a single document. Position is left for the
// caller to fill in.
func (e *Engine) Process(doc types.ResumeDocument) types.ScoredResume {
	result := e.Extract(doc.Text)
	return types.ScoredResume{
		Filename: doc.Filename,
		Result:   result,
		Score:    Score(result),
	}
}

// Chart splits a score into the scored and remaining slices of 100.
func Chart(score int) types.ScoreChart {
	return types.ScoreChart{
		Scored:    score,
		Remaining: types.MaxResumeScore - score,
	}
}

func isSentinel(values []string, sentinel string) bool {
	return len(values) == 1 && values[0] == sentinel
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
