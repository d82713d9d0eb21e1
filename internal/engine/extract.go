package engine

import (
	"regexp"
	"strings"

	"resumerank/internal/types"
)

var (
	// Two capitalized words at the very start of the text.
	namePattern  = regexp.MustCompile(`^[A-Z][a-z]+\s[A-Z][a-z]+`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9+_.-]+@[a-zA-Z0-9.-]+`)
	phonePattern = regexp.MustCompile(`\(?\+?\d{1,3}?\)?-?\s?\d{1,4}-?\s?\d{1,4}-?\s?\d{4}`)
	datePattern  = regexp.MustCompile(`\b(?:\d{2}/\d{4}|\d{4})\b`)
)

// ExtractName returns the leading "First Last" pair, or types.NotFound.
// A name that does not open the text is not recognized.
func ExtractName(text string) string {
	if m := namePattern.FindString(text); m != "" {
		return m
	}
	return types.NotFound
}

// ExtractContactInfo returns the first email and first phone number in text.
func ExtractContactInfo(text string) types.ContactInfo {
	return types.ContactInfo{
		Email: firstMatch(emailPattern, text),
		Phone: firstMatch(phonePattern, text),
	}
}

// ExtractDates returns every MM/YYYY or YYYY token in order, duplicates kept.
func ExtractDates(text string) []string {
	return allOrSentinel(datePattern.FindAllString(text, -1), types.NotFound)
}

// ExtractOrganizations returns capitalized runs ending in an organization
// keyword, in scan order.
func (e *Engine) ExtractOrganizations(text string) []string {
	return allOrSentinel(e.orgPattern.FindAllString(text, -1), types.NotFound)
}

// ExtractJobTitles returns the vocabulary job titles found in text.
func (e *Engine) ExtractJobTitles(text string) []string {
	return containedTerms(strings.ToLower(text), e.vocab.JobTitles, e.lowerTitles, types.NotFound)
}

// ExtractSkills returns the vocabulary skills found in text.
func (e *Engine) ExtractSkills(text string) []string {
	return containedTerms(strings.ToLower(text), e.vocab.Skills, e.lowerSkills, types.NoSkillsFound)
}

// Extract runs every field extractor over text.
func (e *Engine) Extract(text string) types.ExtractionResult {
	lower := strings.ToLower(text)
	return types.ExtractionResult{
		Name:          ExtractName(text),
		ContactInfo:   ExtractContactInfo(text),
		Organizations: e.ExtractOrganizations(text),
		Dates:         ExtractDates(text),
		JobTitles:     containedTerms(lower, e.vocab.JobTitles, e.lowerTitles, types.NotFound),
		Skills:        containedTerms(lower, e.vocab.Skills, e.lowerSkills, types.NoSkillsFound),
	}
}

func firstMatch(re *regexp.Regexp, text string) *string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	m := text[loc[0]:loc[1]]
	return &m
}

func allOrSentinel(matches []string, sentinel string) []string {
	if len(matches) == 0 {
		return []string{sentinel}
	}
	return matches
}

// containedTerms keeps vocabulary order, so output never depends on where
// in the text a term shows up.
func containedTerms(lowerText string, terms, lowerTerms []string, sentinel string) []string {
	var found []string
	for i, term := range terms {
		if strings.Contains(lowerText, lowerTerms[i]) {
			found = append(found, term)
		}
	}
	return allOrSentinel(found, sentinel)
}
