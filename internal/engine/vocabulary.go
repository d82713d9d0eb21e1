package engine

import (
	"fmt"
	"os"
	"strings"

	apperrors "resumerank/internal/errors"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the fixed term lists the keyword extractors match against.
// Treat it as immutable once handed to New.
type Vocabulary struct {
	JobTitles            []string `yaml:"jobTitles" json:"jobTitles"`
	Skills               []string `yaml:"skills" json:"skills"`
	OrganizationKeywords []string `yaml:"organizationKeywords" json:"organizationKeywords"`
}

// DefaultVocabulary returns the built-in term lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		JobTitles: []string{
			"Engineer", "Manager", "Developer", "Consultant",
			"Analyst", "Designer", "Architect", "Technician",
		},
		Skills: []string{
			"Python", "Java", "C++", "JavaScript", "SQL", "HTML", "CSS",
			"Machine Learning", "Data Analysis", "React", "Django", "Flask",
			"TensorFlow", "Keras", "AWS", "Docker", "Kubernetes",
			"Leadership", "Communication", "Problem-solving",
		},
		OrganizationKeywords: []string{
			"Inc", "Corporation", "Corp", "Ltd", "LLC",
			"University", "College", "Institute",
		},
	}
}

// Validate checks that every list is non-empty and has no blank terms.
func (v Vocabulary) Validate() error {
	lists := []struct {
		name  string
		terms []string
	}{
		{"jobTitles", v.JobTitles},
		{"skills", v.Skills},
		{"organizationKeywords", v.OrganizationKeywords},
	}
	for _, l := range lists {
		if len(l.terms) == 0 {
			return apperrors.NewValidationError(apperrors.ErrCodeInvalidVocabulary,
				fmt.Sprintf("vocabulary list %s is empty", l.name), nil)
		}
		for i, term := range l.terms {
			if strings.TrimSpace(term) == "" {
				return apperrors.NewValidationError(apperrors.ErrCodeInvalidVocabulary,
					fmt.Sprintf("vocabulary list %s has a blank term at index %d", l.name, i), nil)
			}
		}
	}
	return nil
}

func (v Vocabulary) clone() Vocabulary {
	return Vocabulary{
		JobTitles:            append([]string(nil), v.JobTitles...),
		Skills:               append([]string(nil), v.Skills...),
		OrganizationKeywords: append([]string(nil), v.OrganizationKeywords...),
	}
}

// ParseVocabulary decodes a YAML vocabulary. Lists missing from the document
// fall back to the built-in ones.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var parsed Vocabulary
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Vocabulary{}, apperrors.NewValidationError(apperrors.ErrCodeInvalidVocabulary,
			"failed to parse vocabulary YAML", err)
	}

	defaults := DefaultVocabulary()
	if len(parsed.JobTitles) == 0 {
		parsed.JobTitles = defaults.JobTitles
	}
	if len(parsed.Skills) == 0 {
		parsed.Skills = defaults.Skills
	}
	if len(parsed.OrganizationKeywords) == 0 {
		parsed.OrganizationKeywords = defaults.OrganizationKeywords
	}

	if err := parsed.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return parsed, nil
}

// LoadVocabularyFile reads a YAML vocabulary from disk.
func LoadVocabularyFile(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Vocabulary{}, apperrors.NewIOError(apperrors.ErrCodeFileNotFound,
				"vocabulary file not found", err).WithContext("path", path)
		}
		return Vocabulary{}, apperrors.NewIOError(apperrors.ErrCodeFileNotReadable,
			"failed to read vocabulary file", err).WithContext("path", path)
	}

	vocab, err := ParseVocabulary(data)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return Vocabulary{}, appErr.WithContext("path", path)
		}
		return Vocabulary{}, err
	}
	return vocab, nil
}
