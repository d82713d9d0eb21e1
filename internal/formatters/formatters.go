package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumerank/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "RankResumesOutput", &RankTextFormatter{})
	registry.RegisterFormatter("markdown", "RankResumesOutput", &RankMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResumeDetail", &DetailTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeDetail", &DetailMarkdownFormatter{})
	registry.RegisterFormatter("text", "VocabularyOutput", &VocabularyTextFormatter{})
	registry.RegisterFormatter("markdown", "VocabularyOutput", &VocabularyMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.RankResumesOutput:
		return "RankResumesOutput"
	case types.ResumeDetail:
		return "ResumeDetail"
	case types.VocabularyOutput:
		return "VocabularyOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// RankTextFormatter prints the ranking list and the selected resume, if any
type RankTextFormatter struct{}

func (rtf *RankTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RankResumesOutput)
	if !ok {
		return "", fmt.Errorf("expected RankResumesOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME RANKINGS ===\n\n")
	if len(result.Rankings) == 0 {
		output.WriteString("No resumes submitted.\n")
	}
	for _, entry := range result.Rankings {
		output.WriteString(RankingLine(entry))
		output.WriteString("\n")
	}

	if result.Selected != nil {
		output.WriteString("\n")
		detail, err := (&DetailTextFormatter{}).Format(*result.Selected)
		if err != nil {
			return "", err
		}
		output.WriteString(detail)
	}

	return output.String(), nil
}

func (rtf *RankTextFormatter) SupportedType() string {
	return "RankResumesOutput"
}

// RankMarkdownFormatter renders the ranking as a markdown list
type RankMarkdownFormatter struct{}

func (rmf *RankMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RankResumesOutput)
	if !ok {
		return "", fmt.Errorf("expected RankResumesOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Rankings\n\n")
	if len(result.Rankings) == 0 {
		output.WriteString("No resumes submitted.\n")
	}
	for _, entry := range result.Rankings {
		output.WriteString(fmt.Sprintf("%d. **%s** - Score: %d/%d\n",
			entry.Rank, entry.Filename, entry.Score, types.MaxResumeScore))
	}

	if result.Selected != nil {
		output.WriteString("\n")
		detail, err := (&DetailMarkdownFormatter{}).Format(*result.Selected)
		if err != nil {
			return "", err
		}
		output.WriteString(detail)
	}

	return output.String(), nil
}

func (rmf *RankMarkdownFormatter) SupportedType() string {
	return "RankResumesOutput"
}

// DetailTextFormatter prints every extracted field and the score chart
type DetailTextFormatter struct{}

func (dtf *DetailTextFormatter) Format(data any) (string, error) {
	detail, ok := data.(types.ResumeDetail)
	if !ok {
		return "", fmt.Errorf("expected ResumeDetail, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("=== DETAILS: %s ===\n", detail.Filename))
	for _, field := range detailFields(detail.Result) {
		output.WriteString(fmt.Sprintf("%-14s %s\n", field.label+":", field.value))
	}
	output.WriteString("\n=== SCORE ===\n")
	output.WriteString(fmt.Sprintf("Score: %d/%d\n", detail.Score, types.MaxResumeScore))
	output.WriteString(ScoreBar(detail.Chart))
	output.WriteString("\n")

	return output.String(), nil
}

func (dtf *DetailTextFormatter) SupportedType() string {
	return "ResumeDetail"
}

// DetailMarkdownFormatter renders the fields as a markdown table
type DetailMarkdownFormatter struct{}

func (dmf *DetailMarkdownFormatter) Format(data any) (string, error) {
	detail, ok := data.(types.ResumeDetail)
	if !ok {
		return "", fmt.Errorf("expected ResumeDetail, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("## Details for %s\n\n", detail.Filename))
	output.WriteString("| Field | Value |\n|---|---|\n")
	for _, field := range detailFields(detail.Result) {
		output.WriteString(fmt.Sprintf("| %s | %s |\n", field.label, cellEscaper.Replace(field.value)))
	}
	output.WriteString(fmt.Sprintf("\n**Score:** %d/%d\n\n", detail.Score, types.MaxResumeScore))
	output.WriteString("```\n")
	output.WriteString(ScoreBar(detail.Chart))
	output.WriteString("\n```\n")

	return output.String(), nil
}

func (dmf *DetailMarkdownFormatter) SupportedType() string {
	return "ResumeDetail"
}

// VocabularyTextFormatter lists the terms the engine matches
type VocabularyTextFormatter struct{}

func (vtf *VocabularyTextFormatter) Format(data any) (string, error) {
	vocab, ok := data.(types.VocabularyOutput)
	if !ok {
		return "", fmt.Errorf("expected VocabularyOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("Job Titles: " + strings.Join(vocab.JobTitles, ", ") + "\n")
	output.WriteString("Skills: " + strings.Join(vocab.Skills, ", ") + "\n")
	output.WriteString("Organization Keywords: " + strings.Join(vocab.OrganizationKeywords, ", ") + "\n")
	return output.String(), nil
}

func (vtf *VocabularyTextFormatter) SupportedType() string {
	return "VocabularyOutput"
}

type VocabularyMarkdownFormatter struct{}

func (vmf *VocabularyMarkdownFormatter) Format(data any) (string, error) {
	vocab, ok := data.(types.VocabularyOutput)
	if !ok {
		return "", fmt.Errorf("expected VocabularyOutput, got %T", data)
	}

	var output strings.Builder
	sections := []struct {
		title string
		terms []string
	}{
		{"Job Titles", vocab.JobTitles},
		{"Skills", vocab.Skills},
		{"Organization Keywords", vocab.OrganizationKeywords},
	}
	for i, s := range sections {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString("## " + s.title + "\n\n")
		for _, term := range s.terms {
			output.WriteString(fmt.Sprintf("- %s\n", term))
		}
	}
	return output.String(), nil
}

func (vmf *VocabularyMarkdownFormatter) SupportedType() string {
	return "VocabularyOutput"
}

// RankingLine renders one ranking row as "N. file - Score: S/100".
func RankingLine(entry types.RankedEntry) string {
	return fmt.Sprintf("%d. %s - Score: %d/%d", entry.Rank, entry.Filename, entry.Score, types.MaxResumeScore)
}

const barWidth = 20

// ScoreBar draws the scored and remaining slices as a fixed-width bar.
func ScoreBar(chart types.ScoreChart) string {
	total := chart.Scored + chart.Remaining
	filled := 0
	if total > 0 {
		filled = chart.Scored * barWidth / total
	}
	return fmt.Sprintf("[%s%s] Score %d%% / Remaining %d%%",
		strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled),
		chart.Scored, chart.Remaining)
}

// Extracted values can span lines; table cells cannot.
var cellEscaper = strings.NewReplacer("|", "\\|", "\r\n", " ", "\n", " ")

type field struct {
	label string
	value string
}

func detailFields(r types.ExtractionResult) []field {
	return []field{
		{"Name", r.Name},
		{"Email", optional(r.ContactInfo.Email)},
		{"Phone", optional(r.ContactInfo.Phone)},
		{"Organizations", strings.Join(r.Organizations, ", ")},
		{"Dates", strings.Join(r.Dates, ", ")},
		{"Job Titles", strings.Join(r.JobTitles, ", ")},
		{"Skills", strings.Join(r.Skills, ", ")},
	}
}

func optional(s *string) string {
	if s == nil {
		return types.NotFound
	}
	return *s
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
