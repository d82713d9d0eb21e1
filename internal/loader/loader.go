// Package loader turns uploaded resume bytes into plain text.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "resumerank/internal/errors"
	"resumerank/internal/types"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
)

// Format is a declared document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatText Format = "text"
)

// FormatFromFilename picks a format from the file extension. Anything that is
// not PDF or Word is read as UTF-8 text.
func FormatFromFilename(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".doc":
		return FormatDOC
	default:
		return FormatText
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatPDF, FormatDOCX, FormatDOC, FormatText:
		return f, nil
	case "txt":
		return FormatText, nil
	default:
		return "", apperrors.NewValidationError(apperrors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported document format '%s'", name), nil)
	}
}

// convertDoc shells out to antiword; tests replace it.
var convertDoc wordConverter = docconv.ConvertDoc

// Loader decodes documents. The zero value runs the .doc converter without a
// circuit breaker.
type Loader struct {
	docBreaker *ConverterBreaker
}

// New returns a Loader whose .doc conversions go through docBreaker. A nil
// breaker is allowed.
func New(docBreaker *ConverterBreaker) *Loader {
	return &Loader{docBreaker: docBreaker}
}

var defaultLoader = &Loader{}

// Load decodes data according to format.
func Load(data []byte, format Format) (string, error) {
	return defaultLoader.Load(data, format)
}

// LoadDocument decodes data using the format implied by filename.
func LoadDocument(filename string, data []byte) (types.ResumeDocument, error) {
	return defaultLoader.LoadDocument(filename, data)
}

// BreakerStats reports the state of the .doc converter breaker
func (l *Loader) BreakerStats() map[string]any {
	return l.docBreaker.GetStats()
}

// BreakerHealthy reports whether .doc conversions are being attempted
func (l *Loader) BreakerHealthy() bool {
	return l.docBreaker.IsHealthy()
}

// Load decodes data according to format.
func (l *Loader) Load(data []byte, format Format) (string, error) {
	switch format {
	case FormatPDF:
		return decodePDF(data)
	case FormatDOCX:
		return decodeWord(data, docconv.ConvertDocx, format)
	case FormatDOC:
		return l.docBreaker.Execute(func() (string, error) {
			return decodeWord(data, convertDoc, format)
		})
	case FormatText:
		return decodeText(data)
	default:
		return "", apperrors.NewValidationError(apperrors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported document format '%s'", format), nil)
	}
}

// LoadDocument decodes data using the format implied by filename.
func (l *Loader) LoadDocument(filename string, data []byte) (types.ResumeDocument, error) {
	format := FormatFromFilename(filename)
	text, err := l.Load(data, format)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return types.ResumeDocument{}, appErr.WithContext("filename", filename)
		}
		return types.ResumeDocument{}, err
	}
	return types.ResumeDocument{Filename: filename, Text: text}, nil
}

func decodePDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = decodeError(FormatPDF, fmt.Errorf("%v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", decodeError(FormatPDF, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", decodeError(FormatPDF, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", decodeError(FormatPDF, err)
	}
	return buf.String(), nil
}

type wordConverter func(io.Reader) (string, map[string]string, error)

func decodeWord(data []byte, convert wordConverter, format Format) (string, error) {
	body, _, err := convert(bytes.NewReader(data))
	if err != nil {
		return "", decodeError(format, err)
	}
	return body, nil
}

func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", decodeError(FormatText, fmt.Errorf("content is not valid UTF-8"))
	}
	return string(data), nil
}

func decodeError(format Format, cause error) *apperrors.AppError {
	return apperrors.NewDocumentError(apperrors.ErrCodeDocumentDecodeFailed,
		fmt.Sprintf("failed to decode %s document", format), cause).
		WithContext("format", string(format))
}
