package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumerank/internal/config"
	"resumerank/internal/errors"
	"resumerank/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "jane.txt", "Jane Doe\njane@x.io")

	doc, err := NewFileProcessor(errors.Discard(), 1024).ReadDocument(path)
	require.NoError(t, err)

	assert.Equal(t, types.ResumeDocument{Filename: "jane.txt", Text: "Jane Doe\njane@x.io"}, doc)
}

func TestReadDocumentErrors(t *testing.T) {
	dir := t.TempDir()
	big := writeFile(t, dir, "big.txt", strings.Repeat("a", 2048))
	binary := writeFile(t, dir, "blob.bin", "\xff\xfe\x00")

	fp := NewFileProcessor(errors.Discard(), 1024)

	_, err := fp.ReadDocument(big)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileTooLarge), "got %v", err)
	assert.ErrorContains(t, err, "2.0 KB")

	_, err = fp.ReadDocument(filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.HasCode(err, "INVALID_INPUT_FILE"), "got %v", err)

	_, err = fp.ReadDocument(binary)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDocumentDecodeFailed), "got %v", err)
}

func TestReadDocumentsKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "first")
	b := writeFile(t, dir, "b.txt", "second")

	docs, err := NewFileProcessor(nil, 0).ReadDocuments(b, a)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "b.txt", docs[0].Filename)
	assert.Equal(t, "a.txt", docs[1].Filename)
}

func TestHandleOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "vocab.json")
	data := types.VocabularyOutput{JobTitles: []string{"Engineer"}, Skills: []string{"Go"}}

	var stdout bytes.Buffer
	handler := NewOutputHandlerTo(errors.Discard(), &stdout)

	require.NoError(t, handler.HandleOutput(data, CommandConfig{OutputFormat: "json", OutputFile: out}))
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"Engineer"`)
	assert.Empty(t, stdout.String())

	require.NoError(t, handler.HandleOutput(data, CommandConfig{OutputFormat: "text"}))
	assert.Contains(t, stdout.String(), "Engineer")

	err = handler.HandleOutput(data, CommandConfig{OutputFormat: "xml"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestRunDocumentCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "one")
	b := writeFile(t, dir, "b.txt", "two")

	var logged []string
	var stdout bytes.Buffer
	err := RunDocumentCommand(context.Background(), errors.Discard(), &stdout,
		CommandConfig{OutputFormat: "json"},
		[]string{a, b},
		func(_ context.Context, docs []types.ResumeDocument) (types.VocabularyOutput, error) {
			out := types.VocabularyOutput{}
			for _, d := range docs {
				out.Skills = append(out.Skills, d.Text)
			}
			return out, nil
		},
		func(docs []types.ResumeDocument, _ CommandConfig) {
			for _, d := range docs {
				logged = append(logged, d.Filename)
			}
		},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.txt"}, logged)
	assert.Contains(t, stdout.String(), `"one"`)
	assert.Contains(t, stdout.String(), `"two"`)
}

func TestLoadEngine(t *testing.T) {
	eng, err := LoadEngine(config.EngineConfig{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, eng.Vocabulary().Skills)

	path := writeFile(t, t.TempDir(), "vocab.yaml", "skills: [Rust]\n")
	eng, err = LoadEngine(config.EngineConfig{VocabularyFile: path}, errors.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust"}, eng.Vocabulary().Skills)

	_, err = LoadEngine(config.EngineConfig{VocabularyFile: filepath.Join(t.TempDir(), "nope.yaml")}, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))
}
