package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resumerank/internal/config"
	"resumerank/internal/engine"
	"resumerank/internal/errors"
	"resumerank/internal/observability"
	"resumerank/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullResume = "Jane Doe\njane@x.io\n555-123-4567\nSoftware Engineer at Acme Corp 2019-2021\nSkills: Python, SQL"

func newTestServer(t *testing.T, mutate func(*ServerConfig)) (*Server, http.Handler) {
	t.Helper()

	appCfg := &config.Config{}
	appCfg.App.SupportedFormats = []string{"json", "text", "markdown"}

	cfg := ServerConfig{
		Version:        "test",
		MaxRequestSize: 1 << 20,
		MaxBatchSize:   5,
		Workers:        2,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s := NewServer(appCfg, cfg, engine.NewDefault(), errors.Discard())
	if s.RateLimiter != nil {
		t.Cleanup(s.RateLimiter.Close)
	}

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false})
	require.NoError(t, err)

	return s, s.Handler(om)
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRankJSON(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := postJSON(t, h, "/rank", RankRequest{
		Resumes: []types.ResumeDocument{
			{Filename: "empty.txt", Text: ""},
			{Filename: "jane.txt", Text: fullResume},
			{Filename: "john.txt", Text: "John Smith"},
		},
		Select: "jane.txt",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[types.RankResumesOutput](t, rec)
	assert.NotEmpty(t, out.BatchID)
	require.Len(t, out.Rankings, 3)
	assert.Equal(t, types.RankedEntry{Rank: 1, Position: 2, Filename: "jane.txt", Score: 100}, out.Rankings[0])
	assert.Equal(t, types.RankedEntry{Rank: 2, Position: 3, Filename: "john.txt", Score: 10}, out.Rankings[1])
	assert.Equal(t, types.RankedEntry{Rank: 3, Position: 1, Filename: "empty.txt", Score: 0}, out.Rankings[2])

	require.NotNil(t, out.Selected)
	assert.Equal(t, "Jane Doe", out.Selected.Result.Name)
	assert.Equal(t, types.ScoreChart{Scored: 100, Remaining: 0}, out.Selected.Chart)
}

func TestRankJSONTextFormat(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := postJSON(t, h, "/rank?format=text", RankRequest{
		Resumes: []types.ResumeDocument{{Filename: "jane.txt", Text: fullResume}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "1. jane.txt - Score: 100/100")
}

func TestRankMultipart(t *testing.T) {
	_, h := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range []struct{ name, text string }{
		{"john.txt", "John Smith"},
		{"jane.md", fullResume},
	} {
		fw, err := mw.CreateFormFile(resumesField, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.text))
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("position", "1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/rank", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[types.RankResumesOutput](t, rec)
	require.Len(t, out.Rankings, 2)
	assert.Equal(t, "jane.md", out.Rankings[0].Filename)
	require.NotNil(t, out.Selected)
	assert.Equal(t, "john.txt", out.Selected.Filename)
	assert.Equal(t, 10, out.Selected.Score)
}

func TestRankMultipartDecodeFailure(t *testing.T) {
	_, h := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(resumesField, "broken.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not a pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/rank", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, errors.ErrCodeDocumentDecodeFailed, decode[ErrorResponse](t, rec).Code)
}

func TestRankErrors(t *testing.T) {
	docs := func(names ...string) []types.ResumeDocument {
		out := make([]types.ResumeDocument, len(names))
		for i, n := range names {
			out[i] = types.ResumeDocument{Filename: n, Text: "John Smith"}
		}
		return out
	}

	tests := []struct {
		name   string
		req    RankRequest
		status int
		code   string
	}{
		{"empty batch", RankRequest{}, http.StatusBadRequest, errors.ErrCodeEmptyBatch},
		{"batch too large", RankRequest{Resumes: docs("a", "b", "c", "d", "e", "f")}, http.StatusRequestEntityTooLarge, errors.ErrCodeBatchTooLarge},
		{"unknown selection", RankRequest{Resumes: docs("a"), Select: "b"}, http.StatusNotFound, errors.ErrCodeSelectionNotFound},
		{"ambiguous selection", RankRequest{Resumes: docs("a", "a"), Select: "a"}, http.StatusConflict, errors.ErrCodeAmbiguousSelection},
		{"position out of range", RankRequest{Resumes: docs("a"), Position: 4}, http.StatusNotFound, errors.ErrCodeSelectionNotFound},
		{"negative position", RankRequest{Resumes: docs("a"), Position: -1}, http.StatusBadRequest, errors.ErrCodeInvalidRequest},
	}

	_, h := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/rank", tt.req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestRankAmbiguousSelectionDetails(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := postJSON(t, h, "/rank", RankRequest{
		Resumes: []types.ResumeDocument{
			{Filename: "cv.txt", Text: "John Smith"},
			{Filename: "cv.txt", Text: fullResume},
		},
		Select: "cv.txt",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Details struct {
			Positions []int `json:"positions"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []int{2, 1}, body.Details.Positions)
}

func TestRankRejectsBadRequests(t *testing.T) {
	_, h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/rank", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/rank", strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rank", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	rec = postJSON(t, h, "/rank?format=xml", RankRequest{
		Resumes: []types.ResumeDocument{{Filename: "a", Text: "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decode[ErrorResponse](t, rec).Code)
}

func TestExtract(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := postJSON(t, h, "/extract", ExtractRequest{Filename: "jane.txt", Text: fullResume})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	detail := decode[types.ResumeDetail](t, rec)
	assert.Equal(t, 1, detail.Position)
	assert.Equal(t, 100, detail.Score)
	require.NotNil(t, detail.Result.ContactInfo.Email)
	assert.Equal(t, "jane@x.io", *detail.Result.ContactInfo.Email)
	assert.Equal(t, []string{"Python", "SQL"}, detail.Result.Skills)

	rec = postJSON(t, h, "/extract", ExtractRequest{Filename: "blank.txt"})
	require.Equal(t, http.StatusOK, rec.Code)
	detail = decode[types.ResumeDetail](t, rec)
	assert.Equal(t, types.NotFound, detail.Result.Name)
	assert.Nil(t, detail.Result.ContactInfo.Phone)
	assert.Equal(t, []string{types.NoSkillsFound}, detail.Result.Skills)
	assert.Equal(t, types.ScoreChart{Scored: 0, Remaining: 100}, detail.Chart)
}

func TestExtractMultipartRequiresOneFile(t *testing.T) {
	_, h := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	_, h := newTestServer(t, func(c *ServerConfig) { c.APIKeys = []string{"secret-key-123"} })
	body := ExtractRequest{Text: "John Smith"}

	rec := postJSON(t, h, "/extract", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errors.ErrCodeMissingAPIKey, decode[ErrorResponse](t, rec).Code)

	rec = postJSON(t, h, "/extract", body, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, h, "/extract", body, "X-API-Key", "secret-key-123")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h, "/extract", body, "Authorization", "Bearer secret-key-123")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s, h := newTestServer(t, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, ByIP: true}
	})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = postJSON(t, h, "/extract", ExtractRequest{Text: "x"}).Code
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, s.RateLimiter.GetStats()["active_limiters"])
}

func TestGetRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/rank", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	req.Header.Set("X-Forwarded-For", "bogus, 192.168.1.9")

	key, kind := getRateLimitKey(req, false, true)
	assert.Equal(t, "ip:192.168.1.9", key)
	assert.Equal(t, "ip", kind)

	req.Header.Set("X-API-Key", "abc")
	key, kind = getRateLimitKey(req, true, true)
	assert.Equal(t, "api:abc", key)
	assert.Equal(t, "api_key", kind)

	key, _ = getRateLimitKey(httptest.NewRequest(http.MethodGet, "/", nil), false, false)
	assert.Empty(t, key)
}

func TestVocabularyEndpoint(t *testing.T) {
	s, h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vocabulary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[types.VocabularyOutput](t, rec)
	assert.Contains(t, out.Skills, "Python")

	vocab := engine.DefaultVocabulary()
	vocab.Skills = []string{"Rust"}
	eng, err := engine.New(vocab)
	require.NoError(t, err)
	s.SwapEngine(eng)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vocabulary", nil))
	assert.Equal(t, []string{"Rust"}, decode[types.VocabularyOutput](t, rec).Skills)
}

func TestHealthAndStats(t *testing.T) {
	_, h := newTestServer(t, nil)

	postJSON(t, h, "/rank", RankRequest{Resumes: []types.ResumeDocument{{Text: "a"}, {Text: "b"}}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "built-in", health["vocabulary"].(map[string]any)["source"])
	assert.Equal(t, "ok", health["doc_converter"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	processing := stats["processing"].(map[string]any)
	assert.Equal(t, float64(2), processing["resumes_processed"])
	assert.Equal(t, float64(1), processing["batches_ranked"])
	assert.Equal(t, false, stats["rate_limiting"].(map[string]any)["enabled"])
	assert.Equal(t, false, stats["converter_breaker"].(map[string]any)["enabled"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err      *errors.AppError
		expected int
	}{
		{errors.NewValidationError(errors.ErrCodeBatchTooLarge, "", nil), http.StatusRequestEntityTooLarge},
		{errors.NewDocumentError(errors.ErrCodeDocumentDecodeFailed, "", nil), http.StatusUnprocessableEntity},
		{errors.NewDocumentError(errors.ErrCodeConverterUnavailable, "", nil), http.StatusServiceUnavailable},
		{errors.NewValidationError(errors.ErrCodeSelectionNotFound, "", nil), http.StatusNotFound},
		{errors.NewValidationError(errors.ErrCodeEmptyBatch, "", nil), http.StatusBadRequest},
		{errors.NewInternalError("RANKING_FAILED", "", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorStatus(tt.err))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijk"))
}
