package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"resumerank/internal/common"
	"resumerank/internal/errors"
	"resumerank/internal/types"
)

// healthHandler reports liveness and the vocabulary currently loaded
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	vocab := s.Engine().Vocabulary()
	vocabStatus := map[string]any{
		"job_titles":            len(vocab.JobTitles),
		"skills":                len(vocab.Skills),
		"organization_keywords": len(vocab.OrganizationKeywords),
		"source":                "built-in",
		"watching":              s.VocabularyWatcher != nil && s.VocabularyWatcher.IsRunning(),
	}
	if s.AppConfig != nil && s.AppConfig.Engine.VocabularyFile != "" {
		vocabStatus["source"] = s.AppConfig.Engine.VocabularyFile
	}
	if last := s.stats.lastReload.Load(); last != nil {
		vocabStatus["last_reload"] = last.Format(time.RFC3339)
	}

	converter := "ok"
	if !s.documents.BreakerHealthy() {
		converter = "unavailable"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"service":       "resumerank",
		"version":       s.Version,
		"vocabulary":    vocabStatus,
		"doc_converter": converter,
	})
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	response := map[string]any{
		"service": "resumerank",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_batch_size":         s.MaxBatchSize,
			"workers":                s.Workers,
		},
		"processing": map[string]any{
			"resumes_processed":         s.stats.resumesProcessed.Load(),
			"batches_ranked":            s.stats.batchesRanked.Load(),
			"vocabulary_reloads":        s.stats.reloads.Load(),
			"vocabulary_reload_failures": s.stats.reloadFailures.Load(),
		},
	}

	response["converter_breaker"] = s.documents.BreakerStats()

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// vocabularyHandler lists the terms the engine matches against
func (s *Server) vocabularyHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	vocab := s.Engine().Vocabulary()
	s.writeResult(w, r, types.VocabularyOutput{
		JobTitles:            vocab.JobTitles,
		Skills:               vocab.Skills,
		OrganizationKeywords: vocab.OrganizationKeywords,
	})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeErrorResponse(w, "Method not allowed", fmt.Sprintf("use %s", method), "", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// requestMediaType returns the request's media type without parameters
func requestMediaType(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if requestMediaType(r) != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"content-type must be application/json or multipart/form-data", nil)
	}

	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return bodyReadError(err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to parse JSON", err)
	}

	return nil
}

func bodyReadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
	}
	return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
}

// writeResult writes data as JSON, or through the formatter registry when the
// format query parameter asks for text or markdown
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, data any) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" || format == "json" {
		writeJSON(w, http.StatusOK, data)
		return
	}

	if s.AppConfig != nil {
		if err := common.ValidateOutputFormat(format, s.AppConfig.App.SupportedFormats); err != nil {
			writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidFormat, err.Error(), nil))
			return
		}
	}

	body, err := s.registry.Format(data, format)
	if err != nil {
		writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("cannot render response as %s", format), err))
		return
	}

	contentType := "text/plain; charset=utf-8"
	if format == "markdown" {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// errorStatus maps application error codes to HTTP status codes
func errorStatus(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeFileTooLarge, errors.ErrCodeBatchTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeUnsupportedFormat, errors.ErrCodeDocumentDecodeFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeSelectionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeAmbiguousSelection:
		return http.StatusConflict
	case errors.ErrCodeConverterUnavailable:
		return http.StatusServiceUnavailable
	}
	if appErr.Type == errors.ErrorTypeValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeAppError writes err with a status derived from its code
func writeAppError(w http.ResponseWriter, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		writeErrorResponse(w, "Internal error", err.Error(), "", http.StatusInternalServerError)
		return
	}

	message := ""
	if appErr.Cause != nil {
		message = appErr.Cause.Error()
	}
	if len(appErr.Context) > 0 {
		writeJSON(w, errorStatus(appErr), struct {
			ErrorResponse
			Details map[string]any `json:"details"`
		}{ErrorResponse{appErr.Message, message, appErr.Code}, appErr.Context})
		return
	}
	writeErrorResponse(w, appErr.Message, message, appErr.Code, errorStatus(appErr))
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message, code string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	})
}
