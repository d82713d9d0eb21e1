package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"resumerank/internal/common"
	"resumerank/internal/errors"
	"resumerank/internal/loader"
	"resumerank/internal/observability"
	"resumerank/internal/ranking"
	"resumerank/internal/types"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	multipartMemory = 32 << 20

	resumesField = "resumes"
	resumeField  = "resume"
)

// createRankHandler ranks a batch of resumes sent as JSON or as file uploads
func (s *Server) createRankHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		tracer := om.Tracer("resumerank.api")
		ctx, span := tracer.Start(r.Context(), "api.rank")
		defer span.End()

		metrics := om.GetMetrics()

		req, err := s.parseRankRequest(ctx, r, metrics)
		if err == nil {
			err = common.ValidateBatchSize(len(req.Resumes), s.MaxBatchSize)
		}
		if err == nil {
			err = common.ValidateSelection(req.Position)
		}
		if err != nil {
			failSpan(span, err, "validation")
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resumes", len(req.Resumes)),
			attribute.Bool("request.selection", req.Select != "" || req.Position > 0),
		)

		processor := om.Instrument(ctx, s.Engine())

		var batch *ranking.Batch
		err = metrics.TrackRanking(ctx, tracer, len(req.Resumes), func(ctx context.Context) error {
			var rankErr error
			batch, rankErr = ranking.Rank(ctx, processor, req.Resumes, ranking.Options{Workers: s.Workers})
			return rankErr
		})
		if err != nil {
			failSpan(span, err, "ranking")
			s.Logger.LogError(err, "Ranking failed", "resumes", len(req.Resumes))
			writeAppError(w, errors.NewInternalError("RANKING_FAILED", "failed to rank resumes", err))
			return
		}

		s.stats.batchesRanked.Add(1)
		s.stats.resumesProcessed.Add(int64(len(req.Resumes)))

		out, err := batch.Output(req.Select, req.Position)
		if err != nil {
			failSpan(span, err, "selection")
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.String("batch.id", batch.ID),
			attribute.Int("batch.top_score", out.Rankings[0].Score),
			attribute.Bool("success", true),
		)
		s.Logger.Debug("Ranked batch", "batch_id", batch.ID, "resumes", len(req.Resumes))

		s.writeResult(w, r, out)
	}
}

// createExtractHandler extracts and scores a single resume
func (s *Server) createExtractHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		ctx, span := om.Tracer("resumerank.api").Start(r.Context(), "api.extract")
		defer span.End()

		doc, err := s.parseExtractRequest(ctx, r, om.GetMetrics())
		if err != nil {
			failSpan(span, err, "validation")
			writeAppError(w, err)
			return
		}

		rec := om.Instrument(ctx, s.Engine()).Process(doc)
		rec.Position = 1
		s.stats.resumesProcessed.Add(1)

		span.SetAttributes(
			attribute.Int("request.text_length", len(doc.Text)),
			attribute.Int("resume.score", rec.Score),
			attribute.Bool("success", true),
		)

		s.writeResult(w, r, ranking.Detail(rec))
	}
}

func (s *Server) parseRankRequest(ctx context.Context, r *http.Request, metrics *observability.Metrics) (RankRequest, error) {
	if requestMediaType(r) != "multipart/form-data" {
		var req RankRequest
		err := parseJSONRequest(r, &req)
		return req, err
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return RankRequest{}, multipartError(err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	position, err := formPosition(r)
	if err != nil {
		return RankRequest{}, err
	}

	headers := r.MultipartForm.File[resumesField]
	docs := make([]types.ResumeDocument, 0, len(headers))
	for _, fh := range headers {
		doc, err := s.loadUpload(ctx, fh, metrics)
		if err != nil {
			return RankRequest{}, err
		}
		docs = append(docs, doc)
	}

	return RankRequest{Resumes: docs, Select: r.FormValue("select"), Position: position}, nil
}

func (s *Server) parseExtractRequest(ctx context.Context, r *http.Request, metrics *observability.Metrics) (types.ResumeDocument, error) {
	if requestMediaType(r) != "multipart/form-data" {
		var req ExtractRequest
		if err := parseJSONRequest(r, &req); err != nil {
			return types.ResumeDocument{}, err
		}
		if s.MaxRequestSize > 0 && int64(len(req.Text)) > s.MaxRequestSize {
			return types.ResumeDocument{}, errors.NewValidationError(errors.ErrCodeFileTooLarge,
				fmt.Sprintf("resume text exceeds %d bytes", s.MaxRequestSize), nil)
		}
		return types.ResumeDocument{Filename: req.Filename, Text: req.Text}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return types.ResumeDocument{}, multipartError(err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[resumeField]
	if len(headers) != 1 {
		return types.ResumeDocument{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("exactly one file is required in field '%s'", resumeField), nil)
	}
	return s.loadUpload(ctx, headers[0], metrics)
}

// loadUpload reads one uploaded file and decodes it by its extension
func (s *Server) loadUpload(ctx context.Context, fh *multipart.FileHeader, metrics *observability.Metrics) (types.ResumeDocument, error) {
	if s.MaxRequestSize > 0 && fh.Size > s.MaxRequestSize {
		return types.ResumeDocument{}, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file exceeds %d bytes", s.MaxRequestSize), nil).
			WithContext("filename", fh.Filename)
	}

	f, err := fh.Open()
	if err != nil {
		return types.ResumeDocument{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"cannot open uploaded file", err).WithContext("filename", fh.Filename)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return types.ResumeDocument{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"cannot read uploaded file", err).WithContext("filename", fh.Filename)
	}

	doc, err := s.documents.LoadDocument(fh.Filename, data)
	if err != nil {
		metrics.RecordDecodeError(ctx, string(loader.FormatFromFilename(fh.Filename)))
		return types.ResumeDocument{}, err
	}
	return doc, nil
}

func formPosition(r *http.Request) (int, error) {
	raw := r.FormValue("position")
	if raw == "" {
		return 0, nil
	}
	position, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("position must be an integer, got %q", raw), err)
	}
	return position, nil
}

func multipartError(err error) error {
	if appErr := bodyReadError(err); errors.HasCode(appErr, errors.ErrCodeFileTooLarge) {
		return appErr
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, "malformed multipart form", err)
}

func failSpan(span oteltrace.Span, err error, kind string) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", kind))
	if appErr, ok := errors.AsAppError(err); ok {
		span.SetAttributes(attribute.String("error.code", appErr.Code))
	}
}
