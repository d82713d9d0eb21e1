package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumerank/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "resumerank"

// Metrics holds all custom metrics for resumerank
type Metrics struct {
	// Extraction metrics
	ResumesProcessed   metric.Int64Counter
	ResumeScore        metric.Int64Histogram
	ExtractionDuration metric.Float64Histogram
	DocumentSize       metric.Int64Histogram
	DecodeErrors       metric.Int64Counter

	// Ranking metrics
	BatchesRanked metric.Int64Counter
	BatchSize     metric.Int64Histogram

	// Infrastructure metrics
	RateLimitHits     metric.Int64Counter
	VocabularyReloads metric.Int64Counter

	flags metricFlags
}

type metricFlags struct {
	extraction, duration, scores, sizes bool
	ranking, batchSizes                 bool
	rateLimits, reloads                 bool
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config         ObservabilityConfig
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager creates a new observability manager. Extra readers
// are attached to the meter provider next to the configured exporters.
func NewObservabilityManager(obsConfig ObservabilityConfig, extraReaders ...sdkmetric.Reader) (*ObservabilityManager, error) {
	if !obsConfig.Enabled {
		return &ObservabilityManager{config: obsConfig}, nil
	}

	om := &ObservabilityManager{
		config:        obsConfig,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if obsConfig.TracingEnabled {
		if err := om.initTracing(); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if obsConfig.MetricsEnabled {
		if err := om.initMetrics(extraReaders); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	return om, nil
}

func (om *ObservabilityManager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			semconv.ServiceInstanceID(om.getServiceInstanceID()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	om.resource = res
	return nil
}

// initTracing sets up OpenTelemetry tracing
func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.config.OTLP.Enabled:
		exporter, err = om.createOTLPExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)

	return nil
}

// initMetrics sets up OpenTelemetry metrics
func (om *ObservabilityManager) initMetrics(extraReaders []sdkmetric.Reader) error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}
	readers = append(readers, extraReaders...)
	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics()
}

// setupMetricReaders sets up all metric readers based on configuration
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	interval := om.getMetricsCollectionInterval()

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.config.OTLP.Enabled {
		reader, err := om.createOTLPMetricsReader(interval)
		if err != nil {
			return nil, err
		}
		readers = append(readers, reader)
	}

	if om.config.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, err
		}
		readers = append(readers, reader)
		om.shutdownFuncs = append(om.shutdownFuncs, StartPrometheusServer(mux, om.config.Prometheus.Port))
	}

	return readers, nil
}

// initCustomMetrics creates the application instruments
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(instrumentationName)
	m := &Metrics{flags: om.flags()}
	var err error

	if m.ResumesProcessed, err = meter.Int64Counter(
		"resumerank_resumes_processed_total",
		metric.WithDescription("Resumes run through extraction and scoring"),
	); err != nil {
		return fmt.Errorf("failed to create resumes processed counter: %w", err)
	}

	if m.ResumeScore, err = meter.Int64Histogram(
		"resumerank_resume_score",
		metric.WithDescription("Heuristic score assigned to each resume"),
		metric.WithExplicitBucketBoundaries(0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return fmt.Errorf("failed to create score histogram: %w", err)
	}

	if m.ExtractionDuration, err = meter.Float64Histogram(
		"resumerank_extraction_duration_seconds",
		metric.WithDescription("Time spent extracting and scoring one resume"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create extraction duration histogram: %w", err)
	}

	if m.DocumentSize, err = meter.Int64Histogram(
		"resumerank_document_size_bytes",
		metric.WithDescription("Size of resume text handed to the engine"),
		metric.WithUnit("By"),
	); err != nil {
		return fmt.Errorf("failed to create document size histogram: %w", err)
	}

	if m.DecodeErrors, err = meter.Int64Counter(
		"resumerank_decode_errors_total",
		metric.WithDescription("Uploaded documents that could not be turned into text"),
	); err != nil {
		return fmt.Errorf("failed to create decode error counter: %w", err)
	}

	if m.BatchesRanked, err = meter.Int64Counter(
		"resumerank_batches_ranked_total",
		metric.WithDescription("Ranking requests processed"),
	); err != nil {
		return fmt.Errorf("failed to create batch counter: %w", err)
	}

	if m.BatchSize, err = meter.Int64Histogram(
		"resumerank_batch_size",
		metric.WithDescription("Number of resumes per ranking request"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 50, 100),
	); err != nil {
		return fmt.Errorf("failed to create batch size histogram: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"resumerank_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	if m.VocabularyReloads, err = meter.Int64Counter(
		"resumerank_vocabulary_reloads_total",
		metric.WithDescription("Vocabulary file reload attempts"),
	); err != nil {
		return fmt.Errorf("failed to create vocabulary reload counter: %w", err)
	}

	om.metrics = m
	return nil
}

func (om *ObservabilityManager) flags() metricFlags {
	c := om.config.CustomMetrics
	return metricFlags{
		extraction: c.Extraction.Enabled,
		duration:   c.Extraction.Enabled && c.Extraction.TrackDuration,
		scores:     c.Extraction.Enabled && c.Extraction.TrackScores,
		sizes:      c.Extraction.Enabled && c.Extraction.TrackDocumentSizes,
		ranking:    c.Ranking.Enabled,
		batchSizes: c.Ranking.Enabled && c.Ranking.TrackBatchSizes,
		rateLimits: c.Infrastructure.Enabled && c.Infrastructure.TrackRateLimits,
		reloads:    c.Infrastructure.Enabled && c.Infrastructure.TrackVocabularyReloads,
	}
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{} // instruments stay nil and every Record call is a no-op
	}
	return om.metrics
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	opts := []otelhttp.Option{}
	if om.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(om.tracerProvider))
	}
	if om.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(om.meterProvider))
	}
	return otelhttp.NewMiddleware(om.config.ServiceName, opts...)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Processor is anything that turns a document into a scored resume.
type Processor interface {
	Process(doc types.ResumeDocument) types.ScoredResume
}

type instrumentedProcessor struct {
	ctx  context.Context
	next Processor
	m    *Metrics
}

// Instrument wraps p so each processed resume is timed and its score
// recorded against ctx.
func (om *ObservabilityManager) Instrument(ctx context.Context, p Processor) Processor {
	m := om.GetMetrics()
	if m.ResumesProcessed == nil {
		return p
	}
	return &instrumentedProcessor{ctx: ctx, next: p, m: m}
}

func (ip *instrumentedProcessor) Process(doc types.ResumeDocument) types.ScoredResume {
	start := time.Now()
	rec := ip.next.Process(doc)
	ip.m.RecordResume(ip.ctx, rec, time.Since(start), len(doc.Text))
	return rec
}

// TrackRanking runs fn inside a span and records the batch outcome.
func (m *Metrics) TrackRanking(ctx context.Context, tracer oteltrace.Tracer, size int, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "ranking.rank",
		oteltrace.WithAttributes(attribute.Int("batch.size", size)))
	defer span.End()

	err := fn(ctx)
	m.RecordBatch(ctx, size, err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}
	return err
}

// RecordResume records the per-resume extraction metrics
func (m *Metrics) RecordResume(ctx context.Context, rec types.ScoredResume, elapsed time.Duration, textBytes int) {
	if m.ResumesProcessed == nil || !m.flags.extraction {
		return
	}
	m.ResumesProcessed.Add(ctx, 1)
	if m.flags.scores {
		m.ResumeScore.Record(ctx, int64(rec.Score))
	}
	if m.flags.duration {
		m.ExtractionDuration.Record(ctx, elapsed.Seconds())
	}
	if m.flags.sizes {
		m.DocumentSize.Record(ctx, int64(textBytes))
	}
}

// RecordDecodeError counts a document that failed to load
func (m *Metrics) RecordDecodeError(ctx context.Context, format string) {
	if m.DecodeErrors == nil || !m.flags.extraction {
		return
	}
	m.DecodeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}

// RecordBatch records a ranking request
func (m *Metrics) RecordBatch(ctx context.Context, size int, success bool) {
	if m.BatchesRanked == nil || !m.flags.ranking {
		return
	}
	m.BatchesRanked.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if m.flags.batchSizes {
		m.BatchSize.Record(ctx, int64(size))
	}
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limitType string) {
	if m.RateLimitHits == nil || !m.flags.rateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_type", limitType)))
}

// RecordVocabularyReload counts a reload attempt
func (m *Metrics) RecordVocabularyReload(ctx context.Context, success bool) {
	if m.VocabularyReloads == nil || !m.flags.reloads {
		return
	}
	m.VocabularyReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// noOpSpanExporter drops spans when no exporter is configured
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := om.config.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func (om *ObservabilityManager) createOTLPMetricsReader(interval time.Duration) (sdkmetric.Reader, error) {
	otlpConfig := om.config.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}

func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.config.ServiceInstance != "" {
		return om.config.ServiceInstance
	}
	return om.config.ServiceName + "-1"
}

func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.config.CollectionInterval > 0 {
		return om.config.CollectionInterval
	}
	return 15 * time.Second
}
