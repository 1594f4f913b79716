// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/question-bank/internal/domain/import/parser"
	"github.com/FACorreiaa/question-bank/internal/domain/import/repository"
	"github.com/FACorreiaa/question-bank/internal/domain/import/sniffer"
	"github.com/FACorreiaa/question-bank/internal/domain/import/validator"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
	"github.com/FACorreiaa/question-bank/internal/domain/search"
	"github.com/FACorreiaa/question-bank/pkg/metrics"
	"github.com/FACorreiaa/question-bank/pkg/storage"
	"github.com/FACorreiaa/question-bank/pkg/tracing"
)

var (
	// ErrNoQuestions is returned when a document yields no usable records
	ErrNoQuestions = errors.New("no valid questions found, check format")
	// ErrNoTopics is returned when an overview document yields no topics
	ErrNoTopics = errors.New("no topics found, check format")
	// ErrUnknownKind is returned for a question kind outside mcq, cq and sq
	ErrUnknownKind = errors.New("unknown question kind")
	// ErrInvalidInput is returned for malformed arguments
	ErrInvalidInput = errors.New("invalid input")
	// ErrSearchUnavailable is returned when no search index is configured
	ErrSearchUnavailable = errors.New("search index not configured")
)

// ValidationError carries the issues that rejected an edited record
type ValidationError struct {
	Issues []validator.Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Field + ": " + issue.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ParseRequest describes one pasted document
type ParseRequest struct {
	Text string `json:"text"`
	// Kind selects the parser; blank means detect it from the text
	Kind question.Kind `json:"kind"`
	// Language blank means infer it from the script
	Language question.Language `json:"language"`
	// Defaults fill metadata fields the document leaves empty
	Defaults question.Metadata `json:"defaults"`
}

// AnalyzeResult contains the format detection for a document and any earlier import of it
type AnalyzeResult struct {
	Detection      *sniffer.Detection `json:"detection"`
	PreviousImport *repository.Source `json:"previous_import,omitempty"`
}

// PreviewResult is a parsed, validated, unsaved document
type PreviewResult struct {
	Kind        question.Kind       `json:"kind"`
	Language    question.Language   `json:"language"`
	Fingerprint string              `json:"fingerprint"`
	Questions   []question.Question `json:"questions"`
	Validation  validator.Result    `json:"validation"`
	Duplicates  []search.Duplicate  `json:"duplicates"`
}

// ImportOptions controls which parsed records are stored
type ImportOptions struct {
	// SkipDuplicates leaves out records that match an existing question
	SkipDuplicates bool `json:"skip_duplicates"`
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	SourceID   uuid.UUID         `json:"source_id"`
	StorageKey string            `json:"storage_key,omitempty"`
	IDs        []uuid.UUID       `json:"ids"`
	Total      int               `json:"total"`
	Imported   int               `json:"imported"`
	Invalid    int               `json:"invalid"`
	Duplicates int               `json:"duplicates"`
	Issues     []validator.Issue `json:"issues"`
}

// ImportService orchestrates parsing, validation and storage of question documents
type ImportService struct {
	repo       repository.QuestionRepository
	lessons    repository.LessonRepository
	sniffer    *sniffer.Sniffer
	stream     *parser.StreamingParser
	storage    storage.Storage          // Optional: nil disables source archival
	index      *search.Index            // Optional: nil disables search
	duplicates *search.DuplicateDetector // Optional: nil disables duplicate hints
	metrics    *metrics.Metrics          // Optional
	tracer     trace.Tracer
	threshold  int
	logger     *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(repo repository.QuestionRepository, lessons repository.LessonRepository, logger *slog.Logger) *ImportService {
	return &ImportService{
		repo:      repo,
		lessons:   lessons,
		sniffer:   sniffer.New(),
		stream:    parser.NewStreamingParser(0),
		tracer:    tracing.Tracer(),
		threshold: search.DefaultThreshold,
		logger:    logger,
	}
}

// WithStorage archives every imported document in store
func (s *ImportService) WithStorage(store storage.Storage) *ImportService {
	s.storage = store
	return s
}

// WithSearchIndex keeps idx in sync with stored questions
func (s *ImportService) WithSearchIndex(idx *search.Index) *ImportService {
	s.index = idx
	return s
}

// WithDuplicateDetector flags pasted questions similar to ones already stored
func (s *ImportService) WithDuplicateDetector(d *search.DuplicateDetector, threshold int) *ImportService {
	s.duplicates = d
	if threshold > 0 {
		s.threshold = threshold
	}
	return s
}

// WithMetrics records parse and import counters
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithTracer replaces the global tracer
func (s *ImportService) WithTracer(t trace.Tracer) *ImportService {
	s.tracer = t
	return s
}

// WithWorkers sets the parser pool size used for batch previews
func (s *ImportService) WithWorkers(n int) *ImportService {
	s.stream = parser.NewStreamingParser(n)
	return s
}

// Analyze detects the format and language of text and looks up earlier imports of it
func (s *ImportService) Analyze(ctx context.Context, text string) (*AnalyzeResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.Analyze")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, tracing.Fail(span, fmt.Errorf("%w: empty document", ErrInvalidInput))
	}

	d := s.sniffer.Detect(text)
	span.SetAttributes(attribute.String("format", string(d.Format)), attribute.String("language", string(d.Language)))

	result := &AnalyzeResult{Detection: d}
	src, err := s.repo.FindSource(ctx, d.Fingerprint)
	switch {
	case err == nil:
		result.PreviousImport = src
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, tracing.Fail(span, fmt.Errorf("failed to look up import source: %w", err))
	}
	return result, nil
}

// Preview parses and validates a document without storing anything
func (s *ImportService) Preview(ctx context.Context, req ParseRequest) (*PreviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.Preview")
	defer span.End()

	res, err := s.parse(ctx, req)
	if err != nil {
		return nil, tracing.Fail(span, err)
	}
	return s.preview(res, sniffer.Fingerprint(req.Text)), nil
}

// PreviewBatch previews several documents through the parser pool, in input order
func (s *ImportService) PreviewBatch(ctx context.Context, reqs []ParseRequest) ([]*PreviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.PreviewBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("documents", len(reqs)))

	docs := make([]parser.Document, len(reqs))
	for i, req := range reqs {
		kind, err := s.resolveKind(req)
		if err != nil {
			return nil, tracing.Fail(span, fmt.Errorf("document %d: %w", i+1, err))
		}
		docs[i] = parser.Document{Kind: kind, Language: req.Language, Text: req.Text}
	}

	parsed, err := s.stream.ParseOrdered(ctx, docs)
	if err != nil {
		return nil, tracing.Fail(span, fmt.Errorf("failed to parse documents: %w", err))
	}

	out := make([]*PreviewResult, len(parsed))
	for i, r := range parsed {
		applyDefaults(r.Result.Questions, reqs[i].Defaults)
		s.observeParse(r.Result, r.Elapsed)
		out[i] = s.preview(r.Result, sniffer.Fingerprint(reqs[i].Text))
	}
	return out, nil
}

// Import parses a document and stores its valid records.
// Invalid records are skipped and reported. When nothing remains to store the
// result is returned together with ErrNoQuestions.
func (s *ImportService) Import(ctx context.Context, req ParseRequest, opts ImportOptions) (*ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.Import")
	defer span.End()

	res, err := s.parse(ctx, req)
	if err != nil {
		return nil, tracing.Fail(span, err)
	}
	pv := s.preview(res, sniffer.Fingerprint(req.Text))
	kind := string(res.Kind)

	invalid := pv.Validation.InvalidIndexes()
	dupes := make(map[int]bool, len(pv.Duplicates))
	if opts.SkipDuplicates {
		for _, d := range pv.Duplicates {
			dupes[d.Index] = true
		}
	}

	result := &ImportResult{
		Total:  len(res.Questions),
		Issues: pv.Validation.Issues,
	}
	keep := make([]question.Question, 0, len(res.Questions))
	for i, q := range res.Questions {
		switch {
		case invalid[i]:
			result.Invalid++
		case dupes[i]:
			result.Duplicates++
		default:
			keep = append(keep, q)
		}
	}
	s.observeImport(kind, "invalid", result.Invalid)
	s.observeImport(kind, "duplicate", result.Duplicates)

	if len(keep) == 0 {
		return result, tracing.Fail(span, fmt.Errorf("%w: all %d records were rejected", ErrNoQuestions, result.Total))
	}

	result.StorageKey = s.archive(ctx, kind, pv.Fingerprint, req.Text)

	sourceID, err := s.repo.RecordSource(ctx, repository.Source{
		Fingerprint: pv.Fingerprint,
		Format:      kind,
		Language:    string(res.Language),
		StorageKey:  result.StorageKey,
		Records:     len(keep),
	})
	if err != nil {
		return nil, tracing.Fail(span, fmt.Errorf("failed to record source: %w", err))
	}
	result.SourceID = sourceID

	ids, err := s.repo.BulkAddQuestions(ctx, keep, &sourceID)
	if err != nil {
		s.observeImport(kind, "failed", len(keep))
		return nil, tracing.Fail(span, fmt.Errorf("failed to store questions: %w", err))
	}
	result.IDs = ids
	result.Imported = len(ids)
	s.observeImport(kind, "imported", result.Imported)

	stored := make([]question.Question, len(keep))
	for i, q := range keep {
		stored[i] = withID(q, ids[i])
	}
	s.track(stored)

	span.SetAttributes(
		attribute.String("kind", kind),
		attribute.Int("imported", result.Imported),
		attribute.Int("invalid", result.Invalid),
	)
	s.logger.Info("questions imported",
		"kind", kind,
		"source_id", sourceID,
		"total", result.Total,
		"imported", result.Imported,
		"invalid", result.Invalid,
		"duplicates", result.Duplicates,
	)
	return result, nil
}

func (s *ImportService) resolveKind(req ParseRequest) (question.Kind, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("%w: empty document", ErrInvalidInput)
	}
	if req.Kind != "" {
		if !req.Kind.Valid() {
			return "", fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
		}
		return req.Kind, nil
	}
	d := s.sniffer.Detect(req.Text)
	kind, ok := d.Format.QuestionKind()
	if !ok {
		return "", fmt.Errorf("%w: document looks like a %s", ErrUnknownKind, d.Format)
	}
	return kind, nil
}

func (s *ImportService) parse(ctx context.Context, req ParseRequest) (*parser.ParseResult, error) {
	kind, err := s.resolveKind(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := parser.Parse(kind, req.Text, req.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	s.observeParse(res, time.Since(start))

	if len(res.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	applyDefaults(res.Questions, req.Defaults)
	return res, nil
}

func (s *ImportService) preview(res *parser.ParseResult, fingerprint string) *PreviewResult {
	pv := &PreviewResult{
		Kind:        res.Kind,
		Language:    res.Language,
		Fingerprint: fingerprint,
		Questions:   res.Questions,
		Validation:  validator.Validate(res.Questions),
		Duplicates:  []search.Duplicate{},
	}
	if s.duplicates != nil {
		if dupes := s.duplicates.MatchAll(res.Questions, s.threshold); dupes != nil {
			pv.Duplicates = dupes
		}
	}
	return pv
}

// archive stores the raw document; failures are logged and the import continues
func (s *ImportService) archive(ctx context.Context, format, fingerprint, text string) string {
	if s.storage == nil {
		return ""
	}
	key := storage.SourceKey(format, fingerprint)
	if _, err := s.storage.Put(ctx, key, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		s.logger.Warn("failed to archive import source", "key", key, "error", err)
		return ""
	}
	return key
}

// track adds stored questions to the search index and duplicate detector
func (s *ImportService) track(qs []question.Question) {
	if s.index != nil {
		if _, err := s.index.IndexQuestions(qs); err != nil {
			s.logger.Warn("failed to index questions", "count", len(qs), "error", err)
		}
	}
	if s.duplicates != nil {
		s.duplicates.Add(qs...)
	}
}

func (s *ImportService) observeParse(res *parser.ParseResult, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveParse(string(res.Kind), len(res.Questions), elapsed)
	}
}

func (s *ImportService) observeImport(kind, result string, n int) {
	if s.metrics != nil {
		s.metrics.ObserveImport(kind, result, n)
	}
}

// applyDefaults fills metadata fields each record left empty
func applyDefaults(qs []question.Question, defaults question.Metadata) {
	if defaults.IsZero() {
		return
	}
	for i, q := range qs {
		meta := defaults.Merge(q.Meta())
		switch v := q.(type) {
		case question.MCQ:
			v.Metadata = meta
			qs[i] = v
		case question.CQ:
			v.Metadata = meta
			qs[i] = v
		case question.SQ:
			v.Metadata = meta
			qs[i] = v
		}
	}
}

func withID(q question.Question, id uuid.UUID) question.Question {
	switch v := q.(type) {
	case question.MCQ:
		v.Key = &id
		return v
	case question.CQ:
		v.Key = &id
		return v
	case question.SQ:
		v.Key = &id
		return v
	}
	return q
}
