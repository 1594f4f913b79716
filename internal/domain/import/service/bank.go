package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/question-bank/internal/domain/import/export"
	"github.com/FACorreiaa/question-bank/internal/domain/import/parser"
	"github.com/FACorreiaa/question-bank/internal/domain/import/repository"
	"github.com/FACorreiaa/question-bank/internal/domain/import/validator"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
	"github.com/FACorreiaa/question-bank/internal/domain/search"
	"github.com/FACorreiaa/question-bank/pkg/tracing"
)

// ExportFormat selects the encoding of an export
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
	ExportText ExportFormat = "text"
)

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportCSV:
		return "text/csv; charset=utf-8"
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ErrUnknownFormat is returned for an export format other than csv, xlsx or text
var ErrUnknownFormat = errors.New("unknown export format")

// GetQuestion returns a stored question
func (s *ImportService) GetQuestion(ctx context.Context, id uuid.UUID) (question.Question, error) {
	return s.repo.GetQuestion(ctx, id)
}

// ListQuestions returns stored questions matching f
func (s *ImportService) ListQuestions(ctx context.Context, f repository.Filter) ([]question.Question, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
	}
	qs, err := s.repo.ListQuestions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return qs, nil
}

// UpdateQuestion replaces a stored question after it passes validation
func (s *ImportService) UpdateQuestion(ctx context.Context, id uuid.UUID, q question.Question) error {
	ctx, span := s.tracer.Start(ctx, "ImportService.UpdateQuestion")
	defer span.End()

	if issues := validator.Check(0, q); len(issues) > 0 {
		return tracing.Fail(span, &ValidationError{Issues: issues})
	}
	if err := s.repo.UpdateQuestion(ctx, id, q); err != nil {
		return tracing.Fail(span, fmt.Errorf("failed to update question: %w", err))
	}

	if s.index != nil {
		if _, err := s.index.IndexQuestions([]question.Question{withID(q, id)}); err != nil {
			s.logger.Warn("failed to reindex question", "id", id, "error", err)
		}
	}
	s.logger.Info("question updated", "id", id, "kind", q.Kind())
	return nil
}

// Export writes the questions matching f to w
func (s *ImportService) Export(ctx context.Context, format ExportFormat, f repository.Filter, w io.Writer) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.Export")
	defer span.End()
	span.SetAttributes(attribute.String("format", string(format)))

	var write func(io.Writer, []question.Question) error
	switch format {
	case ExportCSV:
		write = export.WriteCSV
	case ExportXLSX:
		write = export.WriteXLSX
	case ExportText:
		write = func(w io.Writer, qs []question.Question) error {
			_, err := io.WriteString(w, parser.Format(qs))
			return err
		}
	default:
		return 0, tracing.Fail(span, fmt.Errorf("%w: %q", ErrUnknownFormat, format))
	}

	qs, err := s.ListQuestions(ctx, f)
	if err != nil {
		return 0, tracing.Fail(span, err)
	}
	if err := write(w, qs); err != nil {
		return 0, tracing.Fail(span, fmt.Errorf("failed to export questions: %w", err))
	}
	return len(qs), nil
}

// ImportFile stores the records of a spreadsheet produced by Export.
// Rows that fail validation are skipped and reported.
func (s *ImportService) ImportFile(ctx context.Context, format ExportFormat, r io.Reader) (*ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.ImportFile")
	defer span.End()

	var (
		qs  []question.Question
		err error
	)
	switch format {
	case ExportCSV:
		qs, err = export.ReadCSV(r)
	case ExportXLSX:
		qs, err = export.ReadXLSX(r)
	default:
		return nil, tracing.Fail(span, fmt.Errorf("%w: %q", ErrUnknownFormat, format))
	}
	if err != nil {
		return nil, tracing.Fail(span, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if len(qs) == 0 {
		return nil, tracing.Fail(span, ErrNoQuestions)
	}

	v := validator.Validate(qs)
	invalid := v.InvalidIndexes()
	result := &ImportResult{Total: len(qs), Issues: v.Issues}
	keep := make([]question.Question, 0, len(qs))
	for i, q := range qs {
		if invalid[i] {
			result.Invalid++
			continue
		}
		keep = append(keep, q)
	}
	if len(keep) == 0 {
		return result, tracing.Fail(span, fmt.Errorf("%w: all %d records were rejected", ErrNoQuestions, result.Total))
	}

	ids, err := s.repo.BulkAddQuestions(ctx, keep, nil)
	if err != nil {
		return nil, tracing.Fail(span, fmt.Errorf("failed to store questions: %w", err))
	}
	result.IDs = ids
	result.Imported = len(ids)

	stored := make([]question.Question, len(keep))
	for i, q := range keep {
		stored[i] = withID(q, ids[i])
		s.observeImport(string(q.Kind()), "imported", 1)
	}
	s.track(stored)

	s.logger.Info("question file imported", "format", format, "imported", result.Imported, "invalid", result.Invalid)
	return result, nil
}

// SearchRequest is a full-text query over stored questions
type SearchRequest struct {
	Query  string
	Prefix bool
	Filter search.Filter
	Limit  int
}

// Search queries the full-text index
func (s *ImportService) Search(ctx context.Context, req SearchRequest) ([]search.Result, error) {
	_, span := s.tracer.Start(ctx, "ImportService.Search")
	defer span.End()

	if s.index == nil {
		return nil, tracing.Fail(span, ErrSearchUnavailable)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, tracing.Fail(span, fmt.Errorf("%w: empty query", ErrInvalidInput))
	}
	if req.Prefix {
		return s.index.SearchWithPrefix(req.Query, req.Filter, req.Limit)
	}
	return s.index.Search(req.Query, req.Filter, req.Limit)
}

// Reindex reloads the search index and duplicate detector from the repository
func (s *ImportService) Reindex(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.Reindex")
	defer span.End()

	qs, err := s.repo.ListQuestions(ctx, repository.Filter{})
	if err != nil {
		return 0, tracing.Fail(span, fmt.Errorf("failed to load questions: %w", err))
	}
	if s.duplicates != nil {
		s.duplicates.Build(qs)
	}
	if s.index == nil {
		return len(qs), nil
	}
	n, err := s.index.Rebuild(qs)
	if err != nil {
		return 0, tracing.Fail(span, fmt.Errorf("failed to rebuild index: %w", err))
	}
	span.SetAttributes(attribute.Int("documents", n))
	return n, nil
}
