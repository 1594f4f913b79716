package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/question-bank/internal/domain/import/parser"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
	"github.com/FACorreiaa/question-bank/pkg/tracing"
)

// LessonRequest is a pasted lesson outline. Subject and Chapter override the outline's own headers.
type LessonRequest struct {
	Text    string `json:"text"`
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
}

// OverviewResult is a stored overview
type OverviewResult struct {
	ID       uuid.UUID         `json:"id"`
	Overview question.Overview `json:"overview"`
}

// ParseLesson parses an outline without storing it
func (s *ImportService) ParseLesson(ctx context.Context, req LessonRequest) (*question.Chapter, error) {
	_, span := s.tracer.Start(ctx, "ImportService.ParseLesson")
	defer span.End()

	ch, err := parser.ParseLesson(req.Text)
	if err != nil {
		return nil, tracing.Fail(span, err)
	}
	if req.Subject != "" {
		ch.Subject = req.Subject
	}
	if req.Chapter != "" {
		ch.Chapter = req.Chapter
	}
	return ch, nil
}

// ImportLesson parses and stores a lesson outline, returning the chapter with its generated ids
func (s *ImportService) ImportLesson(ctx context.Context, req LessonRequest) (*question.Chapter, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.ImportLesson")
	defer span.End()

	ch, err := s.ParseLesson(ctx, req)
	if err != nil {
		return nil, tracing.Fail(span, err)
	}
	if len(ch.Topics) == 0 {
		return nil, tracing.Fail(span, ErrNoTopics)
	}

	id, err := s.lessons.UploadLesson(ctx, ch)
	if err != nil {
		return nil, tracing.Fail(span, fmt.Errorf("failed to upload lesson: %w", err))
	}

	reviews := 0
	for _, t := range ch.Topics {
		reviews += len(t.Questions)
	}
	s.observeImport("lesson", "imported", reviews)
	span.SetAttributes(attribute.Int("topics", len(ch.Topics)))
	s.logger.Info("lesson imported", "chapter_id", id, "subject", ch.Subject, "topics", len(ch.Topics), "review_questions", reviews)
	return ch, nil
}

// FetchLessons returns the stored chapters of a subject, or all of them for a blank subject
func (s *ImportService) FetchLessons(ctx context.Context, subject string) ([]question.Chapter, error) {
	chapters, err := s.lessons.FetchLessons(ctx, strings.TrimSpace(subject))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lessons: %w", err)
	}
	return chapters, nil
}

// CreateTopicAtPosition inserts an empty topic into a chapter
func (s *ImportService) CreateTopicAtPosition(ctx context.Context, chapterID uuid.UUID, position int, title string) (uuid.UUID, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return uuid.Nil, fmt.Errorf("%w: topic title is required", ErrInvalidInput)
	}
	if position < 0 {
		return uuid.Nil, fmt.Errorf("%w: position must not be negative", ErrInvalidInput)
	}
	id, err := s.lessons.CreateTopicAtPosition(ctx, chapterID, position, title)
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("topic created", "chapter_id", chapterID, "topic_id", id, "position", position)
	return id, nil
}

// RenameSubject renames a subject across lessons and questions
func (s *ImportService) RenameSubject(ctx context.Context, from, to string) (int64, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return 0, fmt.Errorf("%w: both subject names are required", ErrInvalidInput)
	}
	if from == to {
		return 0, nil
	}

	n, err := s.lessons.RenameSubject(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		// stored subjects changed under the index
		if _, err := s.Reindex(ctx); err != nil {
			s.logger.Warn("failed to reindex after subject rename", "error", err)
		}
	}
	s.logger.Info("subject renamed", "from", from, "to", to, "rows", n)
	return n, nil
}

// AddReviewQuestions parses a review-question batch and appends it to a topic
func (s *ImportService) AddReviewQuestions(ctx context.Context, topicID uuid.UUID, text string) ([]question.LessonMCQ, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.AddReviewQuestions")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, tracing.Fail(span, parser.ErrEmptyInput)
	}
	qs := parser.ParseReviewQuestions(text)
	if len(qs) == 0 {
		return nil, tracing.Fail(span, ErrNoQuestions)
	}
	if err := s.lessons.AddTopicQuestions(ctx, topicID, qs); err != nil {
		return nil, tracing.Fail(span, err)
	}
	s.observeImport("lesson", "imported", len(qs))
	return qs, nil
}

// ImportOverview parses and stores a chapter overview
func (s *ImportService) ImportOverview(ctx context.Context, req LessonRequest) (*OverviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.ImportOverview")
	defer span.End()

	if strings.TrimSpace(req.Text) == "" {
		return nil, tracing.Fail(span, parser.ErrEmptyInput)
	}
	ov := parser.ParseOverview(req.Text)
	if len(ov.Topics) == 0 {
		return nil, tracing.Fail(span, ErrNoTopics)
	}

	id, err := s.lessons.SaveOverview(ctx, req.Subject, req.Chapter, ov)
	if err != nil {
		return nil, tracing.Fail(span, err)
	}
	s.logger.Info("overview imported", "id", id, "subject", req.Subject, "topics", len(ov.Topics))
	return &OverviewResult{ID: id, Overview: ov}, nil
}
