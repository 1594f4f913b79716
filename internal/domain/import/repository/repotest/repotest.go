// Package repotest provides in-memory repositories for tests of code built on the import repositories.
package repotest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/FACorreiaa/question-bank/internal/domain/import/repository"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// Questions is an in-memory QuestionRepository
type Questions struct {
	mu        sync.Mutex
	questions map[uuid.UUID]question.Question
	order     []uuid.UUID
	Sources   []repository.Source
	// BulkErr fails every BulkAddQuestions call when set
	BulkErr error
}

// NewQuestions creates an empty repository
func NewQuestions() *Questions {
	return &Questions{questions: map[uuid.UUID]question.Question{}}
}

func (r *Questions) AddQuestion(ctx context.Context, q question.Question, sourceID *uuid.UUID) (uuid.UUID, error) {
	ids, err := r.BulkAddQuestions(ctx, []question.Question{q}, sourceID)
	if err != nil {
		return uuid.Nil, err
	}
	return ids[0], nil
}

func (r *Questions) BulkAddQuestions(_ context.Context, qs []question.Question, _ *uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.BulkErr != nil {
		return nil, r.BulkErr
	}
	ids := make([]uuid.UUID, len(qs))
	for i, q := range qs {
		ids[i] = uuid.New()
		r.questions[ids[i]] = withID(q, ids[i])
		r.order = append(r.order, ids[i])
	}
	return ids, nil
}

func (r *Questions) UpdateQuestion(_ context.Context, id uuid.UUID, q question.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.questions[id]; !ok {
		return repository.ErrNotFound
	}
	r.questions[id] = withID(q, id)
	return nil
}

func (r *Questions) GetQuestion(_ context.Context, id uuid.UUID) (question.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return q, nil
}

func (r *Questions) ListQuestions(_ context.Context, f repository.Filter) ([]question.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []question.Question
	for _, id := range r.order {
		q := r.questions[id]
		if f.Kind != "" && q.Kind() != f.Kind {
			continue
		}
		if f.Subject != "" && q.Meta().Subject != f.Subject {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (r *Questions) RecordSource(_ context.Context, src repository.Source) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src.ID = uuid.New()
	r.Sources = append(r.Sources, src)
	return src.ID, nil
}

func (r *Questions) FindSource(_ context.Context, fingerprint string) (*repository.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.Sources) - 1; i >= 0; i-- {
		if r.Sources[i].Fingerprint == fingerprint {
			src := r.Sources[i]
			return &src, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Lessons is an in-memory LessonRepository
type Lessons struct {
	Chapters  []question.Chapter
	Overviews []question.Overview
	Added     map[uuid.UUID][]question.LessonMCQ
	// Renamed is the row count RenameSubject reports
	Renamed int64
}

// NewLessons creates an empty repository
func NewLessons() *Lessons {
	return &Lessons{Added: map[uuid.UUID][]question.LessonMCQ{}}
}

func (r *Lessons) UploadLesson(_ context.Context, ch *question.Chapter) (uuid.UUID, error) {
	id := uuid.New()
	ch.ID = &id
	for i := range ch.Topics {
		tid := uuid.New()
		ch.Topics[i].ID = &tid
	}
	r.Chapters = append(r.Chapters, *ch)
	return id, nil
}

func (r *Lessons) FetchLessons(_ context.Context, subject string) ([]question.Chapter, error) {
	var out []question.Chapter
	for _, ch := range r.Chapters {
		if subject == "" || ch.Subject == subject {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (r *Lessons) CreateTopicAtPosition(_ context.Context, _ uuid.UUID, _ int, _ string) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (r *Lessons) RenameSubject(_ context.Context, _, _ string) (int64, error) {
	return r.Renamed, nil
}

func (r *Lessons) AddTopicQuestions(_ context.Context, topicID uuid.UUID, qs []question.LessonMCQ) error {
	if topicID == uuid.Nil {
		return repository.ErrNotFound
	}
	r.Added[topicID] = append(r.Added[topicID], qs...)
	return nil
}

func (r *Lessons) SaveOverview(_ context.Context, _, _ string, ov question.Overview) (uuid.UUID, error) {
	r.Overviews = append(r.Overviews, ov)
	return uuid.New(), nil
}

// Len returns the number of stored questions
func (r *Questions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
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

var (
	_ repository.QuestionRepository = (*Questions)(nil)
	_ repository.LessonRepository   = (*Lessons)(nil)
)
