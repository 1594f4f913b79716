package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// QuestionRepository stores MCQ, CQ and SQ records
type QuestionRepository interface {
	AddQuestion(ctx context.Context, q question.Question, sourceID *uuid.UUID) (uuid.UUID, error)
	BulkAddQuestions(ctx context.Context, qs []question.Question, sourceID *uuid.UUID) ([]uuid.UUID, error)
	UpdateQuestion(ctx context.Context, id uuid.UUID, q question.Question) error
	GetQuestion(ctx context.Context, id uuid.UUID) (question.Question, error)
	ListQuestions(ctx context.Context, f Filter) ([]question.Question, error)
	RecordSource(ctx context.Context, src Source) (uuid.UUID, error)
	FindSource(ctx context.Context, fingerprint string) (*Source, error)
}

// Filter narrows ListQuestions. Zero values match everything; Limit 0 means no limit.
type Filter struct {
	Kind    question.Kind
	Subject string
	Chapter string
	Board   string
	Limit   int
	Offset  int
}

// PostgresQuestionRepository implements QuestionRepository using PostgreSQL
type PostgresQuestionRepository struct {
	db DBTX
}

// NewPostgresQuestionRepository creates a new PostgreSQL-backed question repository
func NewPostgresQuestionRepository(db DBTX) *PostgresQuestionRepository {
	return &PostgresQuestionRepository{db: db}
}

const insertQuestion = `
	INSERT INTO questions (type, language, subject, chapter, lesson, board, question_text, payload, source_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id
`

func questionArgs(q question.Question) ([]any, error) {
	payload, err := json.Marshal(withKey(q, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to encode question: %w", err)
	}
	meta := q.Meta()
	return []any{
		string(q.Kind()), string(languageOf(q)),
		meta.Subject, meta.Chapter, meta.Lesson, meta.Board,
		textOf(q), payload,
	}, nil
}

// AddQuestion inserts a single record and returns its id
func (r *PostgresQuestionRepository) AddQuestion(ctx context.Context, q question.Question, sourceID *uuid.UUID) (uuid.UUID, error) {
	args, err := questionArgs(q)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, insertQuestion, append(args, sourceID)...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to add question: %w", err)
	}
	return id, nil
}

// BulkAddQuestions inserts every record in one transaction
func (r *PostgresQuestionRepository) BulkAddQuestions(ctx context.Context, qs []question.Question, sourceID *uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(qs))
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		for i, q := range qs {
			args, err := questionArgs(q)
			if err != nil {
				return err
			}
			var id uuid.UUID
			if err := tx.QueryRow(ctx, insertQuestion, append(args, sourceID)...).Scan(&id); err != nil {
				return fmt.Errorf("failed to add question %d: %w", i+1, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateQuestion replaces the stored record. The kind may change.
func (r *PostgresQuestionRepository) UpdateQuestion(ctx context.Context, id uuid.UUID, q question.Question) error {
	args, err := questionArgs(q)
	if err != nil {
		return err
	}

	query := `
		UPDATE questions
		SET type = $2, language = $3, subject = $4, chapter = $5, lesson = $6, board = $7,
			question_text = $8, payload = $9, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetQuestion loads a single record by id
func (r *PostgresQuestionRepository) GetQuestion(ctx context.Context, id uuid.UUID) (question.Question, error) {
	var (
		rowID   uuid.UUID
		payload []byte
	)
	err := r.db.QueryRow(ctx, `SELECT id, payload FROM questions WHERE id = $1`, id).Scan(&rowID, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return decodeRow(rowID, payload)
}

// ListQuestions returns records matching f, oldest first
func (r *PostgresQuestionRepository) ListQuestions(ctx context.Context, f Filter) ([]question.Question, error) {
	var (
		where []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("type", string(f.Kind))
	add("subject", f.Subject)
	add("chapter", f.Chapter)
	add("board", f.Board)

	var b strings.Builder
	b.WriteString("SELECT id, payload FROM questions")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at, id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	qs := []question.Question{}
	for rows.Next() {
		var (
			id      uuid.UUID
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q, err := decodeRow(id, payload)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

func decodeRow(id uuid.UUID, payload []byte) (question.Question, error) {
	q, err := question.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode question %s: %w", id, err)
	}
	return withKey(q, &id), nil
}

func withKey(q question.Question, id *uuid.UUID) question.Question {
	switch v := q.(type) {
	case question.MCQ:
		v.Key = id
		return v
	case question.CQ:
		v.Key = id
		return v
	case question.SQ:
		v.Key = id
		return v
	}
	return q
}

func languageOf(q question.Question) question.Language {
	switch v := q.(type) {
	case question.MCQ:
		return v.Language
	case question.CQ:
		return v.Language
	case question.SQ:
		return v.Language
	}
	return ""
}

func textOf(q question.Question) string {
	switch v := q.(type) {
	case question.MCQ:
		return v.QuestionText
	case question.CQ:
		return v.QuestionText
	case question.SQ:
		return v.Question
	}
	return ""
}
