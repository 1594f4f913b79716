package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// LessonRepository stores lesson outlines and chapter overviews
type LessonRepository interface {
	UploadLesson(ctx context.Context, ch *question.Chapter) (uuid.UUID, error)
	FetchLessons(ctx context.Context, subject string) ([]question.Chapter, error)
	CreateTopicAtPosition(ctx context.Context, chapterID uuid.UUID, position int, title string) (uuid.UUID, error)
	RenameSubject(ctx context.Context, from, to string) (int64, error)
	AddTopicQuestions(ctx context.Context, topicID uuid.UUID, qs []question.LessonMCQ) error
	SaveOverview(ctx context.Context, subject, chapter string, ov question.Overview) (uuid.UUID, error)
}

// PostgresLessonRepository implements LessonRepository using PostgreSQL
type PostgresLessonRepository struct {
	db DBTX
}

// NewPostgresLessonRepository creates a new PostgreSQL-backed lesson repository
func NewPostgresLessonRepository(db DBTX) *PostgresLessonRepository {
	return &PostgresLessonRepository{db: db}
}

const insertTopic = `
	INSERT INTO topics (chapter_id, position, title, subtopics, questions)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
`

// UploadLesson inserts a chapter with all its topics and sets the generated ids on ch
func (r *PostgresLessonRepository) UploadLesson(ctx context.Context, ch *question.Chapter) (uuid.UUID, error) {
	var chapterID uuid.UUID
	topicIDs := make([]uuid.UUID, len(ch.Topics))

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO chapters (subject, chapter) VALUES ($1, $2) RETURNING id`,
			ch.Subject, ch.Chapter,
		).Scan(&chapterID)
		if err != nil {
			return fmt.Errorf("failed to insert chapter: %w", err)
		}

		for i, t := range ch.Topics {
			subtopics, questions, err := encodeTopic(t)
			if err != nil {
				return err
			}
			if err := tx.QueryRow(ctx, insertTopic, chapterID, i, t.Title, subtopics, questions).Scan(&topicIDs[i]); err != nil {
				return fmt.Errorf("failed to insert topic %q: %w", t.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	ch.ID = &chapterID
	for i := range ch.Topics {
		ch.Topics[i].ID = &topicIDs[i]
	}
	return chapterID, nil
}

// FetchLessons loads chapters with their topics in position order.
// A blank subject returns every chapter.
func (r *PostgresLessonRepository) FetchLessons(ctx context.Context, subject string) ([]question.Chapter, error) {
	query := `
		SELECT c.id, c.subject, c.chapter, t.id, t.title, t.subtopics, t.questions
		FROM chapters c
		LEFT JOIN topics t ON t.chapter_id = c.id
		WHERE $1 = '' OR c.subject = $1
		ORDER BY c.created_at, c.id, t.position
	`
	rows, err := r.db.Query(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lessons: %w", err)
	}
	defer rows.Close()

	chapters := []question.Chapter{}
	for rows.Next() {
		var (
			chapterID uuid.UUID
			subj, chp string
			topicID   *uuid.UUID
			title     *string
			subtopics []byte
			questions []byte
		)
		if err := rows.Scan(&chapterID, &subj, &chp, &topicID, &title, &subtopics, &questions); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}

		if n := len(chapters); n == 0 || *chapters[n-1].ID != chapterID {
			id := chapterID
			chapters = append(chapters, question.Chapter{ID: &id, Subject: subj, Chapter: chp, Topics: []question.Topic{}})
		}
		if topicID == nil {
			continue
		}

		topic := question.Topic{ID: topicID, Subtopics: []question.Subtopic{}, Questions: []question.LessonMCQ{}}
		if title != nil {
			topic.Title = *title
		}
		if err := decodeTopic(&topic, subtopics, questions); err != nil {
			return nil, err
		}
		last := &chapters[len(chapters)-1]
		last.Topics = append(last.Topics, topic)
	}
	return chapters, rows.Err()
}

// CreateTopicAtPosition inserts an empty topic, shifting later topics down by one
func (r *PostgresLessonRepository) CreateTopicAtPosition(ctx context.Context, chapterID uuid.UUID, position int, title string) (uuid.UUID, error) {
	if position < 0 {
		position = 0
	}

	var id uuid.UUID
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE topics SET position = position + 1 WHERE chapter_id = $1 AND position >= $2`,
			chapterID, position,
		); err != nil {
			return fmt.Errorf("failed to shift topics: %w", err)
		}
		err := tx.QueryRow(ctx, insertTopic, chapterID, position, title, []byte("[]"), []byte("[]")).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to create topic: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// RenameSubject renames a subject on chapters and questions, returning the number of rows touched
func (r *PostgresLessonRepository) RenameSubject(ctx context.Context, from, to string) (int64, error) {
	var total int64
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, table := range []string{"chapters", "questions"} {
			tag, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET subject = $2 WHERE subject = $1`, table), from, to)
			if err != nil {
				return fmt.Errorf("failed to rename subject in %s: %w", table, err)
			}
			total += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// AddTopicQuestions appends review questions to an existing topic
func (r *PostgresLessonRepository) AddTopicQuestions(ctx context.Context, topicID uuid.UUID, qs []question.LessonMCQ) error {
	data, err := json.Marshal(qs)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE topics SET questions = questions || $2::jsonb WHERE id = $1`,
		topicID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to add topic questions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveOverview stores a chapter overview
func (r *PostgresLessonRepository) SaveOverview(ctx context.Context, subject, chapter string, ov question.Overview) (uuid.UUID, error) {
	topics := ov.Topics
	if topics == nil {
		topics = []question.OverviewTopic{}
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode overview: %w", err)
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx,
		`INSERT INTO overviews (subject, chapter, topics) VALUES ($1, $2, $3) RETURNING id`,
		subject, chapter, data,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save overview: %w", err)
	}
	return id, nil
}

func encodeTopic(t question.Topic) ([]byte, []byte, error) {
	subtopics := t.Subtopics
	if subtopics == nil {
		subtopics = []question.Subtopic{}
	}
	questions := t.Questions
	if questions == nil {
		questions = []question.LessonMCQ{}
	}
	s, err := json.Marshal(subtopics)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode subtopics: %w", err)
	}
	q, err := json.Marshal(questions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	return s, q, nil
}

func decodeTopic(t *question.Topic, subtopics, questions []byte) error {
	if len(subtopics) > 0 {
		if err := json.Unmarshal(subtopics, &t.Subtopics); err != nil {
			return fmt.Errorf("failed to decode subtopics: %w", err)
		}
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &t.Questions); err != nil {
			return fmt.Errorf("failed to decode questions: %w", err)
		}
	}
	return nil
}
