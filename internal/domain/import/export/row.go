// Package export writes and reads question records as CSV and XLSX sheets.
package export

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// Row is the flat spreadsheet shape shared by every question kind.
// CQ parts are carried as a JSON array in a single column.
type Row struct {
	Type          string `csv:"type"`
	ID            string `csv:"id"`
	Language      string `csv:"language"`
	Subject       string `csv:"subject"`
	Chapter       string `csv:"chapter"`
	Lesson        string `csv:"lesson"`
	Board         string `csv:"board"`
	Question      string `csv:"question"`
	OptionA       string `csv:"option_a"`
	OptionB       string `csv:"option_b"`
	OptionC       string `csv:"option_c"`
	OptionD       string `csv:"option_d"`
	CorrectAnswer string `csv:"correct_answer"`
	Explanation   string `csv:"explanation"`
	Answer        string `csv:"answer"`
	Image         string `csv:"image"`
	Parts         string `csv:"parts"`
}

// Columns is the header row, in the order of Row's fields
var Columns = []string{
	"type", "id", "language", "subject", "chapter", "lesson", "board", "question",
	"option_a", "option_b", "option_c", "option_d", "correct_answer", "explanation",
	"answer", "image", "parts",
}

func (r Row) values() []any {
	return []any{
		r.Type, r.ID, r.Language, r.Subject, r.Chapter, r.Lesson, r.Board, r.Question,
		r.OptionA, r.OptionB, r.OptionC, r.OptionD, r.CorrectAnswer, r.Explanation,
		r.Answer, r.Image, r.Parts,
	}
}

func rowFromCells(cells []string) Row {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return Row{
		Type: get(0), ID: get(1), Language: get(2), Subject: get(3), Chapter: get(4),
		Lesson: get(5), Board: get(6), Question: get(7), OptionA: get(8), OptionB: get(9),
		OptionC: get(10), OptionD: get(11), CorrectAnswer: get(12), Explanation: get(13),
		Answer: get(14), Image: get(15), Parts: get(16),
	}
}

func (r *Row) option(label string) *string {
	switch label {
	case "a":
		return &r.OptionA
	case "b":
		return &r.OptionB
	case "c":
		return &r.OptionC
	case "d":
		return &r.OptionD
	}
	return nil
}

// ToRow flattens q into a Row
func ToRow(q question.Question) (Row, error) {
	meta := q.Meta()
	r := Row{
		Type:    string(q.Kind()),
		Subject: meta.Subject,
		Chapter: meta.Chapter,
		Lesson:  meta.Lesson,
		Board:   meta.Board,
	}
	if id := q.ID(); id != nil {
		r.ID = id.String()
	}

	switch v := q.(type) {
	case question.MCQ:
		r.Language = string(v.Language)
		r.Question = v.QuestionText
		for _, o := range v.Options {
			if dst := r.option(o.Label); dst != nil {
				*dst = o.Text
			}
		}
		r.CorrectAnswer = v.CorrectAnswer
		r.Explanation = v.Explanation
	case question.CQ:
		r.Language = string(v.Language)
		r.Question = v.QuestionText
		r.Image = v.Image
		parts := v.Parts
		if parts == nil {
			parts = []question.CQPart{}
		}
		data, err := json.Marshal(parts)
		if err != nil {
			return Row{}, fmt.Errorf("failed to encode parts: %w", err)
		}
		r.Parts = string(data)
	case question.SQ:
		r.Language = string(v.Language)
		r.Question = v.Question
		r.Answer = v.Answer
	default:
		return Row{}, &question.UnknownKindError{Kind: q.Kind()}
	}
	return r, nil
}

// FromRow rebuilds the question a Row was flattened from
func FromRow(r Row) (question.Question, error) {
	meta := question.Metadata{Subject: r.Subject, Chapter: r.Chapter, Lesson: r.Lesson, Board: r.Board}
	lang := question.Language(r.Language)

	var key *uuid.UUID
	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", r.ID, err)
		}
		key = &id
	}

	switch question.Kind(r.Type) {
	case question.KindMCQ:
		q := question.MCQ{
			Metadata:      meta,
			Key:           key,
			Language:      lang,
			QuestionText:  r.Question,
			CorrectAnswer: r.CorrectAnswer,
			Explanation:   r.Explanation,
		}
		for _, label := range []string{"a", "b", "c", "d"} {
			if text := *r.option(label); text != "" {
				q.Options = append(q.Options, question.Option{Label: label, Text: text})
			}
		}
		return q, nil
	case question.KindCQ:
		q := question.CQ{
			Metadata:     meta,
			Key:          key,
			Language:     lang,
			QuestionText: r.Question,
			Image:        r.Image,
		}
		if r.Parts != "" {
			if err := json.Unmarshal([]byte(r.Parts), &q.Parts); err != nil {
				return nil, fmt.Errorf("invalid parts: %w", err)
			}
		}
		return q, nil
	case question.KindSQ:
		return question.SQ{
			Metadata: meta,
			Key:      key,
			Language: lang,
			Question: r.Question,
			Answer:   r.Answer,
		}, nil
	default:
		return nil, &question.UnknownKindError{Kind: question.Kind(r.Type)}
	}
}

// Rows flattens a batch of questions
func Rows(qs []question.Question) ([]Row, error) {
	rows := make([]Row, 0, len(qs))
	for i, q := range qs {
		r, err := ToRow(q)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// Questions rebuilds a batch of rows
func Questions(rows []Row) ([]question.Question, error) {
	qs := make([]question.Question, 0, len(rows))
	for i, r := range rows {
		q, err := FromRow(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		qs = append(qs, q)
	}
	return qs, nil
}
