// Package question defines the records produced by the import parsers and stored in the bank.
package question

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Kind is the discriminant of a Question
type Kind string

const (
	KindMCQ Kind = "mcq"
	KindCQ  Kind = "cq"
	KindSQ  Kind = "sq"
)

// Valid reports whether k is one of the known question kinds
func (k Kind) Valid() bool {
	switch k {
	case KindMCQ, KindCQ, KindSQ:
		return true
	}
	return false
}

// Language tags the language a question was authored in
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageBengali Language = "bn"
)

// ParseLanguage maps a loose language tag to a Language, defaulting to English
func ParseLanguage(s string) Language {
	switch s {
	case "bn", "BN", "bangla", "bengali", "Bangla", "Bengali":
		return LanguageBengali
	default:
		return LanguageEnglish
	}
}

// ImagePlaceholder marks a CQ whose stimulus has an image still to be attached.
const ImagePlaceholder = "[picture]"

// Question is the tagged union of MCQ, CQ and SQ records.
type Question interface {
	Kind() Kind
	Meta() Metadata
	ID() *uuid.UUID
	isQuestion()
}

// Metadata is the Subject/Chapter/Lesson/Board header block that questions inherit
type Metadata struct {
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
	Lesson  string `json:"lesson"`
	Board   string `json:"board"`
}

// IsZero reports whether no field is set
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Merge returns m with every non-empty field of o applied on top.
func (m Metadata) Merge(o Metadata) Metadata {
	if o.Subject != "" {
		m.Subject = o.Subject
	}
	if o.Chapter != "" {
		m.Chapter = o.Chapter
	}
	if o.Lesson != "" {
		m.Lesson = o.Lesson
	}
	if o.Board != "" {
		m.Board = o.Board
	}
	return m
}

// Option is a single lettered MCQ choice
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// MCQ is a multiple-choice question
type MCQ struct {
	Metadata
	Key           *uuid.UUID `json:"id,omitempty"`
	Language      Language   `json:"language"`
	QuestionText  string     `json:"questionText"`
	Options       []Option   `json:"options"`
	CorrectAnswer string     `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
}

func (q MCQ) Kind() Kind     { return KindMCQ }
func (q MCQ) Meta() Metadata { return q.Metadata }
func (q MCQ) ID() *uuid.UUID { return q.Key }
func (MCQ) isQuestion()      {}

// HasOption reports whether an option with the given label is present
func (q MCQ) HasOption(label string) bool {
	for _, o := range q.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

func (q MCQ) MarshalJSON() ([]byte, error) {
	type alias MCQ
	if q.Options == nil {
		q.Options = []Option{}
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindMCQ, alias(q)})
}

// CQPart is one lettered sub-question of a creative question
type CQPart struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
	Marks  int    `json:"marks"`
	Answer string `json:"answer"`
}

// CQ is a creative question: a stem followed by lettered parts
type CQ struct {
	Metadata
	Key          *uuid.UUID `json:"id,omitempty"`
	Language     Language   `json:"language"`
	QuestionText string     `json:"questionText"`
	Parts        []CQPart   `json:"parts"`
	Image        string     `json:"image"`
}

func (q CQ) Kind() Kind     { return KindCQ }
func (q CQ) Meta() Metadata { return q.Metadata }
func (q CQ) ID() *uuid.UUID { return q.Key }
func (CQ) isQuestion()      {}

// Part returns the part with the given letter, or nil
func (q *CQ) Part(letter string) *CQPart {
	for i := range q.Parts {
		if q.Parts[i].Letter == letter {
			return &q.Parts[i]
		}
	}
	return nil
}

func (q CQ) MarshalJSON() ([]byte, error) {
	type alias CQ
	if q.Parts == nil {
		q.Parts = []CQPart{}
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindCQ, alias(q)})
}

// SQ is a short question/answer pair
type SQ struct {
	Metadata
	Key      *uuid.UUID `json:"id,omitempty"`
	Language Language   `json:"language"`
	Question string     `json:"question"`
	Answer   string     `json:"answer"`
}

func (q SQ) Kind() Kind     { return KindSQ }
func (q SQ) Meta() Metadata { return q.Metadata }
func (q SQ) ID() *uuid.UUID { return q.Key }
func (SQ) isQuestion()      {}

func (q SQ) MarshalJSON() ([]byte, error) {
	type alias SQ
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindSQ, alias(q)})
}

// Decode unmarshals a JSON question using its "type" discriminant.
func Decode(data []byte) (Question, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case KindMCQ:
		var q MCQ
		err := json.Unmarshal(data, &q)
		return q, err
	case KindCQ:
		var q CQ
		err := json.Unmarshal(data, &q)
		return q, err
	case KindSQ:
		var q SQ
		err := json.Unmarshal(data, &q)
		return q, err
	default:
		return nil, &UnknownKindError{Kind: head.Type}
	}
}

// UnknownKindError is returned when a record carries an unrecognised type tag
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return "unknown question type: " + string(e.Kind)
}

// MCQs collects the MCQ records of a slice of questions
func MCQs(qs []Question) []MCQ {
	var out []MCQ
	for _, q := range qs {
		if m, ok := q.(MCQ); ok {
			out = append(out, m)
		}
	}
	return out
}
