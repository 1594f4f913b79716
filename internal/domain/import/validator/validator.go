// Package validator runs record-level completeness checks over parser output.
// Parsers never reject records; callers validate after the preview/edit step.
package validator

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// Issue is a single completeness problem found on a record
type Issue struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("question %d, field %s: %s", i.Index+1, i.Field, i.Message)
}

// Result groups the issues of a batch
type Result struct {
	Issues []Issue `json:"issues"`
	Valid  int     `json:"valid"`
	Total  int     `json:"total"`
}

// OK reports whether every record passed
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// InvalidIndexes returns the set of record positions with at least one issue
func (r Result) InvalidIndexes() map[int]bool {
	out := make(map[int]bool, len(r.Issues))
	for _, i := range r.Issues {
		out[i.Index] = true
	}
	return out
}

const minOptions = 2

// Validate checks every record and reports all issues found.
// It does not check that the correct answer names a present option, nor that
// part letters are contiguous.
func Validate(qs []question.Question) Result {
	res := Result{Total: len(qs), Issues: []Issue{}}
	for i, q := range qs {
		issues := Check(i, q)
		if len(issues) == 0 {
			res.Valid++
		}
		res.Issues = append(res.Issues, issues...)
	}
	return res
}

// Check validates a single record at position index
func Check(index int, q question.Question) []Issue {
	var issues []Issue
	add := func(field, msg string) {
		issues = append(issues, Issue{Index: index, Field: field, Message: msg})
	}

	switch v := q.(type) {
	case question.MCQ:
		if blank(v.QuestionText) {
			add("questionText", "question missing text")
		}
		if len(v.Options) < minOptions {
			add("options", fmt.Sprintf("fewer than %d options", minOptions))
		}
		for _, o := range v.Options {
			if blank(o.Text) {
				add("options", fmt.Sprintf("option %s has no text", o.Label))
			}
		}
		if blank(v.CorrectAnswer) {
			add("correctAnswer", "no correct answer set")
		}
	case question.CQ:
		if blank(v.QuestionText) && v.Image == "" {
			add("questionText", "stem missing text")
		}
		if len(v.Parts) == 0 {
			add("parts", "no parts")
		}
		for _, p := range v.Parts {
			if blank(p.Text) {
				add("parts", fmt.Sprintf("part %s has no text", p.Letter))
			}
		}
	case question.SQ:
		if blank(v.Question) {
			add("question", "question missing text")
		}
		if blank(v.Answer) {
			add("answer", "missing answer")
		}
	default:
		add("type", "unknown question type")
	}
	return issues
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
