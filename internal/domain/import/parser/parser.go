// Package parser converts pasted, loosely structured exam text into question records.
// Each family (MCQ, CQ, SQ, lesson, overview) is an independent line scanner: lines are
// first classified, then folded into an explicit scanner state.
package parser

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// ErrEmptyInput is returned by the lesson parser for blank documents
var ErrEmptyInput = errors.New("input text is empty")

// ParseResult contains the records produced by a single Parse call
type ParseResult struct {
	Kind      question.Kind
	Language  question.Language
	Questions []question.Question
	Lines     int
}

// Parse runs the scanner for kind over text.
// A blank language tag is inferred from the script of the text.
func Parse(kind question.Kind, text string, lang question.Language) (*ParseResult, error) {
	if lang == "" {
		lang = normalizer.DetectLanguage(text)
	}
	result := &ParseResult{
		Kind:     kind,
		Language: lang,
		Lines:    strings.Count(text, "\n") + 1,
	}

	switch kind {
	case question.KindMCQ:
		for _, q := range ParseMCQ(text, lang) {
			result.Questions = append(result.Questions, q)
		}
	case question.KindCQ:
		for _, q := range ParseCQ(text, lang) {
			result.Questions = append(result.Questions, q)
		}
	case question.KindSQ:
		for _, q := range ParseSQ(text, lang) {
			result.Questions = append(result.Questions, q)
		}
	default:
		return nil, &question.UnknownKindError{Kind: kind}
	}
	return result, nil
}

var (
	separatorPattern = regexp.MustCompile(`^\s*-{3,}\s*$`)
	numberedPattern  = regexp.MustCompile(`^([0-9০-৯]+)\s*[.।]\s*(.*)$`)
	marksPattern     = regexp.MustCompile(`^(.*?)\s*(?:\(\s*([0-9০-৯]+)\s*\)|\s([1-9১-৯]))$`)
)

func nfc(s string) string {
	return norm.NFC.String(s)
}

// bn compiles a pattern holding Bengali literals in the same normal form CleanText produces.
func bn(pattern string) *regexp.Regexp {
	return regexp.MustCompile(norm.NFC.String(pattern))
}

// splitSections cuts lines at horizontal-rule separators
func splitSections(lines []string) [][]string {
	sections := [][]string{nil}
	for _, line := range lines {
		if separatorPattern.MatchString(line) {
			sections = append(sections, nil)
			continue
		}
		sections[len(sections)-1] = append(sections[len(sections)-1], line)
	}
	return sections
}

// splitMarks strips a trailing "(N)" or bare single digit marks annotation
func splitMarks(text string) (string, int) {
	text = strings.TrimSpace(text)
	m := marksPattern.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return text, 0
	}
	raw := coalesce(m[2], m[3])
	marks, err := normalizer.Atoi(raw)
	if err != nil {
		return text, 0
	}
	return strings.TrimSpace(m[1]), marks
}

// appendLine joins a continuation line onto an accumulated field
func appendLine(field *string, line, sep string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if *field == "" {
		*field = line
		return
	}
	*field += sep + line
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
