package parser

import (
	"strings"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

const maxOptions = 4

var (
	labelledQuestionPattern = bn(`(?i)^(?:Q|প্রশ্ন)\s*([0-9০-৯]+)?\s*[:：ঃ.)]\s*(.*)$`)
	optionPattern           = bn(`^(?:\(\s*([a-dA-Dক-ঘ1-4১-৪])\s*\)|([a-dA-Dক-ঘ1-4১-৪])\s*[.)।]|([a-dক-ঘ1-4১-৪])\s)\s*(.*)$`)
	answerPattern           = bn(`(?i)^(?:correct\s*answer|correct|answer|ans|সঠিক\s*উত্তর|সঠিক|উত্তর)\s*[:=ঃ：]\s*(.*)$`)
	answerTokenPattern      = bn(`^[(\[]?\s*([a-dA-Dক-ঘ1-4১-৪])(?:[.)\]।:,\s]|$)`)
	explanationPattern      = bn(`(?i)^(?:explanation|explain|exp|bekkha|ব্যাখ্যা)\s*[:=ঃ：]\s*(.*)$`)
	correctCuePattern       = bn(`(?i)which\s+(?:of\s+the\s+following\s+)?(?:is|are)\s+(?:correct|true)|কোনটি\s*সঠিক|সঠিক\s*কোনটি`)
)

type mcqLineKind int

const (
	mcqBlank mcqLineKind = iota
	mcqMetadata
	mcqQuestion
	mcqNumbered
	mcqOption
	mcqAnswer
	mcqExplanation
	mcqText
)

// mcqLine is a classified input line
type mcqLine struct {
	kind  mcqLineKind
	token string // option label or question number as written
	text  string
	meta  question.Metadata
}

// classifyMCQLine assigns a line to exactly one kind. A "1." line is reported as
// mcqNumbered: whether it opens a question or adds an option depends on scanner state.
func classifyMCQLine(line string) mcqLine {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return mcqLine{kind: mcqBlank}
	}
	if meta, ok := parseMetadataLine(trimmed); ok {
		return mcqLine{kind: mcqMetadata, meta: meta}
	}
	if m := answerPattern.FindStringSubmatch(trimmed); m != nil {
		return mcqLine{kind: mcqAnswer, text: strings.TrimSpace(m[1])}
	}
	if m := explanationPattern.FindStringSubmatch(trimmed); m != nil {
		return mcqLine{kind: mcqExplanation, text: strings.TrimSpace(m[1])}
	}
	if m := numberedPattern.FindStringSubmatch(trimmed); m != nil {
		return mcqLine{kind: mcqNumbered, token: m[1], text: strings.TrimSpace(m[2])}
	}
	if m := labelledQuestionPattern.FindStringSubmatch(trimmed); m != nil {
		return mcqLine{kind: mcqQuestion, token: m[1], text: strings.TrimSpace(m[2])}
	}
	if m := optionPattern.FindStringSubmatch(trimmed); m != nil {
		return mcqLine{kind: mcqOption, token: coalesce(m[1], m[2], m[3]), text: strings.TrimSpace(m[4])}
	}
	return mcqLine{kind: mcqText, text: trimmed}
}

// numberedLineStartsQuestion decides whether "n." opens a new question or is the next
// numbered option of q. Closed questions and a missing question always start a new one;
// a "which is correct" cue in the stem forces an option; otherwise n must follow the
// option count.
func numberedLineStartsQuestion(q *question.MCQ, closed bool, token string) bool {
	if q == nil || closed {
		return true
	}
	if !normalizer.IsOptionLetter(token) {
		return true
	}
	if correctCuePattern.MatchString(q.QuestionText) {
		return false
	}
	n, err := normalizer.Atoi(token)
	if err != nil {
		return true
	}
	return n != len(q.Options)+1
}

// mcqScanner holds the state of one section
type mcqScanner struct {
	lang          question.Language
	meta          question.Metadata
	current       *question.MCQ
	inExplanation bool
	// pending is the last text line seen with no open question. It becomes the
	// stem only if an option follows.
	pending string
	out           []question.MCQ
}

func newMCQScanner(lang question.Language) *mcqScanner {
	return &mcqScanner{lang: lang}
}

// closed reports whether the current question already has its answer or explanation
func (s *mcqScanner) closed() bool {
	return s.current != nil && (s.current.CorrectAnswer != "" || s.current.Explanation != "" || s.inExplanation)
}

func (s *mcqScanner) feed(line mcqLine) {
	switch line.kind {
	case mcqBlank:
	case mcqMetadata:
		s.pending = ""
		if s.closed() {
			s.flush()
		}
		s.meta = s.meta.Merge(line.meta)
		if s.current != nil {
			s.current.Metadata = s.current.Metadata.Merge(line.meta)
		}
	case mcqQuestion:
		s.start(line.text)
	case mcqNumbered:
		if numberedLineStartsQuestion(s.current, s.closed(), line.token) {
			s.start(line.text)
			return
		}
		s.addOption(line.token, line.text)
	case mcqOption:
		if s.current == nil {
			s.start(s.pending)
		}
		if s.closed() {
			s.appendText(line.token + ") " + line.text)
			return
		}
		s.addOption(line.token, line.text)
	case mcqAnswer:
		if s.current == nil {
			s.pending = ""
			return
		}
		s.current.CorrectAnswer = answerLetter(line.text, s.current.Options)
		s.inExplanation = false
	case mcqExplanation:
		if s.current == nil {
			s.pending = ""
			return
		}
		s.inExplanation = true
		appendLine(&s.current.Explanation, line.text, "\n")
	case mcqText:
		s.appendText(line.text)
	}
}

func (s *mcqScanner) start(stem string) {
	s.flush()
	s.pending = ""
	s.current = &question.MCQ{
		Metadata:     s.meta,
		Language:     s.lang,
		QuestionText: strings.TrimSpace(stem),
	}
}

func (s *mcqScanner) addOption(token, text string) {
	label := normalizer.OptionLetter(token)
	if len(s.current.Options) >= maxOptions || s.current.HasOption(label) {
		return
	}
	s.current.Options = append(s.current.Options, question.Option{Label: label, Text: text})
}

// appendText routes a continuation line: explanation first, then the stem while no
// options exist, then the last option. With no open question the line is held as a
// candidate stem and replaces any earlier one, so titles and preamble are dropped.
func (s *mcqScanner) appendText(text string) {
	q := s.current
	switch {
	case q == nil:
		s.pending = text
	case s.inExplanation || q.CorrectAnswer != "":
		appendLine(&q.Explanation, text, "\n")
	case len(q.Options) == 0:
		appendLine(&q.QuestionText, text, "\n")
	default:
		appendLine(&q.Options[len(q.Options)-1].Text, text, " ")
	}
}

func (s *mcqScanner) flush() {
	q := s.current
	s.current = nil
	s.inExplanation = false
	if q == nil {
		return
	}
	if q.QuestionText == "" && len(q.Options) == 0 {
		return
	}
	s.out = append(s.out, *q)
}

// answerLetter extracts the canonical label from an answer value such as "b",
// "(খ)", "2" or "b) Dhaka". A value naming an option's text maps to its label;
// anything else is kept as its first token.
func answerLetter(value string, options []question.Option) string {
	value = strings.TrimSpace(value)
	if m := answerTokenPattern.FindStringSubmatch(value); m != nil {
		return normalizer.OptionLetter(m[1])
	}
	for _, o := range options {
		if strings.EqualFold(o.Text, value) {
			return o.Label
		}
	}
	if fields := strings.Fields(value); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// ParseMCQ extracts multiple-choice questions. Sections separated by "---" are
// scanned independently and do not share metadata.
func ParseMCQ(text string, lang question.Language) []question.MCQ {
	if lang == "" {
		lang = normalizer.DetectLanguage(text)
	}
	var out []question.MCQ
	for _, section := range splitSections(normalizer.Lines(text)) {
		s := newMCQScanner(lang)
		for _, line := range section {
			s.feed(classifyMCQLine(line))
		}
		s.flush()
		out = append(out, s.out...)
	}
	return out
}
