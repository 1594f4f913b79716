package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

var (
	stemHeaderPattern     = bn(`(?i)^(?:উদ্দীপক|stem|stimulus|scenario)\s*(?:[:：ঃ\-]\s*(.*))?$`)
	questionHeaderPattern = bn(`(?i)^(?:প্রশ্ন(?:সমূহ)?|questions?)\s*(?:no\.?\s*)?([0-9০-৯]+)?\s*(?:[:：ঃ.।\-]\s*(.*))?$`)
	answerHeaderPattern   = bn(`(?i)^(?:উত্তর(?:মালা)?|answers?|ans|solutions?)\s*(?:[:：ঃ.।\-]\s*(.*))?$`)
	partPattern           = bn(`^(?:\(\s*([a-dA-Dক-ঘ])\s*\)|([a-dA-Dক-ঘ])\s*[.)।:])\s*(.*)$`)
	bulletPattern         = regexp.MustCompile(`^[·•]\s*(.*)$`)
	imagePattern          = bn(`(?i)^\[?\s*(?:picture|image|img|ছবি|চিত্র)\s*\]?$`)
	boardTokenPattern     = regexp.MustCompile(`^\(([^)]*)\)\s*(.*)$`)
)

type cqLineKind int

const (
	cqBlank cqLineKind = iota
	cqSeparator
	cqMetadata
	cqImage
	cqStemHeader
	cqQuestionHeader
	cqAnswerHeader
	cqNumbered
	cqPart
	cqBullet
	cqText
)

type cqLine struct {
	kind   cqLineKind
	letter string
	number string
	text   string
	raw    string
	meta   question.Metadata
}

func classifyCQLine(line string) cqLine {
	trimmed := strings.TrimSpace(line)
	l := cqLine{raw: trimmed}
	switch {
	case trimmed == "":
		l.kind = cqBlank
	case separatorPattern.MatchString(trimmed):
		l.kind = cqSeparator
	case imagePattern.MatchString(trimmed):
		l.kind = cqImage
	default:
		if meta, ok := parseMetadataLine(trimmed); ok {
			l.kind, l.meta = cqMetadata, meta
			return l
		}
		if m := stemHeaderPattern.FindStringSubmatch(trimmed); m != nil {
			l.kind, l.text = cqStemHeader, strings.TrimSpace(m[1])
			return l
		}
		if m := questionHeaderPattern.FindStringSubmatch(trimmed); m != nil {
			l.kind, l.number, l.text = cqQuestionHeader, m[1], strings.TrimSpace(m[2])
			return l
		}
		if m := answerHeaderPattern.FindStringSubmatch(trimmed); m != nil {
			l.kind, l.text = cqAnswerHeader, strings.TrimSpace(m[1])
			return l
		}
		if m := numberedPattern.FindStringSubmatch(trimmed); m != nil {
			l.kind, l.number, l.text = cqNumbered, m[1], strings.TrimSpace(m[2])
			return l
		}
		if m := partPattern.FindStringSubmatch(trimmed); m != nil {
			l.kind = cqPart
			l.letter = normalizer.OptionLetter(coalesce(m[1], m[2]))
			l.text = strings.TrimSpace(m[3])
			return l
		}
		if m := bulletPattern.FindStringSubmatch(trimmed); m != nil {
			l.kind, l.text = cqBullet, strings.TrimSpace(m[1])
			return l
		}
		l.kind, l.text = cqText, trimmed
	}
	return l
}

type cqSection int

const (
	cqInStimulus cqSection = iota
	cqInQuestions
	cqInAnswers
)

// cqScanner carries metadata, pending stem and pending image across the whole
// document; everything else is reset when a question is finalized.
type cqScanner struct {
	lang question.Language
	meta question.Metadata

	section         cqSection
	stem            []string
	image           string
	board           string
	parts           []question.CQPart
	hasStartedParts bool
	partExtended    bool
	answerTarget    int
	bulletIndex     int

	pendingStem  []string
	pendingImage string

	out []question.CQ
}

func newCQScanner(lang question.Language) *cqScanner {
	return &cqScanner{lang: lang, answerTarget: -1}
}

func (s *cqScanner) feed(l cqLine) {
	switch l.kind {
	case cqBlank:
	case cqSeparator:
		s.finalize()
	case cqMetadata:
		if s.hasStartedParts {
			s.finalize()
		}
		s.meta = s.meta.Merge(l.meta)
	case cqImage:
		if s.hasStartedParts {
			s.finalize()
		}
		s.image = question.ImagePlaceholder
	case cqStemHeader:
		if s.hasStartedParts {
			s.finalize()
		}
		s.section = cqInStimulus
		s.addStem(l.text)
	case cqQuestionHeader:
		if s.hasStartedParts {
			s.finalize()
		}
		s.section = cqInQuestions
		rest := l.text
		if m := boardTokenPattern.FindStringSubmatch(rest); m != nil {
			s.board = strings.TrimSpace(m[1])
			rest = strings.TrimSpace(m[2])
		}
		s.feedRest(rest)
	case cqAnswerHeader:
		s.section = cqInAnswers
		s.answerTarget = -1
		s.bulletIndex = 0
		if l.text == "" {
			return
		}
		// "Answer: ..." right after a part answers that part
		rest := classifyCQLine(l.text)
		if rest.kind == cqText && len(s.parts) > 0 {
			s.setAnswer(len(s.parts)-1, rest.text)
			return
		}
		s.feed(rest)
	case cqNumbered:
		if s.hasStartedParts {
			s.finalize()
		} else if len(s.stem) > 0 {
			s.addStem(l.raw)
			return
		}
		s.section = cqInStimulus
		s.feedRest(l.text)
	case cqPart:
		s.handlePart(l.letter, l.text)
	case cqBullet:
		if !s.hasStartedParts {
			s.addStem(l.text)
			return
		}
		s.section = cqInAnswers
		if s.bulletIndex < len(s.parts) {
			s.setAnswer(s.bulletIndex, l.text)
		}
		s.bulletIndex++
	case cqText:
		s.handleText(l.text)
	}
}

// feedRest classifies the remainder of a header line as a line of its own
func (s *cqScanner) feedRest(rest string) {
	if rest == "" {
		return
	}
	s.feed(classifyCQLine(rest))
}

func (s *cqScanner) handlePart(letter, text string) {
	if s.section == cqInAnswers {
		s.answerTarget = -1
		for i := range s.parts {
			if s.parts[i].Letter == letter {
				s.setAnswer(i, text)
				return
			}
		}
		// the next part with a marks annotation reopens the question section when
		// answers are interleaved with parts
		if _, marks := splitMarks(text); marks == 0 || letter != s.nextPartLetter() {
			return
		}
	}

	if s.hasStartedParts {
		for _, p := range s.parts {
			if p.Letter == letter {
				s.finalize()
				break
			}
		}
	}

	body, marks := splitMarks(text)
	s.parts = append(s.parts, question.CQPart{Letter: letter, Text: body, Marks: marks})
	s.hasStartedParts = true
	s.partExtended = false
	s.section = cqInQuestions
}

// nextPartLetter is the letter following the last part, or "" after d
func (s *cqScanner) nextPartLetter() string {
	if len(s.parts) == 0 {
		return normalizer.LetterFromIndex(0)
	}
	last := s.parts[len(s.parts)-1].Letter
	if len(last) != 1 || last[0] < 'a' || last[0] >= 'd' {
		return ""
	}
	return string(last[0] + 1)
}

func (s *cqScanner) setAnswer(i int, text string) {
	s.parts[i].Answer = ""
	appendLine(&s.parts[i].Answer, text, "\n")
	s.answerTarget = i
}

// handleText routes an unstructured line. Once parts have started the stem is
// closed: a single line may extend the last part while that part has no marks yet.
func (s *cqScanner) handleText(text string) {
	switch {
	case s.section == cqInAnswers:
		if s.answerTarget >= 0 {
			appendLine(&s.parts[s.answerTarget].Answer, text, "\n")
		}
	case s.hasStartedParts:
		last := &s.parts[len(s.parts)-1]
		if last.Marks != 0 || s.partExtended {
			return
		}
		body, marks := splitMarks(text)
		appendLine(&last.Text, body, " ")
		last.Marks = marks
		s.partExtended = true
	default:
		s.addStem(text)
	}
}

func (s *cqScanner) addStem(text string) {
	if text = strings.TrimSpace(text); text != "" {
		s.stem = append(s.stem, text)
	}
}

// finalize emits the question under construction when it has a non-empty part.
// A block without parts hands its stem and image to the next question.
func (s *cqScanner) finalize() {
	var parts []question.CQPart
	for _, p := range s.parts {
		if strings.TrimSpace(p.Text) != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) > 0 {
		meta := s.meta
		if s.board != "" {
			meta.Board = s.board
		}
		stem := append(append([]string{}, s.pendingStem...), s.stem...)
		s.out = append(s.out, question.CQ{
			Metadata:     meta,
			Language:     s.lang,
			QuestionText: strings.Join(stem, "\n"),
			Parts:        parts,
			Image:        coalesce(s.image, s.pendingImage),
		})
		s.pendingStem = nil
		s.pendingImage = ""
		s.board = ""
	} else {
		s.pendingStem = append(s.pendingStem, s.stem...)
		if s.image != "" {
			s.pendingImage = s.image
		}
	}

	s.section = cqInStimulus
	s.stem = nil
	s.image = ""
	s.parts = nil
	s.hasStartedParts = false
	s.partExtended = false
	s.answerTarget = -1
	s.bulletIndex = 0
}

// ParseCQ extracts creative questions. Metadata, a stem without parts and an image
// marker all carry forward to the next question, across "---" separators.
func ParseCQ(text string, lang question.Language) []question.CQ {
	if lang == "" {
		lang = normalizer.DetectLanguage(text)
	}
	s := newCQScanner(lang)
	for _, line := range normalizer.Lines(text) {
		s.feed(classifyCQLine(line))
	}
	s.finalize()
	return s.out
}
