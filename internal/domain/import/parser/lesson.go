package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

var (
	lessonSubjectPattern  = bn(`(?i)^#*\s*(?:subject|বিষয়)\s*[:：ঃ]\s*(.*)$`)
	lessonChapterPattern  = bn(`(?i)^#*\s*(?:chapter|অধ্যায়)\s*[:：ঃ]\s*(.*)$`)
	chapterHeaderPattern  = regexp.MustCompile(`^#{1,2}\s+(.+)$`)
	topicHeaderPattern    = regexp.MustCompile(`^#{3}\s*([^#].*)$`)
	subtopicHeaderPattern = regexp.MustCompile(`^#{4,}\s*(.+)$`)
	topicPrefixPattern    = bn(`(?i)^(?:topic|টপিক)\s*[0-9০-৯]*\s*[:：ঃ.\-]\s*`)
	subtopicPrefixPattern = bn(`(?i)^(?:sub\s*-?\s*topic|সাবটপিক|উপবিষয়)\s*[0-9০-৯]*\s*[:：ঃ.\-]\s*`)
	reviewHeaderPattern   = bn(`(?i)review\s+questions|পর্যালোচনা|অনুশীলনী`)
	lessonFieldPattern    = bn(`(?i)^[-•]?\s*(definition|explanation|shortcuts?|(?:common\s+)?mistakes?|difficulty|সংজ্ঞা|ব্যাখ্যা|শর্টকাট|(?:সাধারণ\s+)?ভুল|কাঠিন্য)\s*[:：ঃ]\s*(.*)$`)
)

// DefaultTopicTitle names the topic created for content that precedes any topic header
const DefaultTopicTitle = "General"

type lessonField int

const (
	fieldNone lessonField = iota
	fieldDefinition
	fieldExplanation
	fieldShortcut
	fieldMistakes
	fieldDifficulty
)

func lookupLessonField(label string) lessonField {
	label = strings.ToLower(label)
	switch {
	case strings.HasPrefix(label, "definition"), label == bnDefinition:
		return fieldDefinition
	case strings.HasPrefix(label, "explanation"), label == bnExplanation:
		return fieldExplanation
	case strings.HasPrefix(label, "shortcut"), label == bnShortcut:
		return fieldShortcut
	case strings.Contains(label, "mistake"), strings.HasSuffix(label, bnMistakes):
		return fieldMistakes
	case strings.HasPrefix(label, "difficulty"), label == bnDifficulty:
		return fieldDifficulty
	}
	return fieldNone
}

var (
	bnDefinition  = nfc("সংজ্ঞা")
	bnExplanation = nfc("ব্যাখ্যা")
	bnShortcut    = nfc("শর্টকাট")
	bnMistakes    = nfc("ভুল")
	bnDifficulty  = nfc("কাঠিন্য")
)

func (f lessonField) target(st *question.Subtopic) *string {
	switch f {
	case fieldDefinition:
		return &st.Definition
	case fieldExplanation:
		return &st.Explanation
	case fieldShortcut:
		return &st.Shortcut
	case fieldMistakes:
		return &st.Mistakes
	case fieldDifficulty:
		return &st.Difficulty
	}
	return nil
}

// lessonScanner builds the chapter tree. Review lines are buffered per topic and
// handed to the review-question grammar when the topic closes.
type lessonScanner struct {
	chapter  question.Chapter
	topic    int
	subtopic int
	field    lessonField
	inReview bool
	review   []string
}

func (s *lessonScanner) currentTopic() *question.Topic {
	if s.topic < 0 {
		title := coalesce(s.chapter.Chapter, DefaultTopicTitle)
		s.openTopic(title)
	}
	return &s.chapter.Topics[s.topic]
}

func (s *lessonScanner) openTopic(title string) {
	s.closeReview()
	s.chapter.Topics = append(s.chapter.Topics, question.Topic{
		Title:     title,
		Subtopics: []question.Subtopic{},
		Questions: []question.LessonMCQ{},
	})
	s.topic = len(s.chapter.Topics) - 1
	s.subtopic = -1
	s.field = fieldNone
}

func (s *lessonScanner) closeReview() {
	if len(s.review) > 0 && s.topic >= 0 {
		t := &s.chapter.Topics[s.topic]
		t.Questions = append(t.Questions, reviewQuestions(s.review)...)
	}
	s.review = nil
	s.inReview = false
}

func (s *lessonScanner) feed(line string) {
	trimmed := strings.TrimSpace(line)

	if m := topicHeaderPattern.FindStringSubmatch(trimmed); m != nil {
		title := strings.TrimSpace(m[1])
		if reviewHeaderPattern.MatchString(title) {
			s.currentTopic()
			s.closeReview()
			s.inReview = true
			s.field = fieldNone
			return
		}
		s.openTopic(strings.TrimSpace(topicPrefixPattern.ReplaceAllString(title, "")))
		return
	}

	if s.inReview {
		s.review = append(s.review, line)
		return
	}

	if trimmed == "" {
		return
	}
	if m := subtopicHeaderPattern.FindStringSubmatch(trimmed); m != nil {
		t := s.currentTopic()
		title := strings.TrimSpace(subtopicPrefixPattern.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		t.Subtopics = append(t.Subtopics, question.Subtopic{Title: title})
		s.subtopic = len(t.Subtopics) - 1
		s.field = fieldNone
		return
	}
	if m := lessonSubjectPattern.FindStringSubmatch(trimmed); m != nil {
		s.chapter.Subject = strings.TrimSpace(m[1])
		return
	}
	if m := lessonChapterPattern.FindStringSubmatch(trimmed); m != nil {
		s.chapter.Chapter = strings.TrimSpace(m[1])
		return
	}
	if m := chapterHeaderPattern.FindStringSubmatch(trimmed); m != nil {
		if s.chapter.Chapter == "" {
			s.chapter.Chapter = strings.TrimSpace(m[1])
		}
		return
	}
	if s.subtopic < 0 {
		return
	}
	st := &s.chapter.Topics[s.topic].Subtopics[s.subtopic]
	if m := lessonFieldPattern.FindStringSubmatch(trimmed); m != nil {
		s.field = lookupLessonField(m[1])
		if target := s.field.target(st); target != nil {
			appendLine(target, m[2], "\n")
		}
		return
	}
	if target := s.field.target(st); target != nil {
		appendLine(target, trimmed, "\n")
	}
}

// ParseLesson converts a markdown lesson outline into a chapter tree:
// "### Topic:" headers, "#### Subtopic N:" headers with their labelled fields, and
// a trailing review-questions block per topic.
func ParseLesson(text string) (*question.Chapter, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	s := &lessonScanner{
		chapter:  question.Chapter{Topics: []question.Topic{}},
		topic:    -1,
		subtopic: -1,
	}
	for _, line := range normalizer.Lines(text) {
		s.feed(line)
	}
	s.closeReview()
	return &s.chapter, nil
}

// ParseReviewQuestions reads only the review-question grammar ("Q1:", lettered options,
// "Correct:", "Explanation:") for adding a batch to an existing topic.
func ParseReviewQuestions(text string) []question.LessonMCQ {
	return reviewQuestions(normalizer.Lines(text))
}

func reviewQuestions(lines []string) []question.LessonMCQ {
	s := newMCQScanner(normalizer.DetectLanguage(strings.Join(lines, "\n")))
	for _, line := range lines {
		l := classifyMCQLine(line)
		if l.kind == mcqMetadata {
			l = mcqLine{kind: mcqText, text: strings.TrimSpace(line)}
		}
		s.feed(l)
	}
	s.flush()

	out := make([]question.LessonMCQ, 0, len(s.out))
	for _, q := range s.out {
		options := q.Options
		if options == nil {
			options = []question.Option{}
		}
		out = append(out, question.LessonMCQ{
			Question:      q.QuestionText,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return out
}
