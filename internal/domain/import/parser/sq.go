package parser

import (
	"strings"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

var (
	sqDividerPattern      = bn(`(?i)^(?:answers?|ans|solutions?|উত্তর(?:মালা)?)\s*[:：ঃ.\-]?\s*$`)
	sqStartPattern        = bn(`(?i)^(?:([0-9০-৯]+)\s*[.।)]|(?:Q|প্রশ্ন)\s*[0-9০-৯]*\s*[:：ঃ.])\s*(.*)$`)
	sqInlineAnswerPattern = bn(`(?i)^(.*?)(?:^|\s)(?:answer|ans|উত্তর)\s*[:：ঃ]\s*(.*)$`)
	sqAnswerPattern       = bn(`(?i)^(?:(?:answers?|ans|উত্তর)\s*[:：ঃ.\-]|a\s*[:：])\s*(.*)$`)
)

// sqEntry is one lettered line of a grouped block
type sqEntry struct {
	letter string
	text   string
}

// ParseSQ extracts short question/answer pairs. A section whose questions and answers
// are both lettered and split by an answer divider is matched by letter; anything else
// is read as numbered pairs. Metadata carries forward across sections.
func ParseSQ(text string, lang question.Language) []question.SQ {
	if lang == "" {
		lang = normalizer.DetectLanguage(text)
	}
	var (
		meta question.Metadata
		out  []question.SQ
	)
	for _, section := range splitSections(normalizer.Lines(text)) {
		var records []question.SQ
		if divider, ok := groupedDivider(section); ok {
			records, meta = parseGroupedSQ(section, divider, meta, lang)
		} else {
			records, meta = parseSequentialSQ(section, meta, lang)
		}
		out = append(out, records...)
	}
	return out
}

// groupedDivider finds the standalone answer divider of a grouped block: both the
// lines before it and the lines after it must contain lettered entries.
func groupedDivider(lines []string) (int, bool) {
	for i, line := range lines {
		if !sqDividerPattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		if hasLetteredLine(lines[:i]) && hasLetteredLine(lines[i+1:]) {
			return i, true
		}
		return 0, false
	}
	return 0, false
}

func hasLetteredLine(lines []string) bool {
	for _, line := range lines {
		if partPattern.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// collectLettered groups lines under their letter. Metadata lines update meta;
// lines before the first letter are dropped.
func collectLettered(lines []string, meta *question.Metadata) []sqEntry {
	var entries []sqEntry
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m, ok := parseMetadataLine(trimmed); ok {
			*meta = meta.Merge(m)
			continue
		}
		if m := partPattern.FindStringSubmatch(trimmed); m != nil {
			entries = append(entries, sqEntry{
				letter: normalizer.OptionLetter(coalesce(m[1], m[2])),
				text:   strings.TrimSpace(m[3]),
			})
			continue
		}
		if len(entries) > 0 {
			appendLine(&entries[len(entries)-1].text, trimmed, "\n")
		}
	}
	return entries
}

func parseGroupedSQ(lines []string, divider int, meta question.Metadata, lang question.Language) ([]question.SQ, question.Metadata) {
	questions := collectLettered(lines[:divider], &meta)
	answers := collectLettered(lines[divider+1:], &meta)

	byLetter := make(map[string]string, len(answers))
	for _, a := range answers {
		if _, seen := byLetter[a.letter]; !seen {
			byLetter[a.letter] = a.text
		}
	}

	var out []question.SQ
	for _, q := range questions {
		body, _ := splitMarks(q.text)
		answer := byLetter[q.letter]
		if body == "" || answer == "" {
			continue
		}
		out = append(out, question.SQ{
			Metadata: meta,
			Language: lang,
			Question: body,
			Answer:   answer,
		})
	}
	return out, meta
}

// sqScanner reads numbered question/answer pairs
type sqScanner struct {
	lang     question.Language
	meta     question.Metadata
	current  *question.SQ
	inAnswer bool
	// pending holds the last unnumbered line outside a pair; an answer marker
	// promotes it to a question, anything else discards it
	pending string
	out     []question.SQ
}

func (s *sqScanner) feed(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if m, ok := parseMetadataLine(trimmed); ok {
		s.flush()
		s.pending = ""
		s.meta = s.meta.Merge(m)
		return
	}
	if m := sqStartPattern.FindStringSubmatch(trimmed); m != nil {
		s.start(m[2])
		return
	}
	if sqDividerPattern.MatchString(trimmed) {
		s.openPending()
		if s.current != nil {
			s.inAnswer = true
		}
		return
	}
	if m := sqAnswerPattern.FindStringSubmatch(trimmed); m != nil {
		s.openPending()
		if s.current == nil {
			return
		}
		s.inAnswer = true
		appendLine(&s.current.Answer, m[1], "\n")
		return
	}
	if s.current == nil {
		s.pending = trimmed
		return
	}
	if s.inAnswer {
		appendLine(&s.current.Answer, trimmed, "\n")
		return
	}
	appendLine(&s.current.Question, trimmed, "\n")
}

// openPending starts a pair from a held unnumbered question line
func (s *sqScanner) openPending() {
	if s.current == nil && s.pending != "" {
		s.start(s.pending)
	}
}

// start opens a pair; an inline "Answer:" splits the line immediately
func (s *sqScanner) start(text string) {
	s.flush()
	s.pending = ""
	s.current = &question.SQ{Metadata: s.meta, Language: s.lang}
	if m := sqInlineAnswerPattern.FindStringSubmatch(text); m != nil {
		s.current.Question = strings.TrimSpace(m[1])
		s.current.Answer = strings.TrimSpace(m[2])
		s.inAnswer = true
		return
	}
	s.current.Question = strings.TrimSpace(text)
}

func (s *sqScanner) flush() {
	q := s.current
	s.current = nil
	s.inAnswer = false
	if q == nil || q.Question == "" {
		return
	}
	s.out = append(s.out, *q)
}

func parseSequentialSQ(lines []string, meta question.Metadata, lang question.Language) ([]question.SQ, question.Metadata) {
	s := &sqScanner{lang: lang, meta: meta}
	for _, line := range lines {
		s.feed(line)
	}
	s.flush()
	return s.out, s.meta
}
