package parser

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// FormatMCQ renders q in the canonical text convention read back by ParseMCQ:
// a metadata line, "N. stem", "a) option" lines, "Correct:" and "Explanation:".
func FormatMCQ(n int, q question.MCQ) string {
	var b strings.Builder
	if meta := formatMetadata(q.Metadata); meta != "" {
		b.WriteString(meta)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d. %s\n", n, q.QuestionText)
	for _, o := range q.Options {
		fmt.Fprintf(&b, "%s) %s\n", o.Label, o.Text)
	}
	if q.CorrectAnswer != "" {
		fmt.Fprintf(&b, "Correct: %s\n", q.CorrectAnswer)
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "Explanation: %s\n", q.Explanation)
	}
	return b.String()
}

// FormatMCQs renders a list of questions. Questions are placed in separate sections
// so each one re-parses with exactly its own metadata.
func FormatMCQs(qs []question.MCQ) string {
	blocks := make([]string, 0, len(qs))
	for i, q := range qs {
		blocks = append(blocks, FormatMCQ(i+1, q))
	}
	return strings.Join(blocks, "---\n")
}

// FormatCQ renders q as a stem, a lettered question block with marks and a
// lettered answer block.
func FormatCQ(n int, q question.CQ) string {
	var b strings.Builder
	if meta := formatMetadata(q.Metadata); meta != "" {
		b.WriteString(meta)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d. Stem: %s\n", n, q.QuestionText)
	if q.Image != "" {
		b.WriteString(question.ImagePlaceholder + "\n")
	}
	b.WriteString("Question:\n")
	for _, p := range q.Parts {
		if p.Marks > 0 {
			fmt.Fprintf(&b, "%s. %s (%d)\n", p.Letter, p.Text, p.Marks)
			continue
		}
		fmt.Fprintf(&b, "%s. %s\n", p.Letter, p.Text)
	}
	b.WriteString("Answer:\n")
	for _, p := range q.Parts {
		if p.Answer != "" {
			fmt.Fprintf(&b, "%s. %s\n", p.Letter, p.Answer)
		}
	}
	return b.String()
}

// FormatSQ renders q as a numbered question followed by an "Answer:" line
func FormatSQ(n int, q question.SQ) string {
	var b strings.Builder
	if meta := formatMetadata(q.Metadata); meta != "" {
		b.WriteString(meta)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d. %s\n", n, q.Question)
	if q.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n", q.Answer)
	}
	return b.String()
}

// Format renders any mix of records, one section per record
func Format(qs []question.Question) string {
	blocks := make([]string, 0, len(qs))
	for i, q := range qs {
		switch v := q.(type) {
		case question.MCQ:
			blocks = append(blocks, FormatMCQ(i+1, v))
		case question.CQ:
			blocks = append(blocks, FormatCQ(i+1, v))
		case question.SQ:
			blocks = append(blocks, FormatSQ(i+1, v))
		}
	}
	return strings.Join(blocks, "---\n")
}

func formatMetadata(m question.Metadata) string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf("[%s: %s]", key, value))
		}
	}
	add("Subject", m.Subject)
	add("Chapter", m.Chapter)
	add("Lesson", m.Lesson)
	add("Board", m.Board)
	return strings.Join(parts, " ")
}
