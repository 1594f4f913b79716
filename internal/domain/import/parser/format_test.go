package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

func TestFormatMCQ(t *testing.T) {
	q := question.MCQ{
		Metadata:      question.Metadata{Subject: "Physics", Board: "Dhaka"},
		QuestionText:  "What is dye?",
		Options:       []question.Option{{Label: "a", Text: "X"}, {Label: "b", Text: "Y"}},
		CorrectAnswer: "a",
		Explanation:   "because X.",
	}

	want := "[Subject: Physics] [Board: Dhaka]\n1. What is dye?\na) X\nb) Y\nCorrect: a\nExplanation: because X.\n"
	assert.Equal(t, want, FormatMCQ(1, q))
}

func TestFormat_RoundTrip(t *testing.T) {
	gen := question.NewTestDataGeneratorWithSeed(42)

	t.Run("mcq", func(t *testing.T) {
		var qs []question.MCQ
		for i := 0; i < 10; i++ {
			qs = append(qs, gen.MCQ(gen.Metadata()))
		}
		qs = append(qs, question.MCQ{Language: question.LanguageEnglish, QuestionText: "Bare?", Options: []question.Option{{Label: "a", Text: "only"}}})

		got := ParseMCQ(FormatMCQs(qs), question.LanguageEnglish)

		require.Len(t, got, len(qs))
		assert.Equal(t, qs, got)
	})

	t.Run("cq", func(t *testing.T) {
		meta := gen.Metadata()
		var records []question.Question
		var want []question.CQ
		for i := 0; i < 5; i++ {
			q := gen.CQ(meta)
			records = append(records, q)
			want = append(want, q)
		}

		got := ParseCQ(Format(records), question.LanguageEnglish)

		assert.Equal(t, want, got)
	})

	t.Run("sq", func(t *testing.T) {
		meta := gen.Metadata()
		var records []question.Question
		var want []question.SQ
		for i := 0; i < 5; i++ {
			q := gen.SQ(meta)
			records = append(records, q)
			want = append(want, q)
		}

		got := ParseSQ(Format(records), question.LanguageEnglish)

		assert.Equal(t, want, got)
	})
}
