package search

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  int
		max  int
	}{
		{"identical", "what is dye?", "what is dye?", 100, 100},
		{"one word inserted", "what is dye?", "what is a dye?", 85, 99},
		{"contained", "define force", "define force in physics", 75, 99},
		{"unrelated", "what is dye?", "name the capital of france", 0, 50},
		{"empty", "", "", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := similarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}
}

func TestDuplicateDetector_Match(t *testing.T) {
	id := uuid.New()
	existing := []question.Question{
		question.MCQ{Key: &id, QuestionText: "What is **dye**?"},
		question.SQ{Question: "Define force."},
	}
	d := NewDuplicateDetector(existing)
	assert.Equal(t, 2, d.Size())

	t.Run("near duplicate of same kind", func(t *testing.T) {
		dup := d.Match(question.MCQ{QuestionText: "What  is a dye?"}, DefaultThreshold)
		require.NotNil(t, dup)
		assert.Equal(t, &id, dup.ID)
		assert.Equal(t, "What is **dye**?", dup.Text)
		assert.Equal(t, 2, dup.Distance)
	})

	t.Run("other kind is ignored", func(t *testing.T) {
		assert.Nil(t, d.Match(question.SQ{Question: "What is dye?"}, DefaultThreshold))
	})

	t.Run("below threshold", func(t *testing.T) {
		assert.Nil(t, d.Match(question.MCQ{QuestionText: "Name the noble gases"}, DefaultThreshold))
	})

	t.Run("match all reports candidate index", func(t *testing.T) {
		dups := d.MatchAll([]question.Question{
			question.SQ{Question: "Something new"},
			question.SQ{Question: "Define force"},
		}, DefaultThreshold)
		require.Len(t, dups, 1)
		assert.Equal(t, 1, dups[0].Index)
	})

	t.Run("added questions are matched", func(t *testing.T) {
		d.Add(question.CQ{QuestionText: "A ball is thrown upward."})
		assert.NotNil(t, d.Match(question.CQ{QuestionText: "A ball is thrown upward"}, DefaultThreshold))
	})
}

func TestGroupSimilar(t *testing.T) {
	groups := GroupSimilar([]string{
		"What is dye?",
		"Define force",
		"What is a dye?",
		"what is dye ?",
	}, 80)

	require.Len(t, groups, 2)
	assert.Equal(t, []int{0, 2, 3}, groups[0])
	assert.Equal(t, []int{1}, groups[1])
}
