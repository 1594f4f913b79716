package search

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

func withID(q question.Question) (question.Question, uuid.UUID) {
	id := uuid.New()
	switch v := q.(type) {
	case question.MCQ:
		v.Key = &id
		return v, id
	case question.CQ:
		v.Key = &id
		return v, id
	case question.SQ:
		v.Key = &id
		return v, id
	}
	return q, id
}

func TestIndex_InMemory(t *testing.T) {
	index, err := NewIndex("")
	require.NoError(t, err)
	defer index.Close()

	mcq, mcqID := withID(question.MCQ{
		Metadata:     question.Metadata{Subject: "Chemistry"},
		QuestionText: "Which dye is used in litmus paper?",
		Options:      []question.Option{{Label: "a", Text: "Lichen"}, {Label: "b", Text: "Indigo"}},
	})
	sq, sqID := withID(question.SQ{
		Metadata: question.Metadata{Subject: "Physics"},
		Language: question.LanguageBengali,
		Question: "বল কাকে বলে?",
		Answer:   "যা বস্তুর গতির পরিবর্তন ঘটায়",
	})
	cq, _ := withID(question.CQ{
		Metadata:     question.Metadata{Subject: "Physics"},
		QuestionText: "A car accelerates uniformly from rest.",
		Parts:        []question.CQPart{{Letter: "a", Text: "Define acceleration", Marks: 1}},
	})
	unsaved := question.SQ{Question: "no id yet", Answer: "x"}

	n, err := index.IndexQuestions([]question.Question{mcq, sq, cq, unsaved})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	t.Run("basic search", func(t *testing.T) {
		results, err := index.Search("litmus", Filter{}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, mcqID, results[0].ID)
		assert.Equal(t, question.KindMCQ, results[0].Kind)
		assert.Equal(t, "Chemistry", results[0].Subject)
	})

	t.Run("option text is searchable", func(t *testing.T) {
		results, err := index.Search("indigo", Filter{}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, mcqID, results[0].ID)
	})

	t.Run("typo tolerance", func(t *testing.T) {
		results, err := index.Search("litmos", Filter{}, 10)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, mcqID, results[0].ID)
	})

	t.Run("bengali words keep their vowel signs", func(t *testing.T) {
		results, err := index.Search("কাকে", Filter{}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, sqID, results[0].ID)
	})

	t.Run("filter by kind", func(t *testing.T) {
		results, err := index.Search("accelerates", Filter{Kind: question.KindSQ}, 10)
		require.NoError(t, err)
		assert.Empty(t, results)

		results, err = index.Search("accelerates", Filter{Kind: question.KindCQ, Subject: "Physics"}, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("prefix search", func(t *testing.T) {
		results, err := index.SearchWithPrefix("Whi", Filter{}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, mcqID, results[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, index.Delete(mcqID))
		results, err := index.Search("litmus", Filter{}, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestIndex_Rebuild(t *testing.T) {
	index, err := NewIndex("")
	require.NoError(t, err)
	defer index.Close()

	gen := question.NewTestDataGeneratorWithSeed(3)
	var qs []question.Question
	for _, m := range gen.MCQs(gen.Metadata(), 5) {
		q, _ := withID(m)
		qs = append(qs, q)
	}

	_, err = index.IndexQuestions(qs)
	require.NoError(t, err)

	n, err := index.Rebuild(qs[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestIndex_Persistent(t *testing.T) {
	path := t.TempDir() + "/questions.bleve"

	index, err := NewIndex(path)
	require.NoError(t, err)
	q, _ := withID(question.SQ{Question: "What is inertia?", Answer: "Resistance to change in motion"})
	_, err = index.IndexQuestions([]question.Question{q})
	require.NoError(t, err)
	require.NoError(t, index.Close())

	reopened, err := NewIndex(path)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
