package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

func TestParseSQ_GroupedMode(t *testing.T) {
	input := `[Subject: Biology]
1. Answer briefly:
a. What is a cell? (2)
b. What is DNA? (2)
c. Unmatched question (2)
Answer:
b. Genetic material.
a. The unit of life.
spans two lines`

	got := ParseSQ(input, question.LanguageEnglish)

	require.Len(t, got, 2)
	assert.Equal(t, question.SQ{
		Metadata: question.Metadata{Subject: "Biology"},
		Language: question.LanguageEnglish,
		Question: "What is a cell?",
		Answer:   "The unit of life.\nspans two lines",
	}, got[0])
	assert.Equal(t, "What is DNA?", got[1].Question)
	assert.Equal(t, "Genetic material.", got[1].Answer)
}

func TestParseSQ_GroupedBengali(t *testing.T) {
	input := "ক. কোষ কী?\nখ. ডিএনএ কী?\nউত্তর:\nক. জীবের একক।\nখ. বংশগতির উপাদান।"

	got := ParseSQ(input, question.LanguageBengali)

	require.Len(t, got, 2)
	assert.Equal(t, norm.NFC.String("কোষ কী?"), got[0].Question)
	assert.Equal(t, norm.NFC.String("বংশগতির উপাদান।"), got[1].Answer)
}

func TestParseSQ_SequentialMode(t *testing.T) {
	input := `1. What is H2O? Answer: Water
2. What is NaCl?
Answer:
Salt
3. Name a noble gas.
A: Neon
4. Question without answer`

	got := ParseSQ(input, question.LanguageEnglish)

	require.Len(t, got, 4)
	assert.Equal(t, "What is H2O?", got[0].Question)
	assert.Equal(t, "Water", got[0].Answer)
	assert.Equal(t, "What is NaCl?", got[1].Question)
	assert.Equal(t, "Salt", got[1].Answer)
	assert.Equal(t, "Neon", got[2].Answer)
	assert.Equal(t, "Question without answer", got[3].Question)
	assert.Empty(t, got[3].Answer)

	t.Run("title line is not a pair", func(t *testing.T) {
		got := ParseSQ("Short questions on motion\n1. What is speed?\nAnswer: distance/time", question.LanguageEnglish)

		require.Len(t, got, 1)
		assert.Equal(t, "What is speed?", got[0].Question)
		assert.Equal(t, "distance/time", got[0].Answer)
	})

	t.Run("unnumbered question followed by answer", func(t *testing.T) {
		got := ParseSQ("Short questions on motion\nWhat is speed?\nAnswer: distance/time", question.LanguageEnglish)

		require.Len(t, got, 1)
		assert.Equal(t, "What is speed?", got[0].Question)
	})
}

func TestParseSQ_SequentialBengali(t *testing.T) {
	got := ParseSQ("১। কোষ কী?\nউত্তর: জীবের একক।", question.LanguageBengali)

	require.Len(t, got, 1)
	assert.Equal(t, norm.NFC.String("কোষ কী?"), got[0].Question)
	assert.Equal(t, norm.NFC.String("জীবের একক।"), got[0].Answer)
}

func TestParseSQ_MetadataAcrossSections(t *testing.T) {
	got := ParseSQ("[Subject: Bio]\n1. q1 Answer: a1\n---\n1. q2 Answer: a2", question.LanguageEnglish)

	require.Len(t, got, 2)
	assert.Equal(t, "Bio", got[0].Subject)
	assert.Equal(t, "Bio", got[1].Subject)
	assert.Equal(t, "q2", got[1].Question)
	assert.Equal(t, "a2", got[1].Answer)
}

func TestParseSQ_ModeDetectionCounts(t *testing.T) {
	grouped := "a. one?\nb. two?\nc. three?\nAnswer:\na. 1\nc. 3"
	sequential := "1. one?\nAnswer: 1\n2. two?\nAnswer: 2\n3. three?\nAnswer: 3"

	assert.Len(t, ParseSQ(grouped, question.LanguageEnglish), 2)
	assert.Len(t, ParseSQ(sequential, question.LanguageEnglish), 3)
	assert.Empty(t, ParseSQ("Answer: orphan", question.LanguageEnglish))
}
