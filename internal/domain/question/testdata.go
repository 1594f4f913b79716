package question

import (
	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator builds realistic question records for tests and benchmarks.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// Metadata generates a full metadata block
func (g *TestDataGenerator) Metadata() Metadata {
	return Metadata{
		Subject: g.faker.RandomString([]string{"Physics", "Chemistry", "Biology", "Mathematics", "ICT"}),
		Chapter: g.faker.Word(),
		Lesson:  g.faker.Word(),
		Board:   g.faker.RandomString([]string{"Dhaka", "Rajshahi", "Chattogram", "Sylhet"}),
	}
}

// MCQ generates a multiple-choice question with two to four options
func (g *TestDataGenerator) MCQ(meta Metadata) MCQ {
	n := g.faker.Number(2, 4)
	options := make([]Option, n)
	for i := range options {
		options[i] = Option{Label: optionLabels[i], Text: g.faker.Word()}
	}
	return MCQ{
		Metadata:      meta,
		Language:      LanguageEnglish,
		QuestionText:  g.faker.Sentence(8),
		Options:       options,
		CorrectAnswer: optionLabels[g.faker.Number(0, n-1)],
		Explanation:   g.faker.Sentence(10),
	}
}

// MCQs generates count questions sharing one metadata block
func (g *TestDataGenerator) MCQs(meta Metadata, count int) []MCQ {
	qs := make([]MCQ, count)
	for i := range qs {
		qs[i] = g.MCQ(meta)
	}
	return qs
}

// CQ generates a creative question with four parts and ascending marks
func (g *TestDataGenerator) CQ(meta Metadata) CQ {
	parts := make([]CQPart, len(optionLabels))
	for i := range parts {
		parts[i] = CQPart{
			Letter: optionLabels[i],
			Text:   g.faker.Sentence(6),
			Marks:  i + 1,
			Answer: g.faker.Sentence(12),
		}
	}
	q := CQ{
		Metadata:     meta,
		Language:     LanguageEnglish,
		QuestionText: g.faker.Sentence(20),
		Parts:        parts,
	}
	if g.faker.Bool() {
		q.Image = ImagePlaceholder
	}
	return q
}

// SQ generates a short question/answer pair
func (g *TestDataGenerator) SQ(meta Metadata) SQ {
	return SQ{
		Metadata: meta,
		Language: LanguageEnglish,
		Question: g.faker.Sentence(7),
		Answer:   g.faker.Sentence(8),
	}
}

var optionLabels = []string{"a", "b", "c", "d"}
