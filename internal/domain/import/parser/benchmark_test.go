package parser

import (
	"fmt"
	"testing"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

func generateMCQDocument(n int) string {
	gen := question.NewTestDataGeneratorWithSeed(7)
	return FormatMCQs(gen.MCQs(gen.Metadata(), n))
}

func BenchmarkParseMCQ(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		doc := generateMCQDocument(size)
		b.Run(fmt.Sprintf("questions_%d", size), func(b *testing.B) {
			b.SetBytes(int64(len(doc)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ParseMCQ(doc, question.LanguageEnglish)
			}
		})
	}
}

func BenchmarkParseCQ(b *testing.B) {
	gen := question.NewTestDataGeneratorWithSeed(7)
	meta := gen.Metadata()
	records := make([]question.Question, 200)
	for i := range records {
		records[i] = gen.CQ(meta)
	}
	doc := Format(records)

	b.SetBytes(int64(len(doc)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseCQ(doc, question.LanguageEnglish)
	}
}

func BenchmarkClassifyMCQLine(b *testing.B) {
	lines := []string{"[Subject: Physics]", "1. What is dye?", "a) X", "Correct: a", "Explanation: because", "plain continuation"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		classifyMCQLine(lines[i%len(lines)])
	}
}
