package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

func TestOptionLetter_Closure(t *testing.T) {
	encodings := map[string][]string{
		"ascii letters":   {"a", "b", "c", "d"},
		"bengali letters": {"ক", "খ", "গ", "ঘ"},
		"ascii digits":    {"1", "2", "3", "4"},
		"bengali digits":  {"১", "২", "৩", "৪"},
	}

	for name, tokens := range encodings {
		t.Run(name, func(t *testing.T) {
			seen := make(map[string]bool)
			for i, tok := range tokens {
				got := OptionLetter(tok)
				assert.Contains(t, OptionLetters, got)
				assert.Equal(t, OptionLetters[i], got, "token %q", tok)
				assert.True(t, IsOptionLetter(tok))
				seen[got] = true
			}
			assert.Len(t, seen, 4, "mapping must be a bijection onto a-d")
		})
	}
}

func TestOptionLetter_PassThrough(t *testing.T) {
	tests := []string{"e", "5", "৫", "ঙ", "", "ab"}
	for _, tok := range tests {
		assert.Equal(t, tok, OptionLetter(tok))
		assert.False(t, IsOptionLetter(tok))
	}
	assert.Equal(t, "c", OptionLetter("C"))
}

func TestAtoi(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"১২", 12},
		{" ৩ ", 3},
		{"২০২৪", 2024},
	}
	for _, tt := range tests {
		got, err := Atoi(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Atoi("x")
	assert.Error(t, err)
}

func TestLetterFromIndex(t *testing.T) {
	assert.Equal(t, "a", LetterFromIndex(0))
	assert.Equal(t, "d", LetterFromIndex(3))
	assert.Equal(t, "", LetterFromIndex(4))
	assert.Equal(t, "", LetterFromIndex(-1))
}

func TestCleanText(t *testing.T) {
	in := "\ufeffWhat\u200b is\r\ndye?\r"
	assert.Equal(t, "What is\ndye?\n", CleanText(in))

	// decomposed o-kar composes under NFC
	assert.Equal(t, "\u0995\u09cb", CleanText("\u0995\u09c7\u09be"))

	// ZWNJ survives
	assert.Equal(t, "\u09b0\u200c\u09af", CleanText("\u09b0\u200c\u09af"))
}

func TestLines(t *testing.T) {
	lines := Lines("**[Subject: Physics]**\r\n**1.** What is dye?")
	require.Len(t, lines, 2)
	assert.Equal(t, "[Subject: Physics]", lines[0])
	assert.Equal(t, "1. What is dye?", lines[1])
	assert.Equal(t, norm.NFC.String("বিষয়"), Lines("বিষয়")[0])
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want question.Language
	}{
		{"english", "1. What is dye?\na) X", question.LanguageEnglish},
		{"bengali", "১. রং কী?\nক) লাল", question.LanguageBengali},
		{"mixed mostly bengali", "১. DNA কী? এটি কোষের কেন্দ্রে থাকে", question.LanguageBengali},
		{"empty", "", question.LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}
