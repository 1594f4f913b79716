package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// invisible runes that copy-paste from word processors leaves behind.
// ZWJ and ZWNJ are kept since they change Bengali conjunct rendering.
var invisibleReplacer = strings.NewReplacer(
	"\u200b", "",
	"\ufeff", "",
	"\u00a0", " ",
	"\r\n", "\n",
	"\r", "\n",
)

// CleanText prepares a pasted blob for line scanning: NFC composition,
// zero-width space and BOM removal, and LF line endings.
func CleanText(s string) string {
	return norm.NFC.String(invisibleReplacer.Replace(s))
}

// StripBold removes markdown bold and italic markers
func StripBold(s string) string {
	return strings.ReplaceAll(s, "*", "")
}

// Lines cleans s and splits it into lines with bold markers removed
func Lines(s string) []string {
	return strings.Split(StripBold(CleanText(s)), "\n")
}

// IsBengali reports whether r lies in the Bengali Unicode block
func IsBengali(r rune) bool {
	return r >= 0x0980 && r <= 0x09FF
}

// DetectLanguage tags text as Bengali when at least a fifth of its letters are Bengali
func DetectLanguage(text string) question.Language {
	if BengaliRatio(text) >= 0.2 {
		return question.LanguageBengali
	}
	return question.LanguageEnglish
}

// BengaliRatio is the share of letters in text that belong to the Bengali block
func BengaliRatio(text string) float64 {
	var letters, bengali int
	for _, r := range text {
		switch {
		case IsBengali(r):
			letters++
			bengali++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(bengali) / float64(letters)
}
